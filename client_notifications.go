package goadsio

import (
	"context"
)

// Symbol-level notification conveniences on top of the index-based engine.

// WatchSymbol subscribes cb to pushed value changes of a named symbol. The
// symbol is resolved and initialized on first use; the returned
// notification and callback id allow later detachment via RemoveCallback.
func (c *Client) WatchSymbol(ctx context.Context, symbolName string, cb NotificationCallback) (*Notification, uint64, error) {
	notif, err := c.SymbolByName(symbolName).Notification(ctx)
	if err != nil {
		return nil, 0, err
	}
	id, err := notif.AddCallback(ctx, cb)
	if err != nil {
		return nil, 0, err
	}
	return notif, id, nil
}

// StreamSymbol adapts WatchSymbol to a channel. The subscription reference
// is released and the channel closed when ctx is canceled.
func (c *Client) StreamSymbol(ctx context.Context, symbolName string) (<-chan Sample, error) {
	notif, err := c.SymbolByName(symbolName).Notification(ctx)
	if err != nil {
		return nil, err
	}
	return notif.Stream(ctx)
}
