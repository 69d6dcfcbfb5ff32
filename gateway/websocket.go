package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mrpasztoradam/goadsio"
)

// WebSocketMessage represents messages exchanged over WebSocket
type WebSocketMessage struct {
	Type        string                 `json:"type"` // "subscribe", "unsubscribe", "data", "error"
	RequestID   string                 `json:"request_id,omitempty"`
	Symbols     []string               `json:"symbols,omitempty"`
	CycleTimeMs int                    `json:"cycle_time_ms,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

// wsConn wraps a websocket connection with a write lock. Notification
// callbacks fire from the dispatch goroutine while the ping ticker and
// read loop also write, and gorilla/websocket allows only one
// concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// symbolWatch ties one subscribed symbol to its notification callback
type symbolWatch struct {
	symbol     string
	notif      *goadsio.Notification
	callbackID uint64
}

// Subscription represents an active WebSocket subscription. Updates are
// pushed by the device, not polled.
type Subscription struct {
	ID      string
	conn    *wsConn
	watches []symbolWatch
}

// SubscriptionManager manages WebSocket subscriptions
type SubscriptionManager struct {
	client        *goadsio.Client
	log           goadsio.Logger
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	maxSubs       int
}

// NewSubscriptionManager creates a new subscription manager
func NewSubscriptionManager(client *goadsio.Client, maxSubscriptions int, log goadsio.Logger) *SubscriptionManager {
	return &SubscriptionManager{
		client:        client,
		log:           log,
		subscriptions: make(map[string]*Subscription),
		maxSubs:       maxSubscriptions,
	}
}

// Subscribe registers device notifications for the given symbols and
// streams every update to the WebSocket connection.
func (sm *SubscriptionManager) Subscribe(ctx context.Context, conn *wsConn, requestID string, symbolNames []string, cycleTime time.Duration) error {
	sm.mu.Lock()
	if len(sm.subscriptions) >= sm.maxSubs {
		sm.mu.Unlock()
		return NewSubscriptionLimitError(sm.maxSubs)
	}
	if _, exists := sm.subscriptions[requestID]; exists {
		sm.mu.Unlock()
		return NewInvalidRequestError("subscription ID already exists")
	}
	sub := &Subscription{ID: requestID, conn: conn}
	sm.subscriptions[requestID] = sub
	sm.mu.Unlock()

	for _, symbolName := range symbolNames {
		watch, err := sm.watchSymbol(ctx, sub, symbolName, cycleTime)
		if err != nil {
			sm.teardown(sub)
			sm.mu.Lock()
			delete(sm.subscriptions, requestID)
			sm.mu.Unlock()
			return err
		}
		sub.watches = append(sub.watches, watch)
	}

	return nil
}

func (sm *SubscriptionManager) watchSymbol(ctx context.Context, sub *Subscription, symbolName string, cycleTime time.Duration) (symbolWatch, error) {
	sym := sm.client.SymbolByName(symbolName)
	info, err := sym.Info(ctx)
	if err != nil {
		return symbolWatch{}, err
	}

	settings := goadsio.NotificationSettings{
		IndexGroup:  info.IndexGroup,
		IndexOffset: info.IndexOffset,
		Length:      info.Size,
		Mode:        goadsio.TransServerCycle,
		CycleTime:   cycleTime,
	}
	dataType := info.DataType

	notif := sm.client.NotificationByIndex(settings)
	id, err := notif.AddCallback(ctx, func(sample goadsio.Sample) {
		value, err := decodeValue(dataType, sample.Data)
		if err != nil {
			sm.log.Warn("notification decode failed", "symbol", symbolName, "error", err)
			return
		}
		msg := WebSocketMessage{
			Type:      "data",
			RequestID: sub.ID,
			Data:      map[string]interface{}{symbolName: value},
			Timestamp: sample.Timestamp,
		}
		if err := sub.conn.writeJSON(msg); err != nil {
			sm.log.Debug("websocket write failed", "subscription", sub.ID, "error", err)
		}
	})
	if err != nil {
		return symbolWatch{}, err
	}

	return symbolWatch{symbol: symbolName, notif: notif, callbackID: id}, nil
}

// teardown removes every notification callback held by a subscription
func (sm *SubscriptionManager) teardown(sub *Subscription) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, w := range sub.watches {
		if err := w.notif.RemoveCallback(ctx, w.callbackID); err != nil {
			sm.log.Warn("callback removal failed", "symbol", w.symbol, "error", err)
		}
	}
	sub.watches = nil
}

// Unsubscribe removes a subscription
func (sm *SubscriptionManager) Unsubscribe(requestID string) error {
	sm.mu.Lock()
	sub, exists := sm.subscriptions[requestID]
	if exists {
		delete(sm.subscriptions, requestID)
	}
	sm.mu.Unlock()

	if !exists {
		return NewInvalidRequestError("subscription not found")
	}

	sm.teardown(sub)
	return nil
}

// UnsubscribeAll removes all subscriptions held by a connection
func (sm *SubscriptionManager) UnsubscribeAll(conn *wsConn) {
	sm.mu.Lock()
	var dropped []*Subscription
	for id, sub := range sm.subscriptions {
		if sub.conn == conn {
			dropped = append(dropped, sub)
			delete(sm.subscriptions, id)
		}
	}
	sm.mu.Unlock()

	for _, sub := range dropped {
		sm.teardown(sub)
	}
}

// Count returns the number of active subscriptions
func (sm *SubscriptionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscriptions)
}

// HandleWebSocket drives one WebSocket session: keepalive pings, the
// subscribe/unsubscribe message loop, and cleanup on close.
func (g *Gateway) HandleWebSocket(raw *websocket.Conn) {
	conn := &wsConn{conn: raw}
	defer raw.Close()

	raw.SetPongHandler(func(string) error {
		raw.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	go func() {
		for range pingTicker.C {
			if err := conn.ping(); err != nil {
				return
			}
		}
	}()

	for {
		var msg WebSocketMessage
		if err := raw.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				g.log.Debug("websocket closed", "error", err)
			}
			break
		}

		switch msg.Type {
		case "subscribe":
			if len(msg.Symbols) == 0 {
				g.sendWebSocketError(conn, msg.RequestID, "no symbols specified")
				continue
			}

			cycleTime := time.Duration(msg.CycleTimeMs) * time.Millisecond

			ctx, cancel := context.WithTimeout(context.Background(), g.config.Timeout())
			err := g.subs.Subscribe(ctx, conn, msg.RequestID, msg.Symbols, cycleTime)
			cancel()
			if err != nil {
				g.sendWebSocketError(conn, msg.RequestID, err.Error())
			} else {
				conn.writeJSON(WebSocketMessage{
					Type:      "subscribed",
					RequestID: msg.RequestID,
					Symbols:   msg.Symbols,
					Timestamp: time.Now(),
				})
			}

		case "unsubscribe":
			if err := g.subs.Unsubscribe(msg.RequestID); err != nil {
				g.sendWebSocketError(conn, msg.RequestID, err.Error())
			} else {
				conn.writeJSON(WebSocketMessage{
					Type:      "unsubscribed",
					RequestID: msg.RequestID,
					Timestamp: time.Now(),
				})
			}

		default:
			g.sendWebSocketError(conn, msg.RequestID, "unknown message type")
		}
	}

	g.subs.UnsubscribeAll(conn)
}

// sendWebSocketError sends an error message over the connection
func (g *Gateway) sendWebSocketError(conn *wsConn, requestID, message string) {
	conn.writeJSON(WebSocketMessage{
		Type:      "error",
		RequestID: requestID,
		Error:     message,
		Timestamp: time.Now(),
	})
}
