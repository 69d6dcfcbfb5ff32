package goadsio

import (
	"context"
	"fmt"
	"time"

	"sync"

	"github.com/mrpasztoradam/goadsio/internal/ads"
	"github.com/mrpasztoradam/goadsio/internal/ams"
)

// Sample is one pushed notification value with its server-side capture
// timestamp.
type Sample struct {
	Handle    uint32
	Timestamp time.Time
	Data      []byte
}

// NotificationCallback receives pushed samples in arrival order. Callbacks
// for one notification run sequentially on a dedicated goroutine; blocking
// in a callback delays later samples for that notification only.
type NotificationCallback func(sample Sample)

// NotificationSettings describes the monitored region and sampling
// behavior of one notification.
type NotificationSettings struct {
	IndexGroup  uint32
	IndexOffset uint32
	Length      uint32
	Mode        TransmissionMode
	// MaxDelay bounds how long the server may hold a captured sample
	// before pushing it. Zero selects the 1 ms default.
	MaxDelay time.Duration
	// CycleTime is the server sampling interval. Zero selects the 100 ms
	// default.
	CycleTime time.Duration
	// Port addresses a specific AMS service; zero uses the client target.
	Port Port
}

const (
	defaultNotificationMaxDelay  = 1 * time.Millisecond
	defaultNotificationCycleTime = 100 * time.Millisecond
)

// Notification is a reference-counted subscription to one monitored
// region. The first callback added registers a single subscription with the
// server; the last one removed tears it down. The most recent sample stays
// cached so late-joining callbacks see the current value immediately.
type Notification struct {
	client   *Client
	settings NotificationSettings

	mu          sync.Mutex
	handle      *uint32
	subscribing bool
	callbacks   map[uint64]NotificationCallback
	nextID      uint64
	last        *Sample
	dispatch    *dispatcher
}

func newNotification(client *Client, settings NotificationSettings) *Notification {
	if settings.MaxDelay == 0 {
		settings.MaxDelay = defaultNotificationMaxDelay
	}
	if settings.CycleTime == 0 {
		settings.CycleTime = defaultNotificationCycleTime
	}
	if settings.Mode == 0 {
		settings.Mode = TransServerCycle
	}
	return &Notification{
		client:    client,
		settings:  settings,
		callbacks: make(map[uint64]NotificationCallback),
		dispatch:  newDispatcher(client.log),
	}
}

// Settings returns the settings this notification was created with.
func (n *Notification) Settings() NotificationSettings {
	return n.settings
}

// Handle returns the server-assigned notification handle. ok is false
// whenever no server subscription is active, which holds exactly while the
// callback set is empty.
func (n *Notification) Handle() (uint32, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.handle == nil {
		return 0, false
	}
	return *n.handle, true
}

// AddCallback registers cb and returns its id for later removal. Adding the
// first callback performs the server subscription; if that fails the
// callback is discarded again. When a cached sample exists it is delivered
// to the new callback before any newer data.
func (n *Notification) AddCallback(ctx context.Context, cb NotificationCallback) (uint64, error) {
	n.mu.Lock()
	if n.dispatch.closed() {
		n.dispatch = newDispatcher(n.client.log)
	}
	id := n.nextID
	n.nextID++
	n.callbacks[id] = cb
	needSubscribe := n.handle == nil && !n.subscribing
	if needSubscribe {
		n.subscribing = true
	}
	if cached := n.last; cached != nil {
		sample := *cached
		n.dispatch.enqueue(func() { cb(sample) })
	}
	n.mu.Unlock()

	if !needSubscribe {
		return id, nil
	}

	retried := false
	for {
		handle, err := n.subscribe(ctx)

		n.mu.Lock()
		if err == nil {
			n.subscribing = false
			if len(n.callbacks) == 0 {
				// Close or removals raced the confirmation; the fresh
				// server registration is already unwanted.
				n.mu.Unlock()
				if uerr := n.unsubscribe(ctx, handle); uerr != nil {
					n.client.log.Warn("orphaned subscription teardown failed", "error", uerr)
				}
				return 0, fmt.Errorf("goadsio: notification closed during subscribe")
			}
			n.handle = &handle
			n.client.registerNotification(handle, n)
			n.mu.Unlock()
			return id, nil
		}

		// The subscribe failed. The server state and the callback set must
		// agree: either a retry establishes the subscription for callbacks
		// that joined during the round-trip, or the whole set is emptied.
		others := len(n.callbacks)
		if _, ok := n.callbacks[id]; ok {
			others--
		}
		if others == 0 {
			delete(n.callbacks, id)
			n.subscribing = false
			n.mu.Unlock()
			return 0, err
		}
		if retried || ctx.Err() != nil {
			n.callbacks = make(map[uint64]NotificationCallback)
			n.subscribing = false
			n.mu.Unlock()
			n.client.log.Warn("subscribe retry failed, dropping joined callbacks", "error", err)
			return 0, err
		}
		retried = true
		n.mu.Unlock()
	}
}

// RemoveCallback drops the callback registered under id. Removing the last
// callback tears down the server subscription and clears the cached sample.
func (n *Notification) RemoveCallback(ctx context.Context, id uint64) error {
	n.mu.Lock()
	if _, ok := n.callbacks[id]; !ok {
		n.mu.Unlock()
		return nil
	}
	delete(n.callbacks, id)
	if len(n.callbacks) > 0 || n.handle == nil {
		n.mu.Unlock()
		return nil
	}
	handle := *n.handle
	n.handle = nil
	n.last = nil
	n.mu.Unlock()

	n.client.unregisterNotification(handle)
	return n.unsubscribe(ctx, handle)
}

// Stream adapts the callback interface to a channel. The subscription
// reference is released and the channel closed when ctx is canceled.
// Samples arriving faster than the reader drains them are dropped.
func (n *Notification) Stream(ctx context.Context) (<-chan Sample, error) {
	ch := make(chan Sample, dispatchQueueDepth)
	id, err := n.AddCallback(ctx, func(s Sample) {
		select {
		case ch <- s:
		default:
			n.client.metrics.NotificationDropped()
		}
	})
	if err != nil {
		return nil, err
	}

	go func() {
		<-ctx.Done()
		detachCtx, cancel := context.WithTimeout(context.Background(), n.client.timeout)
		defer cancel()
		if err := n.RemoveCallback(detachCtx, id); err != nil {
			n.client.log.Warn("stream detach failed", "error", err)
		}
		close(ch)
	}()
	return ch, nil
}

// Close removes every callback and tears down the server subscription.
// The notification stays usable afterwards; a later AddCallback subscribes
// again.
func (n *Notification) Close(ctx context.Context) error {
	n.mu.Lock()
	n.callbacks = make(map[uint64]NotificationCallback)
	var handle *uint32
	if n.handle != nil {
		h := *n.handle
		handle = &h
		n.handle = nil
	}
	n.last = nil
	n.mu.Unlock()

	n.dispatch.close()
	if handle == nil {
		return nil
	}
	n.client.unregisterNotification(*handle)
	return n.unsubscribe(ctx, *handle)
}

func (n *Notification) subscribe(ctx context.Context) (uint32, error) {
	req := n.client.proto.AddNotificationByIndex(
		n.settings.IndexGroup,
		n.settings.IndexOffset,
		n.settings.Length,
		n.settings.Mode,
		uint32(n.settings.MaxDelay/time.Millisecond),
		uint32(n.settings.CycleTime/time.Millisecond),
	)
	frame, err := n.client.conn.WriteAndRead(ctx, n.settings.Port, req)
	if err != nil {
		return 0, fmt.Errorf("goadsio: subscribe 0x%04X:0x%04X: %w",
			n.settings.IndexGroup, n.settings.IndexOffset, err)
	}
	resp, ok := frame.Item.(*ads.AddDeviceNotificationResponse)
	if !ok {
		return 0, fmt.Errorf("goadsio: unexpected subscribe response %T", frame.Item)
	}
	n.client.log.Debug("notification added",
		"handle", resp.Handle,
		"index_group", fmt.Sprintf("0x%04X", n.settings.IndexGroup),
		"index_offset", fmt.Sprintf("0x%04X", n.settings.IndexOffset))
	return resp.Handle, nil
}

func (n *Notification) unsubscribe(ctx context.Context, handle uint32) error {
	req := n.client.proto.RemoveNotification(handle)
	if _, err := n.client.conn.WriteAndRead(ctx, n.settings.Port, req); err != nil {
		return fmt.Errorf("goadsio: unsubscribe handle %d: %w", handle, err)
	}
	n.client.log.Debug("notification removed", "handle", handle)
	return nil
}

// deliver caches the sample and fans it out to the current callback set in
// FIFO order.
func (n *Notification) deliver(sample Sample) {
	n.mu.Lock()
	n.last = &sample
	cbs := make([]NotificationCallback, 0, len(n.callbacks))
	for _, cb := range n.callbacks {
		cbs = append(cbs, cb)
	}
	dispatch := n.dispatch
	n.mu.Unlock()

	if len(cbs) == 0 {
		return
	}
	if !dispatch.enqueue(func() {
		for _, cb := range cbs {
			cb(sample)
		}
	}) {
		n.client.metrics.NotificationDropped()
	}
}

// notificationKey identifies one monitored region for deduplication within
// a client.
type notificationKey struct {
	group  uint32
	offset uint32
	length uint32
	port   ams.Port
}
