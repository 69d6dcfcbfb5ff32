// Package goadsio provides a Go client for AMS/ADS communication with
// TwinCAT PLCs over TCP, including symbol access and push notifications.
package goadsio

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/mrpasztoradam/goadsio/internal/ads"
	"github.com/mrpasztoradam/goadsio/internal/ams"
	"github.com/mrpasztoradam/goadsio/internal/protocol"
	"github.com/mrpasztoradam/goadsio/internal/transport"
)

// Client is an ADS client connection to one target device. All methods are
// safe for concurrent use.
type Client struct {
	conn    *transport.Conn
	proto   *protocol.State
	log     Logger
	metrics Metrics
	timeout time.Duration

	notifMu     sync.Mutex
	notifByKey  map[notificationKey]*Notification
	notifByHndl map[uint32]*Notification

	symbolsMu sync.Mutex
	symbols   map[string]*Symbol
}

// Option is a functional option for configuring a Client.
type Option func(*clientConfig) error

type clientConfig struct {
	address           string
	targetNetID       ams.NetID
	targetPort        ams.Port
	sourceNetID       ams.NetID
	sourcePort        ams.Port
	timeout           time.Duration
	reconnectInterval time.Duration
	logger            Logger
	metrics           Metrics
}

// WithTarget sets the target TCP address (required), e.g. "plc-1:48898".
func WithTarget(address string) Option {
	return func(c *clientConfig) error {
		if address == "" {
			return fmt.Errorf("goadsio: target address cannot be empty")
		}
		c.address = address
		return nil
	}
}

// WithAMSNetID sets the target AMS NetID (required), in dotted form like
// "172.21.148.227.1.1".
func WithAMSNetID(netID string) Option {
	return func(c *clientConfig) error {
		parsed, err := ams.ParseNetID(netID)
		if err != nil {
			return err
		}
		c.targetNetID = parsed
		return nil
	}
}

// WithAMSPort sets the target AMS port (optional, defaults to 851).
func WithAMSPort(port Port) Option {
	return func(c *clientConfig) error {
		c.targetPort = port
		return nil
	}
}

// WithSourceNetID sets the source AMS NetID (optional; derived from the
// outbound interface address when unset).
func WithSourceNetID(netID string) Option {
	return func(c *clientConfig) error {
		parsed, err := ams.ParseNetID(netID)
		if err != nil {
			return err
		}
		c.sourceNetID = parsed
		return nil
	}
}

// WithSourcePort sets the source AMS port (optional).
func WithSourcePort(port Port) Option {
	return func(c *clientConfig) error {
		c.sourcePort = port
		return nil
	}
}

// WithTimeout sets the timeout for requests (optional).
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) error {
		if timeout <= 0 {
			return fmt.Errorf("goadsio: timeout must be positive")
		}
		c.timeout = timeout
		return nil
	}
}

// WithReconnectInterval sets the pause between redial attempts after the
// connection drops. Zero disables automatic reconnection.
func WithReconnectInterval(interval time.Duration) Option {
	return func(c *clientConfig) error {
		if interval < 0 {
			return fmt.Errorf("goadsio: reconnect interval cannot be negative")
		}
		c.reconnectInterval = interval
		return nil
	}
}

// New creates a new ADS client with the given options and establishes the
// connection.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		targetPort:        ams.PortPLCRuntimeTC3,
		sourcePort:        32905,
		timeout:           5 * time.Second,
		reconnectInterval: 10 * time.Second,
		logger:            DefaultLogger,
		metrics:           DefaultMetrics,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.address == "" {
		return nil, fmt.Errorf("goadsio: target address is required")
	}
	if cfg.sourceNetID == (ams.NetID{}) {
		cfg.sourceNetID = deriveSourceNetID(cfg.address)
	}

	proto := protocol.NewState(
		ams.Addr{NetID: cfg.sourceNetID, Port: cfg.sourcePort},
		ams.Addr{NetID: cfg.targetNetID, Port: cfg.targetPort},
	)

	client := &Client{
		proto:       proto,
		log:         cfg.logger,
		metrics:     cfg.metrics,
		timeout:     cfg.timeout,
		notifByKey:  make(map[notificationKey]*Notification),
		notifByHndl: make(map[uint32]*Notification),
		symbols:     make(map[string]*Symbol),
	}
	proto.RegisterCommandHandler(ads.CmdDeviceNotification, client.handleNotification)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	cfg.metrics.ConnectionAttempts()
	conn, err := transport.Connect(ctx, proto, transport.Config{
		Address:           cfg.address,
		Timeout:           cfg.timeout,
		ReconnectInterval: cfg.reconnectInterval,
		Logger:            cfg.logger,
		OnReconnect:       cfg.metrics.Reconnections,
	})
	if err != nil {
		cfg.metrics.ConnectionFailures()
		return nil, fmt.Errorf("goadsio: connection failed: %w", err)
	}
	cfg.metrics.ConnectionSuccesses()
	cfg.metrics.ConnectionActive(true)

	client.conn = conn
	return client, nil
}

// deriveSourceNetID builds a client NetID from the outbound interface
// address toward the target, with ".1.1" appended. Falls back to loopback
// when the route cannot be probed.
func deriveSourceNetID(address string) ams.NetID {
	conn, err := net.Dial("udp4", address)
	if err != nil {
		return ams.NetID{127, 0, 0, 1, 1, 1}
	}
	defer conn.Close()
	local, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return ams.NetID{127, 0, 0, 1, 1, 1}
	}
	id, err := ams.NetIDFromIPv4(local.IP, 1, 1)
	if err != nil {
		return ams.NetID{127, 0, 0, 1, 1, 1}
	}
	return id
}

// Close tears down every active notification, releases cached symbol
// handles, clears both caches, and closes the connection. Outstanding
// requests fail with ErrClosed.
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	c.notifMu.Lock()
	notifs := make([]*Notification, 0, len(c.notifByKey))
	for _, n := range c.notifByKey {
		notifs = append(notifs, n)
	}
	c.notifMu.Unlock()
	for _, n := range notifs {
		if err := n.Close(ctx); err != nil {
			c.log.Warn("notification teardown failed", "error", err)
		}
	}

	c.symbolsMu.Lock()
	syms := make([]*Symbol, 0, len(c.symbols))
	for _, s := range c.symbols {
		syms = append(syms, s)
	}
	c.symbols = make(map[string]*Symbol)
	c.symbolsMu.Unlock()
	for _, s := range syms {
		if err := s.Release(ctx); err != nil {
			c.log.Warn("symbol handle release failed", "symbol", s.Name, "error", err)
		}
	}

	c.notifMu.Lock()
	c.notifByKey = make(map[notificationKey]*Notification)
	c.notifByHndl = make(map[uint32]*Notification)
	c.notifMu.Unlock()

	c.metrics.ConnectionActive(false)
	return c.conn.Close()
}

// WaitForConnection blocks until the connection is established, or ctx
// expires. Useful after a drop while the reconnect supervisor is working.
func (c *Client) WaitForConnection(ctx context.Context) error {
	return c.conn.WaitForConnection(ctx)
}

// Connected reports whether the TCP connection is currently up.
func (c *Client) Connected() bool {
	return c.conn.State() == transport.StateConnected
}

// do runs one request round-trip with metrics instrumentation.
func (c *Client) do(ctx context.Context, operation string, port ams.Port, items ...ads.Payload) (protocol.Frame, error) {
	c.metrics.OperationStarted(operation)
	start := time.Now()
	frame, err := c.conn.WriteAndRead(ctx, port, items...)
	c.metrics.OperationCompleted(operation, time.Since(start), err)
	if err != nil {
		if ce := ClassifyError(err, operation); ce != nil {
			c.metrics.ErrorOccurred(ce.Category, operation)
		}
	}
	return frame, err
}

// DeviceInfo reads the device name and version.
func (c *Client) DeviceInfo(ctx context.Context) (*DeviceInfo, error) {
	frame, err := c.do(ctx, "device_info", 0, c.proto.DeviceInfoRequest())
	if err != nil {
		return nil, err
	}
	resp, ok := frame.Item.(*ads.DeviceInfoResponse)
	if !ok {
		return nil, fmt.Errorf("goadsio: unexpected device info response %T", frame.Item)
	}
	return &DeviceInfo{
		Name:         resp.Name,
		MajorVersion: resp.Version,
		MinorVersion: resp.Revision,
		VersionBuild: resp.Build,
	}, nil
}

// ReadState reads the ADS and device state.
func (c *Client) ReadState(ctx context.Context) (*DeviceState, error) {
	frame, err := c.do(ctx, "read_state", 0, c.proto.ReadStateRequest())
	if err != nil {
		return nil, err
	}
	resp, ok := frame.Item.(*ads.ReadStateResponse)
	if !ok {
		return nil, fmt.Errorf("goadsio: unexpected read state response %T", frame.Item)
	}
	return &DeviceState{ADSState: resp.ADSState, DeviceState: resp.DeviceState}, nil
}

// WriteControl changes the ADS state of the device, e.g. to stop, run, or
// reset the PLC. data is optional command-specific payload.
func (c *Client) WriteControl(ctx context.Context, adsState State, deviceState uint16, data []byte) error {
	_, err := c.do(ctx, "write_control", 0, c.proto.WriteControlRequest(adsState, deviceState, data))
	return err
}

// Read reads length bytes from an index group/offset region.
func (c *Client) Read(ctx context.Context, indexGroup, indexOffset, length uint32) ([]byte, error) {
	req := &ads.ReadRequest{IndexGroup: indexGroup, IndexOffset: indexOffset, Length: length}
	frame, err := c.do(ctx, "read", 0, req)
	if err != nil {
		return nil, err
	}
	resp, ok := frame.Item.(*ads.ReadResponse)
	if !ok {
		return nil, fmt.Errorf("goadsio: unexpected read response %T", frame.Item)
	}
	c.metrics.BytesReceived(int64(len(resp.Data)))
	return resp.Data, nil
}

// Write writes data to an index group/offset region.
func (c *Client) Write(ctx context.Context, indexGroup, indexOffset uint32, data []byte) error {
	req := &ads.WriteRequest{
		RequestHeader: ads.RequestHeader{IndexGroup: indexGroup, IndexOffset: indexOffset},
		Data:          data,
	}
	c.metrics.BytesSent(int64(len(data)))
	_, err := c.do(ctx, "write", 0, req)
	return err
}

// ReadWrite writes data and reads up to readLength bytes back in a single
// round-trip.
func (c *Client) ReadWrite(ctx context.Context, indexGroup, indexOffset, readLength uint32, data []byte) ([]byte, error) {
	req := &ads.ReadWriteRequest{
		RequestHeader: ads.RequestHeader{
			IndexGroup:  indexGroup,
			IndexOffset: indexOffset,
			Length:      readLength,
		},
		Data: data,
	}
	c.metrics.BytesSent(int64(len(data)))
	frame, err := c.do(ctx, "read_write", 0, req)
	if err != nil {
		return nil, err
	}
	resp, ok := frame.Item.(*ads.ReadWriteResponse)
	if !ok {
		return nil, fmt.Errorf("goadsio: unexpected read/write response %T", frame.Item)
	}
	c.metrics.BytesReceived(int64(len(resp.Data)))
	return resp.Data, nil
}

// GetSymbolInfoByName queries the full symbol entry for a named symbol.
func (c *Client) GetSymbolInfoByName(ctx context.Context, name string) (*SymbolEntry, error) {
	frame, err := c.do(ctx, "symbol_info", 0, c.proto.SymbolInfoByName(name))
	if err != nil {
		return nil, err
	}
	resp, ok := frame.Item.(*ads.ReadWriteResponse)
	if !ok {
		return nil, fmt.Errorf("goadsio: unexpected symbol info response %T", frame.Item)
	}
	record, err := ads.UpcastByIndexGroup(resp, ads.IndexGroupSymbolInfoByNameEx)
	if err != nil {
		return nil, fmt.Errorf("goadsio: symbol info for %q: %w", name, err)
	}
	entry, ok := record.(*ads.SymbolEntry)
	if !ok {
		return nil, fmt.Errorf("goadsio: unexpected symbol info record %T", record)
	}
	return entry, nil
}

// GetSymbolHandleByName resolves a symbol name to a server-side handle.
// Handles must be returned with ReleaseHandle when no longer needed.
func (c *Client) GetSymbolHandleByName(ctx context.Context, name string) (uint32, error) {
	frame, err := c.do(ctx, "symbol_handle", 0, c.proto.SymbolHandleByName(name))
	if err != nil {
		return 0, fmt.Errorf("goadsio: handle for %q: %w", name, err)
	}
	resp, ok := frame.Item.(*ads.ReadWriteResponse)
	if !ok {
		return 0, fmt.Errorf("goadsio: unexpected handle response %T", frame.Item)
	}
	return resp.Handle()
}

// ReleaseHandle returns a symbol handle to the server.
func (c *Client) ReleaseHandle(ctx context.Context, handle uint32) error {
	_, err := c.do(ctx, "release_handle", 0, c.proto.ReleaseHandle(handle))
	return err
}

// GetValueByHandle reads size bytes of the value behind a symbol handle.
func (c *Client) GetValueByHandle(ctx context.Context, handle uint32, size uint32) ([]byte, error) {
	frame, err := c.do(ctx, "value_by_handle", 0, c.proto.ValueByHandle(handle, size))
	if err != nil {
		return nil, err
	}
	resp, ok := frame.Item.(*ads.ReadResponse)
	if !ok {
		return nil, fmt.Errorf("goadsio: unexpected value response %T", frame.Item)
	}
	return resp.Data, nil
}

// WriteValueByHandle writes the value behind a symbol handle.
func (c *Client) WriteValueByHandle(ctx context.Context, handle uint32, data []byte) error {
	c.metrics.BytesSent(int64(len(data)))
	_, err := c.do(ctx, "write_by_handle", 0, c.proto.WriteValueByHandle(handle, data))
	return err
}

// NotificationByIndex returns the notification for a monitored index
// group/offset region, creating it on first use. No server traffic happens
// until the first callback is added. Requests for the same region return
// the same instance, so late joiners share the cached sample.
func (c *Client) NotificationByIndex(settings NotificationSettings) *Notification {
	key := notificationKey{
		group:  settings.IndexGroup,
		offset: settings.IndexOffset,
		length: settings.Length,
		port:   settings.Port,
	}
	c.notifMu.Lock()
	defer c.notifMu.Unlock()
	if n, ok := c.notifByKey[key]; ok {
		return n
	}
	n := newNotification(c, settings)
	c.notifByKey[key] = n
	return n
}

// AddNotificationByIndex subscribes cb to a monitored region and returns
// the notification with the callback id for later removal.
func (c *Client) AddNotificationByIndex(ctx context.Context, settings NotificationSettings, cb NotificationCallback) (*Notification, uint64, error) {
	n := c.NotificationByIndex(settings)
	id, err := n.AddCallback(ctx, cb)
	if err != nil {
		return nil, 0, err
	}
	return n, id, nil
}

// logSystemSettings is the monitored region the TwinCAT logger pushes its
// messages through.
var logSystemSettings = NotificationSettings{
	IndexGroup:  1,
	IndexOffset: 0xFFFF,
	Length:      255,
	Port:        ams.PortLogger,
}

// EnableLogSystem subscribes to the TwinCAT log system and decodes each
// pushed record into a LogMessage for cb. Close the returned notification
// to stop.
func (c *Client) EnableLogSystem(ctx context.Context, cb func(LogMessage)) (*Notification, error) {
	n := c.NotificationByIndex(logSystemSettings)
	_, err := n.AddCallback(ctx, func(sample Sample) {
		var msg ads.LogMessage
		if err := msg.UnmarshalBinary(sample.Data); err != nil {
			c.log.Warn("undecodable log system message", "error", err)
			return
		}
		cb(msg)
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

// PruneUnknownNotifications deletes server-side subscriptions whose pushed
// handles matched nothing here, typically left over from a previous
// session. Returns the number of pruned handles.
func (c *Client) PruneUnknownNotifications(ctx context.Context) (int, error) {
	pruned := 0
	for _, unknown := range c.proto.UnknownNotifications() {
		_, err := c.do(ctx, "prune_notification", unknown.Port, c.proto.RemoveNotification(unknown.Handle))
		if err != nil {
			return pruned, fmt.Errorf("goadsio: prune handle %d: %w", unknown.Handle, err)
		}
		c.proto.ForgetUnknownNotification(unknown.Handle)
		c.log.Info("pruned stale notification", "handle", unknown.Handle, "port", unknown.Port.String())
		pruned++
	}
	return pruned, nil
}

func (c *Client) registerNotification(handle uint32, n *Notification) {
	c.notifMu.Lock()
	defer c.notifMu.Unlock()
	c.notifByHndl[handle] = n
	c.metrics.SubscriptionsActive(len(c.notifByHndl))
}

func (c *Client) unregisterNotification(handle uint32) {
	c.notifMu.Lock()
	defer c.notifMu.Unlock()
	delete(c.notifByHndl, handle)
	c.metrics.SubscriptionsActive(len(c.notifByHndl))
}

// handleNotification fans pushed samples out to their notifications.
// Samples with no matching handle are recorded for later pruning.
func (c *Client) handleNotification(header ams.Header, item ads.Payload) error {
	push, ok := item.(*ads.DeviceNotificationRequest)
	if !ok {
		return fmt.Errorf("goadsio: unexpected notification payload %T", item)
	}
	for _, stamp := range push.Stamps {
		ts := stamp.Time()
		for _, sample := range stamp.Samples {
			c.metrics.NotificationReceived()
			c.notifMu.Lock()
			n := c.notifByHndl[sample.Handle]
			c.notifMu.Unlock()
			if n == nil {
				c.proto.RecordUnknownNotification(sample.Handle, header.Source.Port)
				c.log.Debug("notification for unknown handle",
					"handle", sample.Handle, "source", header.Source.String())
				continue
			}
			n.deliver(Sample{Handle: sample.Handle, Timestamp: ts, Data: sample.Data})
		}
	}
	return nil
}
