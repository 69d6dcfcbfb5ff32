// Package transport implements the TCP connection engine for AMS/ADS
// communication: a supervised socket with automatic reconnection,
// invocation-id request/response matching, and generic command dispatch via
// the protocol state machine.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mrpasztoradam/goadsio/internal/ads"
	"github.com/mrpasztoradam/goadsio/internal/ams"
	"github.com/mrpasztoradam/goadsio/internal/protocol"
)

var (
	// ErrClosed reports an operation on a connection whose Close was called.
	ErrClosed = errors.New("transport: connection closed")
	// ErrDisconnected reports that the socket dropped while a request was in
	// flight. The supervisor may still reconnect; the request will not be
	// retried.
	ErrDisconnected = errors.New("transport: connection lost")
	// ErrConnectionFailed reports that the initial dial never succeeded.
	ErrConnectionFailed = errors.New("transport: connection failed")
	// ErrTimeout reports that a request exceeded the configured timeout.
	ErrTimeout = errors.New("transport: request timed out")
)

// RequestFailedError reports a response whose ADS result code was non-zero.
// The decoded frame stays attached so callers can inspect the full payload.
type RequestFailedError struct {
	Command ads.CommandID
	Result  ads.Error
	Frame   protocol.Frame
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("transport: %s request failed: %v", e.Command, e.Result)
}

func (e *RequestFailedError) Unwrap() error { return e.Result }

// ConnectionState tracks the supervisor's view of the socket.
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Logger is the structured logging surface the connection engine needs. The
// root package's Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ResponseHandler receives the response frame matched to one invocation id,
// or a terminal error when the connection drops or closes first. It is
// called exactly once.
type ResponseHandler func(frame protocol.Frame, err error)

// Config carries the connection engine settings.
type Config struct {
	// Address is the host:port of the AMS router, usually on port 48898.
	Address string
	// Timeout bounds individual request round-trips and dial attempts.
	Timeout time.Duration
	// ReconnectInterval is the pause between redial attempts after the
	// socket drops. Zero disables reconnection: the first drop is terminal.
	ReconnectInterval time.Duration
	// Logger receives connection lifecycle and dispatch diagnostics.
	Logger Logger
	// OnReconnect runs after every successful redial, not the first connect.
	OnReconnect func()
}

// Conn is a supervised AMS/ADS TCP connection. All methods are safe for
// concurrent use.
type Conn struct {
	cfg   Config
	proto *protocol.State
	log   Logger

	state        atomic.Int32
	reconnectOff atomic.Bool
	lastErr      atomic.Value // error

	writeMu sync.Mutex
	sockMu  sync.Mutex
	sock    net.Conn

	pendingMu sync.Mutex
	pending   map[uint32][]ResponseHandler

	connMu      sync.Mutex
	connectedCh chan struct{} // closed while connected, replaced on drop

	closedCh  chan struct{}
	closeOnce sync.Once
}

// Connect dials the configured address and starts the reconnect supervisor.
// It returns once the first connection is established, or fails when ctx
// expires first. With reconnection disabled a failed first dial is returned
// immediately.
func Connect(ctx context.Context, proto *protocol.State, cfg Config) (*Conn, error) {
	log := cfg.Logger
	if log == nil {
		log = noopLogger{}
	}
	c := &Conn{
		cfg:         cfg,
		proto:       proto,
		log:         log,
		pending:     make(map[uint32][]ResponseHandler),
		connectedCh: make(chan struct{}),
		closedCh:    make(chan struct{}),
	}
	c.state.Store(int32(StateConnecting))
	if cfg.ReconnectInterval == 0 {
		c.reconnectOff.Store(true)
	}

	go c.supervise()

	if err := c.WaitForConnection(ctx); err != nil {
		c.Close()
		if last := c.getError(); last != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, last)
		}
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return c, nil
}

// State returns the supervisor's current view of the socket.
func (c *Conn) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

func (c *Conn) compareAndSwapState(old, new ConnectionState) bool {
	return c.state.CompareAndSwap(int32(old), int32(new))
}

func (c *Conn) setError(err error) {
	if err != nil {
		c.lastErr.Store(err)
	}
}

func (c *Conn) getError() error {
	err, _ := c.lastErr.Load().(error)
	return err
}

// WaitForConnection blocks until the socket is connected, the connection is
// closed, or ctx expires.
func (c *Conn) WaitForConnection(ctx context.Context) error {
	for {
		c.connMu.Lock()
		ch := c.connectedCh
		connected := c.State() == StateConnected
		c.connMu.Unlock()
		if connected {
			return nil
		}
		select {
		case <-ch:
			// state changed, re-check
		case <-c.closedCh:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// supervise owns the socket lifecycle: dial, run the read loop, and on
// failure pause and redial until reconnection is disabled or Close is
// called.
func (c *Conn) supervise() {
	connectedBefore := false
	for {
		select {
		case <-c.closedCh:
			return
		default:
		}

		dialer := &net.Dialer{Timeout: c.cfg.Timeout}
		sock, err := dialer.Dial("tcp", c.cfg.Address)
		if err != nil {
			c.setError(err)
			c.log.Warn("dial failed", "address", c.cfg.Address, "error", err)
			if !c.pause() {
				return
			}
			continue
		}

		c.sockMu.Lock()
		c.sock = sock
		c.sockMu.Unlock()
		c.state.Store(int32(StateConnected))
		c.signalConnected()
		if connectedBefore && c.cfg.OnReconnect != nil {
			c.cfg.OnReconnect()
		}
		connectedBefore = true
		c.log.Info("connected", "address", c.cfg.Address, "local", c.proto.LocalAddr.String())

		err = c.readLoop(sock)
		sock.Close()

		select {
		case <-c.closedCh:
			return
		default:
		}

		c.state.Store(int32(StateDisconnected))
		c.resetConnected()
		c.proto.OnDisconnected()
		c.failPending(ErrDisconnected)
		c.setError(err)
		c.log.Warn("connection lost", "address", c.cfg.Address, "error", err)

		if !c.pause() {
			return
		}
		c.state.Store(int32(StateConnecting))
	}
}

// pause sleeps one reconnect interval; false means reconnection is disabled
// and the supervisor must stop.
func (c *Conn) pause() bool {
	if c.reconnectOff.Load() {
		// Terminal: no redial will happen, so release every waiter.
		c.Close()
		return false
	}
	select {
	case <-time.After(c.cfg.ReconnectInterval):
		return true
	case <-c.closedCh:
		return false
	}
}

func (c *Conn) signalConnected() {
	c.connMu.Lock()
	close(c.connectedCh)
	c.connMu.Unlock()
}

func (c *Conn) resetConnected() {
	c.connMu.Lock()
	c.connectedCh = make(chan struct{})
	c.connMu.Unlock()
}

// readLoop drains the socket and dispatches every complete frame. Returns
// the read error that ended the stream.
func (c *Conn) readLoop(sock net.Conn) error {
	buf := make([]byte, 4096)
	for {
		n, err := sock.Read(buf)
		if n > 0 {
			frames, derr := c.proto.DecodeReceived(buf[:n])
			if derr != nil {
				return derr
			}
			for _, frame := range frames {
				c.dispatch(frame)
			}
		}
		if err != nil {
			return err
		}
	}
}

// dispatch routes one inbound frame: first to the generic command handler,
// then to any handlers waiting on its invocation id. A missing generic
// handler is only worth logging when nothing claimed the invocation either.
func (c *Conn) dispatch(frame protocol.Frame) {
	c.pendingMu.Lock()
	handlers := c.pending[frame.Header.InvokeID]
	delete(c.pending, frame.Header.InvokeID)
	c.pendingMu.Unlock()

	err := c.proto.HandleCommand(frame.Header, frame.Item)
	if err != nil {
		if errors.Is(err, protocol.ErrMissingHandler) {
			if len(handlers) == 0 {
				c.log.Debug("frame had no handler",
					"command", ads.CommandID(frame.Header.CommandID).String(),
					"invoke_id", frame.Header.InvokeID)
			}
		} else {
			c.log.Error("command handler failed",
				"command", ads.CommandID(frame.Header.CommandID).String(),
				"error", err)
		}
	}

	for _, h := range handlers {
		c.invoke(h, frame, nil)
	}
}

// invoke runs one handler with panic isolation so a misbehaving callback
// cannot take down the read loop.
func (c *Conn) invoke(h ResponseHandler, frame protocol.Frame, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("response handler panicked", "panic", r)
		}
	}()
	h(frame, err)
}

// failPending pops every outstanding handler and fails it with err.
func (c *Conn) failPending(err error) {
	c.pendingMu.Lock()
	pending := c.pending
	c.pending = make(map[uint32][]ResponseHandler)
	c.pendingMu.Unlock()

	for _, handlers := range pending {
		for _, h := range handlers {
			c.invoke(h, protocol.Frame{}, err)
		}
	}
}

// Send encodes items into one frame addressed to port, registers handler
// for the response, and writes the frame. The returned invocation id is
// unique among in-flight requests.
func (c *Conn) Send(ctx context.Context, port ams.Port, handler ResponseHandler, items ...ads.Payload) (uint32, error) {
	select {
	case <-c.closedCh:
		return 0, ErrClosed
	default:
	}

	invokeID, wire, err := c.proto.EncodeRequest(port, 0, items...)
	if err != nil {
		return 0, err
	}

	if handler != nil {
		c.pendingMu.Lock()
		c.pending[invokeID] = append(c.pending[invokeID], handler)
		c.pendingMu.Unlock()
	}

	if err := c.write(ctx, wire); err != nil {
		if handler != nil {
			c.pendingMu.Lock()
			delete(c.pending, invokeID)
			c.pendingMu.Unlock()
		}
		return 0, err
	}
	return invokeID, nil
}

// write serializes frame writes on the current socket.
func (c *Conn) write(ctx context.Context, wire []byte) error {
	c.sockMu.Lock()
	sock := c.sock
	c.sockMu.Unlock()
	if sock == nil || c.State() != StateConnected {
		return ErrDisconnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Time{}
	if c.cfg.Timeout > 0 {
		deadline = time.Now().Add(c.cfg.Timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := sock.SetWriteDeadline(deadline); err != nil {
		return err
	}
	if _, err := sock.Write(wire); err != nil {
		return fmt.Errorf("transport: write: %w", err)
	}
	return nil
}

// WriteAndRead sends items and blocks for the matching response. A non-zero
// AMS error code or ADS result code fails with *RequestFailedError carrying
// the decoded frame.
func (c *Conn) WriteAndRead(ctx context.Context, port ams.Port, items ...ads.Payload) (protocol.Frame, error) {
	type result struct {
		frame protocol.Frame
		err   error
	}
	ch := make(chan result, 1)

	invokeID, err := c.Send(ctx, port, func(frame protocol.Frame, err error) {
		ch <- result{frame: frame, err: err}
	}, items...)
	if err != nil {
		return protocol.Frame{}, err
	}

	var timeout <-chan time.Time
	if c.cfg.Timeout > 0 {
		timer := time.NewTimer(c.cfg.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case res := <-ch:
		if res.err != nil {
			return protocol.Frame{}, res.err
		}
		return res.frame, checkResult(res.frame)
	case <-ctx.Done():
		c.deregister(invokeID)
		return protocol.Frame{}, ctx.Err()
	case <-c.closedCh:
		c.deregister(invokeID)
		return protocol.Frame{}, ErrClosed
	case <-timeout:
		c.deregister(invokeID)
		return protocol.Frame{}, fmt.Errorf("%w: %v", ErrTimeout, ads.ErrClientSyncTimeout)
	}
}

// deregister drops the handlers waiting on invokeID, for waiters that gave
// up before a matching frame arrived.
func (c *Conn) deregister(invokeID uint32) {
	c.pendingMu.Lock()
	delete(c.pending, invokeID)
	c.pendingMu.Unlock()
}

// checkResult surfaces transport-level and command-level failures as one
// typed error.
func checkResult(frame protocol.Frame) error {
	cmd := ads.CommandID(frame.Header.CommandID)
	if frame.Header.ErrorCode != 0 {
		return &RequestFailedError{
			Command: cmd,
			Result:  ads.Error(frame.Header.ErrorCode),
			Frame:   frame,
		}
	}
	if frame.Item == nil {
		return nil
	}
	if result, ok := ads.ResultOf(frame.Item); ok && result.IsError() {
		return &RequestFailedError{Command: cmd, Result: result, Frame: frame}
	}
	return nil
}

// DisableReconnect makes the next socket drop terminal without closing the
// current session.
func (c *Conn) DisableReconnect() {
	c.reconnectOff.Store(true)
}

// Close disables reconnection, fails every outstanding waiter, and closes
// the socket. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.reconnectOff.Store(true)
		c.state.Store(int32(StateClosed))
		close(c.closedCh)
		c.failPending(ErrClosed)

		c.sockMu.Lock()
		sock := c.sock
		c.sock = nil
		c.sockMu.Unlock()
		if sock != nil {
			err = sock.Close()
		}
	})
	return err
}
