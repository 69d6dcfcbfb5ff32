package transport_test

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"context"

	"github.com/mrpasztoradam/goadsio/internal/ads"
	"github.com/mrpasztoradam/goadsio/internal/ams"
	"github.com/mrpasztoradam/goadsio/internal/protocol"
	"github.com/mrpasztoradam/goadsio/internal/transport"
)

// fakeServer is a minimal AMS peer for exercising the connection engine
// without a PLC. Its handler maps one inbound packet to at most one reply.
type fakeServer struct {
	listener net.Listener
	handle   func(*ams.Packet) *ams.Packet

	mu    sync.Mutex
	conns []net.Conn
}

func newFakeServer(t *testing.T, handle func(*ams.Packet) *ams.Packet) *fakeServer {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeServer{listener: listener, handle: handle}
	go s.acceptLoop()
	t.Cleanup(s.stop)
	return s
}

func (s *fakeServer) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		go s.serve(conn)
	}
}

func (s *fakeServer) serve(conn net.Conn) {
	var decoder ams.Decoder
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		packets, err := decoder.Feed(buf[:n])
		if err != nil {
			return
		}
		for _, p := range packets {
			if s.handle == nil {
				continue
			}
			if resp := s.handle(p); resp != nil {
				wire, err := resp.MarshalBinary()
				if err != nil {
					return
				}
				if _, err := conn.Write(wire); err != nil {
					return
				}
			}
		}
	}
}

func (s *fakeServer) addr() string { return s.listener.Addr().String() }

func (s *fakeServer) stop() {
	s.listener.Close()
	s.mu.Lock()
	for _, c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
}

// respond builds a response packet mirroring the request's routing and
// invocation id.
func respond(req *ams.Packet, payload ads.Payload) *ams.Packet {
	body, _ := payload.MarshalBinary()
	return &ams.Packet{
		Header: ams.Header{
			Target:    req.Header.Source,
			Source:    req.Header.Target,
			CommandID: req.Header.CommandID,
			Flags:     ams.StateFlagsResponse,
			InvokeID:  req.Header.InvokeID,
		},
		Payload: body,
	}
}

func testState() *protocol.State {
	local := ams.Addr{NetID: ams.NetID{10, 0, 0, 1, 1, 1}, Port: 32905}
	remote := ams.Addr{NetID: ams.NetID{10, 0, 0, 2, 1, 1}, Port: ams.PortPLCRuntimeTC3}
	return protocol.NewState(local, remote)
}

func dialFake(t *testing.T, s *fakeServer, proto *protocol.State) *transport.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := transport.Connect(ctx, proto, transport.Config{
		Address: s.addr(),
		Timeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWriteAndReadDeviceInfo(t *testing.T) {
	server := newFakeServer(t, func(req *ams.Packet) *ams.Packet {
		if ads.CommandID(req.Header.CommandID) != ads.CmdReadDeviceInfo {
			return nil
		}
		return respond(req, &ads.DeviceInfoResponse{
			Version:  3,
			Revision: 1,
			Build:    4024,
			Name:     "Plc30 App",
		})
	})

	proto := testState()
	conn := dialFake(t, server, proto)

	frame, err := conn.WriteAndRead(context.Background(), 0, proto.DeviceInfoRequest())
	if err != nil {
		t.Fatalf("WriteAndRead: %v", err)
	}
	info, ok := frame.Item.(*ads.DeviceInfoResponse)
	if !ok {
		t.Fatalf("expected *ads.DeviceInfoResponse, got %T", frame.Item)
	}
	if info.Name != "Plc30 App" {
		t.Errorf("expected device name %q, got %q", "Plc30 App", info.Name)
	}
	if info.Version != 3 || info.Build != 4024 {
		t.Errorf("unexpected version info: %+v", info)
	}
}

func TestInvokeIDsAreUnique(t *testing.T) {
	server := newFakeServer(t, func(req *ams.Packet) *ams.Packet {
		return respond(req, &ads.ReadStateResponse{ADSState: ads.StateRun})
	})

	proto := testState()
	conn := dialFake(t, server, proto)

	const workers = 8
	const perWorker = 25

	var mu sync.Mutex
	seen := make(map[uint32]int)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id, err := conn.Send(context.Background(), 0, nil, proto.ReadStateRequest())
				if err != nil {
					t.Errorf("Send: %v", err)
					return
				}
				mu.Lock()
				seen[id]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("expected %d distinct invoke ids, got %d", workers*perWorker, len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("invoke id %d assigned %d times", id, count)
		}
	}
}

func TestWriteAndReadRequestFailed(t *testing.T) {
	server := newFakeServer(t, func(req *ams.Packet) *ams.Packet {
		return respond(req, &ads.ReadWriteResponse{Result: ads.ErrDeviceSymbolNotFound})
	})

	proto := testState()
	conn := dialFake(t, server, proto)

	_, err := conn.WriteAndRead(context.Background(), 0, proto.SymbolHandleByName("MAIN.missing"))
	if err == nil {
		t.Fatal("expected error for non-zero result code")
	}

	var reqErr *transport.RequestFailedError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestFailedError, got %T: %v", err, err)
	}
	if reqErr.Result != ads.ErrDeviceSymbolNotFound {
		t.Errorf("expected symbol-not-found result, got %v", reqErr.Result)
	}
	if !errors.Is(err, ads.ErrDeviceSymbolNotFound) {
		t.Error("expected errors.Is to match the ADS result code")
	}
	if reqErr.Frame.Item == nil {
		t.Error("expected the decoded frame to stay attached to the error")
	}
}

func TestCloseUnblocksWaiters(t *testing.T) {
	// Server that never replies, leaving every request in flight.
	server := newFakeServer(t, nil)

	proto := testState()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := transport.Connect(ctx, proto, transport.Config{
		Address: server.addr(),
		Timeout: 30 * time.Second,
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	const waiters = 4
	errCh := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			_, err := conn.WriteAndRead(context.Background(), 0, proto.ReadStateRequest())
			errCh <- err
		}()
	}

	// Let the requests get on the wire before tearing down.
	time.Sleep(100 * time.Millisecond)
	if err := conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	for i := 0; i < waiters; i++ {
		select {
		case err := <-errCh:
			if !errors.Is(err, transport.ErrClosed) {
				t.Errorf("expected ErrClosed, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("waiter still blocked after Close")
		}
	}

	if state := conn.State(); state != transport.StateClosed {
		t.Errorf("expected StateClosed after Close, got %v", state)
	}
}

func TestSendAfterCloseFails(t *testing.T) {
	server := newFakeServer(t, nil)
	proto := testState()
	conn := dialFake(t, server, proto)
	conn.Close()

	if _, err := conn.Send(context.Background(), 0, nil, proto.ReadStateRequest()); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestConnectFailureWithoutReconnect(t *testing.T) {
	// Grab a port and close it again so the dial is refused.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err = transport.Connect(ctx, testState(), transport.Config{
		Address: addr,
		Timeout: 500 * time.Millisecond,
	})
	if !errors.Is(err, transport.ErrConnectionFailed) {
		t.Errorf("expected ErrConnectionFailed, got %v", err)
	}
}

func TestCommandHandlerRunsBeforeResponseWaiter(t *testing.T) {
	server := newFakeServer(t, func(req *ams.Packet) *ams.Packet {
		return respond(req, &ads.ReadStateResponse{ADSState: ads.StateRun})
	})

	proto := testState()
	var mu sync.Mutex
	var order []string
	proto.RegisterCommandHandler(ads.CmdReadState, func(ams.Header, ads.Payload) error {
		mu.Lock()
		order = append(order, "command")
		mu.Unlock()
		return nil
	})

	conn := dialFake(t, server, proto)

	done := make(chan struct{})
	_, err := conn.Send(context.Background(), 0, func(protocol.Frame, error) {
		mu.Lock()
		order = append(order, "response")
		mu.Unlock()
		close(done)
	}, proto.ReadStateRequest())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("response handler never ran")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "command" || order[1] != "response" {
		t.Errorf("expected the command handler to run first, got %v", order)
	}
}

func TestReconnectAfterDrop(t *testing.T) {
	server := newFakeServer(t, func(req *ams.Packet) *ams.Packet {
		return respond(req, &ads.ReadStateResponse{ADSState: ads.StateRun})
	})

	proto := testState()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := transport.Connect(ctx, proto, transport.Config{
		Address:           server.addr(),
		Timeout:           2 * time.Second,
		ReconnectInterval: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close()

	// Drop the server side; the supervisor should redial on its own.
	server.mu.Lock()
	for _, c := range server.conns {
		c.Close()
	}
	server.conns = nil
	server.mu.Unlock()

	// The drop takes a moment to surface, so poll the request until the
	// supervisor has redialed.
	deadline := time.Now().Add(3 * time.Second)
	for {
		frame, err := conn.WriteAndRead(context.Background(), 0, proto.ReadStateRequest())
		if err == nil {
			if _, ok := frame.Item.(*ads.ReadStateResponse); !ok {
				t.Errorf("expected *ads.ReadStateResponse, got %T", frame.Item)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("connection never recovered: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestOnReconnectHookFires(t *testing.T) {
	server := newFakeServer(t, func(req *ams.Packet) *ams.Packet {
		return respond(req, &ads.ReadStateResponse{ADSState: ads.StateRun})
	})

	proto := testState()
	reconnected := make(chan struct{}, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := transport.Connect(ctx, proto, transport.Config{
		Address:           server.addr(),
		Timeout:           2 * time.Second,
		ReconnectInterval: 50 * time.Millisecond,
		OnReconnect: func() {
			select {
			case reconnected <- struct{}{}:
			default:
			}
		},
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close()

	select {
	case <-reconnected:
		t.Fatal("hook must not fire for the first connect")
	default:
	}

	server.mu.Lock()
	for _, c := range server.conns {
		c.Close()
	}
	server.conns = nil
	server.mu.Unlock()

	select {
	case <-reconnected:
	case <-time.After(3 * time.Second):
		t.Fatal("hook never fired after the redial")
	}
}
