package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/mrpasztoradam/goadsio/internal/ams"
	"github.com/mrpasztoradam/goadsio/internal/protocol"
)

func TestConnectionState(t *testing.T) {
	conn := &Conn{}
	conn.state.Store(int32(StateConnecting))

	if state := conn.State(); state != StateConnecting {
		t.Errorf("Expected StateConnecting, got %v", state)
	}

	conn.state.Store(int32(StateConnected))
	if state := conn.State(); state != StateConnected {
		t.Errorf("Expected StateConnected, got %v", state)
	}
}

func TestConnectionStateString(t *testing.T) {
	tests := []struct {
		state    ConnectionState
		expected string
	}{
		{StateDisconnected, "disconnected"},
		{StateConnecting, "connecting"},
		{StateConnected, "connected"},
		{StateClosed, "closed"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestCompareAndSwapState(t *testing.T) {
	conn := &Conn{}
	conn.state.Store(int32(StateConnected))

	if !conn.compareAndSwapState(StateConnected, StateDisconnected) {
		t.Error("Expected CAS to succeed")
	}

	// State moved on, so this transition must be rejected.
	if conn.compareAndSwapState(StateConnected, StateClosed) {
		t.Error("Expected CAS to fail")
	}

	if state := conn.State(); state != StateDisconnected {
		t.Errorf("Expected StateDisconnected, got %v", state)
	}
}

func TestWriteAndReadTimeoutClearsPending(t *testing.T) {
	// Server that swallows every request so the waiter gives up first.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()
	go func() {
		for {
			sock, err := listener.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				buf := make([]byte, 4096)
				for {
					if _, err := c.Read(buf); err != nil {
						return
					}
				}
			}(sock)
		}
	}()

	proto := protocol.NewState(
		ams.Addr{NetID: ams.NetID{10, 0, 0, 1, 1, 1}, Port: 32905},
		ams.Addr{NetID: ams.NetID{10, 0, 0, 2, 1, 1}, Port: ams.PortPLCRuntimeTC3},
	)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := Connect(ctx, proto, Config{Address: listener.Addr().String(), Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close()

	reqCtx, reqCancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer reqCancel()
	if _, err := conn.WriteAndRead(reqCtx, 0, proto.ReadStateRequest()); err == nil {
		t.Fatal("Expected the request to time out")
	}

	conn.pendingMu.Lock()
	remaining := len(conn.pending)
	conn.pendingMu.Unlock()
	if remaining != 0 {
		t.Errorf("Expected an empty pending table after the timeout, got %d entries", remaining)
	}
}

func TestErrorTracking(t *testing.T) {
	conn := &Conn{}

	if err := conn.getError(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	conn.setError(ErrConnectionFailed)
	if err := conn.getError(); err != ErrConnectionFailed {
		t.Errorf("Expected %v, got %v", ErrConnectionFailed, err)
	}
}
