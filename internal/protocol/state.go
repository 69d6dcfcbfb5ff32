// Package protocol implements the AMS/ADS protocol state shared by a single
// client connection: request encoding with invocation-id assignment, inbound
// frame decoding with partial-frame buffering, generic command dispatch, and
// bookkeeping for notification handles left over from previous sessions.
package protocol

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/mrpasztoradam/goadsio/internal/ads"
	"github.com/mrpasztoradam/goadsio/internal/ams"
)

// ErrMissingHandler reports that no generic handler is registered for an
// inbound command. Non-fatal: the connection logs it only when no
// invocation-specific handler exists either.
var ErrMissingHandler = errors.New("protocol: no handler registered for command")

// Frame is one decoded inbound (header, item) pair. Item is nil when no
// payload structure is registered for the command; Raw always holds the
// undecoded payload bytes.
type Frame struct {
	Header ams.Header
	Item   ads.Payload
	Raw    []byte
}

// CommandHandler processes one inbound command generically, independent of
// any outstanding request.
type CommandHandler func(header ams.Header, item ads.Payload) error

// UnknownNotification records a pushed handle that matched no local
// subscription, so stale server-side registrations can be pruned.
type UnknownNotification struct {
	Handle uint32
	Port   ams.Port
}

// State is the per-connection protocol state machine that turns payload
// items into wire bytes and raw bytes back into (header, item) pairs. It is
// transport-agnostic: the connection engine owns the socket and feeds it.
type State struct {
	LocalAddr  ams.Addr
	RemoteAddr ams.Addr

	invokeID atomic.Uint32
	decoder  ams.Decoder

	mu            sync.Mutex
	handlers      map[ads.CommandID]CommandHandler
	unknownNotifs map[uint32]ams.Port
}

// NewState creates protocol state for one client connection.
func NewState(local, remote ams.Addr) *State {
	return &State{
		LocalAddr:     local,
		RemoteAddr:    remote,
		handlers:      make(map[ads.CommandID]CommandHandler),
		unknownNotifs: make(map[uint32]ams.Port),
	}
}

// NextInvokeID returns the next invocation id. IDs are assigned
// monotonically per connection and never reused while a request is
// outstanding.
func (s *State) NextInvokeID() uint32 {
	return s.invokeID.Add(1)
}

// commandOf maps a request payload to its command id. Kept as an explicit
// table-like switch so the mapping stays inspectable.
func commandOf(item ads.Payload) (ads.CommandID, error) {
	switch item.(type) {
	case *ads.DeviceInfoRequest:
		return ads.CmdReadDeviceInfo, nil
	case *ads.ReadRequest:
		return ads.CmdRead, nil
	case *ads.WriteRequest:
		return ads.CmdWrite, nil
	case *ads.ReadStateRequest:
		return ads.CmdReadState, nil
	case *ads.WriteControlRequest:
		return ads.CmdWriteControl, nil
	case *ads.AddDeviceNotificationRequest:
		return ads.CmdAddDeviceNotification, nil
	case *ads.DeleteDeviceNotificationRequest:
		return ads.CmdDelDeviceNotification, nil
	case *ads.ReadWriteRequest:
		return ads.CmdReadWrite, nil
	default:
		return ads.CmdInvalid, fmt.Errorf("%w: %T is not a request payload", ads.ErrUnknownVariant, item)
	}
}

// EncodeRequest packs one or more payload items into a single frame
// addressed to the given port, assigns the next invocation id, and returns
// it with the wire bytes. The command id is taken from the first item;
// additional items extend the same payload.
func (s *State) EncodeRequest(port ams.Port, errorCode uint32, items ...ads.Payload) (uint32, []byte, error) {
	if len(items) == 0 {
		return 0, nil, errors.New("protocol: encode request needs at least one item")
	}
	cmd, err := commandOf(items[0])
	if err != nil {
		return 0, nil, err
	}

	var payload []byte
	for _, item := range items {
		b, err := item.MarshalBinary()
		if err != nil {
			return 0, nil, fmt.Errorf("protocol: marshal %T: %w", item, err)
		}
		payload = append(payload, b...)
	}

	if port == 0 {
		port = s.RemoteAddr.Port
	}
	invokeID := s.NextInvokeID()
	packet := &ams.Packet{
		Header: ams.Header{
			Target:    ams.Addr{NetID: s.RemoteAddr.NetID, Port: port},
			Source:    s.LocalAddr,
			CommandID: uint16(cmd),
			Flags:     ams.StateFlagsRequest,
			ErrorCode: errorCode,
			InvokeID:  invokeID,
		},
		Payload: payload,
	}
	bytes, err := packet.MarshalBinary()
	if err != nil {
		return 0, nil, err
	}
	return invokeID, bytes, nil
}

// DecodeReceived consumes raw socket bytes, buffering partial frames across
// calls, and returns every complete (header, item) pair now available in
// arrival order.
func (s *State) DecodeReceived(data []byte) ([]Frame, error) {
	packets, err := s.decoder.Feed(data)
	if err != nil {
		return nil, err
	}

	frames := make([]Frame, 0, len(packets))
	for _, p := range packets {
		frame := Frame{Header: p.Header, Raw: p.Payload}

		dir := ads.Request
		if p.Header.IsResponse() {
			dir = ads.Response
		}
		item, err := ads.DecodePayload(ads.CommandID(p.Header.CommandID), dir, p.Payload)
		if err == nil {
			frame.Item = item
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// RegisterCommandHandler installs the generic handler for a command id.
func (s *State) RegisterCommandHandler(cmd ads.CommandID, handler CommandHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[cmd] = handler
}

// HandleCommand routes one inbound frame to the generic handler registered
// for its command id; ErrMissingHandler when there is none.
func (s *State) HandleCommand(header ams.Header, item ads.Payload) error {
	s.mu.Lock()
	handler := s.handlers[ads.CommandID(header.CommandID)]
	s.mu.Unlock()

	if handler == nil {
		return fmt.Errorf("%w: %s", ErrMissingHandler, ads.CommandID(header.CommandID))
	}
	return handler(header, item)
}

// OnDisconnected resets stream state so a new connection never resumes
// mid-frame.
func (s *State) OnDisconnected() {
	s.decoder.Reset()
}

// RecordUnknownNotification remembers a pushed handle with no local
// subscription, typically left over from a previous session.
func (s *State) RecordUnknownNotification(handle uint32, port ams.Port) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unknownNotifs[handle] = port
}

// ForgetUnknownNotification drops a recorded handle, e.g. once pruned.
func (s *State) ForgetUnknownNotification(handle uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.unknownNotifs, handle)
}

// UnknownNotifications lists the currently-unrecognized notification
// handles.
func (s *State) UnknownNotifications() []UnknownNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]UnknownNotification, 0, len(s.unknownNotifs))
	for handle, port := range s.unknownNotifs {
		out = append(out, UnknownNotification{Handle: handle, Port: port})
	}
	return out
}
