package ads

import "fmt"

// Direction distinguishes request payloads from response payloads for one
// command id.
type Direction int

const (
	Request Direction = iota
	Response
)

func (d Direction) String() string {
	if d == Request {
		return "request"
	}
	return "response"
}

type registryKey struct {
	Command   CommandID
	Direction Direction
}

// commandRegistry is the process-wide table mapping (command id, direction)
// to its concrete payload structure. It is populated exactly once here, as
// plain data, so the mapping is inspectable and testable in isolation.
var commandRegistry = map[registryKey]func() Payload{
	{CmdReadDeviceInfo, Request}:         func() Payload { return &DeviceInfoRequest{} },
	{CmdReadDeviceInfo, Response}:        func() Payload { return &DeviceInfoResponse{} },
	{CmdRead, Request}:                   func() Payload { return &ReadRequest{} },
	{CmdRead, Response}:                  func() Payload { return &ReadResponse{} },
	{CmdWrite, Request}:                  func() Payload { return &WriteRequest{} },
	{CmdWrite, Response}:                 func() Payload { return &WriteResponse{} },
	{CmdReadState, Request}:              func() Payload { return &ReadStateRequest{} },
	{CmdReadState, Response}:             func() Payload { return &ReadStateResponse{} },
	{CmdWriteControl, Request}:           func() Payload { return &WriteControlRequest{} },
	{CmdWriteControl, Response}:          func() Payload { return &WriteControlResponse{} },
	{CmdAddDeviceNotification, Request}:  func() Payload { return &AddDeviceNotificationRequest{} },
	{CmdAddDeviceNotification, Response}: func() Payload { return &AddDeviceNotificationResponse{} },
	{CmdDelDeviceNotification, Request}:  func() Payload { return &DeleteDeviceNotificationRequest{} },
	{CmdDelDeviceNotification, Response}: func() Payload { return &DeleteDeviceNotificationResponse{} },
	{CmdDeviceNotification, Request}:     func() Payload { return &DeviceNotificationRequest{} },
	{CmdReadWrite, Request}:              func() Payload { return &ReadWriteRequest{} },
	{CmdReadWrite, Response}:             func() Payload { return &ReadWriteResponse{} },
}

// PayloadFor returns a fresh payload structure for the given command id and
// direction, or ErrUnknownVariant when no structure is registered.
func PayloadFor(cmd CommandID, dir Direction) (Payload, error) {
	factory, ok := commandRegistry[registryKey{cmd, dir}]
	if !ok {
		return nil, fmt.Errorf("%w: no %s payload for %s", ErrUnknownVariant, dir, cmd)
	}
	return factory(), nil
}

// DecodePayload decodes raw command payload bytes into the registered
// structure for (cmd, dir).
func DecodePayload(cmd CommandID, dir Direction, data []byte) (Payload, error) {
	payload, err := PayloadFor(cmd, dir)
	if err != nil {
		return nil, err
	}
	if err := payload.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return payload, nil
}

// upcastRegistry maps an index-group tag to the concrete record type hiding
// inside a generic read/write response.
var upcastRegistry = map[uint32]func() Payload{
	IndexGroupSymbolInfoByName:   func() Payload { return &SymbolEntry{} },
	IndexGroupSymbolInfoByNameEx: func() Payload { return &SymbolEntry{} },
}

// UpcastByIndexGroup selects the specifically-typed record registered for
// the index group of the originating request and decodes the response data
// into it. Unregistered tags fail with ErrUnknownVariant.
func UpcastByIndexGroup(resp *ReadWriteResponse, indexGroup uint32) (Payload, error) {
	factory, ok := upcastRegistry[indexGroup]
	if !ok {
		return nil, fmt.Errorf("%w: no record registered for index group 0x%04X", ErrUnknownVariant, indexGroup)
	}
	record := factory()
	if err := record.UnmarshalBinary(resp.Data); err != nil {
		return nil, err
	}
	return record, nil
}

// ResultOf extracts the leading ADS result code common to every response
// payload. The second return is false for requests and notification pushes,
// which carry no result.
func ResultOf(p Payload) (Error, bool) {
	switch v := p.(type) {
	case *ResponseHeader:
		return v.Result, true
	case *DeviceInfoResponse:
		return v.Result, true
	case *ReadResponse:
		return v.Result, true
	case *ReadStateResponse:
		return v.Result, true
	case *ReadWriteResponse:
		return v.Result, true
	case *AddDeviceNotificationResponse:
		return v.Result, true
	}
	return ErrNoError, false
}
