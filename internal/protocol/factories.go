package protocol

import (
	"github.com/mrpasztoradam/goadsio/internal/ads"
)

// symbolInfoReadLength bounds the buffer the server may fill with a symbol
// entry; entries carry name, type and comment strings of unknown length.
const symbolInfoReadLength = 1024

// DeviceInfoRequest builds a device-info query.
func (s *State) DeviceInfoRequest() ads.Payload {
	return &ads.DeviceInfoRequest{}
}

// ReadStateRequest builds an ADS state query.
func (s *State) ReadStateRequest() ads.Payload {
	return &ads.ReadStateRequest{}
}

// WriteControlRequest builds a state-change command.
func (s *State) WriteControlRequest(adsState ads.State, deviceState uint16, data []byte) ads.Payload {
	return &ads.WriteControlRequest{
		ADSState:    adsState,
		DeviceState: deviceState,
		Data:        data,
	}
}

// SymbolInfoByName builds a read/write item that asks the symbol server for
// the full entry describing a named symbol. The response upcasts to
// *ads.SymbolEntry.
func (s *State) SymbolInfoByName(name string) ads.Payload {
	return &ads.ReadWriteRequest{
		RequestHeader: ads.RequestHeader{
			IndexGroup: ads.IndexGroupSymbolInfoByNameEx,
			Length:     symbolInfoReadLength,
		},
		Data: nulTerminated(name),
	}
}

// SymbolHandleByName builds a read/write item that resolves a symbol name to
// a 4-byte handle.
func (s *State) SymbolHandleByName(name string) ads.Payload {
	return &ads.ReadWriteRequest{
		RequestHeader: ads.RequestHeader{
			IndexGroup: ads.IndexGroupSymbolHandleByName,
			Length:     4,
		},
		Data: nulTerminated(name),
	}
}

// ReleaseHandle builds a write item that returns a symbol handle to the
// server.
func (s *State) ReleaseHandle(handle uint32) ads.Payload {
	data := make([]byte, 4)
	data[0] = byte(handle)
	data[1] = byte(handle >> 8)
	data[2] = byte(handle >> 16)
	data[3] = byte(handle >> 24)
	return &ads.WriteRequest{
		RequestHeader: ads.RequestHeader{IndexGroup: ads.IndexGroupSymbolReleaseHnd},
		Data:          data,
	}
}

// ValueByHandle builds a read item for size bytes of a handle-addressed
// symbol value.
func (s *State) ValueByHandle(handle uint32, size uint32) ads.Payload {
	return &ads.ReadRequest{
		IndexGroup:  ads.IndexGroupSymbolValueByHnd,
		IndexOffset: handle,
		Length:      size,
	}
}

// WriteValueByHandle builds a write item for a handle-addressed symbol
// value.
func (s *State) WriteValueByHandle(handle uint32, data []byte) ads.Payload {
	return &ads.WriteRequest{
		RequestHeader: ads.RequestHeader{
			IndexGroup:  ads.IndexGroupSymbolValueByHnd,
			IndexOffset: handle,
		},
		Data: data,
	}
}

// AddNotificationByIndex builds a subscription request for an index
// group/offset region. MaxDelay and CycleTime are given in milliseconds and
// converted to the wire's 100 ns units.
func (s *State) AddNotificationByIndex(group, offset, length uint32, mode ads.TransmissionMode, maxDelayMS, cycleTimeMS uint32) ads.Payload {
	return &ads.AddDeviceNotificationRequest{
		IndexGroup:       group,
		IndexOffset:      offset,
		Length:           length,
		TransmissionMode: mode,
		MaxDelay:         maxDelayMS * 10_000,
		CycleTime:        cycleTimeMS * 10_000,
	}
}

// RemoveNotification builds an unsubscription request for a
// server-assigned notification handle.
func (s *State) RemoveNotification(handle uint32) ads.Payload {
	return &ads.DeleteDeviceNotificationRequest{Handle: handle}
}

// nulTerminated encodes a symbol name the way the symbol server expects it.
func nulTerminated(name string) []byte {
	b := make([]byte, 0, len(name)+1)
	b = append(b, name...)
	return append(b, 0)
}
