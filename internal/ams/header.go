package ams

import (
	"encoding/binary"
	"fmt"
)

// Sizes of the fixed wire structures, in bytes.
const (
	TCPHeaderLength = 6
	AddrLength      = 8
	HeaderLength    = 32
)

// Addr is the full AMS address of a device: NetID plus service port.
type Addr struct {
	NetID NetID
	Port  Port
}

// String returns "net.id:port", with known service ports named.
func (a Addr) String() string {
	return fmt.Sprintf("%s:%s", a.NetID, a.Port)
}

func (a Addr) appendBinary(buf []byte) []byte {
	buf = append(buf, a.NetID[:]...)
	return binary.LittleEndian.AppendUint16(buf, uint16(a.Port))
}

func (a *Addr) decode(data []byte) {
	copy(a.NetID[:], data[0:6])
	a.Port = Port(binary.LittleEndian.Uint16(data[6:8]))
}

// TCPHeader is the 6-byte AMS/TCP packet header preceding every AoE header.
// It exists purely for stream framing: Length covers the AoE header plus the
// command payload that follow it.
type TCPHeader struct {
	Reserved uint16
	Length   uint32
}

// MarshalBinary encodes the TCPHeader into a 6-byte slice (little-endian).
func (h *TCPHeader) MarshalBinary() ([]byte, error) {
	buf := make([]byte, TCPHeaderLength)
	binary.LittleEndian.PutUint16(buf[0:2], h.Reserved)
	binary.LittleEndian.PutUint32(buf[2:6], h.Length)
	return buf, nil
}

// UnmarshalBinary decodes a 6-byte slice into the TCPHeader (little-endian).
func (h *TCPHeader) UnmarshalBinary(data []byte) error {
	if len(data) < TCPHeaderLength {
		return fmt.Errorf("ams: TCP header requires %d bytes, got %d", TCPHeaderLength, len(data))
	}
	h.Reserved = binary.LittleEndian.Uint16(data[0:2])
	h.Length = binary.LittleEndian.Uint32(data[2:6])
	return nil
}

// State flag bits for the Header StateFlags field.
const (
	// StateFlagResponse marks a response packet (bit 0). 0 = request.
	StateFlagResponse uint16 = 0x0001

	// StateFlagADSCommand must be set for ADS commands (bit 2).
	StateFlagADSCommand uint16 = 0x0004

	// StateFlagUDP marks UDP transport (bit 7).
	StateFlagUDP uint16 = 0x0080
)

// Common flag combinations.
const (
	StateFlagsRequest  = StateFlagADSCommand
	StateFlagsResponse = StateFlagADSCommand | StateFlagResponse
)

// Header is the 32-byte AoE header following the AMS/TCP header. All
// multi-byte fields are little-endian, byte-packed. Length covers only the
// command payload that follows the header.
type Header struct {
	Target    Addr   // Destination address (8 bytes, offset 0)
	Source    Addr   // Source address (8 bytes, offset 8)
	CommandID uint16 // ADS command ID (2 bytes, offset 16)
	Flags     uint16 // State flags (2 bytes, offset 18)
	Length    uint32 // Command payload size in bytes (4 bytes, offset 20)
	ErrorCode uint32 // AMS error number (4 bytes, offset 24)
	InvokeID  uint32 // Request/response correlation ID (4 bytes, offset 28)
}

// MarshalBinary encodes the AoE header into exactly 32 bytes (little-endian).
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, HeaderLength)
	buf = h.Target.appendBinary(buf)
	buf = h.Source.appendBinary(buf)
	buf = binary.LittleEndian.AppendUint16(buf, h.CommandID)
	buf = binary.LittleEndian.AppendUint16(buf, h.Flags)
	buf = binary.LittleEndian.AppendUint32(buf, h.Length)
	buf = binary.LittleEndian.AppendUint32(buf, h.ErrorCode)
	buf = binary.LittleEndian.AppendUint32(buf, h.InvokeID)
	return buf, nil
}

// UnmarshalBinary decodes a 32-byte slice into the AoE header (little-endian).
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderLength {
		return fmt.Errorf("ams: header requires %d bytes, got %d", HeaderLength, len(data))
	}
	h.Target.decode(data[0:8])
	h.Source.decode(data[8:16])
	h.CommandID = binary.LittleEndian.Uint16(data[16:18])
	h.Flags = binary.LittleEndian.Uint16(data[18:20])
	h.Length = binary.LittleEndian.Uint32(data[20:24])
	h.ErrorCode = binary.LittleEndian.Uint32(data[24:28])
	h.InvokeID = binary.LittleEndian.Uint32(data[28:32])
	return nil
}

// IsRequest reports whether the flags mark this packet as a request.
func (h *Header) IsRequest() bool {
	return (h.Flags & StateFlagResponse) == 0
}

// IsResponse reports whether the flags mark this packet as a response.
func (h *Header) IsResponse() bool {
	return (h.Flags & StateFlagResponse) != 0
}
