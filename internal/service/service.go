// Package service assembles and parses UDP packets for the TwinCAT system
// service, which handles route management and device discovery outside the
// AMS/ADS TCP stream. The format is undocumented; the layout here follows
// earlier reverse-engineering efforts in the pyads project.
package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"github.com/mrpasztoradam/goadsio/internal/ams"
)

// RequestID identifies the system service operation.
type RequestID uint16

const (
	RequestGetInfo  RequestID = 1
	RequestAddRoute RequestID = 6
)

// headerMagic opens every system service packet. The meaning of the
// individual bytes is unknown.
var headerMagic = []byte{0x03, 0x66, 0x14, 0x71, 0x00, 0x00, 0x00, 0x00}

// ErrBadResponse reports a reply that does not match the request shape.
type ErrBadResponse struct {
	Reason string
}

func (e *ErrBadResponse) Error() string {
	return fmt.Sprintf("service: bad response: %s", e.Reason)
}

// Header builds the packet prefix shared by all system service requests.
func Header(sourceNetID ams.NetID, requestID RequestID, port ams.Port) []byte {
	buf := make([]byte, 0, 20)
	buf = append(buf, headerMagic...)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(requestID))
	// Possibly the high half of a 4-byte request id.
	buf = append(buf, 0x00, 0x00)
	buf = append(buf, sourceNetID[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(port))
	return buf
}

// appendString encodes a length-prefixed, NUL-terminated ascii string.
func appendString(buf []byte, value string) []byte {
	if i := bytes.IndexByte([]byte(value), 0); i >= 0 {
		value = value[:i]
	}
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(value)+1))
	buf = append(buf, value...)
	return append(buf, 0)
}

// RouteRequest describes a static route to register on the PLC.
type RouteRequest struct {
	SourceNetID ams.NetID
	// SourceName is the hostname or IP of the machine the route points to.
	SourceName string
	// Username and Password authenticate against the PLC; TwinCAT 3
	// defaults are "Administrator" / "1".
	Username string
	Password string
	// RouteName is the PLC-side name; defaults to SourceName.
	RouteName string
	// NetIDToAdd defaults to SourceNetID.
	NetIDToAdd ams.NetID
}

// AddRoutePacket builds the UDP payload that asks the PLC to add a static
// route. The interleaved tag bytes are unexplained but required.
func AddRoutePacket(req RouteRequest) []byte {
	routeName := req.RouteName
	if routeName == "" {
		routeName = req.SourceName
	}
	netIDToAdd := req.NetIDToAdd
	if netIDToAdd == (ams.NetID{}) {
		netIDToAdd = req.SourceNetID
	}
	username := req.Username
	if username == "" {
		username = "Administrator"
	}
	password := req.Password
	if password == "" {
		password = "1"
	}

	buf := Header(req.SourceNetID, RequestAddRoute, ams.PortSystemService)
	// Write command.
	buf = append(buf, 0x05, 0x00)
	buf = append(buf, 0x00, 0x00, 0x0c, 0x00)
	buf = appendString(buf, req.SourceName)
	buf = append(buf, 0x07, 0x00)
	// Byte length of the net id being added.
	buf = binary.LittleEndian.AppendUint16(buf, 6)
	buf = append(buf, netIDToAdd[:]...)
	buf = append(buf, 0x0d, 0x00)
	buf = appendString(buf, username)
	buf = append(buf, 0x02, 0x00)
	buf = appendString(buf, password)
	buf = append(buf, 0x05, 0x00)
	buf = appendString(buf, routeName)
	return buf
}

// RouteResponse is the parsed reply to an add-route request.
type RouteResponse struct {
	NetID           ams.NetID
	Port            uint16
	PasswordCorrect bool
	AuthError       bool
}

// ParseAddRouteResponse parses the 32-byte reply to AddRoutePacket. The
// final header byte 0x80 marks a response; bytes 26..29 carry 0x040000 on
// success and 0x000407 on an authentication failure.
func ParseAddRouteResponse(data []byte) (*RouteResponse, error) {
	if len(data) != 32 {
		return nil, &ErrBadResponse{Reason: fmt.Sprintf("expected 32 bytes, got %d", len(data))}
	}
	if data[11] != 0x80 {
		return nil, &ErrBadResponse{Reason: "not a matching response"}
	}

	resp := &RouteResponse{
		Port:            binary.LittleEndian.Uint16(data[18:20]),
		PasswordCorrect: bytes.Equal(data[26:29], []byte{0x04, 0x00, 0x00}),
		AuthError:       bytes.Equal(data[26:29], []byte{0x00, 0x04, 0x07}),
	}
	copy(resp.NetID[:], data[12:18])

	if !resp.PasswordCorrect && !resp.AuthError {
		return resp, &ErrBadResponse{Reason: "route may or may not have been added"}
	}
	return resp, nil
}

// GetNetIDPacket builds the UDP payload that asks the PLC for its NetID.
// The source net id does not need to be valid.
func GetNetIDPacket(sourceNetID ams.NetID) []byte {
	buf := Header(sourceNetID, RequestGetInfo, ams.PortSystemService)
	return append(buf, 0x00, 0x00, 0x00, 0x00)
}

// ParseGetNetIDResponse extracts the PLC's NetID from a get-info reply.
func ParseGetNetIDResponse(data []byte) (ams.NetID, error) {
	if len(data) < 300 {
		return ams.NetID{}, &ErrBadResponse{Reason: fmt.Sprintf("expected at least 300 bytes, got %d", len(data))}
	}
	if data[11] != 0x80 {
		return ams.NetID{}, &ErrBadResponse{Reason: "unknown response"}
	}
	var netID ams.NetID
	copy(netID[:], data[12:18])
	return netID, nil
}

// exchange sends one UDP packet to host:48899 and returns the first reply.
func exchange(ctx context.Context, host string, packet []byte, recvLength int) ([]byte, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "udp4", net.JoinHostPort(host, fmt.Sprint(ams.ADSUDPServerPort)))
	if err != nil {
		return nil, fmt.Errorf("service: dial %s: %w", host, err)
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(2 * time.Second)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return nil, err
	}

	if _, err := conn.Write(packet); err != nil {
		return nil, fmt.Errorf("service: send: %w", err)
	}

	buf := make([]byte, recvLength)
	n, err := conn.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("service: receive: %w", err)
	}
	return buf[:n], nil
}

// AddRoute registers a static route on the PLC at host over UDP.
func AddRoute(ctx context.Context, host string, req RouteRequest) (*RouteResponse, error) {
	reply, err := exchange(ctx, host, AddRoutePacket(req), 1024)
	if err != nil {
		return nil, err
	}
	return ParseAddRouteResponse(reply)
}

// GetNetID asks the PLC at host for its AMS NetID over UDP.
func GetNetID(ctx context.Context, host string) (ams.NetID, error) {
	reply, err := exchange(ctx, host, GetNetIDPacket(ams.NetID{1, 1, 1, 1, 1, 1}), 1024)
	if err != nil {
		return ams.NetID{}, err
	}
	return ParseGetNetIDResponse(reply)
}
