package service

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/mrpasztoradam/goadsio/internal/ams"
)

func TestHeaderLayout(t *testing.T) {
	netID := ams.NetID{10, 0, 0, 1, 1, 1}
	header := Header(netID, RequestAddRoute, ams.PortSystemService)

	if len(header) != 20 {
		t.Fatalf("expected 20-byte header, got %d", len(header))
	}
	if !bytes.Equal(header[0:8], []byte{0x03, 0x66, 0x14, 0x71, 0x00, 0x00, 0x00, 0x00}) {
		t.Errorf("unexpected magic prefix: % x", header[0:8])
	}
	if got := binary.LittleEndian.Uint16(header[8:10]); got != uint16(RequestAddRoute) {
		t.Errorf("expected request id %d, got %d", RequestAddRoute, got)
	}
	if !bytes.Equal(header[12:18], netID[:]) {
		t.Errorf("expected net id % x, got % x", netID[:], header[12:18])
	}
	if got := binary.LittleEndian.Uint16(header[18:20]); got != uint16(ams.PortSystemService) {
		t.Errorf("expected port %d, got %d", ams.PortSystemService, got)
	}
}

func TestAddRoutePacket(t *testing.T) {
	packet := AddRoutePacket(RouteRequest{
		SourceNetID: ams.NetID{10, 0, 0, 1, 1, 1},
		SourceName:  "my_host",
	})

	// Sender host name: length prefix (including NUL) then the NUL-terminated
	// ascii bytes.
	want := append(binary.LittleEndian.AppendUint16(nil, 8), []byte("my_host\x00")...)
	if !bytes.Contains(packet, want) {
		t.Errorf("packet missing encoded source name: % x", packet)
	}
	// Defaults applied for credentials and route name.
	if !bytes.Contains(packet, []byte("Administrator\x00")) {
		t.Error("packet missing default username")
	}
	if !bytes.Contains(packet, []byte("1\x00")) {
		t.Error("packet missing default password")
	}
	// Route name defaults to the source name, so it appears twice.
	if bytes.Count(packet, []byte("my_host\x00")) != 2 {
		t.Error("expected route name to default to source name")
	}
	// Net id being added defaults to the source net id.
	if bytes.Count(packet, []byte{10, 0, 0, 1, 1, 1}) != 2 {
		t.Error("expected added net id to default to source net id")
	}
}

func TestParseAddRouteResponse(t *testing.T) {
	build := func(marker [3]byte) []byte {
		data := make([]byte, 32)
		data[11] = 0x80
		copy(data[12:18], []byte{172, 21, 148, 227, 1, 1})
		binary.LittleEndian.PutUint16(data[18:20], 10000)
		copy(data[26:29], marker[:])
		return data
	}

	resp, err := ParseAddRouteResponse(build([3]byte{0x04, 0x00, 0x00}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !resp.PasswordCorrect || resp.AuthError {
		t.Errorf("expected password-correct response, got %+v", resp)
	}
	if resp.NetID.String() != "172.21.148.227.1.1" {
		t.Errorf("unexpected net id %s", resp.NetID)
	}

	resp, err = ParseAddRouteResponse(build([3]byte{0x00, 0x04, 0x07}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !resp.AuthError {
		t.Errorf("expected auth error response, got %+v", resp)
	}

	if _, err := ParseAddRouteResponse(build([3]byte{0xFF, 0xFF, 0xFF})); err == nil {
		t.Error("expected error for unrecognized result marker")
	}

	bad := build([3]byte{0x04, 0x00, 0x00})
	bad[11] = 0x00
	if _, err := ParseAddRouteResponse(bad); err == nil {
		t.Error("expected error for non-response header")
	}
}

func TestParseGetNetIDResponse(t *testing.T) {
	data := make([]byte, 300)
	data[11] = 0x80
	copy(data[12:18], []byte{5, 6, 7, 8, 1, 1})

	netID, err := ParseGetNetIDResponse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if netID != (ams.NetID{5, 6, 7, 8, 1, 1}) {
		t.Errorf("unexpected net id %s", netID)
	}

	if _, err := ParseGetNetIDResponse(data[:100]); err == nil {
		t.Error("expected error for short response")
	}
}
