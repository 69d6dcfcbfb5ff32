// Package ams implements AMS (Automation Message Specification) wire structures.
package ams

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// NetID represents a 6-byte AMS NetID address (e.g., 192.168.1.100.1.1).
// NetIDs have no required relation to IP addresses, though by convention
// they are often derived from one.
type NetID [6]byte

// String returns the dot-separated string representation of the NetID.
func (n NetID) String() string {
	parts := make([]string, 6)
	for i, b := range n {
		parts[i] = strconv.Itoa(int(b))
	}
	return strings.Join(parts, ".")
}

// ParseNetID parses a 6-part dotted NetID string such as "172.21.148.227.1.1".
func ParseNetID(s string) (NetID, error) {
	var id NetID
	parts := strings.Split(s, ".")
	if len(parts) != 6 {
		return id, fmt.Errorf("ams: not a valid AMS NetID: %q", s)
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return id, fmt.Errorf("ams: not a valid AMS NetID: %q", s)
		}
		id[i] = byte(v)
	}
	return id, nil
}

// NetIDFromIPv4 builds a NetID from an IPv4 address plus two trailing octets.
func NetIDFromIPv4(ip net.IP, octet5, octet6 byte) (NetID, error) {
	var id NetID
	v4 := ip.To4()
	if v4 == nil {
		return id, fmt.Errorf("ams: not an IPv4 address: %v", ip)
	}
	copy(id[:4], v4)
	id[4] = octet5
	id[5] = octet6
	return id, nil
}

// Port represents a 2-byte AMS port identifier. Ports are logical service
// identifiers, not TCP ports.
type Port uint16

// Well-known AMS service ports.
const (
	PortLogger        Port = 100
	PortRealtime      Port = 200
	PortTrace         Port = 290
	PortIO            Port = 300
	PortSPS           Port = 400
	PortNC            Port = 500
	PortISG           Port = 550
	PortPCS           Port = 600
	PortPLCRuntime1   Port = 801
	PortPLCRuntime2   Port = 811
	PortPLCRuntime3   Port = 821
	PortPLCRuntime4   Port = 831
	PortPLCRuntimeTC3 Port = 851
	PortSystemService Port = 10000
)

var portNames = map[Port]string{
	PortLogger:        "LOGGER",
	PortRealtime:      "R0_RTIME",
	PortTrace:         "R0_TRACE",
	PortIO:            "R0_IO",
	PortSPS:           "R0_SPS",
	PortNC:            "R0_NC",
	PortISG:           "R0_ISG",
	PortPCS:           "R0_PCS",
	PortPLCRuntime1:   "R0_PLC_RTS1",
	PortPLCRuntime2:   "R0_PLC_RTS2",
	PortPLCRuntime3:   "R0_PLC_RTS3",
	PortPLCRuntime4:   "R0_PLC_RTS4",
	PortPLCRuntimeTC3: "R0_PLC_TC3",
	PortSystemService: "SYSTEM_SERVICE",
}

// String formats known service ports as "851(R0_PLC_TC3)"; unknown port
// values are printed numerically and round-trip untouched.
func (p Port) String() string {
	if name, ok := portNames[p]; ok {
		return fmt.Sprintf("%d(%s)", uint16(p), name)
	}
	return strconv.Itoa(int(p))
}

// ADSTCPServerPort is the TCP port the AMS router listens on (0xBF02).
const ADSTCPServerPort = 48898

// ADSUDPServerPort is the UDP port of the system service (0xBF03).
const ADSUDPServerPort = 48899
