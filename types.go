package goadsio

import (
	"github.com/mrpasztoradam/goadsio/internal/ads"
	"github.com/mrpasztoradam/goadsio/internal/ams"
)

// Re-exported protocol types, so callers outside this module can name them.

// NetID is a 6-octet AMS network identifier, e.g. "172.21.148.227.1.1".
type NetID = ams.NetID

// Port is an AMS port number.
type Port = ams.Port

// Addr is a (NetID, port) routing pair.
type Addr = ams.Addr

// DataType identifies a PLC value encoding.
type DataType = ads.DataType

// State is an ADS device state.
type State = ads.State

// TransmissionMode selects how the server samples a notification region.
type TransmissionMode = ads.TransmissionMode

// SymbolEntry is the full description of one PLC symbol.
type SymbolEntry = ads.SymbolEntry

// LogMessage is one decoded TwinCAT log-system notification.
type LogMessage = ads.LogMessage

// Well-known AMS ports.
const (
	PortLogger        = ams.PortLogger
	PortPLCRuntime    = ams.PortPLCRuntimeTC3
	PortSystemService = ams.PortSystemService
)

// Notification transmission modes.
const (
	TransServerCycle    = ads.TransServerCycle
	TransServerOnChange = ads.TransServerOnChange
)

// Symbol data types.
const (
	TypeBool    = ads.TypeBit
	TypeInt8    = ads.TypeInt8
	TypeUint8   = ads.TypeUint8
	TypeInt16   = ads.TypeInt16
	TypeUint16  = ads.TypeUint16
	TypeInt32   = ads.TypeInt32
	TypeUint32  = ads.TypeUint32
	TypeInt64   = ads.TypeInt64
	TypeUint64  = ads.TypeUint64
	TypeFloat32 = ads.TypeReal32
	TypeFloat64 = ads.TypeReal64
	TypeString  = ads.TypeString
	TypeWString = ads.TypeWString
)

// ADS device states.
const (
	StateInvalid = ads.StateInvalid
	StateIdle    = ads.StateIdle
	StateRun     = ads.StateRun
	StateStop    = ads.StateStop
	StateConfig  = ads.StateConfig
	StateReset   = ads.StateReset
)

// ParseNetID parses the dotted 6-octet textual form of a NetID.
func ParseNetID(s string) (NetID, error) {
	return ams.ParseNetID(s)
}

// DeviceInfo is the device name and version returned by DeviceInfo.
type DeviceInfo struct {
	Name         string
	MajorVersion uint8
	MinorVersion uint8
	VersionBuild uint16
}

// DeviceState is the ADS and device state pair returned by ReadState.
type DeviceState struct {
	ADSState    State
	DeviceState uint16
}
