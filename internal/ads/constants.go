// Package ads implements ADS (Automation Device Specification) command
// payloads and their typed field access.
package ads

import "fmt"

// CommandID identifies the ADS command carried by an AoE header.
type CommandID uint16

const (
	CmdInvalid               CommandID = 0x0000
	CmdReadDeviceInfo        CommandID = 0x0001
	CmdRead                  CommandID = 0x0002
	CmdWrite                 CommandID = 0x0003
	CmdReadState             CommandID = 0x0004
	CmdWriteControl          CommandID = 0x0005
	CmdAddDeviceNotification CommandID = 0x0006
	CmdDelDeviceNotification CommandID = 0x0007
	CmdDeviceNotification    CommandID = 0x0008
	CmdReadWrite             CommandID = 0x0009
)

func (c CommandID) String() string {
	switch c {
	case CmdReadDeviceInfo:
		return "ReadDeviceInfo"
	case CmdRead:
		return "Read"
	case CmdWrite:
		return "Write"
	case CmdReadState:
		return "ReadState"
	case CmdWriteControl:
		return "WriteControl"
	case CmdAddDeviceNotification:
		return "AddDeviceNotification"
	case CmdDelDeviceNotification:
		return "DelDeviceNotification"
	case CmdDeviceNotification:
		return "DeviceNotification"
	case CmdReadWrite:
		return "ReadWrite"
	default:
		return fmt.Sprintf("Command(0x%04X)", uint16(c))
	}
}

// Reserved index groups used by symbol and notification commands.
const (
	IndexGroupSymbolTable        uint32 = 0xF000
	IndexGroupSymbolByName       uint32 = 0xF001
	IndexGroupSymbolValue        uint32 = 0xF002
	IndexGroupSymbolHandleByName uint32 = 0xF003
	IndexGroupSymbolValueByName  uint32 = 0xF004
	IndexGroupSymbolValueByHnd   uint32 = 0xF005
	IndexGroupSymbolReleaseHnd   uint32 = 0xF006
	IndexGroupSymbolInfoByName   uint32 = 0xF007
	IndexGroupSymbolVersion      uint32 = 0xF008
	IndexGroupSymbolInfoByNameEx uint32 = 0xF009
	IndexGroupSymbolDownload     uint32 = 0xF00A
	IndexGroupSymbolUpload       uint32 = 0xF00B
	IndexGroupSymbolUploadInfo   uint32 = 0xF00C
	IndexGroupSymbolNote         uint32 = 0xF010
	IndexGroupDeviceData         uint32 = 0xF100
)

// DecodeMode selects how enum-backed fields handle raw values with no
// symbolic meaning. Strict decoding fails with ErrInvalidEnumValue; lenient
// decoding passes the raw value through so it can be re-encoded faithfully.
type DecodeMode int

const (
	Strict DecodeMode = iota
	Lenient
)

// TransmissionMode controls when the server pushes notification samples.
type TransmissionMode uint32

const (
	TransNone           TransmissionMode = 0
	TransClientCycle    TransmissionMode = 1
	TransClientOnChange TransmissionMode = 2
	TransServerCycle    TransmissionMode = 3
	TransServerOnChange TransmissionMode = 4
)

// ParseTransmissionMode validates a raw transmission mode value.
func ParseTransmissionMode(v uint32, mode DecodeMode) (TransmissionMode, error) {
	if v <= uint32(TransServerOnChange) {
		return TransmissionMode(v), nil
	}
	if mode == Lenient {
		return TransmissionMode(v), nil
	}
	return 0, fmt.Errorf("%w: transmission mode %d", ErrInvalidEnumValue, v)
}

// State is the ADS state of a device (uint16 on the wire).
type State uint16

const (
	StateInvalid   State = 0
	StateIdle      State = 1
	StateReset     State = 2
	StateInit      State = 3
	StateStart     State = 4
	StateRun       State = 5
	StateStop      State = 6
	StateSaveCfg   State = 7
	StateLoadCfg   State = 8
	StatePowerFail State = 9
	StatePowerGood State = 10
	StateError     State = 11
	StateShutdown  State = 12
	StateSuspend   State = 13
	StateResume    State = 14
	StateConfig    State = 15
	StateReconfig  State = 16
	StateStopping  State = 17
)

var stateNames = map[State]string{
	StateInvalid:   "INVALID",
	StateIdle:      "IDLE",
	StateReset:     "RESET",
	StateInit:      "INIT",
	StateStart:     "START",
	StateRun:       "RUN",
	StateStop:      "STOP",
	StateSaveCfg:   "SAVECFG",
	StateLoadCfg:   "LOADCFG",
	StatePowerFail: "POWERFAILURE",
	StatePowerGood: "POWERGOOD",
	StateError:     "ERROR",
	StateShutdown:  "SHUTDOWN",
	StateSuspend:   "SUSPEND",
	StateResume:    "RESUME",
	StateConfig:    "CONFIG",
	StateReconfig:  "RECONFIG",
	StateStopping:  "STOPPING",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", uint16(s))
}

// ParseState validates a raw ADS state value.
func ParseState(v uint16, mode DecodeMode) (State, error) {
	if _, ok := stateNames[State(v)]; ok {
		return State(v), nil
	}
	if mode == Lenient {
		return State(v), nil
	}
	return 0, fmt.Errorf("%w: ADS state %d", ErrInvalidEnumValue, v)
}

// DataType tags the primitive type of a symbol's value.
type DataType uint32

const (
	TypeVoid    DataType = 0
	TypeInt16   DataType = 2
	TypeInt32   DataType = 3
	TypeReal32  DataType = 4
	TypeReal64  DataType = 5
	TypeInt8    DataType = 16
	TypeUint8   DataType = 17
	TypeUint16  DataType = 18
	TypeUint32  DataType = 19
	TypeInt64   DataType = 20
	TypeUint64  DataType = 21
	TypeString  DataType = 30
	TypeWString DataType = 31
	TypeReal80  DataType = 32
	TypeBit     DataType = 33
	TypeBigType DataType = 65
)

var dataTypeSizes = map[DataType]int{
	TypeInt8:    1,
	TypeUint8:   1,
	TypeInt16:   2,
	TypeUint16:  2,
	TypeInt32:   4,
	TypeUint32:  4,
	TypeInt64:   8,
	TypeUint64:  8,
	TypeReal32:  4,
	TypeReal64:  8,
	TypeString:  1,
	TypeWString: 2,
	TypeBit:     1,
}

// ElementSize returns the width in bytes of one element of the data type, or
// 0 when the type has no fixed element width.
func (t DataType) ElementSize() int {
	return dataTypeSizes[t]
}

var dataTypeNames = map[DataType]string{
	TypeVoid:    "VOID",
	TypeInt8:    "SINT",
	TypeUint8:   "USINT",
	TypeInt16:   "INT",
	TypeUint16:  "UINT",
	TypeInt32:   "DINT",
	TypeUint32:  "UDINT",
	TypeInt64:   "LINT",
	TypeUint64:  "ULINT",
	TypeReal32:  "REAL",
	TypeReal64:  "LREAL",
	TypeReal80:  "REAL80",
	TypeString:  "STRING",
	TypeWString: "WSTRING",
	TypeBit:     "BOOL",
	TypeBigType: "BIGTYPE",
}

// String returns the IEC 61131-3 name of the data type.
func (t DataType) String() string {
	if name, ok := dataTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("DataType(%d)", uint32(t))
}

// ParseDataType validates a raw data-type tag.
func ParseDataType(v uint32, mode DecodeMode) (DataType, error) {
	if _, ok := dataTypeSizes[DataType(v)]; ok || v == uint32(TypeVoid) || v == uint32(TypeBigType) {
		return DataType(v), nil
	}
	if mode == Lenient {
		return DataType(v), nil
	}
	return 0, fmt.Errorf("%w: data type %d", ErrInvalidEnumValue, v)
}

// SymbolFlag bits carried in symbol entries.
type SymbolFlag uint32

const (
	SymbolFlagPersistent    SymbolFlag = 1 << 0
	SymbolFlagBitValue      SymbolFlag = 1 << 1
	SymbolFlagReferenceTo   SymbolFlag = 1 << 2
	SymbolFlagTypeGUID      SymbolFlag = 1 << 3
	SymbolFlagTComIfacePtr  SymbolFlag = 1 << 4
	SymbolFlagReadOnly      SymbolFlag = 1 << 5
)
