package ads

import (
	"errors"
	"fmt"
)

// Strict decode of an enum-backed field found no matching symbolic value.
var ErrInvalidEnumValue = errors.New("ads: invalid enum value")

// No concrete structure is registered for the requested command or index
// group tag.
var ErrUnknownVariant = errors.New("ads: unknown variant")

// Error is an ADS result code as carried in response payloads and AoE
// headers. The zero value means "no error".
type Error uint32

// Error code base offsets.
const (
	errGlobal     = 0x0000
	errRouter     = 0x0500
	errDevice     = 0x0700
	errClientBase = 0x0740
)

const (
	ErrNoError Error = 0x0000

	// Global return codes.
	ErrTargetPortNotFound Error = errGlobal + 0x06
	ErrMissingRoute       Error = errGlobal + 0x07
	ErrNoMemory           Error = errGlobal + 0x19
	ErrTCPSend            Error = errGlobal + 0x1A

	// Router return codes.
	ErrPortAlreadyInUse  Error = errRouter + 0x06
	ErrPortNotRegistered Error = errRouter + 0x07
	ErrNoMoreQueues      Error = errRouter + 0x08

	// Device return codes.
	ErrDeviceError                Error = errDevice + 0x00
	ErrDeviceServiceNotSupported  Error = errDevice + 0x01
	ErrDeviceInvalidIndexGroup    Error = errDevice + 0x02
	ErrDeviceInvalidIndexOffset   Error = errDevice + 0x03
	ErrDeviceInvalidAccess        Error = errDevice + 0x04
	ErrDeviceInvalidSize          Error = errDevice + 0x05
	ErrDeviceInvalidData          Error = errDevice + 0x06
	ErrDeviceNotReady             Error = errDevice + 0x07
	ErrDeviceBusy                 Error = errDevice + 0x08
	ErrDeviceNoMemory             Error = errDevice + 0x0A
	ErrDeviceInvalidParam         Error = errDevice + 0x0B
	ErrDeviceNotFound             Error = errDevice + 0x0C
	ErrDeviceSymbolNotFound       Error = errDevice + 0x10
	ErrDeviceSymbolVersionInvalid Error = errDevice + 0x11
	ErrDeviceInvalidState         Error = errDevice + 0x12
	ErrDeviceTransModeNotSupported Error = errDevice + 0x13
	ErrDeviceNotifyHandleInvalid  Error = errDevice + 0x14
	ErrDeviceClientUnknown        Error = errDevice + 0x15
	ErrDeviceNoMoreHandles        Error = errDevice + 0x16
	ErrDeviceInvalidWatchSize     Error = errDevice + 0x17
	ErrDeviceNotInitialized       Error = errDevice + 0x18
	ErrDeviceTimeout              Error = errDevice + 0x19

	// Client return codes.
	ErrClientError            Error = errClientBase + 0x00
	ErrClientInvalidParam     Error = errClientBase + 0x01
	ErrClientDuplicateInvokeID Error = errClientBase + 0x04
	ErrClientSyncTimeout      Error = errClientBase + 0x05
	ErrClientPortNotOpen      Error = errClientBase + 0x08
)

var errorMessages = map[Error]string{
	ErrNoError:                     "no error",
	ErrTargetPortNotFound:          "target port not found, possibly the ADS server is not started",
	ErrMissingRoute:                "target machine not found, possibly missing ADS routes",
	ErrNoMemory:                    "no memory",
	ErrTCPSend:                     "TCP send error",
	ErrPortAlreadyInUse:            "port already in use",
	ErrPortNotRegistered:           "port not registered",
	ErrNoMoreQueues:                "maximum number of ports reached",
	ErrDeviceError:                 "device error",
	ErrDeviceServiceNotSupported:   "service is not supported by server",
	ErrDeviceInvalidIndexGroup:     "invalid index group",
	ErrDeviceInvalidIndexOffset:    "invalid index offset",
	ErrDeviceInvalidAccess:         "reading/writing not permitted",
	ErrDeviceInvalidSize:           "parameter size not correct",
	ErrDeviceInvalidData:           "invalid parameter value(s)",
	ErrDeviceNotReady:              "device is not in a ready state",
	ErrDeviceBusy:                  "device is busy",
	ErrDeviceNoMemory:              "out of memory",
	ErrDeviceInvalidParam:          "invalid parameter value(s)",
	ErrDeviceNotFound:              "not found",
	ErrDeviceSymbolNotFound:        "symbol not found",
	ErrDeviceSymbolVersionInvalid:  "symbol version invalid, release handle and get a new one",
	ErrDeviceInvalidState:          "server is in an invalid state",
	ErrDeviceTransModeNotSupported: "transmission mode not supported",
	ErrDeviceNotifyHandleInvalid:   "notification handle is invalid",
	ErrDeviceClientUnknown:         "notification client not registered",
	ErrDeviceNoMoreHandles:         "no more notification handles",
	ErrDeviceInvalidWatchSize:      "size for watch too big",
	ErrDeviceNotInitialized:        "device not initialized",
	ErrDeviceTimeout:               "device has a timeout",
	ErrClientError:                 "client error",
	ErrClientInvalidParam:          "invalid parameter at service call",
	ErrClientDuplicateInvokeID:     "invoke id in use",
	ErrClientSyncTimeout:           "timeout elapsed, check ADS routes and firewall settings",
	ErrClientPortNotOpen:           "ads port not open",
}

func (e Error) Error() string {
	if msg, ok := errorMessages[e]; ok {
		return msg
	}
	return fmt.Sprintf("ADS error 0x%04X", uint32(e))
}

// IsError reports whether the code is anything other than "no error".
func (e Error) IsError() bool {
	return e != ErrNoError
}
