package goadsio

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrpasztoradam/goadsio/internal/ads"
	"github.com/mrpasztoradam/goadsio/internal/transport"
)

// Sentinel errors returned by client operations.
var (
	// ErrClosed reports an operation on a closed client.
	ErrClosed = transport.ErrClosed
	// ErrNotConnected reports an operation while the socket is down and a
	// reconnect is still pending.
	ErrNotConnected = transport.ErrDisconnected
	// ErrNotSupported reports a requested mode the client does not
	// implement, e.g. symbols addressed by raw index group instead of name.
	ErrNotSupported = errors.New("goadsio: not supported")
	// ErrInvalidEnumValue reports a wire value outside an enumeration
	// during strict decoding.
	ErrInvalidEnumValue = ads.ErrInvalidEnumValue
)

// RequestFailedError reports a response carrying a non-zero AMS or ADS
// result code.
type RequestFailedError = transport.RequestFailedError

// ResultError is the numeric ADS result code type; use errors.Is against
// the ads result constants to match specific codes.
type ResultError = ads.Error

// ErrorCategory classifies an error for retry and reporting decisions.
type ErrorCategory int

const (
	// ErrorCategoryUnknown represents an unclassified error.
	ErrorCategoryUnknown ErrorCategory = iota

	// ErrorCategoryNetwork represents connection-level failures.
	ErrorCategoryNetwork

	// ErrorCategoryProtocol represents AMS/ADS framing or decoding errors.
	ErrorCategoryProtocol

	// ErrorCategoryADS represents ADS result codes returned by the device.
	ErrorCategoryADS

	// ErrorCategoryValidation represents input validation errors.
	ErrorCategoryValidation

	// ErrorCategoryTimeout represents timeout errors.
	ErrorCategoryTimeout

	// ErrorCategoryState represents lifecycle errors, e.g. client closed.
	ErrorCategoryState
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryNetwork:
		return "network"
	case ErrorCategoryProtocol:
		return "protocol"
	case ErrorCategoryADS:
		return "ads"
	case ErrorCategoryValidation:
		return "validation"
	case ErrorCategoryTimeout:
		return "timeout"
	case ErrorCategoryState:
		return "state"
	default:
		return "unknown"
	}
}

// ClassifiedError wraps an error with classification metadata.
type ClassifiedError struct {
	Category  ErrorCategory
	Operation string // the operation that failed, e.g. "read", "subscribe"
	Err       error
	Retryable bool
	ADSError  *ads.Error
	Symbol    string // optional: the symbol name if relevant
}

func (e *ClassifiedError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("%s operation failed for symbol %q: %v", e.Operation, e.Symbol, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %v", e.Operation, e.Err)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// IsRetryable returns whether the error indicates a retryable condition.
func (e *ClassifiedError) IsRetryable() bool {
	return e.Retryable
}

// ClassifyError classifies an error into a category.
func ClassifyError(err error, operation string) *ClassifiedError {
	if err == nil {
		return nil
	}

	ce := &ClassifiedError{
		Category:  ErrorCategoryUnknown,
		Operation: operation,
		Err:       err,
	}

	var adsErr ads.Error
	switch {
	case errors.As(err, &adsErr):
		ce.Category = ErrorCategoryADS
		ce.ADSError = &adsErr
		ce.Retryable = isRetryableADSError(adsErr)
	case errors.Is(err, ErrClosed):
		ce.Category = ErrorCategoryState
	case errors.Is(err, ErrNotConnected), errors.Is(err, transport.ErrConnectionFailed):
		ce.Category = ErrorCategoryNetwork
		ce.Retryable = true
	case errors.Is(err, transport.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		ce.Category = ErrorCategoryTimeout
		ce.Retryable = true
	case errors.Is(err, ErrInvalidEnumValue), errors.Is(err, ads.ErrUnknownVariant):
		ce.Category = ErrorCategoryProtocol
	case errors.Is(err, ErrNotSupported):
		ce.Category = ErrorCategoryValidation
	}
	return ce
}

func isRetryableADSError(err ads.Error) bool {
	switch err {
	case ads.ErrTargetPortNotFound, ads.ErrMissingRoute, ads.ErrDeviceBusy:
		return true
	default:
		return false
	}
}
