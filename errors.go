package bfi

import (
	"errors"
	"fmt"
)

// Error represents a BFI decoding error kind.
//
// Decoding functions return one of the detail types below, each of which
// unwraps to its kind, so callers can test with errors.Is(err,
// ErrInsufficientBits) or recover the details with errors.As.
type Error int

// Error kinds.
const (
	ErrNone                     Error = 0
	ErrInsufficientBits         Error = 1
	ErrInvalidBitfieldWidth     Error = 2
	ErrInvalidHeaderField       Error = 3
	ErrInvalidHeaderCombination Error = 4
)

var errMessages = [5]string{
	"No error",
	"Insufficient bits in buffer",
	"Bitfield width exceeds extraction window",
	"Header field out of range",
	"Header field combination undefined by IEEE 802.11ax",
}

// errNames are stable identifiers used in logs, metrics and API responses.
var errNames = [5]string{
	"none",
	"insufficient_bits",
	"invalid_bitfield_width",
	"invalid_header_field",
	"invalid_header_combination",
}

// Error implements the error interface.
func (e Error) Error() string {
	if e >= 0 && int(e) < len(errMessages) {
		return errMessages[e]
	}
	return "unknown error"
}

// Name returns a stable snake_case identifier for the error kind.
func (e Error) Name() string {
	if e >= 0 && int(e) < len(errNames) {
		return errNames[e]
	}
	return "unknown"
}

// Kind returns the kind of a decoding error, ErrNone for nil and for
// errors that did not come from this package.
func Kind(err error) Error {
	var k Error
	if errors.As(err, &k) {
		return k
	}
	return ErrNone
}

// InsufficientBitsError reports a buffer too short for the header or for
// the requested layout.
type InsufficientBitsError struct {
	Required  int // bits needed
	Available int // bits in the buffer
}

func (e *InsufficientBitsError) Error() string {
	return fmt.Sprintf("bfi: received buffer of insufficient bit number: %d (required: %d)",
		e.Available, e.Required)
}

func (e *InsufficientBitsError) Unwrap() error { return ErrInsufficientBits }

// BitfieldWidthError reports a layout width outside [1, Allowed].
type BitfieldWidthError struct {
	Given   uint8
	Allowed uint8
}

func (e *BitfieldWidthError) Error() string {
	return fmt.Sprintf("bfi: bitsize %d outside handled range 1..%d", e.Given, e.Allowed)
}

func (e *BitfieldWidthError) Unwrap() error { return ErrInvalidBitfieldWidth }

// HeaderFieldError reports an enumerated header field with an undefined value.
type HeaderFieldError struct {
	Field string
	Value uint8
}

func (e *HeaderFieldError) Error() string {
	return fmt.Sprintf("bfi: invalid %s value: %d", e.Field, e.Value)
}

func (e *HeaderFieldError) Unwrap() error { return ErrInvalidHeaderField }

// HeaderCombinationError reports a pair of header fields with no defined
// meaning, such as a CQI feedback type or an unsupported Nr x Nc.
type HeaderCombinationError struct {
	Fields string   // e.g. "codebook_info/feedback_type"
	Values [2]uint8 // values of Fields, in the same order
	Reason string   // optional
}

func (e *HeaderCombinationError) Error() string {
	msg := fmt.Sprintf("bfi: undefined %s combination (%d, %d)", e.Fields, e.Values[0], e.Values[1])
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *HeaderCombinationError) Unwrap() error { return ErrInvalidHeaderCombination }
