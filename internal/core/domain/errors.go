// Package domain defines the error taxonomy shared by the keyspace engine
// and its external collaborators.
//
// Errors carry the Redis reply prefix ("WRONGTYPE", "BUSYGROUP", "NOGROUP",
// "ERR") so the command dispatcher can format protocol errors verbatim.
// Absence of a key is never an error: operations return empty results.
package domain

import (
	"errors"
	"fmt"
)

// Error is a reply-coded engine error.
type Error struct {
	Code    string // Reply prefix, e.g. "WRONGTYPE" or "ERR".
	Message string // Human-readable message, as Redis formats it.
	Details string // Optional additional details.
}

// Error implements the error interface. The result is the exact reply
// text a RESP dispatcher would send, minus the leading "-".
func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s %s", e.Code, e.Message)
}

// Is matches errors by code and message, so WithDetails variants still
// compare equal to their base error under errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New creates a new coded Error.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithDetails returns a copy of the error with additional details.
func (e *Error) WithDetails(details string) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details}
}

// Errorf creates an ERR-coded error with a formatted message.
func Errorf(format string, args ...any) *Error {
	return &Error{Code: "ERR", Message: fmt.Sprintf(format, args...)}
}

// IsWrongType reports whether err signals a type mismatch.
func IsWrongType(err error) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == "WRONGTYPE"
	}
	return false
}

// Code extracts the reply code from an error, or "" for non-domain errors.
func Code(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Keyspace errors.
var (
	// ErrWrongType indicates an operation against a key holding an
	// incompatible value type.
	ErrWrongType = New("WRONGTYPE", "Operation against a key holding the wrong kind of value")

	// ErrInvalidDBIndex indicates a database index outside [0, 16).
	ErrInvalidDBIndex = New("ERR", "DB index is out of range")

	// ErrNoSuchKey indicates a required source key is absent.
	ErrNoSuchKey = New("ERR", "no such key")
)

// String and bit operation errors.
var (
	// ErrNotInteger indicates a value that does not parse as a signed 64-bit integer.
	ErrNotInteger = New("ERR", "value is not an integer or out of range")

	// ErrIntegerOverflow indicates an increment that would overflow int64.
	ErrIntegerOverflow = New("ERR", "increment or decrement would overflow a 64 bit signed integer")

	// ErrNotFloat indicates a value that does not parse as a float.
	ErrNotFloat = New("ERR", "value is not a valid float")

	// ErrBitOffset indicates a bit offset beyond 2^32-1.
	ErrBitOffset = New("ERR", "bit offset is not an integer or out of range")

	// ErrBitValue indicates a bit argument other than 0 or 1.
	ErrBitValue = New("ERR", "bit is not an integer or out of range")

	// ErrStringTooLong indicates a write past the 512 MiB string limit.
	ErrStringTooLong = New("ERR", "string exceeds maximum allowed size (proto-max-bulk-len)")
)

// Stream and consumer-group errors.
var (
	// ErrInvalidStreamID indicates a malformed stream entry id.
	ErrInvalidStreamID = New("ERR", "Invalid stream ID specified as stream command argument")

	// ErrStreamIDTooSmall indicates an XADD id at or below the stream's last id.
	ErrStreamIDTooSmall = New("ERR", "The ID specified in XADD is equal or smaller than the target stream top item")

	// ErrXGroupNoKey indicates XGROUP CREATE on a missing key without MKSTREAM.
	ErrXGroupNoKey = New("ERR", "The XGROUP subcommand requires the key to exist. "+
		"Note that for CREATE you may want to use the MKSTREAM option to create an empty stream automatically.")

	// ErrBusyGroup indicates the consumer group already exists.
	ErrBusyGroup = New("BUSYGROUP", "Consumer Group name already exists")

	// ErrNoGroup indicates the consumer group (or its key) does not exist.
	ErrNoGroup = New("NOGROUP", "No such key or consumer group")
)
