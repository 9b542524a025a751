// Package vaulterrors provides error codes and sentinel errors shared across
// vaultd's dispatch core. It is a leaf package with no internal dependencies,
// so both pkg/task and pkg/server can import it without a circular import.
package vaulterrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for wire-message translation. The dispatch core
// never renders Code to the wire directly; pkg/protocol owns the mapping
// from a Go error to the "ERROR: <message>" line the client sees.
type Code int

const (
	// CodeUnknown is the zero value; treated as an internal error.
	CodeUnknown Code = iota

	// CodeParse indicates a malformed or unrecognised protocol line.
	CodeParse

	// CodeAuth indicates an authentication or signup failure.
	CodeAuth

	// CodeBusy indicates the file-lock table denied a try-acquire.
	CodeBusy

	// CodeNotFound indicates the requested file does not exist.
	CodeNotFound

	// CodeStorage indicates a failure from the storage collaborator.
	CodeStorage

	// CodeFraming indicates a body-framing violation (short read, oversized length).
	CodeFraming

	// CodeCapacity indicates a queue or lock-table was at capacity.
	CodeCapacity

	// CodeShutdown indicates the operation was aborted by server shutdown.
	CodeShutdown
)

func (c Code) String() string {
	switch c {
	case CodeParse:
		return "parse"
	case CodeAuth:
		return "auth"
	case CodeBusy:
		return "busy"
	case CodeNotFound:
		return "not_found"
	case CodeStorage:
		return "storage"
	case CodeFraming:
		return "framing"
	case CodeCapacity:
		return "capacity"
	case CodeShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// CodedError pairs a Code with a human-readable message safe to forward to
// the client verbatim.
type CodedError struct {
	Code    Code
	Message string
	Err     error
}

func (e *CodedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CodedError) Unwrap() error {
	return e.Err
}

// New creates a CodedError with no wrapped cause.
func New(code Code, message string) *CodedError {
	return &CodedError{Code: code, Message: message}
}

// Wrap creates a CodedError that wraps an underlying cause.
func Wrap(code Code, message string, err error) *CodedError {
	return &CodedError{Code: code, Message: message, Err: err}
}

// CodeOf extracts the Code from err, or CodeUnknown if err is not a CodedError.
func CodeOf(err error) Code {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeUnknown
}

// Sentinel errors used by components below the protocol layer that do not
// need a client-facing message attached at the point they are raised.
var (
	// ErrShutdown is returned by a blocked queue or rendezvous operation
	// when shutdown has been signalled while it was waiting.
	ErrShutdown = errors.New("vaultd: shutdown in progress")

	// ErrQueueFull reports a full queue. SocketQueue and TaskQueue do not
	// return it: their Enqueue blocks while the queue is full.
	ErrQueueFull = errors.New("vaultd: queue is full")

	// ErrBusy is returned by the file-lock table when a key is already held.
	ErrBusy = errors.New("vaultd: file is currently being accessed by another operation")

	// ErrLockTableFull is returned when the file-lock table is at capacity.
	ErrLockTableFull = errors.New("vaultd: lock table at capacity")

	// ErrNotHeld is returned by Release on a key that is not currently held.
	ErrNotHeld = errors.New("vaultd: lock not held")
)
