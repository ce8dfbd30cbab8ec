package timeflip

import (
	"errors"
	"fmt"
)

// Session-level errors.
var (
	// ErrNotConnected indicates an operation that requires an active link.
	ErrNotConnected = errors.New("not connected to a TimeFlip device, connect first")

	// ErrNotTimeFlip indicates the connected peer failed the device-identity
	// probe: a BLE connection succeeded, but the peripheral does not expose
	// the TimeFlip facet characteristic.
	ErrNotTimeFlip = errors.New("connected device is not a TimeFlip")

	// ErrLoginRequired indicates an operation that requires the authenticated
	// session state. It is returned before any transport call is made.
	ErrLoginRequired = errors.New("command requires a login to the TimeFlip device")

	// ErrConnectionFailed indicates a transport-level failure during connect
	// or disconnect.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrInvalidArgument indicates a local range validation failure; nothing
	// was sent to the device.
	ErrInvalidArgument = errors.New("invalid argument")
)

// CommandFailure is the specific kind of command exchange failure.
type CommandFailure string

const (
	// FailureExecution means the echoed opcode/status pair did not confirm
	// the command, or the exchange failed at the transport.
	FailureExecution CommandFailure = "execution"

	// FailureMalformedResult means the command result was not exactly 21
	// bytes. An under-length result usually means the session is not actually
	// authenticated despite the login heuristic.
	FailureMalformedResult CommandFailure = "malformed_result"
)

// CommandError reports a failed command exchange, carrying the logical
// command name.
type CommandError struct {
	Command string
	Failure CommandFailure
	cause   error
}

// Error implements the error interface
func (e *CommandError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var msg string
	switch e.Failure {
	case FailureMalformedResult:
		msg = fmt.Sprintf("the result of the command %s is malformed, please check if you are logged in", e.Command)
	default:
		msg = fmt.Sprintf("unable to execute the command %s", e.Command)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap exposes the underlying transport error, if any.
func (e *CommandError) Unwrap() error {
	return e.cause
}

// Is allows errors.Is to compare CommandError values by Failure, and by
// Command when the target names one.
func (e *CommandError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*CommandError)
	if !ok {
		return false
	}
	if t.Command != "" && t.Command != e.Command {
		return false
	}
	return t.Failure == e.Failure
}

// Predefined targets for errors.Is checks.
var (
	ErrCommandExecution = &CommandError{Failure: FailureExecution}
	ErrMalformedResult  = &CommandError{Failure: FailureMalformedResult}
)
