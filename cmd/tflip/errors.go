package main

import (
	"errors"

	"github.com/srg/timeflip/timeflip"
)

// Command-level errors
var (
	// ErrConnectionLost indicates the BLE connection was unexpectedly lost
	// during a watch. This is distinct from timeflip.ErrNotConnected, which
	// indicates an attempt to use a session that was never established.
	ErrConnectionLost = errors.New("connection lost")
)

// formatUserError maps driver errors to actionable one-line messages; anything
// unrecognized is printed as-is.
func formatUserError(err error) string {
	switch {
	case errors.Is(err, timeflip.ErrNotTimeFlip):
		return "the device at this address does not speak the TimeFlip protocol; check the address with a BLE scanner"
	case errors.Is(err, timeflip.ErrConnectionFailed):
		return "could not reach the device; make sure it is awake and in range"
	case errors.Is(err, timeflip.ErrMalformedResult):
		return "the device returned garbage, which usually means the password is wrong"
	case errors.Is(err, timeflip.ErrLoginRequired):
		return "this operation requires a logged-in session"
	case errors.Is(err, ErrConnectionLost):
		return "the connection to the device was lost"
	default:
		return err.Error()
	}
}
