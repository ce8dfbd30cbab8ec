// Package profile holds the fixed GATT profile of a TimeFlip v3 tracker:
// characteristic UUIDs, command opcodes and the byte-level constants of the
// command protocol. Everything here is derived from observed device behavior,
// not a published specification.
package profile

import (
	"encoding/binary"
	"fmt"
)

// UUID templates. The device exposes two namespaces: the Bluetooth SIG base
// for generic characteristics and a vendor base for TimeFlip-specific ones.
// Both are parameterized by a 16-bit short id.
const (
	GenericUUIDTemplate  = "0000%04x-0000-1000-8000-00805f9b34fb"
	TimeFlipUUIDTemplate = "f119%04x-71a4-11e6-bdf4-0800200c9a66"
)

// GenericUUID expands a 16-bit short id against the Bluetooth SIG base UUID.
func GenericUUID(short uint16) string {
	return fmt.Sprintf(GenericUUIDTemplate, short)
}

// TimeFlipUUID expands a 16-bit short id against the TimeFlip vendor base UUID.
func TimeFlipUUID(short uint16) string {
	return fmt.Sprintf(TimeFlipUUIDTemplate, short)
}

// Characteristic UUIDs, resolved once at package init.
var (
	AccelerometerData  = TimeFlipUUID(0x6f51)
	BatteryLevel       = GenericUUID(0x2a19)
	CalibrationVersion = TimeFlipUUID(0x6f56)
	CommandInput       = TimeFlipUUID(0x6f54)
	CommandResult      = TimeFlipUUID(0x6f53)
	DeviceName         = GenericUUID(0x2a00)
	Facet              = TimeFlipUUID(0x6f52)
	FirmwareRevision   = GenericUUID(0x2a26)
	PasswordInput      = TimeFlipUUID(0x6f57)
)

// Characteristics maps logical characteristic names to their full UUIDs.
var Characteristics = map[string]string{
	"accelerometer_data":  AccelerometerData,
	"battery_level":       BatteryLevel,
	"calibration_version": CalibrationVersion,
	"command_input":       CommandInput,
	"command_result":      CommandResult,
	"device_name":         DeviceName,
	"facet":               Facet,
	"firmware_revision":   FirmwareRevision,
	"password_input":      PasswordInput,
}

// Command opcodes.
const (
	OpHistory          byte = 0x01
	OpHistoryDelete    byte = 0x02
	OpCalibrationReset byte = 0x03
	OpLock             byte = 0x04
	OpAutoPause        byte = 0x05
	OpPause            byte = 0x06
	OpStatus           byte = 0x10
)

// Command protocol constants.
const (
	// CommandError and CommandOK are the status bytes echoed on a follow-up
	// read of the command input characteristic.
	CommandError byte = 0x01
	CommandOK    byte = 0x02

	// CommandResultLen is the exact length of every command result packet.
	CommandResultLen = 21

	// StatusSet marks a boolean as set in the status readout. The readout
	// reuses the command-status values, not the argument flag values.
	StatusSet byte = 0x02

	// FlagTrue and FlagFalse encode boolean command arguments. The device
	// does not use 0x00; false is its own flag value.
	FlagTrue  byte = 0x01
	FlagFalse byte = 0x02
)

// Facet id space.
const (
	// MaxFacetID is the highest id denoting a physical face.
	MaxFacetID uint8 = 62

	// PauseFacetID is the reserved id reported while the tracker is paused
	// with no face up.
	PauseFacetID uint8 = 63
)

// DefaultPassword is the factory password. It is restored every time the
// battery is removed and reinstalled.
const DefaultPassword = "000000"

// Command is an immutable opcode plus optional fixed-size argument bytes.
type Command struct {
	name    string
	payload []byte
}

func newCommand(name string, payload ...byte) Command {
	return Command{name: name, payload: payload}
}

// Name returns the logical command name, used in error reporting.
func (c Command) Name() string { return c.name }

// Opcode returns the first payload byte.
func (c Command) Opcode() byte { return c.payload[0] }

// Bytes returns a copy of the wire payload, so callers can never mutate the
// table entries.
func (c Command) Bytes() []byte {
	out := make([]byte, len(c.payload))
	copy(out, c.payload)
	return out
}

// Fixed commands without arguments.
var (
	CmdHistory          = newCommand("history", OpHistory)
	CmdHistoryDelete    = newCommand("history_delete", OpHistoryDelete)
	CmdCalibrationReset = newCommand("calibration_reset", OpCalibrationReset)
	CmdStatus           = newCommand("status", OpStatus)
)

// FlagByte encodes a boolean command argument.
func FlagByte(on bool) byte {
	if on {
		return FlagTrue
	}
	return FlagFalse
}

// CmdLock builds the lock_on/lock_off command.
func CmdLock(on bool) Command {
	name := "lock_off"
	if on {
		name = "lock_on"
	}
	return newCommand(name, OpLock, FlagByte(on))
}

// CmdPause builds the pause_on/pause_off command.
func CmdPause(on bool) Command {
	name := "pause_off"
	if on {
		name = "pause_on"
	}
	return newCommand(name, OpPause, FlagByte(on))
}

// CmdAutoPause builds the auto_pause command with a little-endian minute
// count argument.
func CmdAutoPause(minutes uint16) Command {
	var arg [2]byte
	binary.LittleEndian.PutUint16(arg[:], minutes)
	return newCommand("auto_pause", OpAutoPause, arg[0], arg[1])
}
