package timeflip

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/srg/timeflip/timeflip/history"
	"github.com/srg/timeflip/timeflip/profile"
)

// Status is the device status snapshot returned by one status command
// exchange. It is never cached; every call re-fetches it.
type Status struct {
	Locked           bool
	Paused           bool
	AutoPauseMinutes uint16
}

// BatteryLevel returns the battery charge percentage (0 to 100).
func (c *Client) BatteryLevel(ctx context.Context) (int, error) {
	if err := c.guard(requiresConnected); err != nil {
		return 0, err
	}
	data, err := c.link.Read(ctx, profile.BatteryLevel)
	if err != nil {
		return 0, fmt.Errorf("reading battery level: %w", err)
	}
	return int(leUint(data)), nil
}

// FirmwareRevision returns the device firmware revision string.
func (c *Client) FirmwareRevision(ctx context.Context) (string, error) {
	if err := c.guard(requiresConnected); err != nil {
		return "", err
	}
	data, err := c.link.Read(ctx, profile.FirmwareRevision)
	if err != nil {
		return "", fmt.Errorf("reading firmware revision: %w", err)
	}
	return string(data), nil
}

// DeviceName returns the advertised GAP device name.
func (c *Client) DeviceName(ctx context.Context) (string, error) {
	if err := c.guard(requiresConnected); err != nil {
		return "", err
	}
	data, err := c.link.Read(ctx, profile.DeviceName)
	if err != nil {
		return "", fmt.Errorf("reading device name: %w", err)
	}
	return string(data), nil
}

// CurrentFacet returns the id of the face currently up. The reserved id 63
// means the tracker is paused with no face up.
func (c *Client) CurrentFacet(ctx context.Context) (uint8, error) {
	if err := c.guard(requiresLogin); err != nil {
		return 0, err
	}
	data, err := c.link.Read(ctx, profile.Facet)
	if err != nil {
		return 0, fmt.Errorf("reading facet: %w", err)
	}
	return uint8(leUint(data)), nil
}

// AccelerometerData returns the raw accelerometer characteristic bytes. The
// layout is unpublished, so no decoding is attempted.
func (c *Client) AccelerometerData(ctx context.Context) ([]byte, error) {
	if err := c.guard(requiresLogin); err != nil {
		return nil, err
	}
	data, err := c.link.Read(ctx, profile.AccelerometerData)
	if err != nil {
		return nil, fmt.Errorf("reading accelerometer data: %w", err)
	}
	return data, nil
}

// GetStatus fetches the lock/pause/auto-pause snapshot via one verified
// status command exchange.
func (c *Client) GetStatus(ctx context.Context) (Status, error) {
	if err := c.guard(requiresLogin); err != nil {
		return Status{}, err
	}
	data, err := c.runCommandAndReadOutput(ctx, profile.CmdStatus, true)
	if err != nil {
		return Status{}, err
	}
	// The status readout does not reuse the argument flag encoding: booleans
	// come back as command-status values (0x02 = set), and the auto-pause
	// minute count is big-endian, unlike command arguments.
	return Status{
		Locked:           data[0] == profile.StatusSet,
		Paused:           data[1] == profile.StatusSet,
		AutoPauseMinutes: binary.BigEndian.Uint16(data[2:4]),
	}, nil
}

// Pause suspends time counting until Unpause or a physical flip.
func (c *Client) Pause(ctx context.Context) error {
	if err := c.guard(requiresLogin); err != nil {
		return err
	}
	return c.runCommand(ctx, profile.CmdPause(true), false)
}

// Unpause resumes time counting.
func (c *Client) Unpause(ctx context.Context) error {
	if err := c.guard(requiresLogin); err != nil {
		return err
	}
	return c.runCommand(ctx, profile.CmdPause(false), false)
}

// SetLocked locks or unlocks the tracker.
func (c *Client) SetLocked(ctx context.Context, locked bool) error {
	if err := c.guard(requiresLogin); err != nil {
		return err
	}
	return c.runCommand(ctx, profile.CmdLock(locked), false)
}

// SetAutoPause sets the auto-pause time in minutes. The value must fit 16
// bits; out-of-range values are rejected locally before anything is written.
func (c *Client) SetAutoPause(ctx context.Context, minutes int) error {
	if err := c.guard(requiresLogin); err != nil {
		return err
	}
	if minutes < 0 {
		return fmt.Errorf("%w: auto-pause minutes must not be negative", ErrInvalidArgument)
	}
	if minutes>>16 > 0 {
		return fmt.Errorf("%w: auto-pause minutes must fit two bytes", ErrInvalidArgument)
	}
	return c.runCommand(ctx, profile.CmdAutoPause(uint16(minutes)), true)
}

// ResetCalibration resets the calibration version. The device also resets it
// on every battery replacement.
func (c *Client) ResetCalibration(ctx context.Context) error {
	if err := c.guard(requiresLogin); err != nil {
		return err
	}
	return c.runCommand(ctx, profile.CmdCalibrationReset, false)
}

// CalibrationVersion returns the calibration version synced with the device.
func (c *Client) CalibrationVersion(ctx context.Context) (uint32, error) {
	if err := c.guard(requiresLogin); err != nil {
		return 0, err
	}
	data, err := c.link.Read(ctx, profile.CalibrationVersion)
	if err != nil {
		return 0, fmt.Errorf("reading calibration version: %w", err)
	}
	return uint32(leUint(data)), nil
}

// SetCalibrationVersion writes a new calibration version as a 4-byte
// little-endian payload.
func (c *Client) SetCalibrationVersion(ctx context.Context, version uint32) error {
	if err := c.guard(requiresLogin); err != nil {
		return err
	}
	var payload [4]byte
	binary.LittleEndian.PutUint32(payload[:], version)
	if err := c.link.Write(ctx, profile.CalibrationVersion, payload[:], true); err != nil {
		return fmt.Errorf("writing calibration version: %w", err)
	}
	return nil
}

// ClearHistory deletes all stored recordings on the device.
func (c *Client) ClearHistory(ctx context.Context) error {
	if err := c.guard(requiresLogin); err != nil {
		return err
	}
	return c.runCommand(ctx, profile.CmdHistoryDelete, false)
}

// GetHistory drains the multi-packet history stream and returns the
// recordings grouped per facet, preserving arrival order.
//
// The history command itself is not echo-verified: the absence of result
// packets is the failure signal. The whole drain holds the exchange lock so
// no other command can interleave with the packet stream.
func (c *Client) GetHistory(ctx context.Context) (*history.ByFacet, error) {
	if err := c.guard(requiresLogin); err != nil {
		return nil, err
	}

	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	if err := c.runCommandLocked(ctx, profile.CmdHistory, false); err != nil {
		return nil, err
	}

	decoder := history.NewDecoder()
	for !decoder.Done() {
		pkt, err := c.link.Read(ctx, profile.CommandResult)
		if err != nil {
			return nil, &CommandError{Command: profile.CmdHistory.Name(), Failure: FailureExecution, cause: err}
		}
		if _, err := decoder.Push(pkt); err != nil {
			return nil, &CommandError{Command: profile.CmdHistory.Name(), Failure: FailureMalformedResult, cause: err}
		}
	}

	c.logger.WithField("entries", len(decoder.Entries())).Debug("History stream drained")
	return decoder.Group(), nil
}

// leUint decodes a little-endian unsigned integer of up to 8 bytes, matching
// the device's variable-width characteristic values.
func leUint(data []byte) uint64 {
	var v uint64
	for i := len(data) - 1; i >= 0; i-- {
		v = v<<8 | uint64(data[i])
	}
	return v
}
