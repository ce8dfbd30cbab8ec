package timeflip_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/srg/timeflip/internal/link"
	"github.com/srg/timeflip/internal/testutils"
	"github.com/srg/timeflip/timeflip"
	"github.com/srg/timeflip/timeflip/profile"
	"github.com/stretchr/testify/suite"
)

// quietLogger returns a logger that swallows output during tests.
func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// resultPacket builds a 21-byte command result from a shorter prefix.
func resultPacket(prefix ...byte) []byte {
	pkt := make([]byte, profile.CommandResultLen)
	copy(pkt, prefix)
	return pkt
}

type ClientTestSuite struct {
	suite.Suite

	mock   *testutils.MockPeripheral
	client *timeflip.Client
	ctx    context.Context
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (suite *ClientTestSuite) SetupTest() {
	suite.mock = testutils.NewMockPeripheral()
	suite.client = timeflip.NewClient(suite.mock, &timeflip.Options{Logger: quietLogger()})
	suite.ctx = context.Background()
}

// connectAndLogin brings the session to the authenticated state.
func (suite *ClientTestSuite) connectAndLogin() {
	suite.Require().NoError(suite.client.Connect(suite.ctx), "MUST connect successfully")
	suite.Require().NoError(suite.client.Login(suite.ctx, profile.DefaultPassword), "MUST login successfully")
	suite.Require().True(suite.client.Authenticated(), "session MUST be authenticated")
}

func (suite *ClientTestSuite) TestConnect() {
	// GOAL: Verify the connect sequence: transport connect plus the
	// device-identity probe on the facet characteristic
	//
	// TEST SCENARIO: Connect under various transport conditions → session state
	// and error kinds match

	suite.Run("successful connect sets connected state", func() {
		err := suite.client.Connect(suite.ctx)

		suite.Assert().NoError(err)
		suite.Assert().True(suite.client.Connected(), "session MUST be connected")
		suite.Assert().False(suite.client.Authenticated(), "connect alone MUST NOT authenticate")
	})

	suite.Run("transport failure maps to ErrConnectionFailed", func() {
		mock := testutils.NewMockPeripheral().WithConnectError(errors.New("radio off"))
		client := timeflip.NewClient(mock, &timeflip.Options{Logger: quietLogger()})

		err := client.Connect(suite.ctx)

		suite.Assert().ErrorIs(err, timeflip.ErrConnectionFailed, "error MUST be ErrConnectionFailed")
		suite.Assert().False(client.Connected(), "session MUST NOT be connected")
	})

	suite.Run("failed identity probe maps to ErrNotTimeFlip", func() {
		// A BLE connection alone does not prove the peer is a TimeFlip; the
		// facet read is the identity probe.
		mock := testutils.NewMockPeripheral().
			WithReadError(profile.Facet, errors.New("att error: attribute not found"))
		client := timeflip.NewClient(mock, &timeflip.Options{Logger: quietLogger()})

		err := client.Connect(suite.ctx)

		suite.Assert().ErrorIs(err, timeflip.ErrNotTimeFlip, "error MUST be ErrNotTimeFlip")
		suite.Assert().True(client.Connected(), "link MUST stay up so the caller can disconnect")
	})
}

func (suite *ClientTestSuite) TestLoginHeuristic() {
	// GOAL: Verify the best-effort login heuristic: success is inferred from a
	// non-empty facet read after the password write, since the device gives no
	// explicit auth signal
	//
	// TEST SCENARIO: Login with accepted and rejected passwords → authenticated
	// flag reflects the probe outcome, never an error

	suite.Run("accepted password authenticates", func() {
		suite.Require().NoError(suite.client.Connect(suite.ctx))

		err := suite.client.Login(suite.ctx, profile.DefaultPassword)

		suite.Assert().NoError(err)
		suite.Assert().True(suite.client.Authenticated(), "session MUST be authenticated")

		writes := suite.mock.Writes(profile.PasswordInput)
		suite.Require().Len(writes, 1, "password MUST be written exactly once")
		suite.Assert().Equal([]byte(profile.DefaultPassword), writes[0])
	})

	suite.Run("rejected password leaves session unauthenticated without error", func() {
		mock := testutils.NewMockPeripheral().WithPassword("123456")
		client := timeflip.NewClient(mock, &timeflip.Options{Logger: quietLogger()})
		suite.Require().NoError(client.Connect(suite.ctx))

		err := client.Login(suite.ctx, "000000")

		suite.Assert().NoError(err, "heuristic rejection is not an error")
		suite.Assert().False(client.Authenticated(), "session MUST NOT be authenticated")
	})

	suite.Run("login requires connection", func() {
		err := suite.client.Login(suite.ctx, profile.DefaultPassword)

		suite.Assert().ErrorIs(err, timeflip.ErrNotConnected)
	})
}

func (suite *ClientTestSuite) TestLoginGating() {
	// GOAL: Verify login-gated operations fail fast with ErrLoginRequired and
	// never touch the transport while unauthenticated
	//
	// TEST SCENARIO: Connected but unauthenticated session → each gated
	// operation fails locally → transport call count is unchanged

	suite.Require().NoError(suite.client.Connect(suite.ctx))
	before := len(suite.mock.Calls())

	gated := map[string]func() error{
		"current facet": func() error { _, err := suite.client.CurrentFacet(suite.ctx); return err },
		"accelerometer": func() error { _, err := suite.client.AccelerometerData(suite.ctx); return err },
		"status":        func() error { _, err := suite.client.GetStatus(suite.ctx); return err },
		"history":       func() error { _, err := suite.client.GetHistory(suite.ctx); return err },
		"clear history": func() error { return suite.client.ClearHistory(suite.ctx) },
		"pause":         func() error { return suite.client.Pause(suite.ctx) },
		"unpause":       func() error { return suite.client.Unpause(suite.ctx) },
		"lock":          func() error { return suite.client.SetLocked(suite.ctx, true) },
		"auto-pause":    func() error { return suite.client.SetAutoPause(suite.ctx, 5) },
		"calibration":   func() error { _, err := suite.client.CalibrationVersion(suite.ctx); return err },
		"set calibration": func() error {
			return suite.client.SetCalibrationVersion(suite.ctx, 1)
		},
		"reset calibration": func() error { return suite.client.ResetCalibration(suite.ctx) },
		"facet stream":      func() error { return suite.client.StartFacetStream(func(timeflip.FacetEvent) {}) },
	}

	for name, op := range gated {
		suite.Run(name, func() {
			err := op()

			suite.Assert().ErrorIs(err, timeflip.ErrLoginRequired, "operation MUST fail with ErrLoginRequired")
			suite.Assert().Len(suite.mock.Calls(), before, "no transport call may be issued")
		})
	}
}

func (suite *ClientTestSuite) TestConnectionGating() {
	// GOAL: Verify connection-gated getters fail with ErrNotConnected before
	// any link activity

	suite.Run("battery level", func() {
		_, err := suite.client.BatteryLevel(suite.ctx)
		suite.Assert().ErrorIs(err, timeflip.ErrNotConnected)
	})

	suite.Run("disconnect", func() {
		err := suite.client.Disconnect()
		suite.Assert().ErrorIs(err, timeflip.ErrNotConnected)
	})

	suite.Assert().Empty(suite.mock.Calls(), "no transport call may be issued")
}

func (suite *ClientTestSuite) TestSimpleGetters() {
	// GOAL: Verify connection-gated characteristic reads decode fixed-width
	// little-endian values and ASCII strings

	suite.Require().NoError(suite.client.Connect(suite.ctx))

	suite.Run("battery level", func() {
		level, err := suite.client.BatteryLevel(suite.ctx)

		suite.Require().NoError(err)
		suite.Assert().Equal(85, level)
	})

	suite.Run("firmware revision", func() {
		rev, err := suite.client.FirmwareRevision(suite.ctx)

		suite.Require().NoError(err)
		suite.Assert().Equal("TFv3.1", rev)
	})

	suite.Run("device name", func() {
		name, err := suite.client.DeviceName(suite.ctx)

		suite.Require().NoError(err)
		suite.Assert().Equal("TimeFlip", name)
	})
}

func (suite *ClientTestSuite) TestCurrentFacet() {
	suite.connectAndLogin()

	suite.mock.WithValue(profile.Facet, []byte{0x0c})

	facet, err := suite.client.CurrentFacet(suite.ctx)

	suite.Require().NoError(err)
	suite.Assert().Equal(uint8(12), facet)
}

func (suite *ClientTestSuite) TestEchoVerification() {
	// GOAL: Verify the command echo check: success requires the echoed opcode
	// to equal the sent opcode and the status byte to be OK
	//
	// TEST SCENARIO: Status exchange with OK echo, error status, and foreign
	// opcode echo → only the OK echo succeeds

	suite.connectAndLogin()

	suite.Run("matching echo succeeds", func() {
		suite.mock.WithCommandResult(profile.OpStatus, resultPacket(0x01, 0x02, 0x00, 0x64))

		_, err := suite.client.GetStatus(suite.ctx)

		suite.Assert().NoError(err)
	})

	suite.Run("error status fails with CommandError", func() {
		suite.mock.WithEchoStatus(profile.OpStatus, profile.CommandError)

		_, err := suite.client.GetStatus(suite.ctx)

		suite.Assert().ErrorIs(err, timeflip.ErrCommandExecution, "error MUST be a command execution failure")

		var cmdErr *timeflip.CommandError
		suite.Require().ErrorAs(err, &cmdErr)
		suite.Assert().Equal("status", cmdErr.Command, "error MUST carry the command name")
	})

	suite.Run("foreign opcode echo fails with CommandError", func() {
		suite.mock.WithEcho(profile.OpStatus, []byte{profile.OpHistory, profile.CommandOK})

		_, err := suite.client.GetStatus(suite.ctx)

		suite.Assert().ErrorIs(err, timeflip.ErrCommandExecution)
	})
}

func (suite *ClientTestSuite) TestGetStatus() {
	// GOAL: Verify the status snapshot decoding
	//
	// TEST SCENARIO: Result bytes 01 02 00 64 → not locked, paused, auto-pause
	// 0x0064 minutes

	suite.connectAndLogin()
	suite.mock.WithCommandResult(profile.OpStatus, resultPacket(0x01, 0x02, 0x00, 0x64))

	status, err := suite.client.GetStatus(suite.ctx)

	suite.Require().NoError(err)
	suite.Assert().False(status.Locked, "locked MUST be false")
	suite.Assert().True(status.Paused, "paused MUST be true")
	suite.Assert().Equal(uint16(0x0064), status.AutoPauseMinutes)
}

func (suite *ClientTestSuite) TestMalformedResult() {
	// GOAL: Verify result length enforcement: anything but 21 bytes is a
	// malformed result, the usual symptom of a lying login heuristic

	suite.connectAndLogin()
	suite.mock.WithCommandResult(profile.OpStatus, []byte{0x01, 0x02})

	_, err := suite.client.GetStatus(suite.ctx)

	suite.Assert().ErrorIs(err, timeflip.ErrMalformedResult, "error MUST be a malformed result failure")

	var cmdErr *timeflip.CommandError
	suite.Require().ErrorAs(err, &cmdErr)
	suite.Assert().Equal("status", cmdErr.Command)
}

func (suite *ClientTestSuite) TestSetAutoPauseValidation() {
	// GOAL: Verify local range validation rejects out-of-range minute values
	// before any transport write occurs

	suite.connectAndLogin()
	before := len(suite.mock.Writes(profile.CommandInput))

	suite.Run("value above 16 bits", func() {
		err := suite.client.SetAutoPause(suite.ctx, 70000)

		suite.Assert().ErrorIs(err, timeflip.ErrInvalidArgument)
		suite.Assert().Len(suite.mock.Writes(profile.CommandInput), before, "no write may reach the device")
	})

	suite.Run("negative value", func() {
		err := suite.client.SetAutoPause(suite.ctx, -1)

		suite.Assert().ErrorIs(err, timeflip.ErrInvalidArgument)
		suite.Assert().Len(suite.mock.Writes(profile.CommandInput), before, "no write may reach the device")
	})

	suite.Run("valid value is encoded little-endian", func() {
		err := suite.client.SetAutoPause(suite.ctx, 0x0064)

		suite.Require().NoError(err)
		writes := suite.mock.Writes(profile.CommandInput)
		suite.Require().Len(writes, before+1)
		suite.Assert().Equal([]byte{profile.OpAutoPause, 0x64, 0x00}, writes[len(writes)-1])
	})
}

func (suite *ClientTestSuite) TestOneShotCommands() {
	// GOAL: Verify unverified one-shot commands write their payload and read
	// nothing back

	suite.connectAndLogin()

	type oneShot struct {
		run     func() error
		payload []byte
	}
	commands := map[string]oneShot{
		"unpause":           {run: func() error { return suite.client.Unpause(suite.ctx) }, payload: []byte{0x06, 0x02}},
		"pause":             {run: func() error { return suite.client.Pause(suite.ctx) }, payload: []byte{0x06, 0x01}},
		"lock":              {run: func() error { return suite.client.SetLocked(suite.ctx, true) }, payload: []byte{0x04, 0x01}},
		"unlock":            {run: func() error { return suite.client.SetLocked(suite.ctx, false) }, payload: []byte{0x04, 0x02}},
		"clear history":     {run: func() error { return suite.client.ClearHistory(suite.ctx) }, payload: []byte{0x02}},
		"reset calibration": {run: func() error { return suite.client.ResetCalibration(suite.ctx) }, payload: []byte{0x03}},
	}

	for name, cmd := range commands {
		suite.Run(name, func() {
			before := suite.mock.Writes(profile.CommandInput)

			suite.Require().NoError(cmd.run())

			writes := suite.mock.Writes(profile.CommandInput)
			suite.Require().Len(writes, len(before)+1)
			suite.Assert().Equal(cmd.payload, writes[len(writes)-1])
		})
	}
}

func (suite *ClientTestSuite) TestCalibrationVersion() {
	suite.connectAndLogin()
	suite.mock.WithValue(profile.CalibrationVersion, []byte{0x2a, 0x00, 0x00, 0x00})

	suite.Run("get decodes little-endian", func() {
		version, err := suite.client.CalibrationVersion(suite.ctx)

		suite.Require().NoError(err)
		suite.Assert().Equal(uint32(42), version)
	})

	suite.Run("set writes 4-byte little-endian payload with response", func() {
		suite.Require().NoError(suite.client.SetCalibrationVersion(suite.ctx, 0x01020304))

		writes := suite.mock.Writes(profile.CalibrationVersion)
		suite.Require().Len(writes, 1)
		suite.Assert().Equal([]byte{0x04, 0x03, 0x02, 0x01}, writes[0])
	})
}

func (suite *ClientTestSuite) TestGetHistory() {
	// GOAL: Verify the full history drain: command write, multi-packet result
	// stream, sentinel termination, count-based trimming and per-facet grouping
	//
	// TEST SCENARIO: One data packet (count 3) plus the all-zero terminator →
	// three entries grouped by facet in arrival order → no echo read occurs

	suite.connectAndLogin()

	// Bytes 0-1 carry the little-endian total count and double as the first
	// record slot; records are facet<<2 in the third byte plus an 18-bit
	// little-endian duration.
	data := resultPacket(
		0x03, 0x00, 0x00, // count=3, decoded as record (facet 0, 3s)
		0x2c, 0x01, 0x14, // facet 5, 300s
		0x3c, 0x00, 0x14, // facet 5, 60s
	)
	sentinel := resultPacket()
	suite.mock.WithCommandResult(profile.OpHistory, data, sentinel)

	grouped, err := suite.client.GetHistory(suite.ctx)

	suite.Require().NoError(err)
	suite.Require().Equal(2, grouped.Len(), "entries MUST group into two facets")

	first := grouped.Oldest()
	suite.Assert().Equal(uint8(0), first.Key)
	suite.Assert().Equal([]uint32{3}, first.Value)

	second := first.Next()
	suite.Assert().Equal(uint8(5), second.Key)
	suite.Assert().Equal([]uint32{300, 60}, second.Value, "durations MUST keep arrival order")

	// The history command relies on the packet stream, not the echo protocol.
	commandInput := suite.mock.Writes(profile.CommandInput)
	suite.Require().Len(commandInput, 1)
	suite.Assert().Equal([]byte{profile.OpHistory}, commandInput[0])
	for _, call := range suite.mock.Calls() {
		if call.Op == "read" {
			suite.Assert().NotEqual(link.NormalizeUUID(profile.CommandInput), call.Characteristic,
				"no command input echo read may occur")
		}
	}
}

func (suite *ClientTestSuite) TestDisconnect() {
	// GOAL: Verify disconnect ordering and state reset: an active facet
	// subscription is unsubscribed before the transport disconnect, and all
	// session flags clear even when teardown partially fails
	//
	// TEST SCENARIO: Notifying session disconnects → unsubscribe precedes
	// disconnect on the wire → flags cleared

	suite.Run("unsubscribes facet stream before transport disconnect", func() {
		suite.connectAndLogin()
		suite.Require().NoError(suite.client.StartFacetStream(func(timeflip.FacetEvent) {}))

		suite.Require().NoError(suite.client.Disconnect())

		ops := suite.mock.CallOps()
		unsubIdx, discIdx := -1, -1
		for i, op := range ops {
			switch op {
			case "unsubscribe":
				unsubIdx = i
			case "disconnect":
				discIdx = i
			}
		}
		suite.Require().NotEqual(-1, unsubIdx, "unsubscribe MUST be issued")
		suite.Require().NotEqual(-1, discIdx, "disconnect MUST be issued")
		suite.Assert().Less(unsubIdx, discIdx, "unsubscribe MUST precede disconnect")

		suite.Assert().False(suite.client.Connected())
		suite.Assert().False(suite.client.Authenticated())
		suite.Assert().False(suite.client.Notifying())
	})

	suite.Run("flags clear even when transport disconnect fails", func() {
		mock := testutils.NewMockPeripheral().WithDisconnectError(errors.New("link reset"))
		client := timeflip.NewClient(mock, &timeflip.Options{Logger: quietLogger()})
		suite.Require().NoError(client.Connect(suite.ctx))

		err := client.Disconnect()

		suite.Assert().ErrorIs(err, timeflip.ErrConnectionFailed)
		suite.Assert().False(client.Connected(), "flags MUST clear, the link is gone regardless")
	})
}
