package timeflip

import (
	"context"

	"github.com/srg/timeflip/timeflip/profile"
)

// runCommand performs one command exchange while holding the exchange lock.
func (c *Client) runCommand(ctx context.Context, cmd profile.Command, verify bool) error {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	return c.runCommandLocked(ctx, cmd, verify)
}

// runCommandLocked writes the command payload and, when verify is set, checks
// the echoed opcode/status pair the device exposes on a follow-up read of the
// same command input characteristic. Not every command is verified: the
// protocol has no universal ack, so verification is requested only where the
// command's semantics need confirmation.
//
// Callers must hold cmdMu.
func (c *Client) runCommandLocked(ctx context.Context, cmd profile.Command, verify bool) error {
	if err := c.link.Write(ctx, profile.CommandInput, cmd.Bytes(), true); err != nil {
		return &CommandError{Command: cmd.Name(), Failure: FailureExecution, cause: err}
	}

	if !verify {
		return nil
	}

	echo, err := c.link.Read(ctx, profile.CommandInput)
	if err != nil {
		return &CommandError{Command: cmd.Name(), Failure: FailureExecution, cause: err}
	}
	if len(echo) < 2 || echo[0] != cmd.Opcode() || echo[1] != profile.CommandOK {
		c.logger.WithFields(map[string]interface{}{
			"command": cmd.Name(),
			"echo":    echo,
		}).Debug("Command echo verification failed")
		return &CommandError{Command: cmd.Name(), Failure: FailureExecution}
	}
	return nil
}

// runCommandAndReadOutput performs a command exchange and reads its result
// packet. Results are always exactly 21 bytes; anything else fails as
// malformed, which in practice usually means the login heuristic lied and the
// session is not actually authenticated.
func (c *Client) runCommandAndReadOutput(ctx context.Context, cmd profile.Command, verify bool) ([]byte, error) {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	if err := c.runCommandLocked(ctx, cmd, verify); err != nil {
		return nil, err
	}

	data, err := c.link.Read(ctx, profile.CommandResult)
	if err != nil {
		return nil, &CommandError{Command: cmd.Name(), Failure: FailureExecution, cause: err}
	}
	if len(data) != profile.CommandResultLen {
		return nil, &CommandError{Command: cmd.Name(), Failure: FailureMalformedResult}
	}
	return data, nil
}
