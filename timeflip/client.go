package timeflip

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/srg/timeflip/internal/link"
	"github.com/srg/timeflip/timeflip/profile"
)

// session tracks the connected → authenticated → notifying progression.
// Invariants: authenticated implies connected, notifying implies
// authenticated. All flags reset together on disconnect.
type session struct {
	connected     bool
	authenticated bool
	notifying     bool
}

// requirement is a session precondition checked at the top of an operation.
type requirement int

const (
	requiresConnected requirement = iota + 1
	requiresLogin
)

// require checks one precondition against a session snapshot and returns the
// corresponding typed error, so every operation gates the same way.
func (s session) require(req requirement) error {
	switch req {
	case requiresLogin:
		if !s.authenticated {
			return ErrLoginRequired
		}
	case requiresConnected:
		if !s.connected {
			return ErrNotConnected
		}
	}
	return nil
}

// Options configures a Client.
type Options struct {
	// Logger receives structured session and protocol logs. Defaults to a
	// fresh logrus logger when nil.
	Logger *logrus.Logger
}

// Client drives the TimeFlip protocol over an injected transport link.
//
// A Client owns exactly one logical session. Command exchanges share the
// command input/result characteristic pair, so the Client serializes them
// internally; the facet notification stream is push-driven and runs
// independently of command execution.
type Client struct {
	link   link.Link
	logger *logrus.Logger

	// cmdMu allows one in-flight command exchange at a time. Interleaving two
	// exchanges on the shared input/result pair corrupts both.
	cmdMu sync.Mutex

	stateMu sync.RWMutex
	state   session
}

// NewClient creates a Client over the given transport link.
func NewClient(l link.Link, opts *Options) *Client {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{link: l, logger: logger}
}

// Connected reports whether the transport link is up.
func (c *Client) Connected() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state.connected
}

// Authenticated reports whether the login heuristic succeeded. This is
// "probably logged in", not a guarantee; see Login.
func (c *Client) Authenticated() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state.authenticated
}

// Notifying reports whether the facet notification stream is active.
func (c *Client) Notifying() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state.notifying
}

// guard checks a precondition against the current session state without
// touching the transport.
func (c *Client) guard(req requirement) error {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state.require(req)
}

func (c *Client) setState(mutate func(*session)) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	mutate(&c.state)
}

// Connect establishes the transport link and probes device identity.
//
// A successful BLE connection alone does not validate that the peer is a
// TimeFlip, so after the link reports connected the facet characteristic is
// read once; a protocol-level failure of that probe fails with ErrNotTimeFlip.
// The link stays up in that case so the caller can inspect or disconnect.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.link.Connect(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	c.setState(func(s *session) { s.connected = true })

	if _, err := c.link.Read(ctx, profile.Facet); err != nil {
		c.logger.WithError(err).Warn("Facet probe failed, peer is not a TimeFlip")
		return fmt.Errorf("%w: %v", ErrNotTimeFlip, err)
	}

	c.logger.Info("Connected to TimeFlip device")
	return nil
}

// Disconnect unsubscribes an active facet stream and tears the link down.
// Session flags are always cleared on return, even if the unsubscribe or the
// transport disconnect fails, because the link is going away regardless.
func (c *Client) Disconnect() error {
	if err := c.guard(requiresConnected); err != nil {
		return err
	}

	if c.Notifying() {
		// No dangling subscription may persist across sessions.
		if err := c.link.Unsubscribe(profile.Facet); err != nil {
			c.logger.WithError(err).Warn("Failed to unsubscribe facet notifications during disconnect")
		}
	}

	err := c.link.Disconnect()
	c.setState(func(s *session) { *s = session{} })

	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	c.logger.Info("Disconnected from TimeFlip device")
	return nil
}

// Login writes the password to the password input characteristic.
//
// The device gives no explicit success or failure signal for authentication.
// Success is inferred heuristically: the facet characteristic is read back
// immediately, and the login is considered successful if and only if that
// read returns a non-empty value. This is a known weak contract of the
// device, not a bug: treat Authenticated() == true as "probably logged in",
// and expect a later command to fail with a malformed result if the
// heuristic was wrong. Login itself returns nil when the heuristic rejects;
// the session simply stays unauthenticated.
func (c *Client) Login(ctx context.Context, password string) error {
	if err := c.guard(requiresConnected); err != nil {
		return err
	}

	if err := c.link.Write(ctx, profile.PasswordInput, []byte(password), true); err != nil {
		return fmt.Errorf("writing password: %w", err)
	}

	facet, err := c.link.Read(ctx, profile.Facet)
	ok := err == nil && len(facet) > 0
	c.setState(func(s *session) { s.authenticated = ok })

	c.logger.WithField("authenticated", ok).Debug("Login probe completed")
	return nil
}
