package timeflip

import (
	"context"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"github.com/srg/timeflip/internal/linkfactory"
	"github.com/srg/timeflip/timeflip/profile"
)

// ProgressCallback is called when the session phase changes
type ProgressCallback func(phase string)

// SessionOptions defines options for a scoped TimeFlip session
type SessionOptions struct {
	ConnectTimeout time.Duration `default:"30s"`
	Password       string        `default:"000000"`

	// SkipLogin leaves the session unauthenticated, for callers that only
	// need connection-gated reads such as battery or firmware.
	SkipLogin bool `default:"false"`
}

// SessionCallback processes a connected client and produces output of type R
type SessionCallback[R any] func(*Client) (R, error)

// WithClient connects to the TimeFlip at address, logs in, and executes the
// callback with the ready client. The session lifecycle is managed
// automatically: disconnect (including facet stream unsubscription) is
// guaranteed on all exit paths, error paths included.
func WithClient[R any](
	ctx context.Context,
	address string,
	opts *SessionOptions,
	logger *logrus.Logger,
	progressCallback ProgressCallback,
	callback SessionCallback[R],
) (R, error) {
	var zero R

	if opts == nil {
		opts = &SessionOptions{}
		defaults.SetDefaults(opts)
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 30 * time.Second
	}
	if opts.Password == "" {
		opts.Password = profile.DefaultPassword
	}
	if logger == nil {
		logger = logrus.New()
	}
	if progressCallback == nil {
		progressCallback = func(string) {} // No-op callback
	}

	progressCallback("Connecting")

	client := NewClient(linkfactory.Factory(address, logger), &Options{Logger: logger})

	connCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	if err := client.Connect(connCtx); err != nil {
		progressCallback("Failed")
		return zero, err
	}

	// Ensure the session is torn down after the callback completes
	defer func(client *Client) {
		if err := client.Disconnect(); err != nil {
			logger.WithError(err).Error("failed to disconnect device")
		}
	}(client)

	if !opts.SkipLogin {
		progressCallback("Logging in")
		if err := client.Login(ctx, opts.Password); err != nil {
			progressCallback("Failed")
			return zero, err
		}
	}

	progressCallback("Connected")

	return callback(client)
}
