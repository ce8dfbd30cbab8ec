package timeflip

import (
	"fmt"

	"github.com/srg/timeflip/timeflip/profile"
)

// FacetEvent is one facet change pushed by the device.
type FacetEvent struct {
	Facet uint8
}

// Paused reports whether the event carries the reserved "paused, no face up"
// id instead of a physical face.
func (e FacetEvent) Paused() bool {
	return e.Facet == profile.PauseFacetID
}

// FacetHandler receives decoded facet change events. It is invoked on the
// transport's notification goroutine, concurrently with any command exchange;
// panics are not suppressed and propagate on that goroutine.
type FacetHandler func(FacetEvent)

// StartFacetStream subscribes to facet push notifications and dispatches each
// decoded facet value to handler. Requires an authenticated session.
func (c *Client) StartFacetStream(handler FacetHandler) error {
	if err := c.guard(requiresLogin); err != nil {
		return err
	}

	err := c.link.Subscribe(profile.Facet, func(data []byte) {
		handler(FacetEvent{Facet: uint8(leUint(data))})
	})
	if err != nil {
		return fmt.Errorf("subscribing to facet notifications: %w", err)
	}

	c.setState(func(s *session) { s.notifying = true })
	c.logger.Debug("Facet notification stream started")
	return nil
}

// StopFacetStream unsubscribes from facet notifications.
func (c *Client) StopFacetStream() error {
	if err := c.guard(requiresLogin); err != nil {
		return err
	}

	if err := c.link.Unsubscribe(profile.Facet); err != nil {
		return fmt.Errorf("unsubscribing from facet notifications: %w", err)
	}

	c.setState(func(s *session) { s.notifying = false })
	c.logger.Debug("Facet notification stream stopped")
	return nil
}
