// Package linkfactory constructs transport links for the protocol layer.
package linkfactory

import (
	"github.com/sirupsen/logrus"
	"github.com/srg/timeflip/internal/link"
	"github.com/srg/timeflip/internal/link/goble"
)

// Factory creates a link.Link for the peripheral at the given address.
// This is a variable so that it can be overridden in tests.
var Factory = func(address string, logger *logrus.Logger) link.Link {
	return goble.NewLink(address, logger)
}
