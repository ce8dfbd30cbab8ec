// Package timeflip is a client-side protocol driver for the TimeFlip v3
// spinning-top time tracker.
//
// The package implements the protocol and state layer above a generic BLE
// transport:
//   - Session state tracking (connected, authenticated, notifying)
//   - Password login with the device's heuristic success check
//   - The opcode command protocol with echo verification
//   - The multi-packet bit-packed history stream decoder
//   - The facet change notification stream
//
// Transport concerns (discovery, link establishment, GATT primitives) are
// supplied through the injected link.Link capability.
package timeflip
