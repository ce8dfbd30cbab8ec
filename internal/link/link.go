// Package link defines the transport capability the TimeFlip protocol driver
// requires from a BLE stack: connection lifecycle plus characteristic
// read/write/notify addressed by UUID. The protocol layer holds a Link by
// composition, so it stays decoupled from any particular BLE library.
package link

import (
	"context"
	"fmt"
	"strings"
)

// Link is a live or dialable connection to a single BLE peripheral.
//
// Implementations own timeout policy: the protocol layer imposes none of its
// own and treats an expired context or transport timeout as the failure of the
// operation in flight.
type Link interface {
	// Connect establishes the connection and discovers the peripheral's
	// GATT profile.
	Connect(ctx context.Context) error

	// Disconnect tears the connection down. Safe to call when already
	// disconnected.
	Disconnect() error

	// Read reads the current value of the characteristic with the given UUID.
	Read(ctx context.Context, characteristic string) ([]byte, error)

	// Write writes data to the characteristic with the given UUID. When
	// withResponse is true the write is acknowledged by the peripheral.
	Write(ctx context.Context, characteristic string, data []byte, withResponse bool) error

	// Subscribe registers onUpdate for push notifications of the
	// characteristic. onUpdate is invoked on the transport's notification
	// goroutine; the data slice is only valid for the duration of the call.
	Subscribe(characteristic string, onUpdate func(data []byte)) error

	// Unsubscribe cancels a previous Subscribe for the characteristic.
	Unsubscribe(characteristic string) error
}

// NotFoundError reports a characteristic missing from the connected
// peripheral's GATT profile.
type NotFoundError struct {
	UUID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("characteristic %q not found", e.UUID)
}

// NormalizeUUID converts a UUID string to the lookup format used throughout
// the driver (lowercase, no dashes, no 0x prefix). Full 128-bit UUIDs in the
// Bluetooth SIG base form 0000xxxx-0000-1000-8000-00805f9b34fb collapse to
// their 16-bit short form, matching what go-ble reports for SIG-assigned
// characteristics.
func NormalizeUUID(uuid string) string {
	s := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(uuid), "0x"))
	s = strings.ReplaceAll(s, "-", "")
	if len(s) == 32 && strings.HasPrefix(s, "0000") && strings.HasSuffix(s, "00001000800000805f9b34fb") {
		return s[4:8]
	}
	return s
}
