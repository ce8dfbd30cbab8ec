// Package goble implements link.Link on top of github.com/go-ble/ble.
package goble

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/darwin"
	"github.com/sirupsen/logrus"
	"github.com/srg/timeflip/internal/link"
)

// DeviceFactory creates ble.Device instances (can be overridden in tests)
//
//nolint:revive // DeviceFactory name is intentional for test mocking
var DeviceFactory = func() (ble.Device, error) {
	return darwin.NewDevice()
}

// Link is a go-ble backed connection to a single peripheral, indexing its
// characteristics by normalized UUID after profile discovery.
type Link struct {
	address string
	logger  *logrus.Logger

	mu     sync.RWMutex
	client ble.Client
	chars  map[string]*ble.Characteristic
}

var _ link.Link = (*Link)(nil)

// NewLink creates a Link for the peripheral at the given address. No network
// activity happens until Connect.
func NewLink(address string, logger *logrus.Logger) *Link {
	if logger == nil {
		logger = logrus.New()
	}
	return &Link{
		address: address,
		logger:  logger,
		chars:   make(map[string]*ble.Characteristic),
	}
}

// Connect dials the peripheral and discovers its full GATT profile.
func (l *Link) Connect(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if strings.TrimSpace(l.address) == "" {
		return fmt.Errorf("device address is empty")
	}
	if l.client != nil {
		return fmt.Errorf("already connected to %s", l.address)
	}

	dev, err := DeviceFactory()
	if err != nil {
		l.logger.WithError(err).Error("Failed to create BLE device")
		return fmt.Errorf("failed to create BLE device: %w", err)
	}
	ble.SetDefaultDevice(dev)

	l.logger.WithField("address", l.address).Info("Connecting to BLE device...")
	client, err := ble.Dial(ctx, ble.NewAddr(l.address))
	if err != nil {
		l.logger.WithFields(logrus.Fields{
			"address": l.address,
			"error":   err,
		}).Error("Failed to dial BLE device")
		return fmt.Errorf("failed to connect to device with address %q: %w", l.address, err)
	}

	profile, err := client.DiscoverProfile(true)
	if err != nil {
		if cancelErr := client.CancelConnection(); cancelErr != nil {
			l.logger.WithField("cancel_error", cancelErr).Warn("Failed to cancel connection during profile discovery failure")
		}
		return fmt.Errorf("failed to discover profile: %w", err)
	}

	chars := make(map[string]*ble.Characteristic)
	for _, svc := range profile.Services {
		for _, c := range svc.Characteristics {
			chars[link.NormalizeUUID(c.UUID.String())] = c
		}
	}

	l.client = client
	l.chars = chars

	l.logger.WithFields(logrus.Fields{
		"address":         l.address,
		"services":        len(profile.Services),
		"characteristics": len(chars),
	}).Info("BLE device connected successfully")
	return nil
}

// Disconnect cancels the BLE connection. Safe to call when not connected.
func (l *Link) Disconnect() error {
	l.mu.Lock()
	client := l.client
	l.client = nil
	l.chars = make(map[string]*ble.Characteristic)
	l.mu.Unlock()

	if client == nil {
		l.logger.Debug("Disconnect called but already disconnected")
		return nil
	}
	if err := client.CancelConnection(); err != nil {
		l.logger.WithError(err).Warn("BLE device disconnected with errors")
		return err
	}
	l.logger.Info("BLE device disconnected successfully")
	return nil
}

// Read reads the characteristic value, honoring ctx while the blocking go-ble
// call is in flight.
func (l *Link) Read(ctx context.Context, characteristic string) ([]byte, error) {
	client, char, err := l.lookup(characteristic)
	if err != nil {
		return nil, err
	}

	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := client.ReadCharacteristic(char)
		ch <- result{data: data, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("failed to read characteristic %s: %w", characteristic, res.err)
		}
		return res.data, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("reading characteristic %s: %w", characteristic, ctx.Err())
	}
}

// Write writes data to the characteristic. go-ble's noRsp flag is the inverse
// of withResponse.
func (l *Link) Write(ctx context.Context, characteristic string, data []byte, withResponse bool) error {
	client, char, err := l.lookup(characteristic)
	if err != nil {
		return err
	}

	ch := make(chan error, 1)
	go func() {
		ch <- client.WriteCharacteristic(char, data, !withResponse)
	}()

	select {
	case err := <-ch:
		if err != nil {
			return fmt.Errorf("failed to write characteristic %s: %w", characteristic, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("writing characteristic %s: %w", characteristic, ctx.Err())
	}
}

// Subscribe registers onUpdate for notifications of the characteristic.
func (l *Link) Subscribe(characteristic string, onUpdate func(data []byte)) error {
	client, char, err := l.lookup(characteristic)
	if err != nil {
		return err
	}
	if err := client.Subscribe(char, false, onUpdate); err != nil {
		return fmt.Errorf("failed to subscribe to characteristic %s: %w", characteristic, err)
	}
	l.logger.WithField("charUUID", characteristic).Debug("Subscribed to characteristic notifications")
	return nil
}

// Unsubscribe cancels notifications for the characteristic.
func (l *Link) Unsubscribe(characteristic string) error {
	client, char, err := l.lookup(characteristic)
	if err != nil {
		return err
	}
	if err := client.Unsubscribe(char, false); err != nil {
		return fmt.Errorf("failed to unsubscribe from characteristic %s: %w", characteristic, err)
	}
	l.logger.WithField("charUUID", characteristic).Debug("Unsubscribed from characteristic notifications")
	return nil
}

func (l *Link) lookup(characteristic string) (ble.Client, *ble.Characteristic, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.client == nil {
		return nil, nil, fmt.Errorf("not connected to device %s", l.address)
	}
	char, ok := l.chars[link.NormalizeUUID(characteristic)]
	if !ok {
		return nil, nil, &link.NotFoundError{UUID: characteristic}
	}
	return l.client, char, nil
}
