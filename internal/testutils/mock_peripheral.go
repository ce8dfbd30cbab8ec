// Package testutils provides a scriptable mock TimeFlip peripheral for
// driver tests. The mock implements link.Link directly, so protocol behavior
// is exercised without any BLE stack underneath.
package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/srg/timeflip/internal/link"
	"github.com/srg/timeflip/timeflip/profile"
)

// Call records one transport operation, in invocation order.
type Call struct {
	Op             string // "connect", "disconnect", "read", "write", "subscribe", "unsubscribe"
	Characteristic string // normalized UUID, empty for connect/disconnect
	Data           []byte
	WithResponse   bool
}

// MockPeripheral simulates a TimeFlip-like device behind the link.Link
// capability. It is configured with a fluent builder API:
//
//	mock := testutils.NewMockPeripheral().
//	    WithValue(profile.BatteryLevel, []byte{85}).
//	    WithPassword("123456").
//	    WithCommandResult(profile.OpStatus, statusPacket)
//
// Writes to the command input characteristic drive the echo protocol: the
// next read of command input returns the written opcode plus a status byte,
// and any packets scripted for that opcode are queued on command result.
type MockPeripheral struct {
	mu sync.Mutex

	values       map[string][]byte
	readErrs     map[string]error
	echoStatus   map[byte]byte
	echoOverride map[byte][]byte

	commandResults map[byte][][]byte
	resultQueue    [][]byte

	password string // accepted password; empty accepts anything

	connectErr    error
	disconnectErr error
	subscribeErr  error

	subs      map[string]func([]byte)
	calls     []Call
	connected bool
}

var _ link.Link = (*MockPeripheral)(nil)

// NewMockPeripheral creates a mock with a sane default profile: a face-up
// facet value (so the login heuristic passes), battery, firmware revision and
// device name.
func NewMockPeripheral() *MockPeripheral {
	m := &MockPeripheral{
		values:         make(map[string][]byte),
		readErrs:       make(map[string]error),
		echoStatus:     make(map[byte]byte),
		echoOverride:   make(map[byte][]byte),
		commandResults: make(map[byte][][]byte),
		subs:           make(map[string]func([]byte)),
	}
	return m.
		WithValue(profile.Facet, []byte{0x05}).
		WithValue(profile.BatteryLevel, []byte{85}).
		WithValue(profile.FirmwareRevision, []byte("TFv3.1")).
		WithValue(profile.DeviceName, []byte("TimeFlip"))
}

// WithValue sets the readable value of a characteristic.
func (m *MockPeripheral) WithValue(uuid string, data []byte) *MockPeripheral {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[link.NormalizeUUID(uuid)] = data
	return m
}

// WithReadError makes every read of the characteristic fail.
func (m *MockPeripheral) WithReadError(uuid string, err error) *MockPeripheral {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErrs[link.NormalizeUUID(uuid)] = err
	return m
}

// WithConnectError makes Connect fail.
func (m *MockPeripheral) WithConnectError(err error) *MockPeripheral {
	m.connectErr = err
	return m
}

// WithDisconnectError makes Disconnect fail (after recording the call).
func (m *MockPeripheral) WithDisconnectError(err error) *MockPeripheral {
	m.disconnectErr = err
	return m
}

// WithSubscribeError makes Subscribe fail.
func (m *MockPeripheral) WithSubscribeError(err error) *MockPeripheral {
	m.subscribeErr = err
	return m
}

// WithPassword makes the peripheral require the given password: after a
// wrong password write, the facet characteristic reads empty, which is how
// the real device starves the login heuristic.
func (m *MockPeripheral) WithPassword(password string) *MockPeripheral {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.password = password
	return m
}

// WithEchoStatus overrides the status byte echoed for an opcode. The default
// is profile.CommandOK for every opcode.
func (m *MockPeripheral) WithEchoStatus(opcode, status byte) *MockPeripheral {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.echoStatus[opcode] = status
	return m
}

// WithEcho overrides the full echo value read back after the given opcode is
// written, for simulating echoed-opcode mismatches.
func (m *MockPeripheral) WithEcho(opcode byte, echo []byte) *MockPeripheral {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.echoOverride[opcode] = echo
	return m
}

// WithCommandResult scripts the command result packets queued when the given
// opcode is written to command input.
func (m *MockPeripheral) WithCommandResult(opcode byte, packets ...[]byte) *MockPeripheral {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commandResults[opcode] = packets
	return m
}

// Connect implements link.Link.
func (m *MockPeripheral) Connect(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Op: "connect"})
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connected = true
	return nil
}

// Disconnect implements link.Link.
func (m *MockPeripheral) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Op: "disconnect"})
	m.connected = false
	return m.disconnectErr
}

// Read implements link.Link.
func (m *MockPeripheral) Read(_ context.Context, characteristic string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	uuid := link.NormalizeUUID(characteristic)
	m.record(Call{Op: "read", Characteristic: uuid})

	if err := m.readErrs[uuid]; err != nil {
		return nil, err
	}

	if uuid == link.NormalizeUUID(profile.CommandResult) && len(m.resultQueue) > 0 {
		pkt := m.resultQueue[0]
		m.resultQueue = m.resultQueue[1:]
		return pkt, nil
	}

	return m.values[uuid], nil
}

// Write implements link.Link. Command input writes update the echo value and
// load any scripted result packets; password writes arm the login heuristic.
func (m *MockPeripheral) Write(_ context.Context, characteristic string, data []byte, withResponse bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	uuid := link.NormalizeUUID(characteristic)
	cp := make([]byte, len(data))
	copy(cp, data)
	m.record(Call{Op: "write", Characteristic: uuid, Data: cp, WithResponse: withResponse})

	switch uuid {
	case link.NormalizeUUID(profile.CommandInput):
		if len(data) == 0 {
			return fmt.Errorf("empty command write")
		}
		opcode := data[0]
		if echo, ok := m.echoOverride[opcode]; ok {
			m.values[uuid] = echo
		} else {
			status, ok := m.echoStatus[opcode]
			if !ok {
				status = profile.CommandOK
			}
			m.values[uuid] = []byte{opcode, status}
		}
		m.resultQueue = append(m.resultQueue, m.commandResults[opcode]...)

	case link.NormalizeUUID(profile.PasswordInput):
		if m.password != "" && string(data) != m.password {
			m.values[link.NormalizeUUID(profile.Facet)] = nil
		}
	}
	return nil
}

// Subscribe implements link.Link.
func (m *MockPeripheral) Subscribe(characteristic string, onUpdate func(data []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	uuid := link.NormalizeUUID(characteristic)
	m.record(Call{Op: "subscribe", Characteristic: uuid})
	if m.subscribeErr != nil {
		return m.subscribeErr
	}
	m.subs[uuid] = onUpdate
	return nil
}

// Unsubscribe implements link.Link.
func (m *MockPeripheral) Unsubscribe(characteristic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	uuid := link.NormalizeUUID(characteristic)
	m.record(Call{Op: "unsubscribe", Characteristic: uuid})
	delete(m.subs, uuid)
	return nil
}

// Notify pushes a notification to the subscriber of the characteristic, if
// any, on the caller's goroutine.
func (m *MockPeripheral) Notify(characteristic string, data []byte) {
	m.mu.Lock()
	fn := m.subs[link.NormalizeUUID(characteristic)]
	m.mu.Unlock()
	if fn != nil {
		fn(data)
	}
}

// Calls returns a copy of all recorded transport operations in order.
func (m *MockPeripheral) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallOps returns just the operation names, in order.
func (m *MockPeripheral) CallOps() []string {
	calls := m.Calls()
	ops := make([]string, len(calls))
	for i, c := range calls {
		ops[i] = c.Op
	}
	return ops
}

// Writes returns the payloads written to the given characteristic, in order.
func (m *MockPeripheral) Writes(characteristic string) [][]byte {
	uuid := link.NormalizeUUID(characteristic)
	var out [][]byte
	for _, c := range m.Calls() {
		if c.Op == "write" && c.Characteristic == uuid {
			out = append(out, c.Data)
		}
	}
	return out
}

// record appends a call; callers must hold mu.
func (m *MockPeripheral) record(c Call) {
	m.calls = append(m.calls, c)
}
