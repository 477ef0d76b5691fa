package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"whychat/internal/bus"
)

// State represents a live-channel connection state.
type State string

const (
	Disconnected  State = "DISCONNECTED"
	Connecting    State = "CONNECTING"
	Connected     State = "CONNECTED"
	Failed        State = "FAILED"
	ReconnectWait State = "RECONNECT_WAIT"
)

// validTransitions defines allowed state transitions. Disconnected is both
// the initial state and the terminal state after an explicit close; a closed
// session never leaves it again.
var validTransitions = map[State][]State{
	Disconnected:  {Connecting},
	Connecting:    {Connected, Failed, Disconnected},
	Connected:     {Failed, Disconnected},
	Failed:        {ReconnectWait, Disconnected},
	ReconnectWait: {Connecting, Disconnected},
}

// Machine tracks and enforces connection state transitions for one session.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Disconnected state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Disconnected,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		defer m.mu.Unlock()
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:      "session.status_changed",
			Timestamp: time.Now(),
			Payload: StatusChange{
				From: from,
				To:   to,
			},
		})
	}
	return nil
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
