// Package uploadfsm models the client-visible lifecycle of a single upload
// as an explicit finite-state machine driven by discrete events. It replaces
// ad-hoc progress flags and out-of-band cancellation handles: cancellation
// is an ordinary transition, not a side channel.
package uploadfsm

import "fmt"

// State is a node in the upload lifecycle.
type State string

const (
	StateIdle         State = "idle"
	StateTicketed     State = "ticketed"
	StateTransferring State = "transferring"
	StateVerifying    State = "verifying"
	StateReady        State = "ready"
	StateCorrupt      State = "corrupt"
	StateFailed       State = "failed"
)

// Event is a discrete occurrence that may advance the lifecycle.
type Event string

const (
	EventTicketIssued   Event = "ticket_issued"
	EventUploadStarted  Event = "upload_started"
	EventUploadDone     Event = "upload_done"
	EventCancel         Event = "cancel"
	EventVerifyPassed   Event = "verify_passed"
	EventVerifyFailed   Event = "verify_failed"
	EventTicketExpired  Event = "ticket_expired"
	EventTransportError Event = "transport_error"
)

// transitions maps (state, event) to the next state. Absent pairs are
// rejected; terminal states have no outgoing edges.
var transitions = map[State]map[Event]State{
	StateIdle: {
		EventTicketIssued: StateTicketed,
	},
	StateTicketed: {
		EventUploadStarted: StateTransferring,
		EventTicketExpired: StateFailed,
	},
	StateTransferring: {
		EventUploadDone:     StateVerifying,
		EventCancel:         StateFailed,
		EventTransportError: StateFailed,
		EventTicketExpired:  StateFailed,
	},
	StateVerifying: {
		EventVerifyPassed: StateReady,
		EventVerifyFailed: StateCorrupt,
	},
}

// ErrInvalidTransition reports an event that is not legal in the current state.
type ErrInvalidTransition struct {
	From  State
	Event Event
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("upload fsm: event %q not allowed in state %q", e.Event, e.From)
}

// Machine tracks the state of one upload. The zero value is not usable;
// construct with New.
type Machine struct {
	state State
}

// New returns a machine in the idle state.
func New() *Machine {
	return &Machine{state: StateIdle}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Terminal reports whether the machine can accept no further events.
func (m *Machine) Terminal() bool {
	_, ok := transitions[m.state]
	return !ok
}

// Apply advances the machine by one event, returning the new state.
// Illegal events leave the state unchanged and return ErrInvalidTransition.
func (m *Machine) Apply(ev Event) (State, error) {
	next, ok := transitions[m.state][ev]
	if !ok {
		return m.state, &ErrInvalidTransition{From: m.state, Event: ev}
	}
	m.state = next
	return next, nil
}
