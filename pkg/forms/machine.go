package forms

import (
	"errors"
	"fmt"
	"sync"
)

// State is the lifecycle of one form submission.
type State string

const (
	StateEditing    State = "editing"
	StateValidating State = "validating"
	StateInvalid    State = "invalid"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateError      State = "error"
)

var ErrIllegalTransition = errors.New("illegal form state transition")

var transitions = map[State][]State{
	StateEditing:    {StateEditing, StateValidating},
	StateValidating: {StateSubmitting, StateInvalid},
	StateSubmitting: {StateSuccess, StateError},
	StateInvalid:    {StateEditing},
	StateError:      {StateEditing},
	StateSuccess:    {StateEditing},
}

// Machine tracks a form through editing, validation and submission.
// It is safe for concurrent use.
type Machine struct {
	mu       sync.Mutex
	state    State
	errs     Errors
	onChange func(from, to State)
}

func NewMachine() *Machine {
	return &Machine{state: StateEditing}
}

// OnChange registers a callback run after every transition.
func (m *Machine) OnChange(fn func(from, to State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Errors returns the field errors of the last failed validation.
func (m *Machine) Errors() Errors {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errs
}

// Transition moves to the next state or returns ErrIllegalTransition.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	from := m.state
	if !allowed(from, to) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	m.state = to
	if to == StateEditing {
		m.errs = nil
	}
	fn := m.onChange
	m.mu.Unlock()

	if fn != nil {
		fn(from, to)
	}
	return nil
}

// Edit records a user edit, leaving invalid/error/success states.
func (m *Machine) Edit() error {
	return m.Transition(StateEditing)
}

// Submit validates form and, when valid, runs send. The returned error is
// the validation Errors, the error from send, or an illegal transition.
func (m *Machine) Submit(form any, send func() error) error {
	if err := m.Transition(StateValidating); err != nil {
		return err
	}
	if errs := Validate(form); errs != nil {
		m.mu.Lock()
		m.errs = errs
		m.mu.Unlock()
		_ = m.Transition(StateInvalid)
		return errs
	}
	_ = m.Transition(StateSubmitting)
	if err := send(); err != nil {
		_ = m.Transition(StateError)
		return err
	}
	_ = m.Transition(StateSuccess)
	return nil
}

func allowed(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
