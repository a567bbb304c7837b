package dispatch

import (
	"errors"
	"fmt"
)

// State is a step in the lifecycle of one dispatch invocation.
type State string

const (
	StateIdle       State = "idle"
	StateChecking   State = "checking"
	StateIneligible State = "ineligible"
	StateEligible   State = "eligible"
	StateNotifying  State = "notifying"
	StateRecording  State = "recording"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// ErrInvalidTransition is returned when a state change is not permitted.
var ErrInvalidTransition = errors.New("invalid invocation state transition")

var transitions = map[State][]State{
	StateIdle:      {StateChecking},
	StateChecking:  {StateIneligible, StateEligible, StateFailed},
	StateEligible:  {StateNotifying},
	StateNotifying: {StateRecording},
	StateRecording: {StateDone, StateFailed},
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Invocation tracks the state of a single dispatch attempt.
type Invocation struct {
	ID      string
	state   State
	history []State
}

// NewInvocation starts an invocation in StateIdle.
func NewInvocation(id string) *Invocation {
	return &Invocation{ID: id, state: StateIdle, history: []State{StateIdle}}
}

// State returns the current state.
func (i *Invocation) State() State { return i.state }

// History returns the states visited so far, oldest first.
func (i *Invocation) History() []State {
	out := make([]State, len(i.history))
	copy(out, i.history)
	return out
}

// Transition moves the invocation to next.
func (i *Invocation) Transition(next State) error {
	if !CanTransition(i.state, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, i.state, next)
	}
	i.state = next
	i.history = append(i.history, next)
	return nil
}
