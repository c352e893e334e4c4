package model

import (
	"errors"
	"fmt"
)

// State is the lifecycle state of an attachment. Purged is never stored:
// a purged record no longer exists.
type State string

const (
	StateActive      State = "active"
	StateSoftDeleted State = "soft_deleted"
	StatePurged      State = "purged"
)

// Transition is a lifecycle operation.
type Transition string

const (
	TransitionSoftDelete Transition = "soft_delete"
	TransitionRestore    Transition = "restore"
	TransitionHardDelete Transition = "hard_delete"
)

var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// transitions maps current state -> operation -> next state.
var transitions = map[State]map[Transition]State{
	StateActive: {
		TransitionSoftDelete: StateSoftDeleted,
		TransitionHardDelete: StatePurged,
	},
	StateSoftDeleted: {
		TransitionRestore:    StateActive,
		TransitionHardDelete: StatePurged,
	},
	StatePurged: {},
}

// Next returns the state reached by applying t, or ErrInvalidTransition.
func (s State) Next(t Transition) (State, error) {
	next, ok := transitions[s][t]
	if !ok {
		return s, fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, t, s)
	}
	return next, nil
}

func (s State) Valid() bool {
	return s == StateActive || s == StateSoftDeleted
}
