package phase

import (
	"errors"
	"fmt"

	"paircode/internal/model"
)

var order = map[model.Phase]int{
	model.PhaseWaiting:    0,
	model.PhaseTone:       1,
	model.PhaseCoding:     2,
	model.PhaseReflection: 3,
	model.PhaseEnded:      4,
}

var next = map[model.Phase]model.Phase{
	model.PhaseWaiting:    model.PhaseTone,
	model.PhaseTone:       model.PhaseCoding,
	model.PhaseCoding:     model.PhaseReflection,
	model.PhaseReflection: model.PhaseEnded,
}

// Valid reports whether p is a known phase
func Valid(p model.Phase) bool {
	_, ok := order[p]
	return ok
}

// Next returns the phase that follows p, if any
func Next(p model.Phase) (model.Phase, bool) {
	n, ok := next[p]
	return n, ok
}

// TransitionError explains why a phase change was refused
type TransitionError struct {
	From model.Phase
	To   model.Phase
	Err  error
}

func (e *TransitionError) Error() string {
	if errors.Is(e.Err, model.ErrUnauthorized) {
		return fmt.Sprintf("unauthorized: only the interviewer can move the room from %s to %s", e.From, e.To)
	}
	return fmt.Sprintf("invalid phase transition: cannot transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// CanTransition checks ordering only. Self-transitions and moves backwards
// are invalid; ended is reachable from every other phase.
func CanTransition(from, to model.Phase) error {
	if !Valid(from) || !Valid(to) || from == to {
		return &TransitionError{From: from, To: to, Err: model.ErrInvalidTransition}
	}
	if to == model.PhaseEnded || order[to] > order[from] {
		return nil
	}
	return &TransitionError{From: from, To: to, Err: model.ErrInvalidTransition}
}

// Guard authorizes a transition before its validity is checked
type Guard func() error

// RequireInterviewer admits only the room owner
func RequireInterviewer(role model.Role) Guard {
	return func() error {
		if role != model.RoleInterviewer {
			return model.ErrUnauthorized
		}
		return nil
	}
}

// System admits scheduler-initiated transitions
func System() error {
	return nil
}

// Advance authorizes and validates a move from one phase to another
func Advance(from, to model.Phase, guard Guard) error {
	if guard != nil {
		if err := guard(); err != nil {
			return &TransitionError{From: from, To: to, Err: err}
		}
	}
	return CanTransition(from, to)
}

// LocksEditor reports whether editing is disabled regardless of driver
func LocksEditor(p model.Phase) bool {
	return p == model.PhaseReflection || p == model.PhaseEnded
}

// LocksDriverSwitching reports whether the driver token is frozen
func LocksDriverSwitching(p model.Phase) bool {
	return LocksEditor(p)
}

// CanEditCode reports whether p is the coding phase
func CanEditCode(p model.Phase) bool {
	return p == model.PhaseCoding
}
