package domain

import (
	"errors"
	"fmt"
)

// ErrConfigMissing is returned when a machine is built without a configuration.
var ErrConfigMissing = errors.New("no config")

// ErrUnknownState is returned when a target state is not configured.
var ErrUnknownState = errors.New("no such state")

// ErrNoTransition is returned when the current state has no transition for an event.
var ErrNoTransition = errors.New("no such transition")

// ErrSessionNotFound is returned when a machine ID cannot be found in a session manager.
var ErrSessionNotFound = errors.New("session not found")

// TransitionError carries the context of a rejected operation.
type TransitionError struct {
	Op    string
	State string
	Event string
	Err   error
}

func (e *TransitionError) Error() string {
	if e.Event != "" {
		return fmt.Sprintf("%s: %v (state %q, event %q)", e.Op, e.Err, e.State, e.Event)
	}
	return fmt.Sprintf("%s: %v (state %q)", e.Op, e.Err, e.State)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}
