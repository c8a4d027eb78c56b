package session

import (
	"errors"
	"fmt"
)

// State is one step of the connection lifecycle.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateNegotiating
	StateReady
)

var ErrInvalidTransition = errors.New("session: invalid state transition")

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateNegotiating:
		return "negotiating"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Status is the observable state plus the fault that ended the session, if any.
type Status struct {
	State State
	Err   error
}

// Faulted reports the Error overlay on a terminal transition.
func (s Status) Faulted() bool {
	return s.State == StateDisconnected && s.Err != nil
}

func (s Status) String() string {
	if s.Faulted() {
		return "error"
	}
	return s.State.String()
}

// Observer is notified after each transition, outside the session lock.
type Observer func(from, to State, err error)

func legal(from, to State) bool {
	switch to {
	case StateConnecting:
		return from == StateDisconnected
	case StateNegotiating:
		return from == StateConnecting
	case StateReady:
		return from == StateNegotiating
	case StateDisconnected:
		return from != StateDisconnected
	default:
		return false
	}
}

type transition struct {
	from State
	to   State
	err  error
}
