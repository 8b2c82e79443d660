package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition marks a status change outside the legal graph. The
// token it was attempted on is left unchanged.
var ErrInvalidTransition = errors.New("invalid status transition")

var legalEdges = map[Status][]Status{
	StatusPending: {StatusCalled},
	StatusCalled:  {StatusServed, StatusNoShow},
}

// CanTransition reports whether moving from one status to another is legal.
// Served and noshow are terminal; nothing ever moves back to pending.
func CanTransition(from, to Status) bool {
	for _, next := range legalEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ApplyTransition returns a copy of the token moved to the next status, or
// ErrInvalidTransition. Moving to called requires a counter name and stamps
// CounterName and CalledAt; served and noshow keep the counter that called
// the token for audit and stamp ServedAt.
func ApplyTransition(tok Token, to Status, counterName string, now time.Time) (Token, error) {
	if !CanTransition(tok.Status, to) {
		return tok, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, tok.Status, to)
	}

	switch to {
	case StatusCalled:
		if counterName == "" {
			return tok, fmt.Errorf("%w: counter name required to call a token", ErrInvalidTransition)
		}
		tok.Status = StatusCalled
		tok.CounterName = &counterName
		calledAt := now
		tok.CalledAt = &calledAt
	case StatusServed, StatusNoShow:
		tok.Status = to
		servedAt := now
		tok.ServedAt = &servedAt
	default:
		return tok, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, tok.Status, to)
	}

	return tok, nil
}
