package repository

import "errors"

var (
	// ErrNotFound reports that no token (or user) matched the lookup.
	ErrNotFound = errors.New("not found")
	// ErrConflict reports that a claim lost the race: the token was no
	// longer pending when the conditional update ran.
	ErrConflict = errors.New("token already claimed")
	// ErrCounterBusy reports that the counter already holds a called token.
	// A counter serves one token at a time; the current one must be marked
	// served or noshow before the next claim.
	ErrCounterBusy = errors.New("counter already serving a called token")
)
