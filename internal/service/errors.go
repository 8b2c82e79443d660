package service

import "errors"

var (
	// ErrNoPendingTokens reports that call-next found nothing to claim. It is
	// a normal outcome, not a failure: callers display it as "nothing to call".
	ErrNoPendingTokens = errors.New("no pending tokens")
	// ErrCounterBusy reports that the counter already has a called token. It
	// must be marked served or noshow before the counter can call the next one.
	ErrCounterBusy = errors.New("counter already has a called token")
)
