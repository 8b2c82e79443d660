// Package announce turns the reconciled now-serving value into at most one
// announcement per called token.
package announce

import "sync"

// Announcement describes a called token for the announcer.
type Announcement struct {
	TokenID     string
	TokenNumber int
	CounterName string
}

// Announcer emits an announcement (speech, log, chime).
type Announcer interface {
	Announce(a Announcement) error
}

// Deduplicator tracks the last announced token per display instance so the
// same token is never re-announced across reconciliation ticks or terminal
// restarts. Keyed by token id, never by number: numbers repeat across days.
type Deduplicator struct {
	mu        sync.Mutex
	lastID    string
	announcer Announcer
	onChange  func(tokenID string)
}

// NewDeduplicator seeds the deduplicator with the persisted last-announced
// id. onChange is invoked after each announcement so the owner can persist
// the new id; it may be nil.
func NewDeduplicator(lastAnnouncedID string, announcer Announcer, onChange func(tokenID string)) *Deduplicator {
	return &Deduplicator{
		lastID:    lastAnnouncedID,
		announcer: announcer,
		onChange:  onChange,
	}
}

// MaybeAnnounce emits exactly one announcement when the now-serving token
// differs from the last announced one. A nil announcement (nobody being
// served) leaves the stored id untouched, so serving the same token again
// after a gap does not re-announce it.
func (d *Deduplicator) MaybeAnnounce(a *Announcement) {
	if a == nil || a.TokenID == "" {
		return
	}

	d.mu.Lock()
	if a.TokenID == d.lastID {
		d.mu.Unlock()
		return
	}
	d.lastID = a.TokenID
	onChange := d.onChange
	d.mu.Unlock()

	// The id is recorded before the announcer runs: a failing speech
	// backend must not cause the same token to be announced on every tick.
	_ = d.announcer.Announce(*a)
	if onChange != nil {
		onChange(a.TokenID)
	}
}

// LastAnnouncedID returns the id of the most recently announced token.
func (d *Deduplicator) LastAnnouncedID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastID
}
