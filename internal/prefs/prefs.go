// Package prefs persists per-terminal preferences (preferred counter name,
// last announced token id) in a small JSON file. State is read once at
// startup and written on every change; each terminal instance owns its own
// file, nothing is shared between terminals.
package prefs

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"
)

// Prefs holds the persisted values.
type Prefs struct {
	CounterName          string `json:"counterName"`
	LastAnnouncedTokenID string `json:"lastAnnouncedTokenId"`
}

// Store is a file-backed preference store.
type Store struct {
	path string

	mu    sync.Mutex
	prefs Prefs
}

// Open loads preferences from path. A missing file yields empty prefs and is
// created on the first write.
func Open(path string) (*Store, error) {
	store := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return store, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &store.prefs); err != nil {
		return nil, err
	}
	return store, nil
}

// Prefs returns the current values.
func (s *Store) Prefs() Prefs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// SetCounterName updates and persists the preferred counter name.
func (s *Store) SetCounterName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefs.CounterName == name {
		return nil
	}
	s.prefs.CounterName = name
	return s.save()
}

// SetLastAnnouncedTokenID updates and persists the announcement marker.
func (s *Store) SetLastAnnouncedTokenID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefs.LastAnnouncedTokenID == id {
		return nil
	}
	s.prefs.LastAnnouncedTokenID = id
	return s.save()
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.prefs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
