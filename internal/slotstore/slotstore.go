// Package slotstore owns the ActiveMarker file and the two slot
// directories (spec §3, §4.3). It is the only component permitted to
// create, delete, or replace them; verification and process startup
// only ever read from the paths it hands out.
//
// Grounded on codex-helper/internal/config/store.go's file-locked
// load/mutate/save cycle (gofrs/flock) and its atomic_write_{unix,windows}.go
// temp-file-then-rename commit strategy, reused here for the
// ActiveMarker write that is the one atomic commit point of an update.
package slotstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

// Slot identifies one of the two interchangeable installation
// directories (spec §3).
type Slot string

const (
	SlotA Slot = "A"
	SlotB Slot = "B"
)

// Other returns the slot this is not.
func (s Slot) Other() Slot {
	if s == SlotA {
		return SlotB
	}
	return SlotA
}

func (s Slot) valid() bool {
	return s == SlotA || s == SlotB
}

const activeMarkerName = "active.txt"
const lockFileName = ".lock"

// Store is the exclusive owner of basePath/active.txt and
// basePath/{A,B}. Its advisory file lock (C11) is the concrete
// enforcement of spec §5's "single launcher process" assumption: two
// launcher processes racing each other serialize on this lock instead
// of observing each other's slot mid-install.
type Store struct {
	mu       sync.Mutex
	basePath string
	lock     *flock.Flock
}

// New ensures basePath exists and returns a Store bound to it.
func New(basePath string) (*Store, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("slotstore: basePath must not be empty")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("slotstore: create base dir: %w", err)
	}
	return &Store{
		basePath: basePath,
		lock:     flock.New(filepath.Join(basePath, lockFileName)),
	}, nil
}

// BasePath returns the root directory this Store manages.
func (s *Store) BasePath() string { return s.basePath }

// PathOf returns the slot directory for slot.
func (s *Store) PathOf(slot Slot) string {
	return filepath.Join(s.basePath, string(slot))
}

func (s *Store) activeMarkerPath() string {
	return filepath.Join(s.basePath, activeMarkerName)
}

// WithLock serializes fn against any other Store instance (in this or
// another process) pointed at the same basePath. Callers that need to
// bracket a multi-step mutation spanning more than one Store method
// (e.g. the Update Fetcher's wipe-then-extract) use this directly.
func (s *Store) WithLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("slotstore: acquire lock: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	return fn()
}

// ReadActive returns the currently active slot. It is total: if the
// ActiveMarker file is absent, it bootstraps by writing "A" and
// creating the A slot directory, per spec §4.3. No error escapes other
// than a catastrophic filesystem failure during that one-time
// bootstrap.
func (s *Store) ReadActive() (Slot, error) {
	var result Slot
	err := s.WithLock(func() error {
		data, err := os.ReadFile(s.activeMarkerPath())
		if errors.Is(err, os.ErrNotExist) {
			if err := s.writeActiveLocked(SlotA); err != nil {
				return err
			}
			if err := os.MkdirAll(s.PathOf(SlotA), 0o755); err != nil {
				return fmt.Errorf("slotstore: bootstrap slot A: %w", err)
			}
			result = SlotA
			return nil
		}
		if err != nil {
			return fmt.Errorf("slotstore: read active marker: %w", err)
		}

		trimmed := Slot(strings.TrimSpace(string(data)))
		if !trimmed.valid() {
			// A marker holding anything other than "A" or "B" is read as
			// slot A; the marker file is left as it is and no slot
			// directory is created. ReadActive never errors out over a
			// malformed marker.
			trimmed = SlotA
		}
		result = trimmed
		return nil
	})
	return result, err
}

// WriteActive overwrites the ActiveMarker atomically. This is the
// single commit point of any update (spec §4.7): any crash before this
// call leaves the previous active slot untouched.
func (s *Store) WriteActive(slot Slot) error {
	if !slot.valid() {
		return fmt.Errorf("slotstore: invalid slot %q", slot)
	}
	return s.WithLock(func() error {
		return s.writeActiveLocked(slot)
	})
}

func (s *Store) writeActiveLocked(slot Slot) error {
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return fmt.Errorf("slotstore: create base dir: %w", err)
	}
	return atomicWriteFile(s.activeMarkerPath(), []byte(string(slot)), 0o600)
}

// WipeAll removes both slot directories and the active marker, then
// recreates an empty base directory. This is the catastrophic escape
// hatch (spec §4.7): the next ReadActive call bootstraps slot A from
// scratch exactly as on first run.
func (s *Store) WipeAll() error {
	return s.WithLock(func() error {
		for _, slot := range []Slot{SlotA, SlotB} {
			if err := os.RemoveAll(s.PathOf(slot)); err != nil {
				return fmt.Errorf("slotstore: wipe slot %s: %w", slot, err)
			}
		}
		if err := os.Remove(s.activeMarkerPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("slotstore: remove active marker: %w", err)
		}
		if err := os.MkdirAll(s.basePath, 0o755); err != nil {
			return fmt.Errorf("slotstore: recreate base dir: %w", err)
		}
		return nil
	})
}
