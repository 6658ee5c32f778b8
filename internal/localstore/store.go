// Package localstore persists the console's only durable client state: the
// date string of the last today-column reset. It is the analogue of the
// single localStorage key the browser UI used.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const fileName = "state.json"

type state struct {
	LastAttendanceDate string `json:"lastAttendanceDate"`
}

// Store reads and writes the state file. Not safe for concurrent use; the
// dashboard touches it once per load.
type Store struct {
	path string
}

// New creates a store rooted at dir, defaulting to the OS user config dir
// when dir is empty. The directory is created if missing.
func New(dir string) (*Store, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		dir = filepath.Join(base, "smartattend")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &Store{path: filepath.Join(dir, fileName)}, nil
}

// LastAttendanceDate returns the stored date string, or "" when none has
// been recorded yet. A corrupt or unreadable file reads as absent; the worst
// outcome is one redundant reset call.
func (s *Store) LastAttendanceDate() string {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	var st state
	if err := json.Unmarshal(raw, &st); err != nil {
		return ""
	}
	return st.LastAttendanceDate
}

// SetLastAttendanceDate records the date string via temp-file rename so a
// crash never leaves a half-written state file.
func (s *Store) SetLastAttendanceDate(date string) error {
	raw, err := json.Marshal(state{LastAttendanceDate: date})
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		// Best effort cleanup; the rename error is the one that matters.
		if rmErr := os.Remove(tmp); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return fmt.Errorf("replace state (cleanup failed: %v): %w", rmErr, err)
		}
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
