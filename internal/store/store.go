// Package store provides crash-safe tally persistence using a JSON file.
//
// The running arbitrage tally is stored as a single tally.json file. Writes
// use atomic file replacement (write to .tmp, then rename) to prevent
// corruption from partial writes or crashes mid-save. cmd/arbitrage calls
// SaveTally after each deal, and LoadTally on startup to restore the
// cumulative count and profit across restarts.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"arbitrage-monitor/pkg/types"
)

const tallyFile = "tally.json"

// Store persists the tally to a JSON file in a designated directory.
// All operations are mutex-protected to prevent concurrent file corruption.
type Store struct {
	dir string
	mu  sync.Mutex
}

// Open creates a store backed by the given directory.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Close is a no-op for file-based storage.
func (s *Store) Close() error {
	return nil
}

// SaveTally atomically persists the running tally. It writes to a .tmp file
// first, then renames over the target so the file is never left in a
// partial state (crash-safe).
func (s *Store) SaveTally(tally types.Tally) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(tally)
	if err != nil {
		return fmt.Errorf("marshal tally: %w", err)
	}

	path := filepath.Join(s.dir, tallyFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write tally: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadTally restores the tally from disk. Returns nil, nil if no saved
// tally exists (fresh run).
func (s *Store) LoadTally() (*types.Tally, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, tallyFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read tally: %w", err)
	}

	var tally types.Tally
	if err := json.Unmarshal(data, &tally); err != nil {
		return nil, fmt.Errorf("unmarshal tally: %w", err)
	}
	return &tally, nil
}
