package theory

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// Store persists the rule config document.
type Store interface {
	// Load returns an error wrapping fs.ErrNotExist when nothing was saved yet.
	Load() ([]byte, error)
	Save(data []byte) error
}

// FileStore keeps the config in a JSON file.
type FileStore struct {
	Path string
}

func (s FileStore) Load() ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule config: %w", err)
	}
	return data, nil
}

// Save writes to a temp file in the same directory and renames it over Path.
func (s FileStore) Save(data []byte) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create rule config directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".rules-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp rule config: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("failed to write rule config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("failed to close rule config: %w", err)
	}
	if err := os.Rename(name, s.Path); err != nil {
		os.Remove(name)
		return fmt.Errorf("failed to move rule config into place: %w", err)
	}
	return nil
}

// MemoryStore keeps the config in memory. Used by the CLI and tests.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

func (s *MemoryStore) Load() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, fs.ErrNotExist
	}
	return append([]byte(nil), s.data...), nil
}

func (s *MemoryStore) Save(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	s.saves++
	return nil
}

// Saves returns how many times the config was persisted.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
