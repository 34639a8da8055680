// Package corpus owns the training text the statistical model learns from:
// a line-oriented file of patterns that grows through evolution runs and
// manual edits.
package corpus

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Source yields training patterns in file order.
type Source interface {
	Patterns() ([]string, error)
}

// commentPrefix starts a header line. The tokenizer strips the same
// prefix, so stray headers never leak into the model.
const commentPrefix = "--"

// Parse splits corpus text into patterns, skipping blank and comment lines.
func Parse(data []byte) []string {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Flatten collapses a multi-line pattern onto one corpus line.
func Flatten(pattern string) string {
	return strings.Join(strings.Fields(pattern), " ")
}

// Static serves a fixed pattern list.
type Static []string

// Patterns returns the list.
func (s Static) Patterns() ([]string, error) {
	return append([]string(nil), s...), nil
}

// File is a corpus stored on disk. Appends are serialized.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile returns a corpus backed by path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file.
func (f *File) Path() string { return f.path }

// Patterns reads every pattern currently in the file.
func (f *File) Patterns() ([]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus %s: %w", f.path, err)
	}
	return Parse(data), nil
}

// EnsureSeeded writes seed to the corpus file when it does not exist yet.
func (f *File) EnsureSeeded(seed []byte) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := os.Stat(f.path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create corpus dir: %w", err)
	}
	if err := os.WriteFile(f.path, seed, 0o644); err != nil {
		return false, fmt.Errorf("failed to seed corpus: %w", err)
	}
	return true, nil
}

// Append writes patterns under a timestamped header comment and returns
// how many lines were added. Empty patterns are skipped.
func (f *File) Append(header string, patterns []string, at time.Time) (n int, err error) {
	var buf strings.Builder
	for _, p := range patterns {
		if line := Flatten(p); line != "" {
			buf.WriteString(line)
			buf.WriteByte('\n')
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create corpus dir: %w", err)
	}
	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close corpus: %w", cerr)
		}
	}()

	if _, err := fmt.Fprintf(file, "\n%s %s %s\n%s", commentPrefix, header, at.Format("2006-01-02 15:04"), buf.String()); err != nil {
		return 0, fmt.Errorf("failed to append corpus: %w", err)
	}
	return n, nil
}
