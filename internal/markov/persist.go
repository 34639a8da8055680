package markov

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Document is the persisted form of a model. Transition keys are JSON arrays
// of the context tokens, e.g. `["sound","\""]`.
type Document struct {
	Order       int                       `json:"order"`
	Transitions map[string]map[string]int `json:"transitions"`
	Starts      [][]string                `json:"starts"`
}

// EncodeContext returns the canonical key for an ordered token context.
func EncodeContext(tokens []string) string {
	if tokens == nil {
		tokens = []string{}
	}
	// Marshalling a []string cannot fail.
	b, _ := json.Marshal(tokens)
	return string(b)
}

// DecodeContext parses a key produced by EncodeContext.
func DecodeContext(key string) ([]string, error) {
	var tokens []string
	if err := json.Unmarshal([]byte(key), &tokens); err != nil {
		return nil, fmt.Errorf("invalid context key %q: %w", key, err)
	}
	return tokens, nil
}

// Document snapshots the model into its persisted form.
func (m *Model) Document() Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc := Document{
		Order:       m.order,
		Transitions: make(map[string]map[string]int, len(m.transitions)),
		Starts:      make([][]string, len(m.starts)),
	}
	for _, st := range m.transitions {
		next := make(map[string]int, len(st.next))
		for tok, count := range st.next {
			next[tok] = count
		}
		doc.Transitions[EncodeContext(st.context)] = next
	}
	for i, s := range m.starts {
		doc.Starts[i] = append([]string(nil), s...)
	}
	return doc
}

// FromDocument rebuilds a model, rejecting keys of the wrong length and
// non-positive counts.
func FromDocument(doc Document) (*Model, error) {
	if doc.Order < 1 {
		return nil, fmt.Errorf("invalid order %d", doc.Order)
	}
	m := New(doc.Order)
	for key, next := range doc.Transitions {
		ctx, err := DecodeContext(key)
		if err != nil {
			return nil, err
		}
		if len(ctx) != doc.Order {
			return nil, fmt.Errorf("context %s has %d tokens, want %d", key, len(ctx), doc.Order)
		}
		st := &state{context: ctx, next: make(map[string]int, len(next))}
		for tok, count := range next {
			if count < 1 {
				return nil, fmt.Errorf("context %s: count for %q must be positive, got %d", key, tok, count)
			}
			st.next[tok] = count
		}
		m.transitions[contextKey(ctx)] = st
	}
	for _, s := range doc.Starts {
		if len(s) != doc.Order {
			return nil, fmt.Errorf("start %v has %d tokens, want %d", s, len(s), doc.Order)
		}
		m.starts = append(m.starts, append([]string(nil), s...))
	}
	return m, nil
}

// Save writes the model as JSON.
func (m *Model) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m.Document()); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

// Load reads a model written by Save.
func Load(r io.Reader) (*Model, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	return FromDocument(doc)
}

// SaveFile writes the model next to path and renames it into place, so a
// crash mid-write never leaves a truncated model behind.
func (m *Model) SaveFile(path string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".model-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp model file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = m.Save(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp model file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move model into place: %w", err)
	}
	return nil
}

// LoadFile reads a model from path. A missing file yields an error wrapping
// fs.ErrNotExist.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Bootstrap trains a fresh model on corpus and persists it to path.
func Bootstrap(path string, order int, corpus []string) (*Model, error) {
	m := New(order)
	m.Train(corpus)
	if path != "" {
		if err := m.SaveFile(path); err != nil {
			return m, err
		}
	}
	return m, nil
}

// LoadOrBootstrap loads the model at path, or trains one on corpus when the
// file does not exist yet. Other load failures are returned to the caller.
func LoadOrBootstrap(path string, order int, corpus []string) (*Model, bool, error) {
	m, err := LoadFile(path)
	if err == nil {
		return m, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}
	m, err = Bootstrap(path, order, corpus)
	return m, true, err
}
