package generator

import "sync"

// DefaultHistorySize is how many recent patterns anti-repetition remembers.
const DefaultHistorySize = 10

// History is a bounded FIFO of recently emitted patterns.
type History struct {
	mu       sync.Mutex
	capacity int
	entries  []string
}

// NewHistory creates a history holding at most capacity patterns.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{capacity: capacity}
}

// Admit compares pattern with the most recent entry and, when the
// similarity exceeds threshold, replaces it with diverge(pattern). The
// admitted pattern is appended and returned with the measured similarity.
// Comparison and append happen under one lock.
func (h *History) Admit(pattern string, threshold float64, diverge func(string) string) (string, float64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	pattern, sim, diverged := h.compare(pattern, threshold, diverge)
	h.push(pattern)
	return pattern, sim, diverged
}

// Diverge is Admit without the append. Pair it with Record once the
// pattern is final.
func (h *History) Diverge(pattern string, threshold float64, diverge func(string) string) (string, float64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.compare(pattern, threshold, diverge)
}

// Record appends pattern, dropping the oldest entry when full.
func (h *History) Record(pattern string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.push(pattern)
}

func (h *History) compare(pattern string, threshold float64, diverge func(string) string) (string, float64, bool) {
	n := len(h.entries)
	if n == 0 {
		return pattern, 0, false
	}
	sim := Similarity(pattern, h.entries[n-1])
	if sim > threshold && diverge != nil {
		return diverge(pattern), sim, true
	}
	return pattern, sim, false
}

func (h *History) push(pattern string) {
	h.entries = append(h.entries, pattern)
	if len(h.entries) > h.capacity {
		h.entries = h.entries[len(h.entries)-h.capacity:]
	}
}

// Entries returns the remembered patterns, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

// Len returns the number of remembered patterns.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
