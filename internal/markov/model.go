// Package markov implements the order-N token transition model trained on the
// pattern corpus.
package markov

import (
	"errors"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/Conceptual-Machines/tidal-companion/internal/models"
	"github.com/Conceptual-Machines/tidal-companion/internal/random"
)

// ErrEmptyModel is returned by Generate when nothing has been learned yet.
var ErrEmptyModel = errors.New("markov: model has no training data")

const (
	// DefaultOrder is the context length used by the service.
	DefaultOrder = 2

	minTemperature  = 0.05
	topAlternatives = 3
)

// state is one context row of the transition table.
type state struct {
	context []string
	next    map[string]int
}

// Model is an order-N Markov chain over pattern tokens. Training takes the
// write lock; generation and export only read.
type Model struct {
	mu          sync.RWMutex
	order       int
	transitions map[string]*state
	starts      [][]string
}

// New returns an empty model of the given order (minimum 1).
func New(order int) *Model {
	if order < 1 {
		order = 1
	}
	return &Model{
		order:       order,
		transitions: make(map[string]*state),
	}
}

// Order returns the context length.
func (m *Model) Order() int {
	return m.order
}

func contextKey(tokens []string) string {
	return strings.Join(tokens, "\x1f")
}

// Train accumulates transition counts from patterns and returns how many were
// long enough to learn from. Patterns shorter than order+1 tokens are skipped.
func (m *Model) Train(patterns []string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	learned := 0
	for _, p := range patterns {
		tokens := Tokenize(p)
		if len(tokens) < m.order+1 {
			continue
		}
		learned++
		m.starts = append(m.starts, append([]string(nil), tokens[:m.order]...))

		for i := 0; i+m.order < len(tokens); i++ {
			ctx := tokens[i : i+m.order]
			key := contextKey(ctx)
			st, ok := m.transitions[key]
			if !ok {
				st = &state{context: append([]string(nil), ctx...), next: make(map[string]int)}
				m.transitions[key] = st
			}
			st.next[tokens[i+m.order]]++
		}
	}
	return learned
}

// Trained reports whether the model has at least one start prefix.
func (m *Model) Trained() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.starts) > 0
}

// Generate samples a token sequence of at most maxTokens tokens. Temperature
// 1 samples raw frequencies; lower values sharpen toward the most common
// continuation and higher values flatten toward uniform.
func (m *Model) Generate(src random.Source, maxTokens int, temperature float64) (models.GenerationResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.starts) == 0 {
		return models.GenerationResult{}, ErrEmptyModel
	}
	if temperature < minTemperature {
		temperature = minTemperature
	}

	start := random.Pick(src, m.starts)
	tokens := append([]string(nil), start...)
	thoughts := []models.Thought{{Token: strings.Join(start, " "), Prob: 1.0}}

	for step := 0; step < maxTokens-m.order; step++ {
		st, ok := m.transitions[contextKey(tokens[len(tokens)-m.order:])]
		if !ok || len(st.next) == 0 {
			break
		}

		candidates, probs := distribution(st.next, temperature)
		idx := random.Weighted(src, probs)
		tokens = append(tokens, candidates[idx])
		thoughts = append(thoughts, models.Thought{
			Token:        candidates[idx],
			Prob:         probs[idx],
			Alternatives: topK(candidates, probs, topAlternatives),
		})
	}

	return models.GenerationResult{Pattern: Reconstruct(tokens), Thoughts: thoughts}, nil
}

// distribution returns candidates in lexical order with their temperature
// adjusted, normalized probabilities.
func distribution(next map[string]int, temperature float64) ([]string, []float64) {
	candidates := make([]string, 0, len(next))
	total := 0
	for tok, count := range next {
		candidates = append(candidates, tok)
		total += count
	}
	sort.Strings(candidates)

	probs := make([]float64, len(candidates))
	for i, tok := range candidates {
		probs[i] = float64(next[tok]) / float64(total)
	}
	if temperature == 1.0 {
		return candidates, probs
	}

	sum := 0.0
	for i, p := range probs {
		probs[i] = math.Pow(p, 1.0/temperature)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return candidates, probs
}

// topK returns the k most probable candidates, ties broken lexically.
func topK(candidates []string, probs []float64, k int) []models.Alternative {
	alts := make([]models.Alternative, len(candidates))
	for i := range candidates {
		alts[i] = models.Alternative{Token: candidates[i], Prob: probs[i]}
	}
	sort.SliceStable(alts, func(i, j int) bool {
		return alts[i].Prob > alts[j].Prob
	})
	if len(alts) > k {
		alts = alts[:k]
	}
	return alts
}

// Replace swaps in the learned state of other. Used to publish a model that
// was trained off to the side, so readers never observe a half-trained table.
func (m *Model) Replace(other *Model) {
	other.mu.RLock()
	order, transitions, starts := other.order, other.transitions, other.starts
	other.mu.RUnlock()

	m.mu.Lock()
	m.order = order
	m.transitions = transitions
	m.starts = starts
	m.mu.Unlock()
}

// Stats summarizes the table size.
type Stats struct {
	Order       int  `json:"order"`
	Contexts    int  `json:"contexts"`
	Transitions int  `json:"transitions"`
	Starts      int  `json:"starts"`
	Trained     bool `json:"trained"`
}

// Stats returns counts describing the current table.
func (m *Model) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	edges := 0
	for _, st := range m.transitions {
		edges += len(st.next)
	}
	return Stats{
		Order:       m.order,
		Contexts:    len(m.transitions),
		Transitions: edges,
		Starts:      len(m.starts),
		Trained:     len(m.starts) > 0,
	}
}

// Vocabulary returns every token the model can emit, sorted.
func (m *Model) Vocabulary() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := map[string]bool{}
	for _, s := range m.starts {
		for _, tok := range s {
			seen[tok] = true
		}
	}
	for _, st := range m.transitions {
		for tok := range st.next {
			seen[tok] = true
		}
	}
	vocab := make([]string, 0, len(seen))
	for tok := range seen {
		vocab = append(vocab, tok)
	}
	sort.Strings(vocab)
	return vocab
}
