package corpus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Conceptual-Machines/tidal-companion/internal/logger"
	"github.com/Conceptual-Machines/tidal-companion/internal/markov"
)

// ErrNoPatterns is returned when a reload finds nothing trainable.
var ErrNoPatterns = errors.New("no trainable patterns")

// ExtraSource contributes patterns that live outside the corpus file,
// such as saved favorites.
type ExtraSource func(ctx context.Context) ([]string, error)

// ReloadResult summarizes a completed reload.
type ReloadResult struct {
	Patterns int          `json:"patterns"`
	Stats    markov.Stats `json:"stats"`
}

// Reloader retrains a fresh model from the corpus and swaps it into the
// live one, so generation never sees a half-trained table.
type Reloader struct {
	mu        sync.Mutex
	live      *markov.Model
	source    Source
	extras    []ExtraSource
	modelPath string
}

// NewReloader creates a reloader for live. A non-empty modelPath persists
// every retrained model before it is swapped in.
func NewReloader(live *markov.Model, source Source, modelPath string, extras ...ExtraSource) *Reloader {
	return &Reloader{live: live, source: source, modelPath: modelPath, extras: extras}
}

// Reload trains a fresh model of the live order and replaces the live
// table. On any error the live model is left untouched.
func (r *Reloader) Reload(ctx context.Context) (ReloadResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	patterns, err := r.source.Patterns()
	if err != nil {
		return ReloadResult{}, err
	}
	for _, extra := range r.extras {
		more, err := extra(ctx)
		if err != nil {
			return ReloadResult{}, fmt.Errorf("failed to collect extra patterns: %w", err)
		}
		for _, p := range more {
			patterns = append(patterns, Flatten(p))
		}
	}
	if len(patterns) == 0 {
		return ReloadResult{}, ErrNoPatterns
	}

	fresh := markov.New(r.live.Order())
	fresh.Train(patterns)
	if !fresh.Trained() {
		return ReloadResult{}, ErrNoPatterns
	}

	if r.modelPath != "" {
		if err := fresh.SaveFile(r.modelPath); err != nil {
			return ReloadResult{}, fmt.Errorf("failed to persist model: %w", err)
		}
	}
	r.live.Replace(fresh)

	stats := r.live.Stats()
	logger.Info("Model reloaded", logger.Fields{
		"patterns":    len(patterns),
		"contexts":    stats.Contexts,
		"transitions": stats.Transitions,
	})
	return ReloadResult{Patterns: len(patterns), Stats: stats}, nil
}
