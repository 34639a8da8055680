package evolution

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Conceptual-Machines/tidal-companion/internal/corpus"
	"github.com/Conceptual-Machines/tidal-companion/internal/generator"
	"github.com/Conceptual-Machines/tidal-companion/internal/logger"
	"github.com/Conceptual-Machines/tidal-companion/internal/random"
)

const (
	runHeader       = "evolutionary run"
	defaultStyle    = "experimental"
	filterAll       = "all"
	generateWorkers = 4
)

// Generator produces candidates. Candidates are scored, not played, so
// they stay out of the anti-repetition history.
type Generator interface {
	Candidate(req generator.Request) (generator.Generation, error)
}

// Appender persists survivors to the corpus.
type Appender interface {
	Append(header string, patterns []string, at time.Time) (int, error)
}

// Reloader retrains the live model after the corpus grew.
type Reloader interface {
	Reload(ctx context.Context) (corpus.ReloadResult, error)
}

// Candidate is a scored pattern.
type Candidate struct {
	Pattern string  `json:"pattern"`
	Score   float64 `json:"score"`
}

// Result summarizes one evolution round.
type Result struct {
	Generated int         `json:"generated"`
	Survivors int         `json:"survivors"`
	TopScore  float64     `json:"top_score"`
	Patterns  []string    `json:"patterns"`
	Failed    int         `json:"failed"`
	Reloaded  bool        `json:"reloaded"`
	Best      []Candidate `json:"best,omitempty"`

	Elapsed time.Duration `json:"-"`
}

// Trainer runs evolution rounds. Rounds are serialized.
type Trainer struct {
	mu     sync.Mutex
	gen    Generator
	corpus Appender
	reload Reloader
	cfg    Config
	src    random.Source
	now    func() time.Time
}

// NewTrainer wires a trainer. reload may be nil when the caller reloads
// the model itself.
func NewTrainer(gen Generator, corpus Appender, reload Reloader, cfg Config, src random.Source) *Trainer {
	return &Trainer{gen: gen, corpus: corpus, reload: reload, cfg: cfg, src: src, now: time.Now}
}

// Config returns the active configuration.
func (t *Trainer) Config() Config { return t.cfg }

// Run generates batchSize candidates, keeps the topK scoring above the
// strictness floor, appends them to the corpus and reloads the model.
// Zero arguments fall back to the configured sizes.
func (t *Trainer) Run(ctx context.Context, batchSize, topK int) (Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	start := time.Now()

	if batchSize <= 0 {
		batchSize = t.cfg.Params.BatchSize
	}
	if topK <= 0 {
		topK = t.cfg.Params.TopK
	}

	logger.Info("Starting evolution round", logger.Fields{
		"batch_size":  batchSize,
		"top_k":       topK,
		"temperature": t.cfg.Params.Temperature,
	})

	requests := make([]generator.Request, batchSize)
	for i := range requests {
		requests[i] = t.request()
	}

	candidates := make([]*Candidate, batchSize)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(generateWorkers)
	for i, req := range requests {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			gen, err := t.gen.Candidate(req)
			if err != nil {
				logger.Warn("Evolution candidate failed", logger.Fields{"type": req.Type, "error": err.Error()})
				return nil
			}
			candidates[i] = &Candidate{Pattern: gen.Pattern, Score: Score(gen.Pattern, t.cfg.Weights)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("evolution cancelled: %w", err)
	}

	scored := make([]Candidate, 0, batchSize)
	for _, c := range candidates {
		if c != nil {
			scored = append(scored, *c)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	res := Result{Generated: batchSize, Failed: batchSize - len(scored), Patterns: []string{}}
	if len(scored) > topK {
		scored = scored[:topK]
	}
	for _, c := range scored {
		if c.Score > t.cfg.Params.Strictness {
			res.Best = append(res.Best, c)
			res.Patterns = append(res.Patterns, c.Pattern)
		}
	}
	res.Survivors = len(res.Patterns)
	if res.Survivors == 0 {
		res.Elapsed = time.Since(start)
		return res, nil
	}
	res.TopScore = res.Best[0].Score

	if _, err := t.corpus.Append(runHeader, res.Patterns, t.now()); err != nil {
		return res, err
	}
	if t.reload != nil {
		if _, err := t.reload.Reload(ctx); err != nil {
			return res, fmt.Errorf("failed to reload model: %w", err)
		}
		res.Reloaded = true
	}
	res.Elapsed = time.Since(start)

	logger.Info("Evolution round complete", logger.Fields{
		"survivors": res.Survivors,
		"top_score": res.TopScore,
	})
	return res, nil
}

func (t *Trainer) request() generator.Request {
	patternType := generator.PatternType(t.cfg.Filters.Instrument)
	if t.cfg.Filters.Instrument == "" || t.cfg.Filters.Instrument == filterAll {
		patternType = random.Pick(t.src, generator.PatternTypes)
	}
	style := t.cfg.Filters.Genre
	if style == "" || style == filterAll {
		style = defaultStyle
	}
	return generator.Request{
		Type:        patternType,
		Density:     0.6,
		Complexity:  0.5,
		Tempo:       140,
		Style:       style,
		Temperature: t.cfg.Params.Temperature,
		Friction:    0.2,
	}
}
