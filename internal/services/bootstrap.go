package services

import (
	"context"
	"fmt"
	"os"

	"github.com/Conceptual-Machines/tidal-companion/internal/conductor"
	"github.com/Conceptual-Machines/tidal-companion/internal/corpus"
	"github.com/Conceptual-Machines/tidal-companion/internal/evolution"
	"github.com/Conceptual-Machines/tidal-companion/internal/generator"
	"github.com/Conceptual-Machines/tidal-companion/internal/latent"
	"github.com/Conceptual-Machines/tidal-companion/internal/logger"
	"github.com/Conceptual-Machines/tidal-companion/internal/markov"
	"github.com/Conceptual-Machines/tidal-companion/internal/metrics"
	"github.com/Conceptual-Machines/tidal-companion/internal/observability"
	"github.com/Conceptual-Machines/tidal-companion/internal/random"
	"github.com/Conceptual-Machines/tidal-companion/internal/theory"
	"github.com/Conceptual-Machines/tidal-companion/pkg/embedded"
)

// Paths locate the on-disk state. Empty SamplesPath and EvolutionConfig
// use the built-in defaults.
type Paths struct {
	Model           string
	Rules           string
	Corpus          string
	Samples         string
	EvolutionConfig string
}

// Options drive Bootstrap.
type Options struct {
	Paths       Paths
	MarkovOrder int
	UseAI       bool
	Seed        uint64 // 0 seeds from the clock
	History     HistoryStore
	Recorder    *metrics.Recorder
	Tracer      *observability.LangfuseClient
}

// Runtime is a fully wired service with handles on the parts main needs
// for background work.
type Runtime struct {
	Service  *PatternService
	Model    *markov.Model
	Corpus   *corpus.File
	Reloader *corpus.Reloader
	Trainer  *evolution.Trainer
}

// Bootstrap seeds missing state from the embedded defaults and wires every
// component.
func Bootstrap(opts Options) (*Runtime, error) {
	var src random.Source
	if opts.Seed != 0 {
		src = random.New(opts.Seed)
	} else {
		src = random.NewFromClock()
	}
	if opts.MarkovOrder <= 0 {
		opts.MarkovOrder = markov.DefaultOrder
	}
	history := opts.History
	if history == nil {
		history = NewMemoryHistory()
	}

	corpusFile := corpus.NewFile(opts.Paths.Corpus)
	if seeded, err := corpusFile.EnsureSeeded(embedded.DefaultCorpus); err != nil {
		return nil, err
	} else if seeded {
		logger.Info("Seeded corpus from defaults", logger.Fields{"path": opts.Paths.Corpus})
	}
	patterns, err := corpusFile.Patterns()
	if err != nil {
		return nil, err
	}

	model, bootstrapped, err := markov.LoadOrBootstrap(opts.Paths.Model, opts.MarkovOrder, patterns)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	if bootstrapped {
		logger.Info("Bootstrapped model from corpus", logger.Fields{"path": opts.Paths.Model, "patterns": len(patterns)})
	}

	rulesDefaults, err := theory.ParseConfig(embedded.TheoryRulesJSON)
	if err != nil {
		return nil, err
	}
	engine, err := theory.NewEngine(theory.FileStore{Path: opts.Paths.Rules}, rulesDefaults)
	if err != nil {
		return nil, err
	}

	samples := embedded.SamplesYAML
	if opts.Paths.Samples != "" {
		if samples, err = os.ReadFile(opts.Paths.Samples); err != nil {
			return nil, fmt.Errorf("failed to read sample library: %w", err)
		}
	}
	library, err := generator.LoadLibrary(samples)
	if err != nil {
		return nil, err
	}

	templates, err := conductor.LoadTemplates(embedded.SongTemplatesYAML)
	if err != nil {
		return nil, err
	}

	orch := generator.NewOrchestrator(
		generator.NewRuleGenerator(library, src),
		src,
		generator.WithModel(model),
		generator.WithDefaultUseAI(opts.UseAI),
	)
	reloader := corpus.NewReloader(model, corpusFile, opts.Paths.Model, history.FavoritePatterns)

	evoCfg, err := evolution.LoadConfig(opts.Paths.EvolutionConfig)
	if err != nil {
		return nil, err
	}
	trainer := evolution.NewTrainer(orch, corpusFile, reloader, evoCfg, src)

	recorder := opts.Recorder
	if recorder == nil {
		recorder = metrics.NewRecorder(nil)
	}
	recorder.SetModelTransitions(model.Stats().Transitions)

	svc := NewPatternService(Components{
		Orchestrator: orch,
		Engine:       engine,
		Model:        model,
		Conductor:    conductor.New(templates),
		Latent:       latent.New(engine.Styles()),
		History:      history,
		Reloader:     reloader,
		Trainer:      trainer,
		Recorder:     recorder,
		Tracer:       opts.Tracer,
		Source:       src,
	})
	return &Runtime{
		Service:  svc,
		Model:    model,
		Corpus:   corpusFile,
		Reloader: reloader,
		Trainer:  trainer,
	}, nil
}

// WatchCorpus retrains whenever the corpus file changes on disk. The
// returned watcher must be stopped by the caller.
func (r *Runtime) WatchCorpus(ctx context.Context) (*corpus.Watcher, error) {
	w, err := corpus.NewWatcher(r.Corpus.Path(), corpus.DefaultDebounce, func(ctx context.Context) {
		if _, err := r.Service.Retrain(ctx); err != nil {
			logger.Error("Corpus reload failed", err, logger.Fields{"path": r.Corpus.Path()})
		}
	})
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return nil, err
	}
	return w, nil
}
