// Package services composes the core packages into the request pipeline the
// API and CLI share.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Conceptual-Machines/tidal-companion/internal/conductor"
	"github.com/Conceptual-Machines/tidal-companion/internal/corpus"
	"github.com/Conceptual-Machines/tidal-companion/internal/evolution"
	"github.com/Conceptual-Machines/tidal-companion/internal/generator"
	"github.com/Conceptual-Machines/tidal-companion/internal/latent"
	"github.com/Conceptual-Machines/tidal-companion/internal/logger"
	"github.com/Conceptual-Machines/tidal-companion/internal/markov"
	"github.com/Conceptual-Machines/tidal-companion/internal/metrics"
	"github.com/Conceptual-Machines/tidal-companion/internal/models"
	"github.com/Conceptual-Machines/tidal-companion/internal/observability"
	"github.com/Conceptual-Machines/tidal-companion/internal/oracle"
	"github.com/Conceptual-Machines/tidal-companion/internal/random"
	"github.com/Conceptual-Machines/tidal-companion/internal/theory"
)

const (
	defaultTempo       = 140
	defaultTemperature = 1.0
	defaultSuggestions = 3
)

// Components are the collaborators of a PatternService. Reloader and
// Trainer are optional; without them retrain and evolve are unavailable.
type Components struct {
	Orchestrator *generator.Orchestrator
	Engine       *theory.Engine
	Model        *markov.Model
	Conductor    *conductor.Conductor
	Oracle       *oracle.Oracle
	Latent       *latent.Space
	History      HistoryStore
	Reloader     *corpus.Reloader
	Trainer      *evolution.Trainer
	Recorder     *metrics.Recorder
	Tracer       *observability.LangfuseClient
	Source       random.Source
}

// PatternService runs the full generation pipeline: latent blend,
// conductor arc, oracle intent, generate-validate, then history.
type PatternService struct {
	orch      *generator.Orchestrator
	engine    *theory.Engine
	model     *markov.Model
	conductor *conductor.Conductor
	oracle    *oracle.Oracle
	latent    *latent.Space
	history   HistoryStore
	reloader  *corpus.Reloader
	trainer   *evolution.Trainer
	recorder  *metrics.Recorder
	tracer    *observability.LangfuseClient
	src       random.Source
}

func NewPatternService(c Components) *PatternService {
	s := &PatternService{
		orch:      c.Orchestrator,
		engine:    c.Engine,
		model:     c.Model,
		conductor: c.Conductor,
		oracle:    c.Oracle,
		latent:    c.Latent,
		history:   c.History,
		reloader:  c.Reloader,
		trainer:   c.Trainer,
		recorder:  c.Recorder,
		tracer:    c.Tracer,
		src:       c.Source,
	}
	if s.oracle == nil {
		s.oracle = oracle.New()
	}
	if s.latent == nil {
		s.latent = latent.New(c.Engine.Styles())
	}
	if s.history == nil {
		s.history = NewMemoryHistory()
	}
	if s.recorder == nil {
		s.recorder = metrics.NewRecorder(nil)
	}
	if s.tracer == nil {
		s.tracer = observability.GetClient()
	}
	if s.src == nil {
		s.src = random.NewFromClock()
	}
	return s
}

// GenerateInput is a generation request before the pipeline adjusts it.
type GenerateInput struct {
	Type        string             `json:"type"`
	Density     float64            `json:"density"`
	Complexity  float64            `json:"complexity"`
	Tempo       int                `json:"tempo"`
	Style       string             `json:"style"`
	UseAI       *bool              `json:"use_ai,omitempty"`
	Temperature float64            `json:"temperature"`
	Friction    float64            `json:"friction"`
	Intent      string             `json:"intent,omitempty"`
	Blend       map[string]float64 `json:"blend,omitempty"`
	RequestID   string             `json:"-"`
}

// PatternResult is a validated generation plus the context that shaped it.
type PatternResult struct {
	generator.Validated
	Insight   string                  `json:"insight"`
	Conductor *conductor.Status       `json:"conductor,omitempty"`
	Intent    *models.IntentModifiers `json:"intent,omitempty"`
	Blend     *latent.Blend           `json:"blend,omitempty"`
	HistoryID uint                    `json:"history_id,omitempty"`
}

func note(token string, notes ...string) models.Thought {
	alts := make([]models.Alternative, 0, len(notes))
	for _, n := range notes {
		alts = append(alts, models.Alternative{Token: n, Prob: 1})
	}
	return models.Thought{Token: token, Prob: 1, Alternatives: alts}
}

func (s *PatternService) request(in GenerateInput) (generator.Request, PatternResult, []models.Thought, error) {
	var res PatternResult
	var pre []models.Thought

	req := generator.Request{
		Type:        generator.PatternType(strings.ToLower(in.Type)),
		Density:     in.Density,
		Complexity:  in.Complexity,
		Tempo:       in.Tempo,
		Style:       strings.ToLower(in.Style),
		UseAI:       in.UseAI,
		Temperature: in.Temperature,
		Friction:    in.Friction,
	}
	if req.Type == "" {
		req.Type = generator.TypeDrums
	}
	if req.Tempo <= 0 {
		req.Tempo = defaultTempo
	}
	if req.Temperature <= 0 {
		req.Temperature = defaultTemperature
	}

	if len(in.Blend) > 0 {
		b, err := s.latent.BlendMultiple(in.Blend)
		if err != nil {
			return req, res, nil, err
		}
		req.Density = b.DensityBase
		req.Complexity = b.ComplexityBase
		req.Tempo = b.TempoPreference
		res.Blend = &b
		pre = append(pre, note("LATENT", fmt.Sprintf("density %.2f complexity %.2f tempo %d", b.DensityBase, b.ComplexityBase, b.TempoPreference)))
	}

	if status := s.conductor.Update(); status.Active {
		req.Density = conductor.Blend(status.TargetDensity, req.Density)
		req.Complexity = conductor.Blend(status.TargetComplexity, req.Complexity)
		res.Conductor = &status
		pre = append(pre, note("CONDUCTOR", fmt.Sprintf("%s bar %d", status.Section, status.Bar)))
	}

	if strings.TrimSpace(in.Intent) != "" {
		mods := s.oracle.Interpret(in.Intent)
		if !mods.IsZero() {
			req.Intent = &mods
			res.Intent = &mods
			pre = append(pre, note("INTENT", mods.DetectedKeywords...))
		}
	}
	return req, res, pre, nil
}

// Generate runs the pipeline for one pattern. Persisting history is best
// effort: a store failure is logged and the pattern is still returned.
func (s *PatternService) Generate(ctx context.Context, in GenerateInput) (PatternResult, error) {
	start := time.Now()
	req, res, pre, err := s.request(in)
	if err != nil {
		return PatternResult{}, err
	}

	trace := s.tracer.StartTrace(ctx, "pattern.generate", map[string]interface{}{
		"request_id": in.RequestID,
		"type":       string(req.Type),
		"style":      req.Style,
	})
	defer trace.Finish()
	span := trace.Generation("generate_validated", nil)

	validated, err := s.orch.GenerateValidated(req, s.engine)
	if err != nil {
		span.SetLevel("ERROR")
		span.Finish()
		return PatternResult{}, err
	}
	validated.Thoughts = append(pre, validated.Thoughts...)
	res.Validated = validated
	res.Insight = theory.Insight(validated.Pattern, validated.Style)

	span.LogPattern(validated.Mode, in, validated.Pattern, validated.Thoughts, validated.Validation.Valid, map[string]interface{}{
		"attempts": validated.Attempts,
	})
	span.Finish()

	entry := &models.HistoryEntry{
		RequestID:  in.RequestID,
		Pattern:    validated.Pattern,
		Type:       validated.Type,
		Style:      validated.Style,
		Mode:       validated.Mode,
		Density:    validated.Density,
		Complexity: validated.Complexity,
		Tempo:      validated.Tempo,
		Valid:      validated.Validation.Valid,
		Issues:     validated.Validation.Issues,
		Thoughts:   validated.Thoughts,
	}
	if err := s.history.Record(ctx, entry); err != nil {
		logger.Error("Failed to record history", err, logger.Fields{"request_id": in.RequestID})
	} else {
		res.HistoryID = entry.ID
	}

	duration := time.Since(start)
	s.recorder.RecordGeneration(ctx, metrics.GenerationSample{
		Mode:     validated.Mode,
		Type:     validated.Type,
		Style:    validated.Style,
		Valid:    validated.Validation.Valid,
		Attempts: validated.Attempts,
		Duration: duration,
	})
	logger.LogPatternGeneration(ctx, validated.Mode, duration, validated.Attempts, logger.Fields{
		"request_id": in.RequestID,
		"type":       validated.Type,
		"style":      validated.Style,
		"valid":      validated.Validation.Valid,
	})
	return res, nil
}

// Macro renders drums, bass and melody on d1 to d3 after the same
// pipeline adjustments as Generate.
func (s *PatternService) Macro(in GenerateInput) ([]generator.Generation, error) {
	req, _, _, err := s.request(in)
	if err != nil {
		return nil, err
	}
	return s.orch.Macro(req)
}

// Fill renders a transition fill for style.
func (s *PatternService) Fill(style string, useAI *bool) (generator.Generation, error) {
	return s.orch.Fill(strings.ToLower(style), useAI)
}

// Mutate perturbs pattern.
func (s *PatternService) Mutate(pattern string, strength float64) (models.GenerationResult, error) {
	return s.orch.Mutate(pattern, strength)
}

// Morph blends two patterns.
func (s *PatternService) Morph(a, b string, ratio float64) generator.MorphResult {
	return s.orch.Morph(a, b, ratio)
}

// Layers splits pattern into voices.
func (s *PatternService) Layers(pattern string) []models.Layer {
	return generator.Layers(pattern)
}

// Humanize jitters effect values.
func (s *PatternService) Humanize(pattern string) string {
	return generator.Humanize(s.src, pattern)
}

// ReplaceSample swaps a sample name on word boundaries.
func (s *PatternService) ReplaceSample(pattern, old, replacement string) string {
	return generator.ReplaceSample(pattern, old, replacement)
}

// SuggestSamples proposes alternatives to the lead sample of pattern.
func (s *PatternService) SuggestSamples(pattern string, count int) []string {
	if count <= 0 {
		count = defaultSuggestions
	}
	return s.orch.Rules().Library().Suggest(s.src, pattern, count)
}

// Validate checks pattern against the rules for style.
func (s *PatternService) Validate(pattern, style string) models.ValidationResult {
	return s.engine.Validate(pattern, style)
}

// Sanitize repairs common syntax slips.
func (s *PatternService) Sanitize(pattern string) string {
	return s.engine.Sanitize(pattern)
}

// Insight is the musical reading of a pattern.
type Insight struct {
	Text        string  `json:"insight"`
	Syncopation float64 `json:"syncopation"`
	Variety     float64 `json:"variety"`
}

func (s *PatternService) Insight(pattern, style string) Insight {
	return Insight{
		Text:        theory.Insight(pattern, style),
		Syncopation: theory.Syncopation(pattern),
		Variety:     theory.Variety(pattern),
	}
}

// Rules returns the rule registry.
func (s *PatternService) Rules() theory.Config {
	return s.engine.Rules()
}

func (s *PatternService) ToggleRule(scope, id string, active bool) error {
	return s.engine.ToggleRule(scope, id, active)
}

func (s *PatternService) AddRule(scope, id, regex, message string) error {
	return s.engine.AddRegexRule(scope, id, regex, message)
}

// Conductor exposes the song-arc conductor.
func (s *PatternService) Conductor() *conductor.Conductor {
	return s.conductor
}

// Interpret reads a free-text intent.
func (s *PatternService) Interpret(text string) models.IntentModifiers {
	return s.oracle.Interpret(text)
}

// Latent exposes the genre space.
func (s *PatternService) Latent() *latent.Space {
	return s.latent
}

// Graph returns the model as a node-link graph.
func (s *PatternService) Graph(limit int) markov.Graph {
	return s.model.Graph(limit)
}

// ModelStats summarizes the live model.
func (s *PatternService) ModelStats() markov.Stats {
	return s.model.Stats()
}

func (s *PatternService) History(ctx context.Context, filter HistoryFilter) ([]models.HistoryEntry, error) {
	return s.history.Recent(ctx, filter)
}

func (s *PatternService) AddFavorite(ctx context.Context, fav *models.Favorite) error {
	fav.Style = strings.ToLower(fav.Style)
	return s.history.AddFavorite(ctx, fav)
}

func (s *PatternService) Favorites(ctx context.Context, style string) ([]models.Favorite, error) {
	return s.history.Favorites(ctx, style)
}

// Retrain rebuilds the live model from the corpus and favorites.
func (s *PatternService) Retrain(ctx context.Context) (corpus.ReloadResult, error) {
	if s.reloader == nil {
		return corpus.ReloadResult{}, ErrUnavailable
	}
	res, err := s.reloader.Reload(ctx)
	if err != nil {
		return res, err
	}
	s.recorder.SetModelTransitions(res.Stats.Transitions)
	return res, nil
}

// Evolve runs one evolution round. Zero sizes use the configured defaults.
func (s *PatternService) Evolve(ctx context.Context, batchSize, topK int) (evolution.Result, error) {
	if s.trainer == nil {
		return evolution.Result{}, ErrUnavailable
	}
	start := time.Now()
	res, err := s.trainer.Run(ctx, batchSize, topK)
	if err != nil {
		return res, err
	}
	s.recorder.RecordEvolution(res.Survivors, res.TopScore, time.Since(start))
	s.recorder.SetModelTransitions(s.model.Stats().Transitions)
	logger.LogToSentry(sentry.LevelInfo, "Evolution round complete", logger.Fields{
		"survivors": res.Survivors,
		"top_score": res.TopScore,
	})
	return res, nil
}
