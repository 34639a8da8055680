package generator

import (
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/tidal-companion/internal/logger"
	"github.com/Conceptual-Machines/tidal-companion/internal/markov"
	"github.com/Conceptual-Machines/tidal-companion/internal/minilang"
	"github.com/Conceptual-Machines/tidal-companion/internal/models"
	"github.com/Conceptual-Machines/tidal-companion/internal/random"
)

// Generation modes reported with every result.
const (
	ModeStatistical = "markov"
	ModeRules       = "rules"
	ModeFallback    = "fallback"
)

const (
	statisticalRetries  = 2
	repetitionThreshold = 0.8
	repetitionStrength  = 0.6

	// MaxValidatedAttempts bounds the generate-validate loop.
	MaxValidatedAttempts = 3
	temperatureStep      = 0.1
)

// Request carries every generation knob. A nil UseAI defers to the
// orchestrator default.
type Request struct {
	Type        PatternType
	Density     float64
	Complexity  float64
	Tempo       int
	Style       string
	UseAI       *bool
	Temperature float64
	Friction    float64
	Intent      *models.IntentModifiers
}

// Generation is a produced pattern with the effective parameters it used.
type Generation struct {
	models.GenerationResult
	Mode       string  `json:"mode"`
	Type       string  `json:"type"`
	Density    float64 `json:"density"`
	Complexity float64 `json:"complexity"`
	Tempo      int     `json:"tempo"`
	Style      string  `json:"style"`
}

// Validator is the rule registry consulted by GenerateValidated.
type Validator interface {
	Validate(pattern, style string) models.ValidationResult
	Sanitize(pattern string) string
}

// Validated is a generation checked against the rule registry.
type Validated struct {
	Generation
	Validation models.ValidationResult `json:"validation"`
	Attempts   int                     `json:"attempts"`
}

// Orchestrator chooses between the statistical and template paths and
// owns the anti-repetition history.
type Orchestrator struct {
	model   *markov.Model
	rules   *RuleGenerator
	src     random.Source
	history *History
	useAI   bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithModel enables the statistical path.
func WithModel(m *markov.Model) Option {
	return func(o *Orchestrator) { o.model = m }
}

// WithHistorySize overrides DefaultHistorySize.
func WithHistorySize(n int) Option {
	return func(o *Orchestrator) { o.history = NewHistory(n) }
}

// WithDefaultUseAI sets the path used when a request leaves UseAI nil.
func WithDefaultUseAI(enabled bool) Option {
	return func(o *Orchestrator) { o.useAI = enabled }
}

// NewOrchestrator wires the template generator and random source.
func NewOrchestrator(rules *RuleGenerator, src random.Source, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		rules:   rules,
		src:     src,
		history: NewHistory(DefaultHistorySize),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Rules returns the template generator.
func (o *Orchestrator) Rules() *RuleGenerator { return o.rules }

// History returns the anti-repetition history.
func (o *Orchestrator) History() *History { return o.history }

func (o *Orchestrator) statisticalAvailable() bool {
	return o.model != nil && o.model.Trained()
}

// Generate produces one pattern and admits it to the anti-repetition
// history, forcing a mutation when it is too close to the previous one.
func (o *Orchestrator) Generate(req Request) (Generation, error) {
	gen, err := o.Candidate(req)
	if err != nil {
		return Generation{}, err
	}
	pattern, sim, diverged := o.history.Admit(gen.Pattern, repetitionThreshold, o.diverge)
	gen.Pattern = pattern
	if diverged {
		gen.Thoughts = append(gen.Thoughts, frictionThought(sim))
	}
	return gen, nil
}

// Candidate produces one pattern without consulting or recording the
// history. Intent offsets are applied first, then the statistical path
// runs when enabled and trained, otherwise the template for req.Type.
func (o *Orchestrator) Candidate(req Request) (Generation, error) {
	patternType, err := ParsePatternType(string(req.Type))
	if err != nil {
		return Generation{}, err
	}

	gen := Generation{
		Type:       string(patternType),
		Density:    req.Density,
		Complexity: req.Complexity,
		Tempo:      req.Tempo,
		Style:      req.Style,
	}
	var extras []string
	if req.Intent != nil {
		gen.Density += req.Intent.DensityOffset
		gen.Complexity += req.Intent.ComplexityOffset
		gen.Tempo += req.Intent.TempoMod
		if req.Intent.StylePref != "" {
			gen.Style = req.Intent.StylePref
		}
		extras = req.Intent.ExtraTokens
	}
	gen.Density = clamp01(gen.Density)
	gen.Complexity = clamp01(gen.Complexity)

	useAI := o.useAI
	if req.UseAI != nil {
		useAI = *req.UseAI
	}

	var res models.GenerationResult
	if useAI && o.statisticalAvailable() {
		res, gen.Mode = o.generateStatistical(req.Temperature)
	} else {
		res, err = o.rules.Generate(patternType, Params{
			Density:    gen.Density,
			Complexity: gen.Complexity,
			Style:      gen.Style,
			Friction:   req.Friction,
		})
		if err != nil {
			return Generation{}, err
		}
		gen.Mode = ModeRules
	}

	pattern := res.Pattern
	thoughts := res.Thoughts
	if thoughts == nil {
		thoughts = []models.Thought{}
	}
	if len(extras) > 0 {
		pattern += " " + strings.Join(extras, " ")
		label := "ORACLE"
		if gen.Mode != ModeRules {
			label = "MODS"
		}
		thoughts = append(thoughts, thought(label, 1, extras...))
	}
	if gen.Mode != ModeRules {
		pattern = Humanize(o.src, pattern)
	}
	gen.Pattern = minilang.Normalize(pattern)
	gen.Thoughts = thoughts
	return gen, nil
}

func (o *Orchestrator) diverge(pattern string) string {
	return mutate(o.src, o.rules.Library(), pattern, repetitionStrength).Pattern
}

func frictionThought(sim float64) models.Thought {
	return thought("HIST_FRICTION", sim, "Too close to the previous pattern, forced a mutation")
}

func (o *Orchestrator) generateStatistical(temperature float64) (models.GenerationResult, string) {
	maxTokens := int(20 + temperature*30)
	for range 1 + statisticalRetries {
		res, err := o.model.Generate(o.src, maxTokens, temperature)
		if err != nil {
			break
		}
		if Plausible(res.Pattern) {
			return res, ModeStatistical
		}
	}
	res := o.rules.Drums(Params{Density: 0.6, Complexity: 0.5, Style: "techno", Friction: 0.2})
	res.Thoughts = append(res.Thoughts, thought("FALLBACK", 1, "Statistical output was malformed"))
	return res, ModeFallback
}

// GenerateValidated runs Generate up to MaxValidatedAttempts times,
// raising the temperature by 0.1 per retry, until v accepts the pattern.
// When every attempt fails the last candidate is returned with its issues.
// Only the returned pattern, sanitized, enters the history.
func (o *Orchestrator) GenerateValidated(req Request, v Validator) (Validated, error) {
	var last Validated
	base := req.Temperature
	for attempt := range MaxValidatedAttempts {
		req.Temperature = base + float64(attempt)*temperatureStep
		gen, err := o.Candidate(req)
		if err != nil {
			return Validated{}, err
		}
		pattern, sim, diverged := o.history.Diverge(gen.Pattern, repetitionThreshold, o.diverge)
		if diverged {
			gen.Thoughts = append(gen.Thoughts, frictionThought(sim))
		}
		gen.Pattern = v.Sanitize(pattern)
		result := v.Validate(gen.Pattern, gen.Style)
		last = Validated{Generation: gen, Validation: result, Attempts: attempt + 1}
		if result.Valid {
			break
		}
		logger.Debug("Generated pattern failed validation", logger.Fields{
			"attempt": attempt + 1,
			"style":   gen.Style,
			"issues":  len(result.Issues),
		})
		last.Thoughts = append(last.Thoughts, thought("RETRY", 0, result.Issues...))
	}
	o.history.Record(last.Pattern)
	return last, nil
}

// Fill produces a short high-energy transition: a dense drums or
// percussion pattern played twice as fast through a rising resonant
// high-pass.
func (o *Orchestrator) Fill(style string, useAI *bool) (Generation, error) {
	gen, err := o.Generate(Request{
		Type:        random.Pick(o.src, []PatternType{TypeDrums, TypePercussion}),
		Density:     0.9,
		Complexity:  0.8,
		Tempo:       140,
		Style:       style,
		UseAI:       useAI,
		Temperature: 1.0,
		Friction:    0.2,
	})
	if err != nil {
		return Generation{}, err
	}
	gen.Pattern += "\n  # fast 2\n  # hpf (line 100 2000 1)\n  # resonance 0.2"
	gen.Thoughts = append(gen.Thoughts, thought("FILL", 1, "High energy transition"))
	return gen, nil
}

// Macro renders a drums, bass and melody trio on channels d1 to d3 from
// one set of parameters. Bass thins out and melody grows more intricate,
// with density floors so neither voice disappears.
func (o *Orchestrator) Macro(req Request) ([]Generation, error) {
	voices := []struct {
		t            PatternType
		densityShift float64
		densityFloor float64
		complexity   float64
	}{
		{TypeDrums, 0, 0, 0},
		{TypeBass, -0.2, 0.2, 0},
		{TypeMelody, -0.3, 0.1, 0.2},
	}
	out := make([]Generation, 0, len(voices))
	for i, v := range voices {
		r := req
		r.Type = v.t
		r.Density = clamp01(max(v.densityFloor, req.Density+v.densityShift))
		r.Complexity = clamp01(req.Complexity + v.complexity)
		gen, err := o.Generate(r)
		if err != nil {
			return nil, fmt.Errorf("macro %s: %w", v.t, err)
		}
		gen.Pattern = minilang.WithChannel(i+1, gen.Pattern)
		out = append(out, gen)
	}
	return out, nil
}
