// Package conductor drives target density and complexity across a song
// arc of timed sections.
package conductor

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownTemplate is returned by Start for a template that was never loaded.
	ErrUnknownTemplate = errors.New("unknown song template")
	// ErrInvalidSections is returned for empty arcs or non-positive durations.
	ErrInvalidSections = errors.New("invalid song sections")
	// ErrInvalidTempo is returned by Start for a non-positive bpm.
	ErrInvalidTempo = errors.New("bpm must be positive")
)

// State of the timeline.
type State string

const (
	StateIdle     State = "idle"
	StatePlaying  State = "playing"
	StateFinished State = "finished"
)

// EndMarker is reported as the next section while playing the last one.
const EndMarker = "FIN"

// CustomTemplate names arcs supplied by the caller.
const CustomTemplate = "custom"

const (
	beatsPerBar = 4
	targetBias  = 0.8
)

// Section is one block of the arc. Duration is in bars.
type Section struct {
	Name       string  `yaml:"name" json:"name"`
	Duration   int     `yaml:"duration" json:"duration"`
	Density    float64 `yaml:"density" json:"density"`
	Complexity float64 `yaml:"complexity" json:"complexity"`
}

// Templates maps a template name to its sections.
type Templates map[string][]Section

// LoadTemplates parses YAML templates and validates every arc.
func LoadTemplates(data []byte) (Templates, error) {
	var t Templates
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse song templates: %w", err)
	}
	for name, sections := range t {
		if err := ValidateSections(sections); err != nil {
			return nil, fmt.Errorf("template %s: %w", name, err)
		}
	}
	return t, nil
}

// ValidateSections rejects empty arcs and sections without a positive length.
func ValidateSections(sections []Section) error {
	if len(sections) == 0 {
		return fmt.Errorf("%w: no sections", ErrInvalidSections)
	}
	for i, s := range sections {
		if s.Duration <= 0 {
			return fmt.Errorf("%w: section %d (%s) has duration %d", ErrInvalidSections, i, s.Name, s.Duration)
		}
	}
	return nil
}

// Status is the snapshot returned by Update.
type Status struct {
	Active             bool    `json:"active"`
	State              State   `json:"state"`
	Template           string  `json:"template,omitempty"`
	Section            string  `json:"section,omitempty"`
	Bar                int     `json:"bar"`
	SectionProgress    float64 `json:"section_progress"`
	TargetDensity      float64 `json:"target_density"`
	TargetComplexity   float64 `json:"target_complexity"`
	TransitionImminent bool    `json:"transition_imminent"`
	NextSection        string  `json:"next_section,omitempty"`
}

// Conductor is safe for concurrent use; every Update may transition state.
type Conductor struct {
	mu        sync.Mutex
	now       func() time.Time
	templates Templates

	state        State
	template     string
	sections     []Section
	bpm          int
	started      time.Time
	sectionIndex int
	bar          int
}

// Option configures a Conductor.
type Option func(*Conductor)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Conductor) { c.now = now }
}

// New creates an idle conductor over the given templates.
func New(templates Templates, opts ...Option) *Conductor {
	c := &Conductor{
		now:       time.Now,
		templates: templates,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TemplateNames lists the loaded templates alphabetically.
func (c *Conductor) TemplateNames() []string {
	names := make([]string, 0, len(c.templates))
	for name := range c.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Template returns the sections of a named template.
func (c *Conductor) Template(name string) ([]Section, bool) {
	s, ok := c.templates[name]
	if !ok {
		return nil, false
	}
	return append([]Section(nil), s...), true
}

// Start begins playback from bar zero. Custom sections take precedence
// over the template name.
func (c *Conductor) Start(bpm int, template string, custom []Section) error {
	if bpm <= 0 {
		return ErrInvalidTempo
	}

	var sections []Section
	name := template
	if len(custom) > 0 {
		if err := ValidateSections(custom); err != nil {
			return err
		}
		sections = append([]Section(nil), custom...)
		name = CustomTemplate
	} else {
		s, ok := c.templates[template]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownTemplate, template)
		}
		sections = s
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StatePlaying
	c.template = name
	c.sections = sections
	c.bpm = bpm
	c.started = c.now()
	c.sectionIndex = 0
	c.bar = 0
	return nil
}

// Stop halts playback and returns to idle.
func (c *Conductor) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateIdle
}

// Update recomputes the position from the wall clock. Past the last
// section it moves to Finished and reports inactive.
func (c *Conductor) Update() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePlaying {
		return Status{State: c.state, Template: c.template}
	}

	secondsPerBar := 60.0 / float64(c.bpm) * beatsPerBar
	elapsed := c.now().Sub(c.started).Seconds()
	c.bar = int(elapsed / secondsPerBar)

	start := 0
	for i, s := range c.sections {
		end := start + s.Duration
		if c.bar < end {
			c.sectionIndex = i
			next := EndMarker
			if i+1 < len(c.sections) {
				next = c.sections[i+1].Name
			}
			return Status{
				Active:             true,
				State:              StatePlaying,
				Template:           c.template,
				Section:            s.Name,
				Bar:                c.bar,
				SectionProgress:    float64(c.bar-start) / float64(s.Duration),
				TargetDensity:      s.Density,
				TargetComplexity:   s.Complexity,
				TransitionImminent: c.bar == end-1,
				NextSection:        next,
			}
		}
		start = end
	}

	c.state = StateFinished
	return Status{State: StateFinished, Template: c.template, Bar: c.bar}
}

// Blend mixes a conductor target with a caller value, letting the arc
// dominate at 80%.
func Blend(target, caller float64) float64 {
	return targetBias*target + (1-targetBias)*caller
}
