package models

// Alternative is a candidate token that was not chosen, with its probability.
type Alternative struct {
	Token string  `json:"token"`
	Prob  float64 `json:"prob"`
}

// Thought is one explainability entry emitted alongside a generated pattern.
// Rule-driven steps use Prob 1.0 and describe the choice in Token.
type Thought struct {
	Token        string        `json:"token"`
	Prob         float64       `json:"prob"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
}

// GenerationResult pairs a pattern with the trace that produced it.
type GenerationResult struct {
	Pattern  string    `json:"pattern"`
	Thoughts []Thought `json:"thoughts"`
}

// IntentModifiers are parameter nudges derived from a free-text intent.
type IntentModifiers struct {
	DensityOffset    float64  `json:"density_offset"`
	ComplexityOffset float64  `json:"complexity_offset"`
	TempoMod         int      `json:"tempo_mod"`
	StylePref        string   `json:"style_pref,omitempty"`
	ExtraTokens      []string `json:"extra_tokens,omitempty"`
	DetectedKeywords []string `json:"detected_keywords,omitempty"`
}

// IsZero reports whether the modifiers change nothing.
func (m IntentModifiers) IsZero() bool {
	return m.DensityOffset == 0 && m.ComplexityOffset == 0 && m.TempoMod == 0 &&
		m.StylePref == "" && len(m.ExtraTokens) == 0
}

// Layer is one independently playable voice split out of a composite pattern.
type Layer struct {
	Offset        int    `json:"offset"`
	Code          string `json:"code"`
	Hallucination bool   `json:"is_hallucination"`
}

// ValidationResult is the outcome of running the rule registry on a pattern.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}
