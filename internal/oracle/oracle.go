// Package oracle maps free-text intent ("darker", "more aggressive") onto
// generation parameter offsets and extra effect tokens.
package oracle

import (
	"regexp"
	"strings"

	"github.com/Conceptual-Machines/tidal-companion/internal/models"
)

// Entry describes what one keyword does to the generation parameters.
// A non-zero Multiplier marks an intensity word that scales the offsets
// of every other keyword in the phrase.
type Entry struct {
	Density    float64
	Complexity float64
	Tokens     []string
	Style      string
	Tempo      int
	Multiplier float64
}

// DefaultLexicon is the built-in keyword table.
var DefaultLexicon = map[string]Entry{
	// atmosphere
	"dark":     {Complexity: 0.2, Tokens: []string{"# lpf 800", "# crush 3"}, Style: "industrial"},
	"bright":   {Complexity: 0.1, Tokens: []string{"# hpf 2000"}, Style: "experimental"},
	"spacious": {Density: -0.2, Complexity: 0.2, Tokens: []string{"# delay 0.7 # delayfb 0.5"}, Style: "ambient"},
	"dirty":    {Complexity: 0.3, Tokens: []string{"# crush 2", "# dist 0.4"}, Style: "industrial"},
	"clean":    {Complexity: -0.2, Tokens: []string{"# gain 1"}, Style: "house"},

	// energy
	"aggressive": {Density: 0.3, Complexity: 0.3, Tokens: []string{"*2", "# speed 1.2"}},
	"chill":      {Density: -0.3, Complexity: -0.2, Tokens: []string{"/2"}, Style: "ambient"},
	"minimal":    {Density: -0.4, Complexity: -0.4, Style: "techno"},
	"chaotic":    {Complexity: 0.5, Tokens: []string{"jux(rev)", "iter 4"}, Style: "experimental"},
	"dense":      {Density: 0.4, Tokens: []string{"*4"}},

	// style
	"tribal": {Density: 0.1, Style: "organic"},
	"acid":   {Tokens: []string{"# resonance 0.4 # cutoff 0.2"}, Style: "experimental"},
	"dub":    {Tokens: []string{"# delay 0.8 # lock 1"}, Style: "dub", Tempo: -20},
	"hard":   {Density: 0.2, Style: "industrial", Tempo: 10},

	// intensity
	"more": {Multiplier: 1.2},
	"less": {Multiplier: 0.8},
	"up":   {Multiplier: 1.1},
	"down": {Multiplier: 0.9},
}

// DefaultSynonyms folds common alternatives onto lexicon keys.
var DefaultSynonyms = map[string]string{
	"darker":   "dark",
	"brighter": "bright",
	"space":    "spacious",
	"spacey":   "spacious",
	"dirtier":  "dirty",
	"cleaner":  "clean",
	"angry":    "aggressive",
	"fast":     "aggressive",
	"relaxed":  "chill",
	"soft":     "chill",
	"slow":     "chill",
	"calm":     "chill",
	"chaos":    "chaotic",
	"denser":   "dense",
	"busy":     "dense",
	"deep":     "dub",
	"harder":   "hard",
	"heavy":    "hard",
	"sparse":   "minimal",
	"stripped": "minimal",
	"much":     "more",
	"fewer":    "less",
	"louder":   "up",
	"quieter":  "down",
}

var wordRe = regexp.MustCompile(`\w+`)

// Oracle interprets intents against a lexicon.
type Oracle struct {
	lexicon  map[string]Entry
	synonyms map[string]string
}

// New returns an oracle over the default lexicon.
func New() *Oracle {
	return &Oracle{lexicon: DefaultLexicon, synonyms: DefaultSynonyms}
}

// NewWithLexicon returns an oracle over a custom lexicon and synonym table.
func NewWithLexicon(lexicon map[string]Entry, synonyms map[string]string) *Oracle {
	return &Oracle{lexicon: lexicon, synonyms: synonyms}
}

func (o *Oracle) lookup(word string) (Entry, bool) {
	if e, ok := o.lexicon[word]; ok {
		return e, true
	}
	if key, ok := o.synonyms[word]; ok {
		e, ok := o.lexicon[key]
		return e, ok
	}
	return Entry{}, false
}

// Interpret scans text for known keywords. Intensity words are applied
// first, multiplying together, and scale the density and complexity
// offsets of every other keyword. The last style preference wins.
func (o *Oracle) Interpret(text string) models.IntentModifiers {
	words := wordRe.FindAllString(strings.ToLower(text), -1)
	out := models.IntentModifiers{
		ExtraTokens:      []string{},
		DetectedKeywords: []string{},
	}

	multiplier := 1.0
	for _, w := range words {
		if e, ok := o.lookup(w); ok && e.Multiplier != 0 {
			multiplier *= e.Multiplier
			out.DetectedKeywords = append(out.DetectedKeywords, w)
		}
	}

	for _, w := range words {
		e, ok := o.lookup(w)
		if !ok || e.Multiplier != 0 {
			continue
		}
		out.DetectedKeywords = append(out.DetectedKeywords, w)
		out.DensityOffset += e.Density * multiplier
		out.ComplexityOffset += e.Complexity * multiplier
		out.ExtraTokens = append(out.ExtraTokens, e.Tokens...)
		if e.Style != "" {
			out.StylePref = e.Style
		}
		out.TempoMod += e.Tempo
	}
	return out
}
