package generator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/Conceptual-Machines/tidal-companion/internal/models"
	"github.com/Conceptual-Machines/tidal-companion/internal/random"
)

// ErrUnknownPatternType is returned for a pattern type outside the five
// supported families.
var ErrUnknownPatternType = errors.New("unknown pattern type")

// PatternType selects a template family.
type PatternType string

const (
	TypeDrums      PatternType = "drums"
	TypeBass       PatternType = "bass"
	TypeMelody     PatternType = "melody"
	TypePercussion PatternType = "percussion"
	TypeFX         PatternType = "fx"
)

// PatternTypes lists the supported families.
var PatternTypes = []PatternType{TypeDrums, TypeBass, TypeMelody, TypePercussion, TypeFX}

// ParsePatternType validates a user supplied type name.
func ParsePatternType(s string) (PatternType, error) {
	t := PatternType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range PatternTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPatternType, s)
}

// Params are the knobs every template reads. Density and Complexity are
// expected in [0,1]; Friction is the probability of an unexpected swap.
type Params struct {
	Density    float64
	Complexity float64
	Style      string
	Friction   float64
}

var (
	minorScale = []int{0, 2, 3, 5, 7, 8, 10}
	majorScale = []int{0, 2, 4, 5, 7, 9, 11}
)

// RuleGenerator renders parameterized templates into patterns.
type RuleGenerator struct {
	library atomic.Pointer[Library]
	src     random.Source
}

// NewRuleGenerator creates a generator drawing samples from lib.
func NewRuleGenerator(lib *Library, src random.Source) *RuleGenerator {
	g := &RuleGenerator{src: src}
	g.library.Store(lib)
	return g
}

// Library returns the active sample library.
func (g *RuleGenerator) Library() *Library {
	return g.library.Load()
}

// SetLibrary swaps the active sample library.
func (g *RuleGenerator) SetLibrary(lib *Library) {
	g.library.Store(lib)
}

// Generate dispatches to the template for t.
func (g *RuleGenerator) Generate(t PatternType, p Params) (models.GenerationResult, error) {
	switch t {
	case TypeDrums:
		return g.Drums(p), nil
	case TypeBass:
		return g.Bass(p), nil
	case TypeMelody:
		return g.Melody(p), nil
	case TypePercussion:
		return g.Percussion(p), nil
	case TypeFX:
		return g.FX(p), nil
	default:
		return models.GenerationResult{}, fmt.Errorf("%w: %q", ErrUnknownPatternType, t)
	}
}

func thought(token string, prob float64, notes ...string) models.Thought {
	alts := make([]models.Alternative, 0, len(notes))
	for _, n := range notes {
		alts = append(alts, models.Alternative{Token: n, Prob: 1})
	}
	return models.Thought{Token: token, Prob: prob, Alternatives: alts}
}

func joinEffects(pattern string, effects []string) string {
	if len(effects) == 0 {
		return pattern
	}
	return pattern + "\n  " + strings.Join(effects, "\n  ")
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Drums renders a kick/snare/hihat pattern. Low complexity gives two
// voices, mid adds hats, high switches the kick to a euclidean rhythm.
func (g *RuleGenerator) Drums(p Params) models.GenerationResult {
	lib := g.Library()
	var thoughts []models.Thought

	kick, snare, hihat := "bd", "sn", "hh"
	if p.Style == "techno" || p.Style == "ambient" {
		kick = random.Pick(g.src, lib.Drums[RoleKick])
		snare = random.Pick(g.src, lib.Drums[RoleSnare])
		hihat = random.Pick(g.src, lib.Drums[RoleHihat])
	}

	if random.Chance(g.src, p.Friction) {
		if all := lib.AllDrums(); len(all) > 0 {
			swapped := random.Pick(g.src, all)
			role := random.Pick(g.src, []string{RoleKick, RoleSnare, RoleHihat})
			switch role {
			case RoleKick:
				kick = swapped
			case RoleSnare:
				snare = swapped
			default:
				hihat = swapped
			}
			thoughts = append(thoughts, thought("FRICTION", p.Friction, fmt.Sprintf("Swap %s -> %s", role, swapped)))
		}
	}

	kicks := int(2 + p.Density*6)
	snares := int(1 + p.Density*3)
	hats := int(4 + p.Density*12)
	thoughts = append(thoughts, thought("RULES: DRUMS", 1,
		"Style: "+p.Style,
		fmt.Sprintf("Kicks: %d", kicks),
		fmt.Sprintf("Snares: %d", snares),
	))

	var pattern string
	switch {
	case p.Complexity < 0.3:
		pattern = fmt.Sprintf(`sound "%s*%d %s*%d"`, kick, kicks, snare, snares)
		thoughts = append(thoughts, thought("MODE", 1, "Simple"))
	case p.Complexity < 0.7:
		pattern = fmt.Sprintf(`sound "%s*%d %s*%d %s*%d"`, kick, kicks, snare, snares, hihat, hats)
		thoughts = append(thoughts, thought("MODE", 1, "Medium"))
	default:
		steps := max(int(16*p.Density), kicks)
		pattern = fmt.Sprintf(`sound "%s(%d,%d) %s(%d,8) %s*%d"`, kick, kicks, steps, snare, snares, hihat, hats)
		thoughts = append(thoughts, thought("MODE", 1, "Euclidean"))
	}

	var effects []string
	if p.Complexity > 0.4 {
		effects = append(effects, fmt.Sprintf("# speed %.2f", 0.8+g.src.Float64()*0.4))
	}
	if p.Complexity > 0.6 {
		effects = append(effects, fmt.Sprintf("# room %.2f", g.src.Float64()*0.3))
	}
	if p.Complexity > 0.8 {
		effects = append(effects, fmt.Sprintf("# gain %.2f", 0.9+g.src.Float64()*0.2))
	}
	if len(effects) > 0 {
		thoughts = append(thoughts, thought("FX", 1, effects...))
	}

	return models.GenerationResult{Pattern: joinEffects(pattern, effects), Thoughts: thoughts}
}

// Bass renders a note sequence played through a bass sample.
func (g *RuleGenerator) Bass(p Params) models.GenerationResult {
	lib := g.Library()
	var thoughts []models.Thought

	sample := random.Pick(g.src, lib.Bass)
	if random.Chance(g.src, p.Friction) {
		sample = random.Pick(g.src, append(append([]string(nil), lib.Bass...), lib.Melody...))
		thoughts = append(thoughts, thought("FRICTION", p.Friction, "Swap bass -> "+sample))
	}

	count := int(2 + p.Density*6)
	notes := make([]string, count)
	for i := range notes {
		notes[i] = strconv.Itoa(g.src.IntN(9))
	}
	thoughts = append(thoughts, thought("RULES: BASS", 1,
		"Sample: "+sample,
		fmt.Sprintf("Notes: %d", count),
	))

	pattern := fmt.Sprintf("note \"%s\"\n  # sound \"%s\"", strings.Join(notes, " "), sample)
	if p.Complexity >= 0.5 {
		pattern += "\n  # speed (range 0.8 1.2 $ slow 4 sine)"
		thoughts = append(thoughts, thought("FX", 1, "Speed sweep"))
	}
	return models.GenerationResult{Pattern: pattern, Thoughts: thoughts}
}

// Melody renders a scale-based line. Synths named super* play in the
// MIDI range, sample instruments use small note offsets.
func (g *RuleGenerator) Melody(p Params) models.GenerationResult {
	lib := g.Library()
	var thoughts []models.Thought

	inst := random.Pick(g.src, lib.Melody)
	if random.Chance(g.src, p.Friction) {
		inst = random.Pick(g.src, append(append([]string(nil), lib.Melody...), lib.FX...))
		thoughts = append(thoughts, thought("FRICTION", p.Friction, "Swap melody -> "+inst))
	}
	synth := strings.HasPrefix(inst, "super")

	scale, scaleName := majorScale, "major"
	if p.Style == "techno" || p.Style == "ambient" {
		scale, scaleName = minorScale, "minor"
	}

	count := int(4 + p.Density*8)
	notes := make([]string, count)
	for i := range notes {
		if synth {
			notes[i] = strconv.Itoa(60 + random.Pick(g.src, scale))
		} else {
			notes[i] = strconv.Itoa(g.src.IntN(9))
		}
	}
	kind := "sample"
	if synth {
		kind = "synth"
	}
	thoughts = append(thoughts, thought("RULES: MELODY", 1,
		"Instrument: "+inst+" ("+kind+")",
		"Scale: "+scaleName,
		fmt.Sprintf("Notes: %d", count),
	))

	pattern := fmt.Sprintf("note \"%s\"\n  # sound \"%s\"", strings.Join(notes, " "), inst)
	var effects []string
	if p.Complexity > 0.5 {
		effects = append(effects, fmt.Sprintf("# room %.2f", 0.3+p.Complexity*0.4))
	}
	if p.Complexity > 0.7 {
		effects = append(effects, "# lpf (range 500 5000 $ slow 8 sine)")
	}
	if len(effects) > 0 {
		thoughts = append(thoughts, thought("FX", 1, effects...))
	}
	return models.GenerationResult{Pattern: joinEffects(pattern, effects), Thoughts: thoughts}
}

// Percussion renders a repeated or euclidean hit with an optional speed
// sweep.
func (g *RuleGenerator) Percussion(p Params) models.GenerationResult {
	lib := g.Library()
	var thoughts []models.Thought

	sample := random.Pick(g.src, lib.Percussion)
	variation := 1.0
	if random.Chance(g.src, p.Friction) {
		variation = random.Pick(g.src, []float64{0.5, 2.0, 1.5, 0.75})
		thoughts = append(thoughts, thought("FRICTION", p.Friction, "Speed variation x"+formatNum(variation)))
	}

	reps := int(4 + p.Density*12)
	thoughts = append(thoughts, thought("RULES: PERCUSSION", 1,
		"Sample: "+sample,
		fmt.Sprintf("Hits: %d", reps),
	))

	if p.Complexity < 0.5 {
		return models.GenerationResult{
			Pattern:  fmt.Sprintf(`sound "%s*%d"`, sample, reps),
			Thoughts: thoughts,
		}
	}
	steps := max(int(16*p.Density), reps)
	pattern := fmt.Sprintf("sound \"%s(%d,%d)\"\n  # speed (range 0.8 %s $ slow 4 sine)",
		sample, reps, steps, formatNum(1.5*variation))
	thoughts = append(thoughts, thought("MODE", 1, "Euclidean"))
	return models.GenerationResult{Pattern: pattern, Thoughts: thoughts}
}

// FX renders a single textural sample with gain, reverb and size.
func (g *RuleGenerator) FX(p Params) models.GenerationResult {
	lib := g.Library()
	var thoughts []models.Thought

	sample := random.Pick(g.src, lib.FX)
	effects := []string{
		fmt.Sprintf("# gain %.2f", 0.3+p.Density*0.3),
		fmt.Sprintf("# room %.2f", 0.5+p.Complexity*0.4),
	}
	if random.Chance(g.src, p.Friction) {
		n := random.Pick(g.src, []int{4, 8, 16, 32})
		effects = append(effects, fmt.Sprintf("# striate %d", n))
		thoughts = append(thoughts, thought("FRICTION", p.Friction, fmt.Sprintf("Striate %d", n)))
	}
	effects = append(effects, fmt.Sprintf("# size %.2f", 0.7+p.Complexity*0.3))

	thoughts = append(thoughts, thought("RULES: FX", 1, "Sample: "+sample))
	return models.GenerationResult{
		Pattern:  joinEffects(fmt.Sprintf(`sound "%s"`, sample), effects),
		Thoughts: thoughts,
	}
}
