package generator

import (
	"strings"

	"github.com/Conceptual-Machines/tidal-companion/internal/minilang"
	"github.com/Conceptual-Machines/tidal-companion/internal/models"
)

// IsHallucination reports whether more than one effect segment starts a
// new sound source. Only the last source of such a chain would be heard.
func IsHallucination(pattern string) bool {
	sources := 0
	for _, seg := range minilang.Segments(minilang.StripChannel(pattern)) {
		if minilang.IsSource(seg) {
			sources++
		}
	}
	return sources > 1
}

// Layers splits a pattern into one sub-pattern per source, each carrying
// every shared modifier. Offsets number the channels the layers go to.
func Layers(pattern string) []models.Layer {
	if strings.TrimSpace(pattern) == "" {
		return []models.Layer{{Offset: 0, Code: pattern}}
	}
	hallucination := IsHallucination(pattern)

	var parts []string
	for _, seg := range minilang.Segments(minilang.StripChannel(pattern)) {
		if seg = minilang.StripChannel(seg); seg != "" {
			parts = append(parts, seg)
		}
	}
	if len(parts) == 0 {
		return []models.Layer{{Offset: 0, Code: pattern}}
	}

	var sources, modifiers []string
	for _, part := range parts {
		if minilang.IsSource(part) {
			sources = append(sources, part)
		} else {
			modifiers = append(modifiers, part)
		}
	}
	// A chain without a recognized source still treats its head as one,
	// unless the head is itself an effect.
	if len(sources) == 0 && !minilang.IsModifier(parts[0]) {
		sources = parts[:1]
		modifiers = parts[1:]
	}

	join := " " + minilang.EffectJoin + " "
	if len(sources) <= 1 {
		return []models.Layer{{Offset: 0, Code: strings.Join(parts, join), Hallucination: hallucination}}
	}

	layers := make([]models.Layer, 0, len(sources))
	for i, src := range sources {
		code := strings.Join(append([]string{src}, modifiers...), join)
		layers = append(layers, models.Layer{Offset: i, Code: code, Hallucination: hallucination})
	}
	return layers
}
