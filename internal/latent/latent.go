// Package latent blends genres as points in a small parameter space.
package latent

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnknownGenre is returned when a blend names a genre with no vector.
	ErrUnknownGenre = errors.New("unknown genre")
	// ErrEmptyBlend is returned when blend weights sum to zero.
	ErrEmptyBlend = errors.New("blend weights sum to zero")
)

// Vector is the position of a genre in the blend space.
type Vector struct {
	DensityBase      float64  `json:"density_base"`
	ComplexityBase   float64  `json:"complexity_base"`
	TempoPreference  int      `json:"tempo_preference"`
	PreferredSamples []string `json:"preferred_samples"`
	RhythmicWeight   float64  `json:"rhythmic_weight"`
}

var baseVectors = map[string]Vector{
	"techno":        {0.8, 0.6, 140, []string{"bd", "hh", "sn", "cp", "clap"}, 0.9},
	"house":         {0.7, 0.5, 125, []string{"bd", "sn", "cp", "oh", "ch"}, 0.8},
	"drum_and_bass": {0.9, 0.8, 174, []string{"bd", "sn", "hh", "reese"}, 0.95},
	"ambient":       {0.3, 0.4, 90, []string{"pad", "texture", "wind", "space"}, 0.2},
	"breakbeat":     {0.75, 0.7, 135, []string{"bd", "sn", "hh", "break"}, 0.85},
	"dub":           {0.5, 0.4, 110, []string{"bd", "sn", "delay", "echo"}, 0.6},
	"experimental":  {0.6, 0.9, 120, []string{"noise", "glitch", "fx"}, 0.5},
}

// neutral is used for genres that have rules but no tuned vector.
var neutral = Vector{DensityBase: 0.5, ComplexityBase: 0.5, TempoPreference: 120, PreferredSamples: []string{}, RhythmicWeight: 0.5}

// Blend is a point produced by mixing genres, with the normalized weights
// that produced it.
type Blend struct {
	Vector
	Weights map[string]float64 `json:"blend_info"`
}

// Space holds one vector per available genre.
type Space struct {
	genres  []string
	vectors map[string]Vector
}

// New builds the space for genres, typically the style scopes of the rule
// registry. Genres without a tuned vector get neutral values.
func New(genres []string) *Space {
	s := &Space{vectors: make(map[string]Vector, len(genres))}
	for _, g := range genres {
		if _, dup := s.vectors[g]; dup {
			continue
		}
		v, ok := baseVectors[g]
		if !ok {
			v = neutral
		}
		s.genres = append(s.genres, g)
		s.vectors[g] = v
	}
	return s
}

// Genres lists the available genres in registration order.
func (s *Space) Genres() []string {
	return append([]string(nil), s.genres...)
}

// Vector returns the position of genre.
func (s *Space) Vector(genre string) (Vector, bool) {
	v, ok := s.vectors[genre]
	return v, ok
}

// Interpolate moves linearly from a (weightB 0) to b (weightB 1). Samples
// of the dominant genre come first, followed by two of the other.
func (s *Space) Interpolate(a, b string, weightB float64) (Blend, error) {
	va, ok := s.vectors[a]
	if !ok {
		return Blend{}, fmt.Errorf("%w: %q", ErrUnknownGenre, a)
	}
	vb, ok := s.vectors[b]
	if !ok {
		return Blend{}, fmt.Errorf("%w: %q", ErrUnknownGenre, b)
	}
	weightB = max(0, min(1, weightB))
	weightA := 1 - weightB

	out := Blend{
		Vector: Vector{
			DensityBase:     va.DensityBase*weightA + vb.DensityBase*weightB,
			ComplexityBase:  va.ComplexityBase*weightA + vb.ComplexityBase*weightB,
			TempoPreference: int(float64(va.TempoPreference)*weightA + float64(vb.TempoPreference)*weightB),
			RhythmicWeight:  va.RhythmicWeight*weightA + vb.RhythmicWeight*weightB,
		},
		Weights: map[string]float64{a: weightA, b: weightB},
	}
	if a == b {
		out.Weights = map[string]float64{a: 1}
	}
	lead, other := va, vb
	if weightB > 0.5 {
		lead, other = vb, va
	}
	out.PreferredSamples = dedupe(append(append([]string(nil), lead.PreferredSamples...), head(other.PreferredSamples, 2)...))
	return out, nil
}

// BlendMultiple mixes any number of genres. Weights are normalized to sum
// to one; each genre contributes samples in proportion to its weight.
func (s *Space) BlendMultiple(weights map[string]float64) (Blend, error) {
	total := 0.0
	for g, w := range weights {
		if _, ok := s.vectors[g]; !ok {
			return Blend{}, fmt.Errorf("%w: %q", ErrUnknownGenre, g)
		}
		if w > 0 {
			total += w
		}
	}
	if total == 0 {
		return Blend{}, ErrEmptyBlend
	}

	// Heaviest genres first so their samples lead the list.
	order := make([]string, 0, len(weights))
	for g, w := range weights {
		if w > 0 {
			order = append(order, g)
		}
	}
	sort.Slice(order, func(i, j int) bool {
		if weights[order[i]] != weights[order[j]] {
			return weights[order[i]] > weights[order[j]]
		}
		return order[i] < order[j]
	})

	out := Blend{Weights: make(map[string]float64, len(order))}
	var samples []string
	for _, g := range order {
		w := weights[g] / total
		v := s.vectors[g]
		out.Weights[g] = w
		out.DensityBase += v.DensityBase * w
		out.ComplexityBase += v.ComplexityBase * w
		out.TempoPreference += int(float64(v.TempoPreference) * w)
		out.RhythmicWeight += v.RhythmicWeight * w
		n := max(1, int(float64(len(v.PreferredSamples))*w*2))
		samples = append(samples, head(v.PreferredSamples, n)...)
	}
	out.PreferredSamples = dedupe(samples)
	return out, nil
}

func head(s []string, n int) []string {
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
