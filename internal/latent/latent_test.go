package latent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSpace() *Space {
	return New([]string{"techno", "house", "ambient", "dub", "glitch", "techno"})
}

func TestNewUsesNeutralForUntunedGenres(t *testing.T) {
	s := newSpace()
	assert.Equal(t, []string{"techno", "house", "ambient", "dub", "glitch"}, s.Genres())

	v, ok := s.Vector("glitch")
	require.True(t, ok)
	assert.Equal(t, 120, v.TempoPreference)
	assert.Equal(t, 0.5, v.DensityBase)
}

func TestInterpolate(t *testing.T) {
	s := newSpace()

	tests := []struct {
		name    string
		weightB float64
		density float64
		tempo   int
		samples []string
	}{
		{"all techno", 0, 0.8, 140, []string{"bd", "hh", "sn", "cp", "clap", "pad", "texture"}},
		{"halfway", 0.5, 0.55, 115, []string{"bd", "hh", "sn", "cp", "clap", "pad", "texture"}},
		{"mostly ambient", 0.75, 0.425, 102, []string{"pad", "texture", "wind", "space", "bd", "hh"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := s.Interpolate("techno", "ambient", tt.weightB)
			require.NoError(t, err)
			assert.InDelta(t, tt.density, b.DensityBase, 1e-9)
			assert.Equal(t, tt.tempo, b.TempoPreference)
			assert.Equal(t, tt.samples, b.PreferredSamples)
			assert.InDelta(t, 1-tt.weightB, b.Weights["techno"], 1e-9)
		})
	}

	_, err := s.Interpolate("techno", "polka", 0.5)
	assert.ErrorIs(t, err, ErrUnknownGenre)
}

func TestBlendMultiple(t *testing.T) {
	s := newSpace()

	b, err := s.BlendMultiple(map[string]float64{"techno": 2, "house": 1, "ambient": 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, b.Weights["techno"], 1e-9)
	assert.InDelta(t, 0.8*0.5+0.7*0.25+0.3*0.25, b.DensityBase, 1e-9)
	assert.Equal(t, 70+31+22, b.TempoPreference)
	assert.Equal(t, []string{"bd", "hh", "sn", "cp", "clap", "pad", "texture"}, b.PreferredSamples)

	_, err = s.BlendMultiple(map[string]float64{"techno": 0})
	assert.ErrorIs(t, err, ErrEmptyBlend)

	_, err = s.BlendMultiple(map[string]float64{"polka": 1})
	assert.ErrorIs(t, err, ErrUnknownGenre)
}
