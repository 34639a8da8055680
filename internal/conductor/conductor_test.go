package conductor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/tidal-companion/pkg/embedded"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advanceBars(bars float64, bpm int) {
	f.t = f.t.Add(time.Duration(bars * 4 * 60 / float64(bpm) * float64(time.Second)))
}

func newConductor(t *testing.T) (*Conductor, *fakeClock) {
	t.Helper()
	templates, err := LoadTemplates(embedded.SongTemplatesYAML)
	require.NoError(t, err)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New(templates, WithClock(clock.now)), clock
}

func TestTemplatesLoaded(t *testing.T) {
	c, _ := newConductor(t)
	assert.Equal(t, []string{"ambient_flow", "extended", "quick_drop", "standard"}, c.TemplateNames())

	standard, ok := c.Template("standard")
	require.True(t, ok)
	require.Len(t, standard, 5)
	assert.Equal(t, Section{Name: "DROP", Duration: 32, Density: 0.9, Complexity: 0.9}, standard[3])
}

func TestUpdateBeforeStartIsInactive(t *testing.T) {
	c, _ := newConductor(t)
	st := c.Update()
	assert.False(t, st.Active)
	assert.Equal(t, StateIdle, st.State)
}

func TestStartStandardAtBarZero(t *testing.T) {
	c, _ := newConductor(t)
	require.NoError(t, c.Start(120, "standard", nil))

	st := c.Update()
	assert.True(t, st.Active)
	assert.Equal(t, "INTRO", st.Section)
	assert.Equal(t, 0, st.Bar)
	assert.InDelta(t, 0, st.SectionProgress, 1e-9)
	assert.False(t, st.TransitionImminent)
	assert.Equal(t, "VERSE", st.NextSection)
	assert.Equal(t, 0.2, st.TargetDensity)
}

func TestUpdateWalksTheArc(t *testing.T) {
	c, clock := newConductor(t)
	const bpm = 140
	require.NoError(t, c.Start(bpm, "quick_drop", nil))

	clock.advanceBars(7.5, bpm)
	st := c.Update()
	assert.Equal(t, "INTRO", st.Section)
	assert.Equal(t, 7, st.Bar)
	assert.True(t, st.TransitionImminent)
	assert.InDelta(t, 7.0/8, st.SectionProgress, 1e-9)

	clock.advanceBars(1, bpm)
	st = c.Update()
	assert.Equal(t, "BUILD", st.Section)
	assert.False(t, st.TransitionImminent)

	clock.advanceBars(8+32+15, bpm)
	st = c.Update()
	assert.Equal(t, "OUTRO", st.Section)
	assert.Equal(t, EndMarker, st.NextSection)

	clock.advanceBars(2, bpm)
	st = c.Update()
	assert.False(t, st.Active)
	assert.Equal(t, StateFinished, st.State)
	assert.Equal(t, StateFinished, c.Update().State)
}

func TestStartCustomSections(t *testing.T) {
	c, clock := newConductor(t)
	custom := []Section{{Name: "ONLY", Duration: 2, Density: 0.7, Complexity: 0.3}}
	require.NoError(t, c.Start(100, "ignored", custom))

	st := c.Update()
	assert.Equal(t, CustomTemplate, st.Template)
	assert.Equal(t, "ONLY", st.Section)

	clock.advanceBars(1.2, 100)
	assert.True(t, c.Update().TransitionImminent)
}

func TestStartErrors(t *testing.T) {
	c, _ := newConductor(t)
	assert.ErrorIs(t, c.Start(120, "polka", nil), ErrUnknownTemplate)
	assert.ErrorIs(t, c.Start(0, "standard", nil), ErrInvalidTempo)
	assert.ErrorIs(t, c.Start(120, "", []Section{{Name: "X", Duration: 0}}), ErrInvalidSections)
	assert.Equal(t, StateIdle, c.Update().State)
}

func TestStopReturnsToIdleAndRestartResets(t *testing.T) {
	c, clock := newConductor(t)
	require.NoError(t, c.Start(120, "standard", nil))
	clock.advanceBars(40, 120)
	assert.Equal(t, "VERSE", c.Update().Section)

	c.Stop()
	assert.Equal(t, StateIdle, c.Update().State)

	require.NoError(t, c.Start(120, "standard", nil))
	st := c.Update()
	assert.Equal(t, "INTRO", st.Section)
	assert.Equal(t, 0, st.Bar)
}

func TestBlend(t *testing.T) {
	assert.InDelta(t, 0.8, Blend(1, 0), 1e-9)
	assert.InDelta(t, 0.2, Blend(0, 1), 1e-9)
	assert.InDelta(t, 0.5, Blend(0.5, 0.5), 1e-9)
}

func TestLoadTemplatesRejectsBadArcs(t *testing.T) {
	_, err := LoadTemplates([]byte("broken:\n  - {name: A, duration: 0}\n"))
	assert.ErrorIs(t, err, ErrInvalidSections)
}
