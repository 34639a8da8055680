package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/tidal-companion/internal/conductor"
	"github.com/Conceptual-Machines/tidal-companion/pkg/embedded"
)

func TestSimulateTimeline(t *testing.T) {
	templates, err := conductor.LoadTemplates(embedded.SongTemplatesYAML)
	require.NoError(t, err)

	timeline, err := simulateTimeline(templates, "quick_drop", 120)
	require.NoError(t, err)
	require.Len(t, timeline, 4)

	assert.Equal(t, timelineEntry{Bar: 0, Seconds: 0, Section: "INTRO", Density: 0.2, Complexity: 0.2, Next: "BUILD"}, timeline[0])
	assert.Equal(t, 8, timeline[1].Bar)
	assert.InDelta(t, 16.0, timeline[1].Seconds, 1e-9)
	assert.Equal(t, "DROP", timeline[2].Section)
	assert.Equal(t, 16, timeline[2].Bar)
	assert.Equal(t, conductor.EndMarker, timeline[3].Next)
}

func TestSimulateTimelineOddTempo(t *testing.T) {
	templates, err := conductor.LoadTemplates(embedded.SongTemplatesYAML)
	require.NoError(t, err)

	timeline, err := simulateTimeline(templates, "standard", 137)
	require.NoError(t, err)
	bars := make([]int, len(timeline))
	for i, e := range timeline {
		bars[i] = e.Bar
	}
	assert.Equal(t, []int{0, 32, 96, 112, 144}, bars)
}

func TestSimulateTimelineUnknownTemplate(t *testing.T) {
	templates, err := conductor.LoadTemplates(embedded.SongTemplatesYAML)
	require.NoError(t, err)

	_, err = simulateTimeline(templates, "polka", 120)
	assert.ErrorIs(t, err, conductor.ErrUnknownTemplate)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		jsonOutput = false
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConductorCommandJSON(t *testing.T) {
	out, err := execute(t, "conductor", "ambient_flow", "--json", "--bpm", "90")
	require.NoError(t, err)

	var timeline []timelineEntry
	require.NoError(t, json.Unmarshal([]byte(out), &timeline))
	require.Len(t, timeline, 4)
	assert.Equal(t, "DRIFT", timeline[0].Section)
	assert.Equal(t, "FADE", timeline[3].Section)
}

func TestSanitizeAndValidateCommands(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "validate", `sound "bd*2 sn"`, "--data-dir", dir, "--seed", "5", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"valid": true`)

	_, err = execute(t, "validate", `jux (rev $ sound "bd sn"`, "--data-dir", dir)
	assert.Error(t, err)

	_, err = execute(t, "generate", "--data-dir", dir, "--seed", "5", "--type", "kazoo")
	assert.Error(t, err)
}
