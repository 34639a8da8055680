package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Conceptual-Machines/tidal-companion/internal/conductor"
	"github.com/Conceptual-Machines/tidal-companion/pkg/embedded"
)

const beatsPerBar = 4

// timelineEntry is one section of a simulated run.
type timelineEntry struct {
	Bar        int     `json:"bar"`
	Seconds    float64 `json:"seconds"`
	Section    string  `json:"section"`
	Density    float64 `json:"density"`
	Complexity float64 `json:"complexity"`
	Next       string  `json:"next"`
}

func runConductor(cmd *cobra.Command, args []string) error {
	templates, err := conductor.LoadTemplates(embedded.SongTemplatesYAML)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		names := conductor.New(templates).TemplateNames()
		if jsonOutput {
			return writeJSON(out, names)
		}
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	timeline, err := simulateTimeline(templates, args[0], bpm)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(out, timeline)
	}
	for _, e := range timeline {
		fmt.Fprintf(out, "bar %3d  %8s  %-10s density %.2f complexity %.2f -> %s\n",
			e.Bar, time.Duration(e.Seconds*float64(time.Second)).Round(time.Second), e.Section, e.Density, e.Complexity, e.Next)
	}
	return nil
}

// simulateTimeline plays template against a fake clock, sampling the
// middle of every bar so float rounding never lands on a boundary.
func simulateTimeline(templates conductor.Templates, template string, bpm int) ([]timelineEntry, error) {
	origin := time.Unix(0, 0)
	now := origin
	cond := conductor.New(templates, conductor.WithClock(func() time.Time { return now }))
	if err := cond.Start(bpm, template, nil); err != nil {
		return nil, err
	}

	barLen := time.Duration(float64(time.Minute) * beatsPerBar / float64(bpm))
	var timeline []timelineEntry
	for bar := 0; ; bar++ {
		now = origin.Add(time.Duration(bar)*barLen + barLen/2)
		st := cond.Update()
		if !st.Active {
			return timeline, nil
		}
		if st.SectionProgress == 0 {
			timeline = append(timeline, timelineEntry{
				Bar:        st.Bar,
				Seconds:    (time.Duration(bar) * barLen).Seconds(),
				Section:    st.Section,
				Density:    st.TargetDensity,
				Complexity: st.TargetComplexity,
				Next:       st.NextSection,
			})
		}
	}
}
