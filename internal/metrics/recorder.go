// Package metrics fans observations out to Prometheus, Sentry spans and,
// in production, CloudWatch.
package metrics

import (
	"context"
	"time"
)

// GenerationSample describes one finished generation.
type GenerationSample struct {
	Mode     string
	Type     string
	Style    string
	Valid    bool
	Attempts int
	Duration time.Duration
}

// Recorder is the single entry point callers use.
type Recorder struct {
	sentry     *SentryMetrics
	cloudwatch *Client
}

// NewRecorder wires the sinks. cw may be nil.
func NewRecorder(cw *Client) *Recorder {
	return &Recorder{sentry: NewSentryMetrics(), cloudwatch: cw}
}

// RecordRequest records one HTTP request. route is the matched route
// template, not the raw path.
func (r *Recorder) RecordRequest(ctx context.Context, route, method string, statusCode int, duration time.Duration) {
	observeRequest(route, method, statusCode, duration)
	r.sentry.RecordAPIRequest(ctx, route, statusCode, duration)
	r.cloudwatch.RecordAPIRequest(route, statusCode, duration)
}

// RecordGeneration records one pattern generation.
func (r *Recorder) RecordGeneration(ctx context.Context, sample GenerationSample) {
	observeGeneration(sample.Mode, sample.Type, sample.Valid, sample.Attempts, sample.Duration)
	r.sentry.RecordGeneration(ctx, sample)
	r.cloudwatch.RecordGeneration(sample)
}

// RecordEvolution records a completed evolution round.
func (r *Recorder) RecordEvolution(survivors int, topScore float64, duration time.Duration) {
	evolutionSurvivors.Add(float64(survivors))
	r.sentry.RecordPerformanceMetric("evolution.round", duration, map[string]interface{}{
		"survivors": survivors,
		"top_score": topScore,
	})
	r.cloudwatch.RecordEvolution(survivors, topScore)
}

// SetModelTransitions publishes the live model size.
func (r *Recorder) SetModelTransitions(n int) {
	modelTransitions.Set(float64(n))
}
