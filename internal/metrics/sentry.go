package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	// HTTP status code threshold for considering a request successful
	successStatusCodeThreshold = http.StatusBadRequest
)

// SentryMetrics records spans for Sentry performance monitoring
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // Spans are dropped when Sentry is not configured
	}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", fmt.Sprintf("%d", statusCode))
	span.SetTag("success", fmt.Sprintf("%t", statusCode < successStatusCodeThreshold))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("status_code", statusCode)

	if statusCode < successStatusCodeThreshold {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordGeneration records one pattern generation
func (m *SentryMetrics) RecordGeneration(ctx context.Context, sample GenerationSample) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "pattern.generation")
	defer span.Finish()

	span.SetTag("mode", sample.Mode)
	span.SetTag("type", sample.Type)
	span.SetTag("valid", fmt.Sprintf("%t", sample.Valid))

	span.SetData("duration_ms", sample.Duration.Milliseconds())
	span.SetData("attempts", sample.Attempts)
	span.SetData("style", sample.Style)

	// An invalid pattern is still a delivered result.
	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Generation: %s/%s", sample.Mode, sample.Type)
}

// RecordPerformanceMetric records performance data for background work
func (m *SentryMetrics) RecordPerformanceMetric(operation string, duration time.Duration, metadata map[string]interface{}) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(context.Background(), operation)
	span.Description = operation
	span.SetData("duration_ms", duration.Milliseconds())

	for key, value := range metadata {
		span.SetData(key, value)
	}

	span.Finish()
}
