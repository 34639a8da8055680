package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// patternsGenerated counts finished generations by mode, type and validity
	patternsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tidal_patterns_generated_total",
		Help: "Generated patterns by mode, pattern type and validity",
	}, []string{"mode", "type", "valid"})

	// generationDuration tracks end-to-end generation latency
	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tidal_generation_duration_seconds",
		Help:    "Pattern generation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
	}, []string{"mode"})

	// generationAttempts tracks how many validation rounds a generation took
	generationAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tidal_generation_attempts",
		Help:    "Generate-validate rounds per request",
		Buckets: []float64{1, 2, 3},
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tidal_http_requests_total",
		Help: "HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tidal_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	modelTransitions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tidal_model_transitions",
		Help: "Distinct transitions in the live corpus model",
	})

	evolutionSurvivors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tidal_evolution_survivors_total",
		Help: "Evolved patterns appended to the corpus",
	})
)

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

func observeGeneration(mode, patternType string, valid bool, attempts int, duration time.Duration) {
	patternsGenerated.WithLabelValues(mode, patternType, strconv.FormatBool(valid)).Inc()
	generationDuration.WithLabelValues(mode).Observe(duration.Seconds())
	generationAttempts.Observe(float64(attempts))
}

func observeRequest(route, method string, statusCode int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(route, method, strconv.Itoa(statusCode)).Inc()
	httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}
