package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	if c := out.GetCounter(); c != nil {
		return c.GetValue()
	}
	return out.GetGauge().GetValue()
}

func TestRecordGenerationCounts(t *testing.T) {
	r := NewRecorder(nil)
	counter := patternsGenerated.WithLabelValues("rules", "bass", "false")
	before := value(t, counter)

	r.RecordGeneration(context.Background(), GenerationSample{
		Mode: "rules", Type: "bass", Style: "dub", Valid: false, Attempts: 3, Duration: time.Millisecond,
	})

	assert.Equal(t, before+1, value(t, counter))
}

func TestRecordRequestLabelsUnmatchedRoutes(t *testing.T) {
	r := NewRecorder(nil)
	counter := httpRequests.WithLabelValues("unmatched", http.MethodGet, "404")
	before := value(t, counter)

	r.RecordRequest(context.Background(), "", http.MethodGet, http.StatusNotFound, time.Millisecond)

	assert.Equal(t, before+1, value(t, counter))
}

func TestRecordEvolutionAndModelGauge(t *testing.T) {
	r := NewRecorder(nil)
	before := value(t, evolutionSurvivors)
	r.RecordEvolution(4, 70, time.Second)
	assert.Equal(t, before+4, value(t, evolutionSurvivors))

	r.SetModelTransitions(128)
	assert.Equal(t, 128.0, value(t, modelTransitions))
}

func TestDisabledCloudWatchOutsideProduction(t *testing.T) {
	c, err := NewClient(context.Background(), "development", "", "us-east-1")
	require.NoError(t, err)
	assert.False(t, c.Enabled())
	assert.Equal(t, defaultNamespace, c.namespace)

	// No-ops without a client.
	c.RecordAPIRequest("/health", 200, time.Millisecond)
	c.RecordGeneration(GenerationSample{Mode: "markov"})
	c.RecordEvolution(1, 10)

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
}

func TestHandlerServesMetrics(t *testing.T) {
	NewRecorder(nil).SetModelTransitions(3)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tidal_model_transitions 3")
}
