package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/tidal-companion/internal/config"
	"github.com/Conceptual-Machines/tidal-companion/internal/metrics"
	"github.com/Conceptual-Machines/tidal-companion/internal/services"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	rt, err := services.Bootstrap(services.Options{
		Paths: services.Paths{
			Model:  filepath.Join(dir, "model.json"),
			Rules:  filepath.Join(dir, "rules.json"),
			Corpus: filepath.Join(dir, "corpus.tidal"),
		},
		UseAI: true,
		Seed:  3,
	})
	require.NoError(t, err)

	cfg := &config.Config{AuthMode: "none", RateLimit: 1000, RateBurst: 1000}
	return SetupRouter(rt.Service, nil, cfg, metrics.NewRecorder(nil), "test")
}

func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestHealthAndMetrics(t *testing.T) {
	r := setupTestRouter(t)

	w, body := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "disabled", body["database"])

	w, body = do(t, r, http.MethodGet, "/api/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", body["version"])
	assert.Contains(t, body, "model")

	w, _ = do(t, r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tidal_http_requests_total")
}

func TestGenerateEndpoint(t *testing.T) {
	r := setupTestRouter(t)

	w, body := do(t, r, http.MethodPost, "/api/v1/patterns/generate", map[string]any{
		"type":   "drums",
		"style":  "techno",
		"use_ai": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, body["pattern"])
	assert.Equal(t, "drums", body["type"])
	assert.Equal(t, 0.5, body["density"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, body = do(t, r, http.MethodGet, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["history"], 1)
}

func TestGenerateRejectsBadInput(t *testing.T) {
	r := setupTestRouter(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "density out of range", body: map[string]any{"type": "drums", "density": 1.5}},
		{name: "unknown type", body: map[string]any{"type": "kazoo"}},
		{name: "unknown genre", body: map[string]any{"type": "drums", "blend": map[string]float64{"polka": 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := do(t, r, http.MethodPost, "/api/v1/patterns/generate", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestPatternTools(t *testing.T) {
	r := setupTestRouter(t)
	pattern := `d1 $ sound "bd*2 [~ bd] sn"`

	w, body := do(t, r, http.MethodPost, "/api/v1/patterns/mutate", map[string]any{"pattern": pattern})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["pattern"])

	w, body = do(t, r, http.MethodPost, "/api/v1/patterns/morph", map[string]any{"pattern_a": pattern, "pattern_b": `sound "hh*4"`, "ratio": 0.1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pattern, body["pattern"])

	w, body = do(t, r, http.MethodPost, "/api/v1/patterns/replace-sample", map[string]any{"pattern": pattern, "old": "bd", "new": "808"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `d1 $ sound "808*2 [~ 808] sn"`, body["pattern"])

	w, _ = do(t, r, http.MethodGet, "/api/v1/samples/suggest?pattern=bd&count=50", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/v1/patterns/mutate", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTheoryEndpoints(t *testing.T) {
	r := setupTestRouter(t)

	w, body := do(t, r, http.MethodPost, "/api/v1/theory/validate", map[string]any{"pattern": `jux (rev $ sound "bd sn"`})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["valid"])
	assert.NotEmpty(t, body["issues"])

	w, body = do(t, r, http.MethodGet, "/api/v1/theory/rules", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body["rules"], "general")
}

func TestAdminRules(t *testing.T) {
	r := setupTestRouter(t)

	w, _ := do(t, r, http.MethodPut, "/api/v1/admin/rules/general/no_such_rule", map[string]any{"active": false})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodPut, "/api/v1/admin/rules/general/balanced_parens", map[string]any{"active": false})
	assert.Equal(t, http.StatusOK, w.Code)

	rule := map[string]any{"scope": "techno", "id": "needs_kick", "regex": "bd", "message": "techno needs a kick"}
	w, _ = do(t, r, http.MethodPost, "/api/v1/admin/rules", rule)
	assert.Equal(t, http.StatusCreated, w.Code)
	w, _ = do(t, r, http.MethodPost, "/api/v1/admin/rules", rule)
	assert.Equal(t, http.StatusConflict, w.Code)

	rule["id"], rule["regex"] = "broken", "(["
	w, _ = do(t, r, http.MethodPost, "/api/v1/admin/rules", rule)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConductorEndpoints(t *testing.T) {
	r := setupTestRouter(t)

	w, body := do(t, r, http.MethodGet, "/api/v1/conductor/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body["templates"], "standard")

	w, _ = do(t, r, http.MethodPost, "/api/v1/conductor/start", map[string]any{"bpm": 120, "template": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = do(t, r, http.MethodPost, "/api/v1/conductor/start", map[string]any{"bpm": 120, "template": "standard"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["active"])

	w, body = do(t, r, http.MethodPost, "/api/v1/conductor/stop", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["active"])
}

func TestLatentAndOracle(t *testing.T) {
	r := setupTestRouter(t)

	w, body := do(t, r, http.MethodPost, "/api/v1/latent/blend", map[string]any{"weights": map[string]float64{"techno": 1, "ambient": 1}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 0.55, body["density_base"], 1e-9)

	w, _ = do(t, r, http.MethodPost, "/api/v1/latent/blend", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = do(t, r, http.MethodPost, "/api/v1/oracle/interpret", map[string]any{"text": "make it dark"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"dark"}, body["detected_keywords"])
}

func TestFavoritesAndRetrain(t *testing.T) {
	r := setupTestRouter(t)

	w, _ := do(t, r, http.MethodPost, "/api/v1/favorites", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := do(t, r, http.MethodPost, "/api/v1/favorites", map[string]any{"pattern": `sound "bd sn"`, "style": "Dub"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "dub", body["style"])

	w, body = do(t, r, http.MethodGet, "/api/v1/favorites?style=dub", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["favorites"], 1)

	w, body = do(t, r, http.MethodPost, "/api/v1/admin/retrain", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Greater(t, body["patterns"], 0.0)
}

func TestBrainGraph(t *testing.T) {
	r := setupTestRouter(t)

	w, body := do(t, r, http.MethodGet, "/api/v1/brain/graph?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.LessOrEqual(t, len(body["nodes"].([]any)), 5)
	assert.NotNil(t, body["links"])

	w, _ = do(t, r, http.MethodGet, "/api/v1/brain/graph?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
