package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/tidal-companion/internal/services"
)

const (
	defaultDensity    = 0.5
	defaultComplexity = 0.5
	defaultStrength   = 0.5
	defaultMorphRatio = 0.5
)

type PatternHandler struct {
	svc *services.PatternService
}

func NewPatternHandler(svc *services.PatternService) *PatternHandler {
	return &PatternHandler{svc: svc}
}

type GenerateRequest struct {
	Type        string             `json:"type"`
	Density     *float64           `json:"density" binding:"omitempty,min=0,max=1"`
	Complexity  *float64           `json:"complexity" binding:"omitempty,min=0,max=1"`
	Tempo       int                `json:"tempo" binding:"omitempty,min=20,max=300"`
	Style       string             `json:"style"`
	UseAI       *bool              `json:"use_ai"`
	Temperature float64            `json:"temperature" binding:"omitempty,gt=0,max=5"`
	Friction    float64            `json:"friction" binding:"omitempty,min=0,max=1"`
	Intent      string             `json:"intent"`
	Blend       map[string]float64 `json:"blend"`
}

func (r GenerateRequest) input(requestID string) services.GenerateInput {
	in := services.GenerateInput{
		Type:        r.Type,
		Density:     defaultDensity,
		Complexity:  defaultComplexity,
		Tempo:       r.Tempo,
		Style:       r.Style,
		UseAI:       r.UseAI,
		Temperature: r.Temperature,
		Friction:    r.Friction,
		Intent:      r.Intent,
		Blend:       r.Blend,
		RequestID:   requestID,
	}
	if r.Density != nil {
		in.Density = *r.Density
	}
	if r.Complexity != nil {
		in.Complexity = *r.Complexity
	}
	return in
}

// Generate runs the full pipeline for one pattern
func (h *PatternHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.svc.Generate(c.Request.Context(), req.input(c.GetString("request_id")))
	if err != nil {
		respondError(c, "Failed to generate pattern", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Macro renders a drums, bass and melody trio
func (h *PatternHandler) Macro(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gens, err := h.svc.Macro(req.input(c.GetString("request_id")))
	if err != nil {
		respondError(c, "Failed to generate macro", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patterns": gens})
}

type FillRequest struct {
	Style string `json:"style"`
	UseAI *bool  `json:"use_ai"`
}

func (h *PatternHandler) Fill(c *gin.Context) {
	var req FillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gen, err := h.svc.Fill(req.Style, req.UseAI)
	if err != nil {
		respondError(c, "Failed to generate fill", err)
		return
	}
	c.JSON(http.StatusOK, gen)
}

type MutateRequest struct {
	Pattern  string   `json:"pattern" binding:"required"`
	Strength *float64 `json:"strength" binding:"omitempty,min=0,max=1"`
}

func (h *PatternHandler) Mutate(c *gin.Context) {
	var req MutateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	strength := defaultStrength
	if req.Strength != nil {
		strength = *req.Strength
	}

	res, err := h.svc.Mutate(req.Pattern, strength)
	if err != nil {
		respondError(c, "Failed to mutate pattern", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type MorphRequest struct {
	PatternA string   `json:"pattern_a" binding:"required"`
	PatternB string   `json:"pattern_b" binding:"required"`
	Ratio    *float64 `json:"ratio" binding:"omitempty,min=0,max=1"`
}

func (h *PatternHandler) Morph(c *gin.Context) {
	var req MorphRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ratio := defaultMorphRatio
	if req.Ratio != nil {
		ratio = *req.Ratio
	}
	c.JSON(http.StatusOK, h.svc.Morph(req.PatternA, req.PatternB, ratio))
}

type PatternRequest struct {
	Pattern string `json:"pattern" binding:"required"`
	Style   string `json:"style"`
}

func (h *PatternHandler) Layers(c *gin.Context) {
	var req PatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"layers": h.svc.Layers(req.Pattern)})
}

func (h *PatternHandler) Humanize(c *gin.Context) {
	var req PatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pattern": h.svc.Humanize(req.Pattern)})
}

type ReplaceSampleRequest struct {
	Pattern string `json:"pattern" binding:"required"`
	Old     string `json:"old" binding:"required"`
	New     string `json:"new" binding:"required"`
}

func (h *PatternHandler) ReplaceSample(c *gin.Context) {
	var req ReplaceSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pattern": h.svc.ReplaceSample(req.Pattern, req.Old, req.New)})
}

// SuggestSamples proposes alternatives for the lead sample of ?pattern
func (h *PatternHandler) SuggestSamples(c *gin.Context) {
	pattern := c.Query("pattern")
	if pattern == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pattern is required"})
		return
	}
	count, err := strconv.Atoi(c.DefaultQuery("count", "3"))
	if err != nil || count < 1 || count > maxSuggestions {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("count must be between 1 and %d", maxSuggestions)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"samples": h.svc.SuggestSamples(pattern, count)})
}
