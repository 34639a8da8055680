package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/tidal-companion/internal/latent"
	"github.com/Conceptual-Machines/tidal-companion/internal/services"
)

// OracleHandler serves the intent interpreter and the genre space.
type OracleHandler struct {
	svc *services.PatternService
}

func NewOracleHandler(svc *services.PatternService) *OracleHandler {
	return &OracleHandler{svc: svc}
}

type InterpretRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *OracleHandler) Interpret(c *gin.Context) {
	var req InterpretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.svc.Interpret(req.Text))
}

func (h *OracleHandler) Genres(c *gin.Context) {
	space := h.svc.Latent()
	genres := space.Genres()
	vectors := make(map[string]latent.Vector, len(genres))
	for _, g := range genres {
		vectors[g], _ = space.Vector(g)
	}
	c.JSON(http.StatusOK, gin.H{"genres": genres, "vectors": vectors})
}

// BlendRequest takes either weights for any number of genres or a pair
// with the weight of the second.
type BlendRequest struct {
	Weights map[string]float64 `json:"weights"`
	GenreA  string             `json:"genre_a"`
	GenreB  string             `json:"genre_b"`
	WeightB float64            `json:"weight_b" binding:"omitempty,min=0,max=1"`
}

func (h *OracleHandler) Blend(c *gin.Context) {
	var req BlendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	space := h.svc.Latent()
	var (
		blend latent.Blend
		err   error
	)
	switch {
	case len(req.Weights) > 0:
		blend, err = space.BlendMultiple(req.Weights)
	case req.GenreA != "" && req.GenreB != "":
		blend, err = space.Interpolate(req.GenreA, req.GenreB, req.WeightB)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "weights or genre_a and genre_b are required"})
		return
	}
	if err != nil {
		respondError(c, "Failed to blend genres", err)
		return
	}
	c.JSON(http.StatusOK, blend)
}
