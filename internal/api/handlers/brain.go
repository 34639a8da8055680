package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/tidal-companion/internal/services"
)

// BrainHandler exposes the statistical model.
type BrainHandler struct {
	svc *services.PatternService
}

func NewBrainHandler(svc *services.PatternService) *BrainHandler {
	return &BrainHandler{svc: svc}
}

// Graph returns the strongest transitions as nodes and links
func (h *BrainHandler) Graph(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultGraphLimit)))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	c.JSON(http.StatusOK, h.svc.Graph(min(limit, maxGraphLimit)))
}

func (h *BrainHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ModelStats())
}
