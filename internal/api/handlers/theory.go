package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/tidal-companion/internal/services"
)

type TheoryHandler struct {
	svc *services.PatternService
}

func NewTheoryHandler(svc *services.PatternService) *TheoryHandler {
	return &TheoryHandler{svc: svc}
}

func (h *TheoryHandler) Validate(c *gin.Context) {
	var req PatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.svc.Validate(req.Pattern, req.Style))
}

func (h *TheoryHandler) Sanitize(c *gin.Context) {
	var req PatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pattern": h.svc.Sanitize(req.Pattern)})
}

func (h *TheoryHandler) Insight(c *gin.Context) {
	var req PatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.svc.Insight(req.Pattern, req.Style))
}

func (h *TheoryHandler) Rules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rules": h.svc.Rules()})
}
