package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/tidal-companion/internal/logger"
	"github.com/Conceptual-Machines/tidal-companion/internal/services"
)

// AdminHandler serves the routes that change shared state: the model and
// the rule registry.
type AdminHandler struct {
	svc *services.PatternService
}

func NewAdminHandler(svc *services.PatternService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// Retrain rebuilds the model from the corpus and favorites
func (h *AdminHandler) Retrain(c *gin.Context) {
	res, err := h.svc.Retrain(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to retrain model", err)
		return
	}

	fields := logger.WithContext(c)
	fields["patterns"] = res.Patterns
	logger.Info("Model retrained", fields)

	c.JSON(http.StatusOK, res)
}

type EvolveRequest struct {
	BatchSize int `json:"batch_size" binding:"omitempty,min=1"`
	TopK      int `json:"top_k" binding:"omitempty,min=1"`
}

func (h *AdminHandler) Evolve(c *gin.Context) {
	var req EvolveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.svc.Evolve(c.Request.Context(), min(req.BatchSize, maxEvolveBatchSize), req.TopK)
	if err != nil {
		respondError(c, "Failed to run evolution", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type ToggleRuleRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// ToggleRule activates or deactivates /admin/rules/:scope/:id
func (h *AdminHandler) ToggleRule(c *gin.Context) {
	var req ToggleRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scope, id := c.Param("scope"), c.Param("id")
	if err := h.svc.ToggleRule(scope, id, *req.Active); err != nil {
		respondError(c, "Failed to update rule", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scope": scope, "id": id, "active": *req.Active})
}

type AddRuleRequest struct {
	Scope   string `json:"scope" binding:"required"`
	ID      string `json:"id" binding:"required"`
	Regex   string `json:"regex" binding:"required"`
	Message string `json:"message"`
}

// AddRule registers a custom regex rule the pattern must match
func (h *AdminHandler) AddRule(c *gin.Context) {
	var req AddRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.AddRule(req.Scope, req.ID, req.Regex, req.Message); err != nil {
		respondError(c, "Failed to add rule", err)
		return
	}
	c.JSON(http.StatusCreated, req)
}
