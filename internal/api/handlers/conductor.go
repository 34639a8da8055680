package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/tidal-companion/internal/conductor"
	"github.com/Conceptual-Machines/tidal-companion/internal/services"
)

type ConductorHandler struct {
	svc *services.PatternService
}

func NewConductorHandler(svc *services.PatternService) *ConductorHandler {
	return &ConductorHandler{svc: svc}
}

type StartRequest struct {
	BPM      int                 `json:"bpm" binding:"required,min=1,max=400"`
	Template string              `json:"template"`
	Sections []conductor.Section `json:"sections"`
}

// Start begins a song arc from a named template or custom sections
func (h *ConductorHandler) Start(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cond := h.svc.Conductor()
	if err := cond.Start(req.BPM, req.Template, req.Sections); err != nil {
		respondError(c, "Failed to start conductor", err)
		return
	}
	c.JSON(http.StatusOK, cond.Update())
}

func (h *ConductorHandler) Stop(c *gin.Context) {
	cond := h.svc.Conductor()
	cond.Stop()
	c.JSON(http.StatusOK, cond.Update())
}

func (h *ConductorHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Conductor().Update())
}

func (h *ConductorHandler) Templates(c *gin.Context) {
	cond := h.svc.Conductor()
	names := cond.TemplateNames()
	sections := make(map[string][]conductor.Section, len(names))
	for _, name := range names {
		sections[name], _ = cond.Template(name)
	}
	c.JSON(http.StatusOK, gin.H{"templates": names, "sections": sections})
}
