package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Conceptual-Machines/tidal-companion/internal/database"
	"github.com/Conceptual-Machines/tidal-companion/internal/services"
)

type HealthHandler struct {
	svc *services.PatternService
	db  *gorm.DB
}

// NewHealthHandler creates a health handler. db may be nil when history is
// kept in memory.
func NewHealthHandler(svc *services.PatternService, db *gorm.DB) *HealthHandler {
	return &HealthHandler{svc: svc, db: db}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status": "healthy",
		"model":  h.svc.ModelStats(),
	}

	dbStatus := "disabled"
	if h.db != nil {
		dbStatus = "ok"
		if err := database.Ping(h.db); err != nil {
			dbStatus = "unreachable"
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	body["database"] = dbStatus

	c.JSON(status, body)
}
