package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/tidal-companion/internal/models"
	"github.com/Conceptual-Machines/tidal-companion/internal/services"
)

type HistoryHandler struct {
	svc *services.PatternService
}

func NewHistoryHandler(svc *services.PatternService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

// List returns recent generations, newest first
func (h *HistoryHandler) List(c *gin.Context) {
	filter := services.HistoryFilter{
		Style: c.Query("style"),
		Type:  c.Query("type"),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		filter.Limit = limit
	}

	entries, err := h.svc.History(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "Failed to fetch history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

type FavoriteRequest struct {
	Pattern   string   `json:"pattern"`
	Name      string   `json:"name" binding:"max=120"`
	Style     string   `json:"style"`
	Tags      []string `json:"tags"`
	HistoryID *uint    `json:"history_id"`
}

func (h *HistoryHandler) AddFavorite(c *gin.Context) {
	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fav := &models.Favorite{
		Pattern:   req.Pattern,
		Name:      req.Name,
		Style:     req.Style,
		Tags:      req.Tags,
		HistoryID: req.HistoryID,
	}
	if err := h.svc.AddFavorite(c.Request.Context(), fav); err != nil {
		respondError(c, "Failed to save favorite", err)
		return
	}
	c.JSON(http.StatusCreated, fav)
}

func (h *HistoryHandler) Favorites(c *gin.Context) {
	favs, err := h.svc.Favorites(c.Request.Context(), c.Query("style"))
	if err != nil {
		respondError(c, "Failed to fetch favorites", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": favs})
}
