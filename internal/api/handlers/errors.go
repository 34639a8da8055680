package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/tidal-companion/internal/conductor"
	"github.com/Conceptual-Machines/tidal-companion/internal/corpus"
	"github.com/Conceptual-Machines/tidal-companion/internal/generator"
	"github.com/Conceptual-Machines/tidal-companion/internal/latent"
	"github.com/Conceptual-Machines/tidal-companion/internal/logger"
	"github.com/Conceptual-Machines/tidal-companion/internal/services"
	"github.com/Conceptual-Machines/tidal-companion/internal/theory"
)

var (
	badRequestErrors = []error{
		generator.ErrUnknownPatternType,
		generator.ErrEmptyPattern,
		latent.ErrUnknownGenre,
		latent.ErrEmptyBlend,
		conductor.ErrUnknownTemplate,
		conductor.ErrInvalidSections,
		conductor.ErrInvalidTempo,
		theory.ErrInvalidRule,
		services.ErrEmptyFavorite,
	}
	notFoundErrors = []error{
		theory.ErrRuleNotFound,
		services.ErrHistoryNotFound,
	}
)

func statusFor(err error) int {
	for _, e := range badRequestErrors {
		if errors.Is(err, e) {
			return http.StatusBadRequest
		}
	}
	for _, e := range notFoundErrors {
		if errors.Is(err, e) {
			return http.StatusNotFound
		}
	}
	switch {
	case errors.Is(err, theory.ErrDuplicateRule):
		return http.StatusConflict
	case errors.Is(err, corpus.ErrNoPatterns):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps domain errors to status codes. Server errors are
// logged with request context and hidden from the client.
func respondError(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.Error(msg, err, logger.WithContext(c))
		c.JSON(status, gin.H{"error": msg, "request_id": c.GetString("request_id")})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
