package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Conceptual-Machines/tidal-companion/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/tidal-companion/internal/api/middleware"
	"github.com/Conceptual-Machines/tidal-companion/internal/config"
	"github.com/Conceptual-Machines/tidal-companion/internal/metrics"
	"github.com/Conceptual-Machines/tidal-companion/internal/services"
)

func SetupRouter(svc *services.PatternService, db *gorm.DB, cfg *config.Config, recorder *metrics.Recorder, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(recorder))

	router.Use(apimiddleware.CORS())

	healthHandler := handlers.NewHealthHandler(svc, db)
	router.GET("/health", healthHandler.HealthCheck)

	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	metricsHandler := handlers.NewMetricsHandler(svc, version)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	v1 := router.Group("/api/v1")
	{
		patternHandler := handlers.NewPatternHandler(svc)
		generate := v1.Group("/patterns")
		generate.Use(apimiddleware.RateLimit(cfg.RateLimit, cfg.RateBurst))
		{
			generate.POST("/generate", patternHandler.Generate)
			generate.POST("/macro", patternHandler.Macro)
			generate.POST("/fill", patternHandler.Fill)
			generate.POST("/mutate", patternHandler.Mutate)
			generate.POST("/morph", patternHandler.Morph)
		}
		v1.POST("/patterns/layers", patternHandler.Layers)
		v1.POST("/patterns/humanize", patternHandler.Humanize)
		v1.POST("/patterns/replace-sample", patternHandler.ReplaceSample)
		v1.GET("/samples/suggest", patternHandler.SuggestSamples)

		theoryHandler := handlers.NewTheoryHandler(svc)
		v1.POST("/theory/validate", theoryHandler.Validate)
		v1.POST("/theory/sanitize", theoryHandler.Sanitize)
		v1.POST("/theory/insight", theoryHandler.Insight)
		v1.GET("/theory/rules", theoryHandler.Rules)

		conductorHandler := handlers.NewConductorHandler(svc)
		v1.POST("/conductor/start", conductorHandler.Start)
		v1.POST("/conductor/stop", conductorHandler.Stop)
		v1.GET("/conductor/status", conductorHandler.Status)
		v1.GET("/conductor/templates", conductorHandler.Templates)

		oracleHandler := handlers.NewOracleHandler(svc)
		v1.POST("/oracle/interpret", oracleHandler.Interpret)
		v1.GET("/latent/genres", oracleHandler.Genres)
		v1.POST("/latent/blend", oracleHandler.Blend)

		brainHandler := handlers.NewBrainHandler(svc)
		v1.GET("/brain/graph", brainHandler.Graph)
		v1.GET("/brain/stats", brainHandler.Stats)

		historyHandler := handlers.NewHistoryHandler(svc)
		v1.GET("/history", historyHandler.List)
		v1.GET("/favorites", historyHandler.Favorites)
		v1.POST("/favorites", historyHandler.AddFavorite)
	}

	// Admin API routes (open unless AUTH_MODE=jwt)
	admin := router.Group("/api/v1/admin")
	admin.Use(apimiddleware.AdminAuth(cfg))
	{
		adminHandler := handlers.NewAdminHandler(svc)
		admin.POST("/retrain", adminHandler.Retrain)
		admin.POST("/evolve", adminHandler.Evolve)
		admin.POST("/rules", adminHandler.AddRule)
		admin.PUT("/rules/:scope/:id", adminHandler.ToggleRule)
	}

	return router
}
