package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/Conceptual-Machines/tidal-companion/internal/api"
	"github.com/Conceptual-Machines/tidal-companion/internal/config"
	"github.com/Conceptual-Machines/tidal-companion/internal/database"
	"github.com/Conceptual-Machines/tidal-companion/internal/evolution"
	"github.com/Conceptual-Machines/tidal-companion/internal/logger"
	"github.com/Conceptual-Machines/tidal-companion/internal/metrics"
	"github.com/Conceptual-Machines/tidal-companion/internal/observability"
	"github.com/Conceptual-Machines/tidal-companion/internal/services"
)

const (
	sentryFlushTimeout = 2 * time.Second
	shutdownTimeout    = 10 * time.Second
	readHeaderTimeout  = 5 * time.Second
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "tidal-companion@" + releaseVersion,
			EnableTracing:    true,
			TracesSampleRate: cfg.SentryTracesSampleRate,
			EnableLogs:       true,
			Debug:            !cfg.IsProduction(),
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	// History lives in Postgres when configured, in memory otherwise.
	var (
		db      *gorm.DB
		history services.HistoryStore = services.NewMemoryHistory()
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Connect(cfg.DatabaseURL)
		if err != nil {
			sentry.CaptureException(err)
			log.Fatal("Failed to connect to database:", err)
		}
		if err := database.Migrate(db); err != nil {
			sentry.CaptureException(err)
			log.Fatal("Failed to run migrations:", err)
		}
		history = services.NewGormHistory(db)
	} else {
		log.Println("⚠️  DATABASE_URL not set, keeping history in memory")
	}

	tracer := observability.InitializeLangfuse(ctx, cfg)

	var cloudwatch *metrics.Client
	if cfg.IsProduction() {
		cw, err := metrics.NewClient(ctx, cfg.Environment, cfg.CloudWatchNamespace, cfg.AWSRegion)
		if err != nil {
			log.Printf("CloudWatch metrics disabled: %v", err)
		} else {
			cloudwatch = cw
		}
	}
	recorder := metrics.NewRecorder(cloudwatch)

	rt, err := services.Bootstrap(services.Options{
		Paths: services.Paths{
			Model:           cfg.ModelPath,
			Rules:           cfg.RulesPath,
			Corpus:          cfg.CorpusPath,
			Samples:         cfg.SamplesPath,
			EvolutionConfig: cfg.EvolutionConfig,
		},
		MarkovOrder: cfg.MarkovOrder,
		UseAI:       cfg.UseAI,
		Seed:        cfg.RandomSeed,
		History:     history,
		Recorder:    recorder,
		Tracer:      tracer,
	})
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to bootstrap pattern engine:", err)
	}

	watcher, err := rt.WatchCorpus(ctx)
	if err != nil {
		log.Printf("Corpus watcher disabled: %v", err)
	} else {
		defer watcher.Stop()
	}

	if cfg.EvolutionEnabled {
		scheduler := evolution.NewScheduler(rt.Trainer, cfg.EvolutionInterval)
		go scheduler.Run(ctx)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case res := <-scheduler.Rounds():
					recorder.RecordEvolution(res.Survivors, res.TopScore, res.Elapsed)
					recorder.SetModelTransitions(rt.Model.Stats().Transitions)
				}
			}
		}()
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.SetupRouter(rt.Service, db, cfg, recorder, GetVersion())
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Printf("🚀 Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sentry.CaptureException(err)
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", err, nil)
	}
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[k] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
