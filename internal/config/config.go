package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	authModeNone = "none"
	authModeJWT  = "jwt"
)

// Config holds the application configuration
type Config struct {
	// Environment
	Environment string
	Port        string

	// Persistence. DatabaseURL is optional: without it history and
	// favorites live in memory.
	DatabaseURL string
	DataDir     string
	ModelPath   string
	RulesPath   string
	CorpusPath  string
	SamplesPath string

	// Generation
	MarkovOrder int
	UseAI       bool
	RandomSeed  uint64 // 0 seeds from the clock
	RateLimit   float64
	RateBurst   int

	// Evolution
	EvolutionEnabled  bool
	EvolutionInterval time.Duration
	EvolutionConfig   string

	// Observability
	SentryDSN              string
	SentryTracesSampleRate float64
	LangfusePublicKey      string
	LangfuseSecretKey      string
	LangfuseHost           string
	LangfuseEnabled        bool
	AWSRegion              string
	CloudWatchNamespace    string

	// Auth mode
	// - "none": admin routes are open (local use)
	// - "jwt": admin routes need a bearer token signed with JWTSecret
	AuthMode  string
	JWTSecret string
}

func Load() *Config {
	dataDir := getEnv("DATA_DIR", "data")
	return &Config{
		Environment:            getEnv("ENVIRONMENT", "development"),
		Port:                   getEnv("PORT", "8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		DataDir:                dataDir,
		ModelPath:              getEnv("MODEL_PATH", filepath.Join(dataDir, "markov_model.json")),
		RulesPath:              getEnv("RULES_PATH", filepath.Join(dataDir, "theory_rules.json")),
		CorpusPath:             getEnv("CORPUS_PATH", filepath.Join(dataDir, "corpus.tidal")),
		SamplesPath:            getEnv("SAMPLES_PATH", ""),
		MarkovOrder:            getEnvInt("MARKOV_ORDER", 2),
		UseAI:                  getEnvBool("USE_AI", true),
		RandomSeed:             uint64(getEnvInt("RANDOM_SEED", 0)),
		RateLimit:              getEnvFloat("RATE_LIMIT", 20),
		RateBurst:              getEnvInt("RATE_BURST", 40),
		EvolutionEnabled:       getEnvBool("EVOLUTION_ENABLED", false),
		EvolutionInterval:      getEnvDuration("EVOLUTION_INTERVAL", time.Hour),
		EvolutionConfig:        getEnv("EVOLUTION_CONFIG", filepath.Join(dataDir, "evolution.yaml")),
		SentryDSN:              getEnv("SENTRY_DSN", ""),
		SentryTracesSampleRate: getEnvFloat("SENTRY_TRACES_SAMPLE_RATE", 1.0),
		LangfusePublicKey:      getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey:      getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:           getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:        getEnv("LANGFUSE_ENABLED", "false") == "true",
		AWSRegion:              getEnv("AWS_REGION", "us-east-1"),
		CloudWatchNamespace:    getEnv("CLOUDWATCH_NAMESPACE", "TidalCompanion/API"),
		AuthMode:               getEnv("AUTH_MODE", authModeNone), // Default to no auth for local use
		JWTSecret:              getEnv("JWT_SECRET", ""),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

// IsJWTMode returns true if admin routes require a signed token
func (c *Config) IsJWTMode() bool {
	return c.AuthMode == authModeJWT
}

// IsProduction reports whether production-only sinks (CloudWatch) are on.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
