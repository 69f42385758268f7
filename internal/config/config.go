package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort            = "8080"
	defaultJWTSecret       = "change-me-jwt-secret"
	defaultJWTAccessTTL    = "24h"
	defaultAnthropicModel  = "claude-sonnet-4-20250514"
	defaultLLMTimeout      = "90s"
	defaultJobTTL          = "30m"
	defaultJobPollInterval = "2s"
	defaultJobPollBudget   = "20m"
	defaultJobPollAttempts = "600"
)

// RuntimeConfig holds everything the API process reads from the environment.
type RuntimeConfig struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	JWTSecret    string
	JWTAccessTTL time.Duration

	AnthropicAPIKey string
	AnthropicModel  string
	LLMTimeout      time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	JobTTL        time.Duration

	PollInterval time.Duration
	PollBudget   time.Duration
	PollAttempts int

	Debug bool
}

func Load() (*RuntimeConfig, error) {
	cfg := &RuntimeConfig{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = getEnv("PORT", defaultPort)
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))

	var err error
	cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL)
	if err != nil {
		return nil, err
	}

	cfg.AnthropicAPIKey = strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	cfg.AnthropicModel = getEnv("ANTHROPIC_MODEL", defaultAnthropicModel)
	cfg.LLMTimeout, err = parseDurationEnv("LLM_TIMEOUT", defaultLLMTimeout)
	if err != nil {
		return nil, err
	}

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB, err = parseIntEnv("REDIS_DB", "0")
	if err != nil {
		return nil, err
	}
	cfg.JobTTL, err = parseDurationEnv("JOB_TTL", defaultJobTTL)
	if err != nil {
		return nil, err
	}

	cfg.PollInterval, err = parseDurationEnv("JOB_POLL_INTERVAL", defaultJobPollInterval)
	if err != nil {
		return nil, err
	}
	cfg.PollBudget, err = parseDurationEnv("JOB_POLL_BUDGET", defaultJobPollBudget)
	if err != nil {
		return nil, err
	}
	cfg.PollAttempts, err = parseIntEnv("JOB_POLL_ATTEMPTS", defaultJobPollAttempts)
	if err != nil {
		return nil, err
	}

	cfg.Debug = strings.EqualFold(getEnv("DEBUG", "false"), "true")

	if cfg.AppEnv == "prod" && cfg.JWTSecret == defaultJWTSecret {
		return nil, fmt.Errorf("JWT_SECRET must be set in prod")
	}

	return cfg, nil
}

// NarrativeEnabled reports whether LLM narrative generation is configured.
// Without an API key submissions are answered inline, no job is created.
func (c *RuntimeConfig) NarrativeEnabled() bool {
	return c.AnthropicAPIKey != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	return d, nil
}

func parseIntEnv(key, fallback string) (int, error) {
	raw := getEnv(key, fallback)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, raw, err)
	}
	return n, nil
}
