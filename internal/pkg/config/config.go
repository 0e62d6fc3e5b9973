// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// AdminConfig holds the runtime dialog toggles. It is
// mutated via the admin endpoint and read with
// AdminStore.Snapshot for a consistent view inside a single turn.
type AdminConfig struct {
	TTSEnabled             bool
	DialogNavigationEnabled bool
	FallbackMode           string // "SMART" or "SIMPLE"
	ExpertMode             bool   // gates the C3 tier-5 LLM fallback
}

type Config struct {
	Repositories PostgresConfig
	ServerPort   string
	AdminToken   string

	TurnDeadline        time.Duration
	RepositoryTimeout   time.Duration
	TTSAggregateTimeout time.Duration

	Admin AdminConfig
}

// Load reads configuration from the environment, applying the same
// getEnvOrDefault/fail-fast pattern as the rest of this lineage.
func Load() (*Config, error) {
	cfg := &Config{
		Repositories: PostgresConfig{
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5454"),
			DB:       getEnvOrDefault("POSTGRES_DB", "dialogbrain"),
			Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
			SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
			MaxConns: 20,
			MinConns: 2,
		},
		ServerPort: getEnvOrDefault("SERVER_PORT", "8090"),
		AdminToken: getEnvOrDefault("ADMIN_TOKEN", ""),
	}

	turnDeadline, err := time.ParseDuration(getEnvOrDefault("TURN_DEADLINE", "12s"))
	if err != nil {
		return nil, fmt.Errorf("invalid TURN_DEADLINE: %w", err)
	}
	repoTimeout, err := time.ParseDuration(getEnvOrDefault("REPOSITORY_TIMEOUT", "4s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPOSITORY_TIMEOUT: %w", err)
	}
	ttsTimeout, err := time.ParseDuration(getEnvOrDefault("TTS_AGGREGATE_TIMEOUT", "12s"))
	if err != nil {
		return nil, fmt.Errorf("invalid TTS_AGGREGATE_TIMEOUT: %w", err)
	}
	cfg.TurnDeadline = turnDeadline
	cfg.RepositoryTimeout = repoTimeout
	cfg.TTSAggregateTimeout = ttsTimeout

	cfg.Admin = AdminConfig{
		TTSEnabled:              getEnvBoolOrDefault("TTS_ENABLED", true),
		DialogNavigationEnabled: getEnvBoolOrDefault("DIALOG_NAVIGATION_ENABLED", true),
		FallbackMode:            getEnvOrDefault("FALLBACK_MODE", "SMART"),
		ExpertMode:              getEnvBoolOrDefault("EXPERT_MODE", false),
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// ConnectionURL renders the postgres DSN used by the orders/catalog
// repositories and by migrations.
func (c PostgresConfig) ConnectionURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Username, c.Password, c.Host, c.Port, c.DB, c.SSLMode)
}
