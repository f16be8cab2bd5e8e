// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string
	Game        GameConfig
}

// GameConfig holds the tunables of the ladder-game engine. Defaults match the
// production ruleset; tests override individual fields.
type GameConfig struct {
	TimedFromLevel int           // first level with a countdown clock
	QuestionClock  time.Duration // countdown per timed question
	RevealDelay    time.Duration // pause between lock-in and reveal
	SessionIdleTTL time.Duration // idle time before a session is auto cashed out
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		DBPath:      getEnv("DB_PATH", "./data/chemladder.db"),
		Game: GameConfig{
			TimedFromLevel: getEnvInt("GAME_TIMED_FROM_LEVEL", 16),
			QuestionClock:  getEnvDuration("GAME_QUESTION_CLOCK", 75*time.Second),
			RevealDelay:    getEnvDuration("GAME_REVEAL_DELAY", 650*time.Millisecond),
			SessionIdleTTL: getEnvDuration("GAME_SESSION_IDLE_TTL", 30*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Game.TimedFromLevel <= 0 {
		return fmt.Errorf("GAME_TIMED_FROM_LEVEL must be > 0")
	}
	if c.Game.QuestionClock <= 0 {
		return fmt.Errorf("GAME_QUESTION_CLOCK must be > 0")
	}
	if c.Game.RevealDelay < 0 {
		return fmt.Errorf("GAME_REVEAL_DELAY cannot be negative")
	}
	if c.Game.SessionIdleTTL <= 0 {
		return fmt.Errorf("GAME_SESSION_IDLE_TTL must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
