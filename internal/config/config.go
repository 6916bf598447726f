package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every runtime knob. DatabaseURL may be empty, in which
// case the server falls back to in-memory storage.
type Config struct {
	Addr        string
	DatabaseURL string
	Countdown   int
	WinScore    int
}

const (
	defaultAddr      = ":8080"
	defaultCountdown = 3
	defaultWinScore  = 5
)

// Load reads configuration from the environment. A .env file is loaded
// first if present; a missing one is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:        defaultAddr,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Countdown:   defaultCountdown,
		WinScore:    defaultWinScore,
	}

	if addr := os.Getenv("ADDR"); addr != "" {
		cfg.Addr = addr
	}

	var err error
	if cfg.Countdown, err = intEnv("COUNTDOWN_SECONDS", cfg.Countdown); err != nil {
		return nil, err
	}
	if cfg.WinScore, err = intEnv("WIN_SCORE", cfg.WinScore); err != nil {
		return nil, err
	}
	if cfg.Countdown < 0 {
		return nil, fmt.Errorf("COUNTDOWN_SECONDS must not be negative, got %d", cfg.Countdown)
	}
	if cfg.WinScore < 1 {
		return nil, fmt.Errorf("WIN_SCORE must be at least 1, got %d", cfg.WinScore)
	}
	return cfg, nil
}

func intEnv(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return n, nil
}
