// Package config loads settings from settings.json, then .env, then the
// environment, each layer overriding the last.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Settings struct {
	Listen         string `json:"listen" env:"AURORA_LISTEN"`
	DatabaseDriver string `json:"database_driver" env:"AURORA_DATABASE_DRIVER"`
	DatabaseURL    string `json:"database_url" env:"AURORA_DATABASE_URL"`
	CatalogPath    string `json:"catalog_path" env:"AURORA_CATALOG_PATH"`
	SeedPrefix     string `json:"seed_prefix" env:"AURORA_SEED_PREFIX"`
	SessionKey     string `json:"session_key" env:"AURORA_SESSION_KEY"`
	SessionCoder   string `json:"session_coder" env:"AURORA_SESSION_CODER"`
	SecureCookies  bool   `json:"secure_cookies" env:"AURORA_SECURE_COOKIES"`
	AudioEnabled   bool   `json:"audio_enabled" env:"AURORA_AUDIO_ENABLED"`
	ReducedMotion  bool   `json:"reduced_motion" env:"AURORA_REDUCED_MOTION"`
}

func Defaults() Settings {
	return Settings{
		Listen:         ":3001",
		DatabaseDriver: "memory",
		CatalogPath:    "./data/prizes.json",
		SeedPrefix:     "aurora",
		SessionCoder:   "aurora",
	}
}

// Load reads settingsPath and dotenvPath, either of which may be missing,
// and applies AURORA_* variables last.
func Load(settingsPath, dotenvPath string) (Settings, error) {
	s := Defaults()

	bytes, err := os.ReadFile(settingsPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return s, fmt.Errorf("read settings: %w", err)
	default:
		if err := json.Unmarshal(bytes, &s); err != nil {
			return s, fmt.Errorf("parse settings %s: %w", settingsPath, err)
		}
	}

	if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return s, fmt.Errorf("load %s: %w", dotenvPath, err)
	}

	if err := env.Parse(&s); err != nil {
		return s, fmt.Errorf("environment: %w", err)
	}

	return s, s.Validate()
}

func (s Settings) Validate() error {
	switch s.DatabaseDriver {
	case "memory":
	case "postgres", "sqlite":
		if s.DatabaseURL == "" {
			return fmt.Errorf("database_url is required for driver %s", s.DatabaseDriver)
		}
	default:
		return fmt.Errorf("unknown database_driver %q", s.DatabaseDriver)
	}
	if s.SeedPrefix == "" {
		return errors.New("seed_prefix must not be empty")
	}
	if s.CatalogPath == "" {
		return errors.New("catalog_path must not be empty")
	}
	return nil
}
