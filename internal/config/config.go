package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is read from CAREERMAP_* environment variables.
type Config struct {
	Addr         string `env:"ADDR" envDefault:":8080"`
	CountsPath   string `env:"COUNTS_PATH" envDefault:"Count-allOccupations-Continent.csv"`
	TaxonomyPath string `env:"TAXONOMY_PATH" envDefault:"Occupationid_firststep_group_careerarea.csv"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	MaxSessions  int    `env:"MAX_SESSIONS" envDefault:"1024"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "CAREERMAP_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MaxSessions < 1 {
		return Config{}, fmt.Errorf("CAREERMAP_MAX_SESSIONS must be positive, got %d", cfg.MaxSessions)
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseLevel maps debug, info, warn or error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s)))); err != nil {
		return slog.LevelInfo, fmt.Errorf("CAREERMAP_LOG_LEVEL: %w", err)
	}
	return lvl, nil
}
