// Package config composes every tunable of the radar into one YAML-loadable
// document. All weights, thresholds and windows named by the engine live
// here; code never hardcodes them.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/solradar/radar/internal/application"
	"github.com/solradar/radar/internal/engine/cluster"
	"github.com/solradar/radar/internal/engine/correlate"
	"github.com/solradar/radar/internal/engine/entity"
	"github.com/solradar/radar/internal/engine/score"
	"github.com/solradar/radar/internal/engine/trend"
	"github.com/solradar/radar/internal/persistence/postgres"
	"github.com/solradar/radar/internal/synth"
)

// Config is the root configuration document.
type Config struct {
	LogLevel string `yaml:"log_level"`

	Scoring     score.Config       `yaml:"scoring"`
	Trend       trend.Config       `yaml:"trend"`
	Entities    entity.Config      `yaml:"entities"`
	Correlation correlate.Config   `yaml:"correlation"`
	Clustering  cluster.Config     `yaml:"clustering"`
	Analysis    application.Config `yaml:"analysis"`
	Synthesis   synth.Config       `yaml:"synthesis"`
	Database    postgres.Config    `yaml:"database"`

	// RedisAddr enables the Redis response cache when non-empty.
	RedisAddr string `yaml:"redis_addr"`
	// HTTPAddr is the ops server bind address for the serve command.
	HTTPAddr string `yaml:"http_addr"`
}

// Default returns the full production default configuration.
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		Scoring:     score.DefaultConfig(),
		Trend:       trend.DefaultConfig(),
		Entities:    entity.DefaultConfig(),
		Correlation: correlate.DefaultConfig(),
		Clustering:  cluster.DefaultConfig(),
		Analysis:    application.DefaultConfig(),
		Synthesis:   synth.DefaultConfig(),
		Database:    postgres.DefaultConfig(),
		HTTPAddr:    ":8087",
	}
}

// Load reads a YAML file over the defaults. A missing path returns the
// defaults unchanged; the DSN may also come from RADAR_DATABASE_URL.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("config file %s not found", path)
			}
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if dsn := os.Getenv("RADAR_DATABASE_URL"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if addr := os.Getenv("RADAR_REDIS_ADDR"); addr != "" {
		cfg.RedisAddr = addr
	}
	return cfg, nil
}
