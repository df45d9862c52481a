// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"

	IDSourceClock = "clock"
	IDSourceUUID  = "uuid"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the settings shared by the server and the CLI commands.
type Config struct {
	Debug       bool          `env:"DEBUG"`
	Store       string        `env:"STORE" envDefault:"file"`
	DataDir     string        `env:"DATA_DIR" envDefault:".taskboard"`
	StateKey    string        `env:"STATE_KEY" envDefault:"taskAppState"`
	RedisConn   string        `env:"REDIS_CONNECTION_STRING"`
	IDSource    string        `env:"ID_SOURCE" envDefault:"clock"`
	ListenAddr  string        `env:"LISTEN_ADDR" envDefault:":8080"`
	SaveTimeout time.Duration `env:"SAVE_TIMEOUT" envDefault:"5s"`
	DeduperTTL  time.Duration `env:"DEDUPER_TTL" envDefault:"24h"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	cfg, err := Parse()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse reads the environment without validating, so callers can apply
// overrides first.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.Normalize(), nil
}

// Normalize lowercases the enumerated settings.
func (c Config) Normalize() Config {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	c.IDSource = strings.ToLower(strings.TrimSpace(c.IDSource))
	return c
}

// Validate checks that the settings describe a usable setup.
func (c Config) Validate() error {
	switch c.Store {
	case StoreFile, StoreSQLite:
		if strings.TrimSpace(c.DataDir) == "" {
			return fmt.Errorf("%w: DATA_DIR is required for the %s store", ErrInvalidConfig, c.Store)
		}
	case StoreRedis:
		if strings.TrimSpace(c.RedisConn) == "" {
			return fmt.Errorf("%w: REDIS_CONNECTION_STRING is required for the redis store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown STORE %q", ErrInvalidConfig, c.Store)
	}
	switch c.IDSource {
	case IDSourceClock, IDSourceUUID:
	default:
		return fmt.Errorf("%w: unknown ID_SOURCE %q", ErrInvalidConfig, c.IDSource)
	}
	if strings.TrimSpace(c.StateKey) == "" {
		return fmt.Errorf("%w: STATE_KEY must not be empty", ErrInvalidConfig)
	}
	if c.SaveTimeout <= 0 {
		return fmt.Errorf("%w: SAVE_TIMEOUT must be greater than zero", ErrInvalidConfig)
	}
	if c.DeduperTTL <= 0 {
		return fmt.Errorf("%w: DEDUPER_TTL must be greater than zero", ErrInvalidConfig)
	}
	return nil
}

// SQLitePath is the database file used by the sqlite store.
func (c Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "taskboard.db")
}
