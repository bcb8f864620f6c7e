// Package config loads the bridge configuration from defaults, an optional
// YAML file and CASINO_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/engine"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/logger"
)

// DefaultPath is read when CASINO_CONFIG is unset and the file exists.
const DefaultPath = "config.yaml"

// RNG modes.
const (
	RNGCrypto = "crypto"
	RNGSeeded = "seeded"
	RNGHMAC   = "hmac"
)

// Config holds the bridge configuration.
type Config struct {
	Addr            string        `yaml:"addr" validate:"required"`
	Environment     string        `yaml:"environment" validate:"required"`
	AllowedOrigins  []string      `yaml:"allowed_origins" validate:"dive,required"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`

	Log          LogConfig     `yaml:"log"`
	RNG          RNGConfig     `yaml:"rng"`
	Ledger       LedgerConfig  `yaml:"ledger"`
	OutcomeCache CacheConfig   `yaml:"outcome_cache"`
	History      HistoryConfig `yaml:"history"`
}

type LogConfig struct {
	Level     string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format    string `yaml:"format" validate:"oneof=text json"`
	AddSource bool   `yaml:"add_source"`
}

type RNGConfig struct {
	Mode       string `yaml:"mode" validate:"oneof=crypto seeded hmac"`
	Seed       uint64 `yaml:"seed"`
	ServerSeed string `yaml:"server_seed" validate:"required_if=Mode hmac"`
	ClientSeed string `yaml:"client_seed" validate:"required_if=Mode hmac"`
}

type LedgerConfig struct {
	StartingBalance string `yaml:"starting_balance" validate:"omitempty,numeric"`
}

type CacheConfig struct {
	Size int           `yaml:"size" validate:"min=1"`
	TTL  time.Duration `yaml:"ttl" validate:"gt=0"`
}

type HistoryConfig struct {
	FlushSize int `yaml:"flush_size" validate:"min=1,max=10000"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:            ":8080",
		Environment:     "dev",
		AllowedOrigins:  []string{"http://localhost:5173", "http://localhost:3000"},
		ShutdownTimeout: 10 * time.Second,
		Log:             LogConfig{Level: "info", Format: "text"},
		RNG:             RNGConfig{Mode: RNGCrypto},
		Ledger:          LedgerConfig{StartingBalance: "0"},
		OutcomeCache:    CacheConfig{Size: 256, TTL: 30 * time.Minute},
		History:         HistoryConfig{FlushSize: 50},
	}
}

// Load builds the configuration: .env, defaults, YAML overlay, environment.
func Load() (*Config, error) {
	// A missing .env is normal; real environment variables still apply.
	_ = godotenv.Load()

	cfg := Default()

	path, explicit := os.LookupEnv("CASINO_CONFIG")
	if !explicit {
		path = DefaultPath
	}
	if err := cfg.LoadFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from CASINO_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("CASINO_ADDR", &c.Addr)
	str("CASINO_ENV", &c.Environment)
	str("CASINO_LOG_LEVEL", &c.Log.Level)
	str("CASINO_LOG_FORMAT", &c.Log.Format)
	str("CASINO_RNG", &c.RNG.Mode)
	str("CASINO_SERVER_SEED", &c.RNG.ServerSeed)
	str("CASINO_CLIENT_SEED", &c.RNG.ClientSeed)
	str("CASINO_STARTING_BALANCE", &c.Ledger.StartingBalance)

	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
	c.RNG.Mode = strings.ToLower(c.RNG.Mode)

	if v, ok := lookup("CASINO_ALLOWED_ORIGINS"); ok && v != "" {
		c.AllowedOrigins = c.AllowedOrigins[:0]
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	}

	if v, ok := lookup("CASINO_RNG_SEED"); ok && v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid CASINO_RNG_SEED: %w", err)
		}
		c.RNG.Seed = seed
	}
	if v, ok := lookup("CASINO_OUTCOME_CACHE_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CASINO_OUTCOME_CACHE_SIZE: %w", err)
		}
		c.OutcomeCache.Size = n
	}
	if v, ok := lookup("CASINO_OUTCOME_CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CASINO_OUTCOME_CACHE_TTL: %w", err)
		}
		c.OutcomeCache.TTL = d
	}
	if v, ok := lookup("CASINO_HISTORY_FLUSH"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CASINO_HISTORY_FLUSH: %w", err)
		}
		c.History.FlushSize = n
	}
	return nil
}

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	bal, err := c.StartingBalance()
	if err != nil {
		return err
	}
	if bal.IsNegative() {
		return fmt.Errorf("invalid config: starting balance %s is negative", bal)
	}
	return nil
}

// StartingBalance parses the configured opening balance.
func (c *Config) StartingBalance() (decimal.Decimal, error) {
	if c.Ledger.StartingBalance == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(c.Ledger.StartingBalance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid starting balance %q: %w", c.Ledger.StartingBalance, err)
	}
	return d, nil
}

// Source builds the randomness source selected by RNG.Mode.
func (c *Config) Source() engine.Source {
	switch c.RNG.Mode {
	case RNGSeeded:
		return engine.NewSeededSource(c.RNG.Seed)
	case RNGHMAC:
		return engine.NewHMACSource(c.RNG.ServerSeed, c.RNG.ClientSeed, 0)
	default:
		return engine.CryptoSource{}
	}
}

// Logger converts to a logger.Config for the given build version.
func (c *Config) Logger(version string) logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = c.Log.Level
	lc.Format = c.Log.Format
	lc.AddSource = c.Log.AddSource
	lc.Environment = c.Environment
	if version != "" {
		lc.Version = version
	}
	return lc
}
