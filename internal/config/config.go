// Package config provides configuration loading and validation for the CLI.
// Values come from an optional YAML or JSON file; environment variables take precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/match-ranker/internal/rank"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables read by LoadConfig.
const (
	EnvBinding      = "MATCH_RANKER_BINDING"
	EnvLogLevel     = "MATCH_RANKER_LOG_LEVEL"
	EnvParityTrials = "MATCH_RANKER_PARITY_TRIALS"
	EnvParitySeed   = "MATCH_RANKER_PARITY_SEED"
)

// Default values applied by MergeWithDefaults.
const (
	DefaultBinding      = rank.BindingOptimized
	DefaultLogLevel     = "info"
	DefaultParityTrials = 250
	DefaultParitySeed   = 1
)

// ErrInvalidBinding is returned when the configured binding is not known.
var ErrInvalidBinding = errors.New("invalid binding")

// Config represents the CLI configuration.
// All fields are optional; missing values use defaults or CLI flags.
type Config struct {
	Binding      string `koanf:"binding" validate:"omitempty,oneof=optimized reference"`
	LogLevel     string `koanf:"log_level" validate:"omitempty,oneof=debug info warn error"`
	Verbose      bool   `koanf:"verbose"`
	ParityTrials int    `koanf:"parity_trials" validate:"gte=0"`
	ParitySeed   int64  `koanf:"parity_seed"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Binding:      DefaultBinding,
		LogLevel:     DefaultLogLevel,
		ParityTrials: DefaultParityTrials,
		ParitySeed:   DefaultParitySeed,
	}
}

// LoadConfig loads configuration from path, if non-empty, then applies
// environment overrides. The result is not validated or defaulted.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	trials, err := getEnvIntOrDefault(EnvParityTrials, k.Int("parity_trials"))
	if err != nil {
		return nil, err
	}
	seed, err := getEnvInt64OrDefault(EnvParitySeed, k.Int64("parity_seed"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Binding:      getEnvOrDefault(EnvBinding, k.String("binding")),
		LogLevel:     getEnvOrDefault(EnvLogLevel, k.String("log_level")),
		Verbose:      k.Bool("verbose"),
		ParityTrials: trials,
		ParitySeed:   seed,
	}, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Binding != "" && c.Binding != rank.BindingOptimized && c.Binding != rank.BindingReference {
		return fmt.Errorf("config error: %w: %q", ErrInvalidBinding, c.Binding)
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Binding == "" {
		result.Binding = defaults.Binding
	}
	// An unset level under verbose stays empty so the logger picks debug.
	if result.LogLevel == "" && !result.Verbose {
		result.LogLevel = defaults.LogLevel
	}
	if result.ParityTrials == 0 {
		result.ParityTrials = defaults.ParityTrials
	}
	if result.ParitySeed == 0 {
		result.ParitySeed = defaults.ParitySeed
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvIntOrDefault(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvInt64OrDefault(key string, fallback int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
