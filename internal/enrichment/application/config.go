package application

import (
	"errors"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config tunes the backlog reprocessor. The trip gap threshold is a fixed
// policy, not configuration.
type Config struct {
	BatchSize     int
	Interval      time.Duration
	RetryInterval time.Duration
}

// fileConfig is the YAML shape; durations are Go duration strings ("5m").
type fileConfig struct {
	BatchSize     int    `yaml:"batch_size"`
	Interval      string `yaml:"interval"`
	RetryInterval string `yaml:"retry_interval"`
}

// DefaultConfig returns the stock reprocessor tuning.
func DefaultConfig() Config {
	return Config{
		BatchSize:     100,
		Interval:      5 * time.Minute,
		RetryInterval: time.Minute,
	}
}

// LoadConfig builds a Config from env, then merges an optional YAML file
// named by ENRICHMENT_CONFIG over it.
func LoadConfig() (Config, error) {
	cfg := Config{
		BatchSize:     getenvIntDefault("ENRICHMENT_BATCH_SIZE", 100),
		Interval:      getenvDuration("ENRICHMENT_INTERVAL", 5*time.Minute),
		RetryInterval: getenvDuration("ENRICHMENT_RETRY_INTERVAL", time.Minute),
	}

	if path := os.Getenv("ENRICHMENT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return cfg, err
		}
		cfg, err = mergeConfig(cfg, file)
		if err != nil {
			return cfg, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks config invariants.
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return errors.New("enrichment config: batch size must be positive")
	}
	if c.Interval <= 0 {
		return errors.New("enrichment config: interval must be positive")
	}
	if c.RetryInterval <= 0 {
		return errors.New("enrichment config: retry interval must be positive")
	}
	return nil
}

func mergeConfig(base Config, override fileConfig) (Config, error) {
	if override.BatchSize != 0 {
		base.BatchSize = override.BatchSize
	}
	if override.Interval != "" {
		parsed, err := time.ParseDuration(override.Interval)
		if err != nil {
			return base, errors.New("enrichment config: invalid interval")
		}
		base.Interval = parsed
	}
	if override.RetryInterval != "" {
		parsed, err := time.ParseDuration(override.RetryInterval)
		if err != nil {
			return base, errors.New("enrichment config: invalid retry interval")
		}
		base.RetryInterval = parsed
	}
	return base, nil
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
