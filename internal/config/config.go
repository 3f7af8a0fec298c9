package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/JulienMirval/snag/internal/progress"
)

// Config defines configuration for the snag CLI.
type Config struct {
	Bucket      string        `yaml:"bucket"`
	Folder      string        `yaml:"folder"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
	ContentType string        `yaml:"content_type"`
	Quota       int64         `yaml:"quota"`
	Entries     []Entry       `yaml:"entries"`
	Retry       RetryConfig   `yaml:"retry"`
}

// Entry describes one file to ingest, as written in a manifest.
type Entry struct {
	URL      string            `yaml:"url"`
	Filename string            `yaml:"filename"`
	Method   string            `yaml:"method"`
	Headers  map[string]string `yaml:"headers"`
}

// RetryConfig defines transport retry behavior.
type RetryConfig struct {
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// Default returns a Config with sensible defaults. Concurrency defaults to
// sequential because concurrent entries targeting the same path race on
// trash-then-recreate.
func Default() Config {
	return Config{
		Concurrency: 1,
		Timeout:     4 * time.Minute,
		Retry: RetryConfig{
			Attempts:   5,
			Backoff:    time.Second,
			MaxBackoff: 30 * time.Second,
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string durations and sizes.
type yamlConfig struct {
	Bucket      string          `yaml:"bucket"`
	Folder      string          `yaml:"folder"`
	Concurrency int             `yaml:"concurrency"`
	Timeout     string          `yaml:"timeout"`
	ContentType string          `yaml:"content_type"`
	Quota       string          `yaml:"quota"`
	Entries     []Entry         `yaml:"entries"`
	Retry       yamlRetryConfig `yaml:"retry"`
}

type yamlRetryConfig struct {
	Attempts   int    `yaml:"attempts"`
	Backoff    string `yaml:"backoff"`
	MaxBackoff string `yaml:"max_backoff"`
}

// LoadFromFile loads configuration from a YAML manifest file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.Bucket != "" {
		cfg.Bucket = yc.Bucket
	}
	if yc.Folder != "" {
		cfg.Folder = yc.Folder
	}
	if yc.Concurrency != 0 {
		cfg.Concurrency = yc.Concurrency
	}
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	cfg.ContentType = yc.ContentType
	if yc.Quota != "" {
		size, err := progress.ParseBytes(yc.Quota)
		if err != nil {
			return Config{}, fmt.Errorf("parse quota: %w", err)
		}
		cfg.Quota = size
	}
	cfg.Entries = yc.Entries
	if yc.Retry.Attempts != 0 {
		cfg.Retry.Attempts = yc.Retry.Attempts
	}
	if yc.Retry.Backoff != "" {
		d, err := time.ParseDuration(yc.Retry.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.backoff: %w", err)
		}
		cfg.Retry.Backoff = d
	}
	if yc.Retry.MaxBackoff != "" {
		d, err := time.ParseDuration(yc.Retry.MaxBackoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.max_backoff: %w", err)
		}
		cfg.Retry.MaxBackoff = d
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the SNAG_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("SNAG_BUCKET"); v != "" {
		c.Bucket = v
	}
	if v := os.Getenv("SNAG_FOLDER"); v != "" {
		c.Folder = v
	}
	if v := os.Getenv("SNAG_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse SNAG_CONCURRENCY: %w", err)
		}
		c.Concurrency = n
	}
	if v := os.Getenv("SNAG_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SNAG_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("SNAG_CONTENT_TYPE"); v != "" {
		c.ContentType = v
	}
	if v := os.Getenv("SNAG_QUOTA"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse SNAG_QUOTA: %w", err)
		}
		c.Quota = size
	}
	if v := os.Getenv("SNAG_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse SNAG_RETRY_ATTEMPTS: %w", err)
		}
		c.Retry.Attempts = n
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("config: bucket is required")
	}
	if c.Folder == "" {
		return errors.New("config: folder is required")
	}
	if c.Concurrency <= 0 {
		return errors.New("config: concurrency must be positive")
	}
	if c.Timeout <= 0 {
		return errors.New("config: timeout must be positive")
	}
	if len(c.Entries) == 0 {
		return errors.New("config: at least one entry is required")
	}
	for i, e := range c.Entries {
		if e.URL == "" {
			return fmt.Errorf("config: entry %d: url is required", i)
		}
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.Bucket != "" {
		c.Bucket = override.Bucket
	}
	if override.Folder != "" {
		c.Folder = override.Folder
	}
	if override.Concurrency != 0 {
		c.Concurrency = override.Concurrency
	}
	if override.Timeout != 0 {
		c.Timeout = override.Timeout
	}
	if override.ContentType != "" {
		c.ContentType = override.ContentType
	}
	if override.Quota != 0 {
		c.Quota = override.Quota
	}
	if len(override.Entries) != 0 {
		c.Entries = override.Entries
	}
	if override.Retry.Attempts != 0 {
		c.Retry.Attempts = override.Retry.Attempts
	}
	if override.Retry.Backoff != 0 {
		c.Retry.Backoff = override.Retry.Backoff
	}
	if override.Retry.MaxBackoff != 0 {
		c.Retry.MaxBackoff = override.Retry.MaxBackoff
	}
	return c
}
