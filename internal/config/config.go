package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Retention RetentionConfig `yaml:"retention"`
	Logging   LoggingConfig   `yaml:"logging"`
	App       AppConfig       `yaml:"app"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig holds artifact storage configuration
type StorageConfig struct {
	DownloadDir string `yaml:"download_dir"`
}

// FetchConfig holds fetch backend configuration
type FetchConfig struct {
	// Concurrency caps the number of simultaneous blocking backend calls.
	Concurrency int `yaml:"concurrency"`
	// DefaultQuality is used when a download request names no preset.
	DefaultQuality string `yaml:"default_quality"`
}

// RetentionConfig holds expiry horizons for the reclaimer
type RetentionConfig struct {
	// TokenTTL is how long a download token stays redeemable.
	TokenTTL time.Duration `yaml:"token_ttl"`
	// JobTTL is how long a job record stays queryable. Kept longer than
	// TokenTTL so final status outlives the token.
	JobTTL time.Duration `yaml:"job_ttl"`
	// SweepInterval is the reclaimer tick period.
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	return &config, nil
}

// applyDefaults fills in the values the service ships with
func (c *Config) applyDefaults() {
	if c.Storage.DownloadDir == "" {
		c.Storage.DownloadDir = "downloads"
	}
	if c.Fetch.Concurrency == 0 {
		c.Fetch.Concurrency = 4
	}
	if c.Fetch.DefaultQuality == "" {
		c.Fetch.DefaultQuality = "1080p"
	}
	if c.Retention.TokenTTL == 0 {
		c.Retention.TokenTTL = time.Hour
	}
	if c.Retention.JobTTL == 0 {
		c.Retention.JobTTL = 24 * time.Hour
	}
	if c.Retention.SweepInterval == 0 {
		c.Retention.SweepInterval = 15 * time.Minute
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if c.Storage.DownloadDir == "" {
		return fmt.Errorf("storage download_dir is required")
	}

	if c.Fetch.Concurrency <= 0 {
		return fmt.Errorf("fetch concurrency must be greater than 0")
	}

	if c.Retention.TokenTTL <= 0 {
		return fmt.Errorf("retention token_ttl must be greater than 0")
	}

	if c.Retention.JobTTL < c.Retention.TokenTTL {
		return fmt.Errorf("retention job_ttl must not be shorter than token_ttl")
	}

	if c.Retention.SweepInterval <= 0 {
		return fmt.Errorf("retention sweep_interval must be greater than 0")
	}

	return nil
}
