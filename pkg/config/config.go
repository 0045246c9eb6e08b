// Package config provides configuration management for safefetch. It handles
// loading, validating and saving application settings from a YAML file and
// provides sensible defaults for the public Sentinel-2 archive endpoints.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/s2tools/safefetch/pkg/errors"
	"github.com/s2tools/safefetch/pkg/fsutil"
)

// Config represents the application configuration.
type Config struct {
	// Endpoints for the remote archive and its metadata mirror.
	Endpoints Endpoints `yaml:"endpoints"`

	// General settings
	Settings Settings `yaml:"settings"`
}

// Endpoints groups the remote service locations.
type Endpoints struct {
	// MetadataBaseURL serves productInfo/tileInfo JSON files free of charge.
	MetadataBaseURL string `yaml:"metadata_base_url"`
	// L1CBucketName is the name of the Sentinel-2 L1C object-storage bucket.
	L1CBucketName string `yaml:"l1c_bucket_name"`
}

// Settings represents general application settings.
type Settings struct {
	// Network settings
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	MaxAttempts     int           `yaml:"max_attempts"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	MaxThreads      int           `yaml:"max_threads"`
	// RequestsPerSecond caps outgoing requests; 0 disables the limit.
	// Remote data can be billed per request, so this is a cost knob.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	UserAgent         string  `yaml:"user_agent"`

	// Output settings
	LogLevel string `yaml:"log_level"`
}

// Default configuration values.
const (
	// DefaultMetadataBaseURL is the public metadata mirror of the archive.
	DefaultMetadataBaseURL = "https://roda.sentinel-hub.com"
	// DefaultL1CBucketName is the Sentinel-2 L1C bucket name.
	DefaultL1CBucketName = "sentinel-s2-l1c"
	// DefaultDownloadTimeout is the timeout for a single download attempt.
	DefaultDownloadTimeout = 120 * time.Second
	// DefaultMaxAttempts is the per-object download attempt budget.
	DefaultMaxAttempts = 4
	// DefaultRetryDelay is the fixed delay between attempts on one object.
	DefaultRetryDelay = 5 * time.Second
	// DefaultMaxThreads makes execution sequential unless asked otherwise.
	DefaultMaxThreads = 1
	// DefaultUserAgent identifies safefetch to the remote services.
	DefaultUserAgent = "safefetch/1.0"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Endpoints: Endpoints{
			MetadataBaseURL: DefaultMetadataBaseURL,
			L1CBucketName:   DefaultL1CBucketName,
		},
		Settings: Settings{
			DownloadTimeout: DefaultDownloadTimeout,
			MaxAttempts:     DefaultMaxAttempts,
			RetryDelay:      DefaultRetryDelay,
			MaxThreads:      DefaultMaxThreads,
			UserAgent:       DefaultUserAgent,
			LogLevel:        "info",
		},
	}
}

// LoadConfig loads configuration from the given path. A missing file yields
// the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the given path, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to encode config")
	}
	if err := fsutil.EnsureFileDir(path); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	return os.WriteFile(path, data, fsutil.FileModeDefault)
}

// Validate checks the configuration for values the engine cannot work with.
func (c *Config) Validate() error {
	if c.Endpoints.MetadataBaseURL == "" {
		return errors.Wrap(errors.ErrConfigValidation, "metadata_base_url cannot be empty")
	}
	if c.Endpoints.L1CBucketName == "" {
		return errors.Wrap(errors.ErrConfigValidation, "l1c_bucket_name cannot be empty")
	}
	if c.Settings.MaxAttempts < 1 {
		return errors.Wrap(errors.ErrConfigValidation, "max_attempts must be at least 1")
	}
	if c.Settings.MaxThreads < 1 {
		return errors.Wrap(errors.ErrConfigValidation, "max_threads must be at least 1")
	}
	if c.Settings.RequestsPerSecond < 0 {
		return errors.Wrap(errors.ErrConfigValidation, "requests_per_second cannot be negative")
	}
	return nil
}

// GetDefaultConfigPath returns the default location of the config file.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to determine user config directory")
	}
	return filepath.Join(configDir, "safefetch", "config.yaml"), nil
}
