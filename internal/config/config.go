// Package config loads and validates the pipeline's TOML configuration,
// structured into the same nested section style the rest of the codebase
// was built from: one XxxConfig struct per concern, toml tags, trailing
// comments documenting each field.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration document.
type Config struct {
	Server   ServerConfig   `toml:"server"`   // health-check HTTP port
	Storage  StorageConfig  `toml:"storage"`  // blob store backend selection
	Provider ProviderConfig `toml:"provider"` // trace client tuning
	ETL      ETLConfig      `toml:"etl"`      // orchestrator concurrency and scope
	Logging  LoggingConfig  `toml:"logging"`  // application logging
}

// ServerConfig contains the optional health-check HTTP server settings.
// This pipeline has no public API surface; the server exists only so a
// long-running ETL process can be probed by an orchestrator/liveness check.
type ServerConfig struct {
	Port int `toml:"port"` // health-check port, 0 disables the server
}

// StorageConfig selects and configures the blob store backend.
type StorageConfig struct {
	Type string `toml:"type"` // "local" or "s3"

	LocalRoot string `toml:"local_root"` // root directory when type = "local"

	S3Bucket          string `toml:"s3_bucket"`           // bucket name when type = "s3"
	S3Region          string `toml:"s3_region"`           // e.g. "fra1"
	S3Endpoint        string `toml:"s3_endpoint"`         // custom endpoint URL (DigitalOcean Spaces, MinIO, ...)
	S3AccessKeyID     string `toml:"s3_access_key_id"`    // usually supplied via --access-key instead
	S3SecretAccessKey string `toml:"s3_secret_access_key"`
}

// ProviderConfig tunes the trace client's HTTP behavior against the
// ADS-B Exchange trace history endpoint.
type ProviderConfig struct {
	TimeoutSeconds    int     `toml:"timeout_seconds"`     // per-request HTTP timeout
	MaxRetries        int     `toml:"max_retries"`         // validated only; the trace client always makes trace.MaxRetries attempts
	BackoffBaseMillis int     `toml:"backoff_base_millis"` // validated only; the trace client backs off from a fixed 100 ms base
	RequestsPerSecond float64 `toml:"requests_per_second"` // client-side rate limit
	Burst             int     `toml:"burst"`               // rate limiter burst size
}

// ETLConfig bounds the orchestrator's concurrency and scope.
type ETLConfig struct {
	TaskConcurrency int    `toml:"task_concurrency"` // bounded concurrency for the Todo task stream
	FirstYear       int    `toml:"first_year"`       // first year in the processed range
	LastYear        int    `toml:"last_year"`        // last year in the processed range (0 = current year)
	Country         string `toml:"country"`          // optional country filter for the jet set, empty = worldwide
	BaseURL         string `toml:"base_url"`         // public base URL prefixed onto status.json download links
	StatusSecret    string `toml:"status_secret"`    // optional HMAC secret to sign status.json as a JWT
}

// LoggingConfig contains application logging configuration.
type LoggingConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", or "error"
	Format string `toml:"format"` // "json" or "console"
}

// Load reads and decodes the TOML configuration file at path.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	return &cfg, nil
}

// LoadWithFallback loads the configuration, checking preferredPath first
// and falling back to the conventional locations used across the cmd/
// binaries.
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{preferredPath, "configs/config.toml", "config.toml"}

	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			cfg, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return cfg, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// Validate checks the configuration for consistency and fills in defaults.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Storage.Type {
	case "local":
		if c.Storage.LocalRoot == "" {
			return fmt.Errorf("local_root is required when storage type is local")
		}
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("s3_bucket is required when storage type is s3")
		}
		if c.Storage.S3Region == "" {
			return fmt.Errorf("s3_region is required when storage type is s3")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be 'local' or 's3')", c.Storage.Type)
	}

	if c.Provider.TimeoutSeconds <= 0 {
		c.Provider.TimeoutSeconds = 30
	}
	if c.Provider.MaxRetries <= 0 {
		c.Provider.MaxRetries = 5
	}
	if c.Provider.BackoffBaseMillis <= 0 {
		c.Provider.BackoffBaseMillis = 500
	}
	if c.Provider.RequestsPerSecond <= 0 {
		c.Provider.RequestsPerSecond = 5
	}
	if c.Provider.Burst <= 0 {
		c.Provider.Burst = 5
	}

	if c.ETL.TaskConcurrency <= 0 {
		c.ETL.TaskConcurrency = 400
	}
	if c.ETL.FirstYear <= 0 {
		return fmt.Errorf("etl.first_year must be set")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}
