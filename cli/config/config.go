package config

import (
	"errors"
	"fmt"
	"time"
)

// Config represents a couchpart.yaml configuration file.
// All values are optional and act as defaults for command flags.
// CLI flags always override config values.
type Config struct {
	// Headers are default "Name: value" response headers, used when the
	// input is a bare body rather than a full HTTP response.
	Headers []string      `yaml:"headers"`
	Storage StorageConfig `yaml:"storage"`
	Adapter AdapterConfig `yaml:"adapter"`
	Output  OutputConfig  `yaml:"output"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig holds attachment storage defaults.
type StorageConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// AdapterConfig holds event publishing defaults.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// OutputConfig holds rendering and framing defaults.
type OutputConfig struct {
	Format    string `yaml:"format"`
	ChunkSize int    `yaml:"chunk_size"`
}

// LogConfig holds logging defaults.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Known option values.
var (
	StorageBackends = []string{"fs", "s3", "memory"}
	AdapterTypes    = []string{"webhook", "redis"}
	LogLevels       = []string{"debug", "info", "warn", "error"}
)

// Validate checks enumerated values. Empty values are allowed.
func (c *Config) Validate() error {
	var errs []error
	if c.Storage.Backend != "" && !contains(StorageBackends, c.Storage.Backend) {
		errs = append(errs, fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend))
	}
	if c.Adapter.Type != "" && !contains(AdapterTypes, c.Adapter.Type) {
		errs = append(errs, fmt.Errorf("adapter.type: unknown adapter %q", c.Adapter.Type))
	}
	if c.Adapter.Retries != nil && *c.Adapter.Retries < 0 {
		errs = append(errs, fmt.Errorf("adapter.retries: must be >= 0, got %d", *c.Adapter.Retries))
	}
	if c.Output.ChunkSize < 0 {
		errs = append(errs, fmt.Errorf("output.chunk_size: must be >= 0, got %d", c.Output.ChunkSize))
	}
	if c.Log.Level != "" && !contains(LogLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	return errors.Join(errs...)
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
