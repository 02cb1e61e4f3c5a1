package config

import (
	"fmt"
	"time"
)

// Config represents a foundry.yaml configuration file.
// All values are optional and act as defaults for foundry assemble flags.
// CLI flags always override config values.
type Config struct {
	Project string        `yaml:"project"`
	Build   BuildConfig   `yaml:"build"`
	Sync    SyncConfig    `yaml:"sync"`
	Storage StorageConfig `yaml:"storage"`
	Adapter AdapterConfig `yaml:"adapter"`
}

// BuildConfig holds build orchestrator defaults from the config file.
type BuildConfig struct {
	InitTimeout   Duration `yaml:"init_timeout"`
	BundleTimeout Duration `yaml:"bundle_timeout"`
	SafetyTimeout Duration `yaml:"safety_timeout"`
}

// SyncConfig holds reconciliation defaults from the config file.
type SyncConfig struct {
	GracePeriod Duration `yaml:"grace_period"`
}

// StorageConfig holds snapshot storage defaults from the config file.
type StorageConfig struct {
	Backend     string `yaml:"backend"` // fs, s3, memory
	Dataset     string `yaml:"dataset"`
	Path        string `yaml:"path"`
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// AdapterConfig holds notification adapter defaults from the config file.
type AdapterConfig struct {
	Type    string            `yaml:"type"` // webhook, redis
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
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
