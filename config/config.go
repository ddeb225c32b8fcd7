// Package config holds settings for the outer device layers: the DID method,
// the lcore node endpoint and logging.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values
const (
	DefaultMethod   = "lcore"
	DefaultNodeURL  = "http://localhost:8080"
	DefaultTimeout  = 10 * time.Second
	DefaultLogLevel = "info"
)

// Environment variable names
const (
	EnvMethod   = "LCORE_DID_METHOD"
	EnvNodeURL  = "LCORE_NODE_URL"
	EnvTimeout  = "LCORE_TIMEOUT"
	EnvLogLevel = "LCORE_LOG_LEVEL"
)

// Config holds the configuration for device operations.
type Config struct {
	Method   string        `yaml:"method"`
	NodeURL  string        `yaml:"nodeURL"`
	Timeout  time.Duration `yaml:"timeout"`
	LogLevel string        `yaml:"logLevel"`
}

// New creates a new Config instance with the provided values.
// If a value is empty/zero, it will use the default value.
// Pass an empty Config{} to use all defaults.
func New(cfg Config) *Config {
	result := &Config{
		Method:   DefaultMethod,
		NodeURL:  DefaultNodeURL,
		Timeout:  DefaultTimeout,
		LogLevel: DefaultLogLevel,
	}
	Merge(result, cfg)
	return result
}

// Merge copies the non-zero fields of src into dst.
func Merge(dst *Config, src Config) {
	if src.Method != "" {
		dst.Method = strings.ToLower(src.Method)
	}
	if src.NodeURL != "" {
		dst.NodeURL = strings.TrimRight(src.NodeURL, "/")
	}
	if src.Timeout > 0 {
		dst.Timeout = src.Timeout
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
}

// ApplyEnvOverrides overrides cfg from LCORE_* environment variables.
// Unparseable values are ignored.
func ApplyEnvOverrides(cfg *Config) {
	var env Config
	env.Method = os.Getenv(EnvMethod)
	env.NodeURL = os.Getenv(EnvNodeURL)
	env.LogLevel = os.Getenv(EnvLogLevel)
	if raw := os.Getenv(EnvTimeout); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			env.Timeout = d
		}
	}
	Merge(cfg, env)
}

// FromEnv returns the defaults overridden by the environment.
func FromEnv() *Config {
	cfg := New(Config{})
	ApplyEnvOverrides(cfg)
	return cfg
}

// LoadFromPath reads a YAML file, merges it over the defaults and applies the
// environment on top. An empty path skips the file.
func LoadFromPath(path string) (*Config, error) {
	cfg := New(Config{})
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		var parsed Config
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		Merge(cfg, parsed)
	}
	ApplyEnvOverrides(cfg)
	return cfg, nil
}
