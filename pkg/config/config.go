package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pario-ai/rex/pkg/remote"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// DefaultModel is used until a model is saved with the credential.
const DefaultModel = "deepseek/deepseek-r1-0528-qwen3-8b:free"

// Config holds all rex configuration.
type Config struct {
	Listen  string        `yaml:"listen"`
	Storage StorageConfig `yaml:"storage"`
	Remote  RemoteConfig  `yaml:"remote"`
	Tracker TrackerConfig `yaml:"tracker"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects where the brain and credential blobs live.
// Path is a database file for sqlite and a directory for file.
type StorageConfig struct {
	Backend string      `yaml:"backend"`
	Path    string      `yaml:"path"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// RemoteConfig configures the chat-completion endpoint.
// A zero Timeout means requests never time out.
type RemoteConfig struct {
	URL          string        `yaml:"url"`
	DefaultModel string        `yaml:"default_model"`
	Source       string        `yaml:"source"`
	MaxTokens    int           `yaml:"max_tokens"`
	Temperature  float64       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
}

// TrackerConfig controls token usage tracking.
type TrackerConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	OutputPath string `yaml:"output_path"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: "127.0.0.1:8085",
		Storage: StorageConfig{
			Backend: BackendSQLite,
			Path:    "rex.db",
			Redis: RedisConfig{
				Addr:   "127.0.0.1:6379",
				Prefix: "rex:",
			},
		},
		Remote: RemoteConfig{
			URL:          remote.DefaultURL,
			DefaultModel: DefaultModel,
			Source:       remote.DefaultSource,
			MaxTokens:    remote.DefaultMaxTokens,
			Temperature:  remote.DefaultTemperature,
		},
		Tracker: TrackerConfig{
			Enabled: true,
			DBPath:  "rex.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns Default() when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendFile, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend != BackendRedis && c.Storage.Backend != BackendMemory && c.Storage.Path == "" {
		return fmt.Errorf("config: storage.path is required for %s", c.Storage.Backend)
	}
	if c.Remote.URL == "" {
		return fmt.Errorf("config: remote.url is required")
	}
	if c.Remote.MaxTokens <= 0 {
		return fmt.Errorf("config: remote.max_tokens must be positive")
	}
	if c.Remote.Timeout < 0 {
		return fmt.Errorf("config: remote.timeout must not be negative")
	}
	return nil
}
