// Package config loads the recorder demo configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultsSource marks a configuration that was not read from a file
const DefaultsSource = "<defaults>"

// Config captures the knobs of the recorder demo
type Config struct {
	Pool     PoolConfig     `yaml:"pool"`
	Recorder RecorderConfig `yaml:"recorder"`
	Logging  LoggingConfig  `yaml:"logging"`

	// Source is the file the configuration came from, or DefaultsSource
	Source string `yaml:"-"`
}

// PoolConfig sizes the thread pool.
type PoolConfig struct {
	// Workers is the number of workers; 0 means GOMAXPROCS
	Workers     int           `yaml:"workers"`
	StopTimeout time.Duration `yaml:"stop_timeout"`
}

// RecorderConfig sizes the rings and sets the poll cadence.
type RecorderConfig struct {
	PollInterval     time.Duration `yaml:"poll_interval"`
	MouseCapacity    int           `yaml:"mouse_capacity"`
	KeyboardCapacity int           `yaml:"keyboard_capacity"`
	Heartbeat        bool          `yaml:"heartbeat"`
}

// LoggingConfig defines log verbosity and formatting.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the baseline configuration used when no file is given.
func Default() Config {
	return Config{
		Pool: PoolConfig{
			Workers:     0,
			StopTimeout: 10 * time.Second,
		},
		Recorder: RecorderConfig{
			PollInterval:     250 * time.Microsecond,
			MouseCapacity:    64,
			KeyboardCapacity: 64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Source: DefaultsSource,
	}
}

// Load reads configuration from path. An empty path yields the defaults.
// Fields missing from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("config file %q not found", path)
		}
		return cfg, fmt.Errorf("open config file %q: %w", path, err)
	}
	defer file.Close()

	if err := Decode(file, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %q: %w", path, err)
	}
	cfg.Source = path
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode reads YAML from r into cfg, rejecting unknown keys
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}

// Validate ensures the configuration values are sensible.
func (c Config) Validate() error {
	if c.Pool.Workers < 0 {
		return fmt.Errorf("pool.workers must not be negative, got %d", c.Pool.Workers)
	}
	if c.Pool.StopTimeout <= 0 {
		return fmt.Errorf("pool.stop_timeout must be positive, got %v", c.Pool.StopTimeout)
	}
	if c.Recorder.PollInterval < 0 {
		return fmt.Errorf("recorder.poll_interval must not be negative, got %v", c.Recorder.PollInterval)
	}
	if c.Recorder.MouseCapacity <= 0 {
		return fmt.Errorf("recorder.mouse_capacity must be positive, got %d", c.Recorder.MouseCapacity)
	}
	if c.Recorder.KeyboardCapacity <= 0 {
		return fmt.Errorf("recorder.keyboard_capacity must be positive, got %d", c.Recorder.KeyboardCapacity)
	}
	if _, err := NormalizeLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if _, err := NormalizeFormat(c.Logging.Format); err != nil {
		return err
	}
	return nil
}

// NormalizeLogLevel lowercases level and checks it is supported
func NormalizeLogLevel(level string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error", "disabled":
		return normalized, nil
	case "":
		return "info", nil
	default:
		return "", fmt.Errorf("unsupported log level %q", level)
	}
}

// NormalizeFormat lowercases format and checks it is supported
func NormalizeFormat(format string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(format))
	switch normalized {
	case "json", "console":
		return normalized, nil
	case "":
		return "console", nil
	default:
		return "", fmt.Errorf("unsupported log format %q", format)
	}
}
