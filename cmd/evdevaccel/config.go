package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration for evdevaccel.
//
// The four curve parameters are required and have no defaults; pointers let
// validation tell a missing field from an explicit zero. The file is read once
// at startup and never reloaded.
type Config struct {
	Sensitivity *float32 `toml:"sensitivity" yaml:"sensitivity"`
	Accel       *float32 `toml:"accel" yaml:"accel"`
	PreScale    *float32 `toml:"pre_scale" yaml:"pre_scale"`
	PostScale   *float32 `toml:"post_scale" yaml:"post_scale"`

	// Device selection
	Device DeviceConfig `toml:"device" yaml:"device"`

	// Logging
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
}

type DeviceConfig struct {
	Name string `toml:"name,omitempty" yaml:"name,omitempty"` // Exact device name; empty means interactive selection
}

type LoggingConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// DefaultConfig returns the optional sections filled with their defaults.
// Curve parameters stay unset on purpose.
func DefaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level: defaultLogLevel,
		},
	}
}

// LoadConfigFile reads and parses a config file. The format is chosen by
// extension: .toml (default) or .yaml/.yml. Unknown fields are rejected in
// both formats.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("decode config yaml: %w", err)
		}
		// Only whitespace/comments may follow the document.
		var extra yaml.Node
		if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
			return Config{}, errors.New("decode config yaml: unexpected trailing document")
		}
	default:
		dec := toml.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("decode config toml: %w", err)
		}
	}

	return cfg, nil
}

// FlagOverrides carries command-line values that take precedence over the
// file. A nil pointer means the flag was not given.
type FlagOverrides struct {
	DeviceName *string
	LogLevel   *string
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.DeviceName != nil {
		cfg.Device.Name = *o.DeviceName
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// Call it after the file and overrides are applied.
func (c *Config) Validate() error {
	fields := []struct {
		name      string
		v         *float32
		allowZero bool
	}{
		{"sensitivity", c.Sensitivity, false},
		{"accel", c.Accel, true},
		{"pre_scale", c.PreScale, false},
		{"post_scale", c.PostScale, false},
	}
	for _, f := range fields {
		if f.v == nil {
			return fmt.Errorf("%s is required", f.name)
		}
		v := float64(*f.v)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a finite number", f.name)
		}
		if f.allowZero && v < 0 {
			return fmt.Errorf("%s must be >= 0", f.name)
		}
		if !f.allowZero && v <= 0 {
			return fmt.Errorf("%s must be > 0", f.name)
		}
	}

	if _, err := parseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	return nil
}

// Curve converts a validated config into the immutable engine parameters.
func (c *Config) Curve() Curve {
	return Curve{
		Sensitivity: deref(c.Sensitivity),
		Accel:       deref(c.Accel),
		PreScale:    deref(c.PreScale),
		PostScale:   deref(c.PostScale),
	}
}

func deref(p *float32) float32 {
	if p == nil {
		return 0
	}
	return *p
}

// loadConfig runs the whole configuration stage: file, overrides, validation.
// Every failure is an ErrConfiguration.
func loadConfig(path string, overrides FlagOverrides) (Config, error) {
	cfg, err := LoadConfigFile(path)
	if err != nil {
		return Config{}, classify(ErrConfiguration, path, err)
	}
	overrides.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, classify(ErrConfiguration, path, err)
	}
	return cfg, nil
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" || p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
