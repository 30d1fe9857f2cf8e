// Package config loads and validates lantern.yaml, shared by the TUI
// client and the lanternd gateway.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lanternhq/lantern/pkg/core"
)

// Defaults applied by Load for zero-valued fields.
const (
	DefaultCapacity        = 500
	DefaultDebounceMs      = 50
	DefaultMaxDelayMs      = 1000
	DefaultIntervalMs      = 250
	DefaultRetryAttempts   = 10
	DefaultRetryDelayMs    = 1000
	DefaultFollowThreshold = 32
	DefaultListen          = "127.0.0.1:7070"
)

// Config is a lantern.yaml file. Client and daemon read the same file;
// the daemon only cares about Listen, Token, and Serve.
type Config struct {
	// Server is the gateway base address (http, https, ws, or wss).
	Server string `yaml:"server"`
	// Token is the bearer credential sent on stream connections and
	// checked by the daemon.
	Token string `yaml:"token"`
	// Sources are the selectable sources shown in the TUI. An empty ID
	// is the default/primary source.
	Sources []core.Source `yaml:"sources,omitempty"`

	// Client tuning.
	Capacity        int `yaml:"capacity,omitempty"`
	DebounceMs      int `yaml:"debounce_ms,omitempty"`
	MaxDelayMs      int `yaml:"max_delay_ms,omitempty"` // 0 keeps the default; -1 disables the ceiling
	IntervalMs      int `yaml:"interval_ms,omitempty"`
	RetryAttempts   int `yaml:"retry_attempts,omitempty"`
	RetryDelayMs    int `yaml:"retry_delay_ms,omitempty"`
	FollowThreshold int `yaml:"follow_threshold,omitempty"`

	// Daemon side.
	Listen string        `yaml:"listen,omitempty"`
	Serve  []ServeSource `yaml:"serve,omitempty"`
}

// ServeSource defines a log source served by lanternd.
type ServeSource struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name,omitempty"`
	Kind    string `yaml:"kind"` // file | journal
	Path    string `yaml:"path,omitempty"`
	Unit    string `yaml:"unit,omitempty"`
	Default bool   `yaml:"default,omitempty"`
}

// Default returns a config with all defaults applied.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Server == "" {
		c.Server = "http://" + DefaultListen
	}
	if c.Capacity == 0 {
		c.Capacity = DefaultCapacity
	}
	if c.DebounceMs == 0 {
		c.DebounceMs = DefaultDebounceMs
	}
	if c.MaxDelayMs == 0 {
		c.MaxDelayMs = DefaultMaxDelayMs
	}
	if c.IntervalMs == 0 {
		c.IntervalMs = DefaultIntervalMs
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = DefaultRetryAttempts
	}
	if c.RetryDelayMs == 0 {
		c.RetryDelayMs = DefaultRetryDelayMs
	}
	if c.FollowThreshold == 0 {
		c.FollowThreshold = DefaultFollowThreshold
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
}

// Load reads a config file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	c.applyDefaults()
	return &c, nil
}

// Save writes the config to path.
func Save(c *Config, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks the config for structural correctness.
func Validate(c *Config) []error {
	var errs []error

	if c.Capacity < 0 {
		errs = append(errs, fmt.Errorf("capacity must not be negative"))
	}
	if c.RetryAttempts < 0 {
		errs = append(errs, fmt.Errorf("retry_attempts must not be negative"))
	}

	seen := make(map[string]bool)
	defaults := 0
	for _, s := range c.Serve {
		if s.ID == "" {
			errs = append(errs, fmt.Errorf("serve source: id is required"))
			continue
		}
		if seen[s.ID] {
			errs = append(errs, fmt.Errorf("serve source %q: duplicate id", s.ID))
		}
		seen[s.ID] = true

		switch s.Kind {
		case "file":
			if s.Path == "" {
				errs = append(errs, fmt.Errorf("serve source %q (file): path is required", s.ID))
			}
		case "journal":
			if s.Unit == "" {
				errs = append(errs, fmt.Errorf("serve source %q (journal): unit is required", s.ID))
			}
		case "":
			errs = append(errs, fmt.Errorf("serve source %q: kind is required", s.ID))
		default:
			errs = append(errs, fmt.Errorf("serve source %q: unknown kind %q", s.ID, s.Kind))
		}

		if s.Default {
			defaults++
		}
	}
	if defaults > 1 {
		errs = append(errs, fmt.Errorf("at most one serve source may be default, got %d", defaults))
	}

	return errs
}
