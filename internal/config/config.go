// Package config holds the run configuration and its file format.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/go-scripts/pathcrawl/internal/fetch"
	"github.com/go-scripts/pathcrawl/internal/links"
)

// Configuration holds all the settings for a search run
type Configuration struct {
	Start           string        `yaml:"start"`
	Target          string        `yaml:"target"`
	MaxDepth        int           `yaml:"max_depth"`
	Concurrency     int           `yaml:"concurrency"`
	BaseURL         string        `yaml:"base_url"`
	UserAgent       string        `yaml:"user_agent"`
	Timeout         time.Duration `yaml:"timeout"`
	Render          bool          `yaml:"render"`
	WaitTime        time.Duration `yaml:"wait_time"`
	SubstringMatch  bool          `yaml:"substring_match"`
	ExcludePrefixes []string      `yaml:"exclude_prefixes"`
	OutputFile      string        `yaml:"output_file"`
	LogLevel        string        `yaml:"log_level"`
}

// ConfigError describes one invalid setting
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Default returns the configuration used when nothing else is given
func Default() Configuration {
	return Configuration{
		Start:           "Tomato",
		Target:          "Adolf_Hitler",
		MaxDepth:        6,
		Concurrency:     50,
		BaseURL:         fetch.DefaultBaseURL,
		UserAgent:       fetch.DefaultUserAgent,
		ExcludePrefixes: append([]string(nil), links.DefaultExclude...),
		LogLevel:        "info",
	}
}

// Load reads a YAML file on top of the defaults. A missing file yields the defaults.
func Load(path string) (Configuration, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration and returns every problem found
func (c Configuration) Validate() error {
	var errs []error

	if c.Start == "" {
		errs = append(errs, &ConfigError{Field: "start", Reason: "must not be empty"})
	}
	if c.Target == "" {
		errs = append(errs, &ConfigError{Field: "target", Reason: "must not be empty"})
	}
	if c.MaxDepth < 1 {
		errs = append(errs, &ConfigError{Field: "max_depth", Reason: fmt.Sprintf("must be at least 1, got %d", c.MaxDepth)})
	}
	if c.Concurrency < 1 {
		errs = append(errs, &ConfigError{Field: "concurrency", Reason: fmt.Sprintf("must be at least 1, got %d", c.Concurrency)})
	}
	if c.Timeout < 0 {
		errs = append(errs, &ConfigError{Field: "timeout", Reason: "must not be negative"})
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, &ConfigError{Field: "base_url", Reason: fmt.Sprintf("%q is not an absolute URL", c.BaseURL)})
		}
	}
	if c.LogLevel != "" {
		if _, err := log.ParseLevel(c.LogLevel); err != nil {
			errs = append(errs, &ConfigError{Field: "log_level", Reason: err.Error()})
		}
	}

	return errors.Join(errs...)
}

// Host returns the host name of the base URL
func (c Configuration) Host() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
