// Package config loads server configuration from a YAML file with
// environment-variable overrides for credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied before the config file or environment are consulted.
const (
	DefaultSiteURL       = "https://www.rec.us/sfrecpark"
	DefaultCourt         = "DuPont"
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultOperatingYear = 2025

	// DefaultBrowserTTL bounds how long a launched browser is reused
	// before being torn down and replaced.
	DefaultBrowserTTL = 5 * time.Minute
)

// Config holds everything the booking server needs at startup.
type Config struct {
	// RecEmail and RecPassword are the rec.us account credentials used
	// by the booking flow's login step.
	RecEmail    string `yaml:"rec_email"`
	RecPassword string `yaml:"rec_password"`

	// AuthorizedEmails is the allow list for booking tools. Availability
	// checks and diagnostics are open to any caller.
	AuthorizedEmails []string `yaml:"authorized_emails"`

	// OpenAIKey enables natural-language availability summaries. When
	// empty the deterministic fallback template is used.
	OpenAIKey   string `yaml:"openai_key"`
	OpenAIModel string `yaml:"openai_model"`

	SiteURL      string `yaml:"site_url"`
	DefaultCourt string `yaml:"default_court"`

	// OperatingYear pins all booking dates; the site only takes
	// reservations inside it.
	OperatingYear int `yaml:"operating_year"`

	DBPath   string `yaml:"db_path"`
	Headless bool   `yaml:"headless"`

	BrowserTTL time.Duration `yaml:"browser_ttl"`
}

// Default returns a config populated with built-in defaults.
func Default() *Config {
	return &Config{
		SiteURL:       DefaultSiteURL,
		DefaultCourt:  DefaultCourt,
		OpenAIModel:   DefaultOpenAIModel,
		OperatingYear: DefaultOperatingYear,
		Headless:      true,
		BrowserTTL:    DefaultBrowserTTL,
	}
}

// Load reads the config file at path (if it exists) over the defaults,
// then applies environment overrides. A missing file is not an error;
// an unreadable or malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".recmcp", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()

	if cfg.DBPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DBPath = filepath.Join(homeDir, ".recmcp", "bookings.db")
	}
	if cfg.BrowserTTL <= 0 {
		cfg.BrowserTTL = DefaultBrowserTTL
	}
	if cfg.OperatingYear == 0 {
		cfg.OperatingYear = DefaultOperatingYear
	}

	return cfg, nil
}

// applyEnv overlays environment variables onto the config. Credentials
// are expected to arrive this way in deployed environments.
func (c *Config) applyEnv() {
	if v := os.Getenv("REC_EMAIL"); v != "" {
		c.RecEmail = v
	}
	if v := os.Getenv("REC_PASSWORD"); v != "" {
		c.RecPassword = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAIKey = v
	}
	if v := os.Getenv("AUTHORIZED_USER_EMAILS"); v != "" {
		c.AuthorizedEmails = splitEmails(v)
	}
}

// CanBook reports whether booking flows have the credentials they need.
func (c *Config) CanBook() bool {
	return c.RecEmail != "" && c.RecPassword != ""
}

func splitEmails(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, strings.ToLower(trimmed))
		}
	}
	return out
}
