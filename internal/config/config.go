// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Source site
	SitemapURL    string `json:"sitemap_url,omitempty"`    // Sitemap listing all consultant pages
	ProfilePrefix string `json:"profile_prefix,omitempty"` // URL prefix identifying consultant pages
	SiteDomain    string `json:"site_domain,omitempty"`    // Own-domain family for external-link detection
	CareersHost   string `json:"careers_host,omitempty"`   // Careers subdomain, treated as own-domain

	// Booking provider
	BookingBaseURL  string `json:"booking_base_url,omitempty"`
	BookingKey      string `json:"booking_key,omitempty"`      // Subscription key header value
	BookingLimit    int    `json:"booking_limit,omitempty"`    // Global concurrent booking requests
	LookaheadDays   int    `json:"lookahead_days,omitempty"`   // Clinic-days listing span
	ScoringConfig   string `json:"scoring_config,omitempty"`   // Path to a scoring config JSON; empty uses defaults
	ProfileDelayMS  int    `json:"profile_delay_ms,omitempty"` // Politeness delay between profiles
	BookingDelayMS  int    `json:"booking_delay_ms,omitempty"` // Delay between booking calls and the next crawl
	CrawlTimeoutSec int    `json:"crawl_timeout_sec,omitempty"`

	// Behavior
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	Model       string `json:"model,omitempty"`        // Assessment model override
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	Verbose     bool   `json:"verbose,omitempty"`      // Print detailed debug information
	MaxProfiles int    `json:"max_profiles,omitempty"` // Cap on profiles per run (0 = all)
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.BookingLimit < 0 {
		return fmt.Errorf("config error: 'booking_limit' must be non-negative")
	}
	if c.LookaheadDays < 0 {
		return fmt.Errorf("config error: 'lookahead_days' must be non-negative")
	}
	if c.ProfileDelayMS < 0 || c.BookingDelayMS < 0 {
		return fmt.Errorf("config error: delays must be non-negative")
	}
	if c.MaxProfiles < 0 {
		return fmt.Errorf("config error: 'max_profiles' must be non-negative")
	}

	if c.ScoringConfig != "" {
		if _, err := os.Stat(c.ScoringConfig); os.IsNotExist(err) {
			return fmt.Errorf("config error: scoring config file not found: %s", c.ScoringConfig)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.SitemapURL == "" {
		result.SitemapURL = defaults.SitemapURL
	}
	if result.ProfilePrefix == "" {
		result.ProfilePrefix = defaults.ProfilePrefix
	}
	if result.SiteDomain == "" {
		result.SiteDomain = defaults.SiteDomain
	}
	if result.CareersHost == "" {
		result.CareersHost = defaults.CareersHost
	}
	if result.BookingBaseURL == "" {
		result.BookingBaseURL = defaults.BookingBaseURL
	}
	if result.BookingKey == "" {
		result.BookingKey = defaults.BookingKey
	}
	if result.ScoringConfig == "" {
		result.ScoringConfig = defaults.ScoringConfig
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	// Int fields: use default if zero
	if result.BookingLimit == 0 {
		result.BookingLimit = defaults.BookingLimit
	}
	if result.LookaheadDays == 0 {
		result.LookaheadDays = defaults.LookaheadDays
	}
	if result.ProfileDelayMS == 0 {
		result.ProfileDelayMS = defaults.ProfileDelayMS
	}
	if result.BookingDelayMS == 0 {
		result.BookingDelayMS = defaults.BookingDelayMS
	}
	if result.CrawlTimeoutSec == 0 {
		result.CrawlTimeoutSec = defaults.CrawlTimeoutSec
	}
	if result.MaxProfiles == 0 {
		result.MaxProfiles = defaults.MaxProfiles
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
