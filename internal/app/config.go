package app

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Constants
const (
	// ICS constants
	ICSProdID          = "-//ts-subscribe//TeamSnap Filtered Feed//EN"
	ICSDomain          = "ts-subscribe"
	CanceledMarker     = "** CANCELED **"
	DefaultTeamName    = "TeamSnap"
	DefaultTimezone    = "UTC"
	CalendarNameSuffix = " (Attending)"

	DefaultCacheTTLSeconds = 300
	DefaultListen          = ":8080"

	// Error messages
	ErrMissingTeamID  = "Missing required query parameter: team_id"
	ErrForbidden      = "Forbidden"
	ErrInternalServer = "Internal server error"
	NotFoundHint      = "Not found. Use /api/calendar?team_id=YOUR_TEAM_ID"
)

// Config holds the service settings. Secrets (TeamSnap OAuth material, feed
// key hash) never live in the config file; they come from the environment
// and the auth file and are attached by main.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// TeamName is the display name used in titles and the calendar name.
	// When empty it is fetched from the TeamSnap API per team, falling back
	// to a generic name.
	TeamName string `yaml:"team_name"`

	// Timezone is the IANA zone the whole document is expressed in
	// (e.g. "Asia/Hong_Kong"). Unknown or empty zones fall back to UTC.
	Timezone string `yaml:"timezone"`

	// CacheTTLSeconds is the feed cache freshness window, also advertised
	// as the response max-age.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`

	// LogLevel is a logrus level name ("debug", "info", ...).
	LogLevel string `yaml:"log_level"`

	// KeyHash is the Argon2id hash of the shared feed key, loaded from the
	// auth file by main. Empty means the feed is served without a key check.
	KeyHash string `yaml:"-"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:          DefaultListen,
		Timezone:        DefaultTimezone,
		CacheTTLSeconds: DefaultCacheTTLSeconds,
		LogLevel:        "info",
	}
}

// Normalize fills missing or out-of-range values with defaults so that
// partially filled config files still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.CacheTTLSeconds <= 0 {
		c.CacheTTLSeconds = DefaultCacheTTLSeconds
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// LoadConfig reads the YAML config at path. An empty path or a missing file
// yields the defaults; a present but unreadable or invalid file is an error.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}
