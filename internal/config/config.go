// Package config loads the feed sources, monitored stations and server
// settings. Configuration is read once at startup and never mutated.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Auth modes for a feed source
const (
	AuthNone   = "none"
	AuthAPIKey = "api-key"
	AuthBearer = "bearer"
)

// Feed is one GTFS-realtime endpoint
type Feed struct {
	Name string `yaml:"name" validate:"required"`
	URL  string `yaml:"url" validate:"required,url"`
	Auth string `yaml:"auth" validate:"omitempty,oneof=none api-key bearer"`
}

// Override reroutes every event of a route to a synthetic station
type Override struct {
	Route   string `yaml:"route" validate:"required"`
	Station string `yaml:"station" validate:"required,gt=3"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Port        int    `yaml:"port" validate:"gt=0,lt=65536"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Config is the root configuration
type Config struct {
	Server       ServerConfig  `yaml:"server"`
	APIKey       string        `yaml:"api_key"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" validate:"gt=0"`
	Stations     []string      `yaml:"stations" validate:"min=1,dive,len=3"`
	Overrides    []Override    `yaml:"overrides" validate:"dive"`
	Feeds        []Feed        `yaml:"feeds" validate:"min=1,dive"`
}

// DefaultFeeds are the NYC subway trip update feeds.
// The LIRR feed is opt-in: its numeric stop ids share the 3-character
// station space with subway ids, so only override routes are safe to read from it.
var DefaultFeeds = []Feed{
	{Name: "1234567S", URL: "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs"},
	{Name: "ACE", URL: "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-ace"},
	{Name: "BDFM", URL: "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-bdfm"},
	{Name: "NQRW", URL: "https://api-endpoint.mta.info/Dataservice/mtagtfsfeeds/nyct%2Fgtfs-nqrw"},
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server:       ServerConfig{Port: 8080},
		FetchTimeout: 10 * time.Second,
		// Chambers St, Atlantic Av, Jay St, W 4 St, Whitehall St
		Stations: []string{"137", "A36", "D24", "R31", "A41", "R29", "D20", "R27"},
		Overrides: []Override{
			{Route: "PW", Station: "LIRR_PENN"},
		},
		Feeds: append([]Feed(nil), DefaultFeeds...),
	}
}

// Load reads .env, then the YAML file at path over the defaults, then
// environment overrides, and validates the result.
// A missing file is not an error; the defaults are used.
func Load(path string) (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and rejects duplicate override routes
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	seen := make(map[string]bool, len(c.Overrides))
	for _, o := range c.Overrides {
		if seen[o.Route] {
			return fmt.Errorf("invalid config: duplicate override for route %s", o.Route)
		}
		seen[o.Route] = true
	}
	return nil
}

// OverrideTable returns the route -> synthetic station rules
func (c *Config) OverrideTable() map[string]string {
	table := make(map[string]string, len(c.Overrides))
	for _, o := range c.Overrides {
		table[o.Route] = o.Station
	}
	return table
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("MTA_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %q", v)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Server.MetricsAddr = v
	}
	if v := os.Getenv("FETCH_TIMEOUT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return fmt.Errorf("invalid FETCH_TIMEOUT_MS: %q", v)
		}
		cfg.FetchTimeout = time.Duration(ms) * time.Millisecond
	}
	return nil
}
