// Package config assembles runtime settings for the portal CLI from, in
// order of increasing precedence: built-in defaults, environment variables
// (with optional .env file), a JSON config file, and command-line flags.
package config

import "time"

// Config holds runtime settings for the portal CLI.
type Config struct {
	// APIBaseURL is the root of the portal REST API, e.g.
	// "http://localhost:5000/api". Endpoint paths are appended to it.
	APIBaseURL string

	// RequestTimeout bounds every outbound request.
	RequestTimeout time.Duration

	// PollInterval is how often the notification reconciler refetches.
	PollInterval time.Duration

	// DatabaseDSN is the sqlite file holding persisted client state.
	DatabaseDSN string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:5000/api"
	c.RequestTimeout = 30 * time.Second
	c.PollInterval = 30 * time.Second
	c.DatabaseDSN = "portal.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the environment, a JSON file (if given) and command-line flags.
// Later sources take precedence.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJSON(cfg)
	parseFlags(cfg)
	return cfg
}
