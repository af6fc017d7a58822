// Package config holds runtime settings for the Notex client and loads them
// from, in order of increasing precedence: defaults, a JSON file, environment
// variables, and command-line flags.
package config

import "time"

// Config holds runtime settings for the Notex CLI.
//
// Fields:
//   - APIBaseURL: base URL of the Notex HTTP API, including the /api prefix.
//   - DatabasePath: filesystem path of the on-device SQLite store.
//   - RequestTimeout: per-request HTTP timeout.
type Config struct {
	APIBaseURL     string        `envconfig:"API_BASE_URL"`
	DatabasePath   string        `envconfig:"DATABASE_PATH"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:3000/api"
	c.DatabasePath = "notex.db"
	c.RequestTimeout = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if a config file is given), the environment, and command-line
// flags. Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
