// Package config handles configuration for the sync client, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the dashboard sync client.
//
// Fields:
//   - BaseURL: base URL of the remote PocketBase instance.
//   - AuthToken: bearer token sent on every remote request.
//   - DatabasePath: SQLite file backing the local replica. Empty means the
//     replica is disabled and all reads go straight to the remote.
//   - StaleAfter: replica age beyond which a read triggers a refresh.
//   - PingInterval: how often the connectivity monitor probes the remote.
//   - RequestTimeout: per-request HTTP timeout.
//   - ReplayBaseDelay / ReplayMaxRetries: backoff settings for replaying
//     queued offline changes.
//
// Units: all interval fields are time.Duration values.
type Config struct {
	BaseURL          string
	AuthToken        string
	DatabasePath     string
	StaleAfter       time.Duration
	PingInterval     time.Duration
	RequestTimeout   time.Duration
	ReplayBaseDelay  time.Duration
	ReplayMaxRetries uint64
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "http://127.0.0.1:8090"
	c.DatabasePath = "dashsync.db"
	c.StaleAfter = 5 * time.Minute
	c.PingInterval = 15 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.ReplayBaseDelay = 500 * time.Millisecond
	c.ReplayMaxRetries = 4
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
