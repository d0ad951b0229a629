// Package config assembles runtime settings for hubsync from defaults, an
// optional JSON file, and command-line flags, in that order of precedence.
package config

import "time"

// Config holds runtime settings for the hubsync client.
//
// Fields:
//   - APIBaseURL: base URL of the remote directory API.
//   - DatabasePath: SQLite file holding the local record store.
//   - ImageCacheDir: directory for the on-disk image tier; "" means the
//     per-user cache directory is used.
//   - PageSize: records requested per listing page and chunk size for
//     batched upserts.
//   - FetchRetries: retry attempts for a failed remote request.
//   - FetchRetryDelay: initial backoff delay; doubles on every attempt.
//   - OnlineCheckInterval: how often the connectivity monitor probes the
//     API host.
//   - ReconnectInterval: how often the orchestrator re-checks connectivity
//     while waiting to resume a failed sync.
type Config struct {
	APIBaseURL          string
	DatabasePath        string
	ImageCacheDir       string
	PageSize            int
	FetchRetries        int
	FetchRetryDelay     time.Duration
	OnlineCheckInterval time.Duration
	ReconnectInterval   time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "https://api.github.com"
	c.DatabasePath = "hubsync.db"
	c.ImageCacheDir = ""
	c.PageSize = 15
	c.FetchRetries = 3
	c.FetchRetryDelay = time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.ReconnectInterval = 5 * time.Second
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
