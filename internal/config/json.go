package config

import (
	"encoding/json"
	"os"

	"github.com/dkovalev/hubsync/internal/flagx"
	"github.com/dkovalev/hubsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "3s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config (which uses time.Duration).
type JsonConfig struct {
	APIBaseURL          string         `json:"api_base_url"`
	DatabasePath        string         `json:"database_path"`
	ImageCacheDir       string         `json:"image_cache_dir"`
	PageSize            int            `json:"page_size"`
	FetchRetries        int            `json:"fetch_retries"`
	FetchRetryDelay     timex.Duration `json:"fetch_retry_delay"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	ReconnectInterval   timex.Duration `json:"reconnect_interval"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags (flagx.JsonConfigFlags); if no path
// is given, nothing is loaded. Zero-valued JSON fields leave the existing
// Config values untouched, so a partial file only overrides what it names.
//
// Panics on read or unmarshal errors (caller should recover if desired).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.ImageCacheDir != "" {
		cfg.ImageCacheDir = jc.ImageCacheDir
	}
	if jc.PageSize > 0 {
		cfg.PageSize = jc.PageSize
	}
	if jc.FetchRetries > 0 {
		cfg.FetchRetries = jc.FetchRetries
	}
	if jc.FetchRetryDelay.Duration > 0 {
		cfg.FetchRetryDelay = jc.FetchRetryDelay.Duration
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.ReconnectInterval.Duration > 0 {
		cfg.ReconnectInterval = jc.ReconnectInterval.Duration
	}
}
