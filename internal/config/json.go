package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/studentorg/dashsync/internal/flagx"
	"github.com/studentorg/dashsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "5m" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	BaseURL          string         `json:"base_url"`
	AuthToken        string         `json:"auth_token"`
	DatabasePath     string         `json:"database_path"`
	StaleAfter       timex.Duration `json:"stale_after"`
	PingInterval     timex.Duration `json:"ping_interval"`
	RequestTimeout   timex.Duration `json:"request_timeout"`
	ReplayBaseDelay  timex.Duration `json:"replay_base_delay"`
	ReplayMaxRetries uint64         `json:"replay_max_retries"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Behavior:
//   - Reads and unmarshals the JSON into JsonConfig.
//   - Copies known fields into the provided Config.
//   - Panics on read or unmarshal errors (caller should recover if desired).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
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

	cfg.BaseURL = jc.BaseURL
	cfg.AuthToken = jc.AuthToken
	cfg.DatabasePath = jc.DatabasePath
	cfg.StaleAfter = time.Duration(jc.StaleAfter.Duration)
	cfg.PingInterval = time.Duration(jc.PingInterval.Duration)
	cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	cfg.ReplayBaseDelay = time.Duration(jc.ReplayBaseDelay.Duration)
	cfg.ReplayMaxRetries = jc.ReplayMaxRetries
}
