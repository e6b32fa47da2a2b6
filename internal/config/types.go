package config

// Config is the on-disk configuration. JSON is the native format; YAML files
// are coerced to JSON before decoding so both go through the same strict
// decoder.
type Config struct {
	Discord   DiscordConfig   `json:"discord"`
	Logging   LoggingConfig   `json:"logging"`
	Storage   StorageConfig   `json:"storage"`
	API       APIConfig       `json:"api,omitempty"`
	Broadcast BroadcastConfig `json:"broadcast,omitempty"`
}

type DiscordConfig struct {
	Token string `json:"token"`
	// GuildID is the default guild for broadcasts submitted without one.
	GuildID string `json:"guild_id,omitempty"`
}

type LoggingConfig struct {
	Level   string `json:"level"`
	Console bool   `json:"console"`
	File    string `json:"file,omitempty"`
}

// StorageConfig selects the job/template store driver.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./herald_store" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// APIConfig controls the optional HTTP ingress. Disabled when the section is
// omitted or Enabled is false.
type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default: "127.0.0.1:3000"
	Key     string `json:"key,omitempty"`  // shared secret (do not log)

	// Server timeouts, Go duration strings.
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
}

// BroadcastConfig tunes delivery and submission guardrails. Zero values fall
// back to runtime defaults.
type BroadcastConfig struct {
	// DMRatePerSec paces the DM fan-out loop. Default 1.
	DMRatePerSec float64 `json:"dm_rate_per_sec,omitempty"`
	// Cooldown is the per-user gap between sends. Go duration string,
	// default "30s".
	Cooldown string `json:"cooldown,omitempty"`
	// DailyLimit caps sends per user per day. Default 30.
	DailyLimit int `json:"daily_limit,omitempty"`
	// Retention is how long finished jobs stay on disk. Default "168h".
	Retention string `json:"retention,omitempty"`
	// Grace is the boot re-arm staleness window. Default "60s".
	Grace string `json:"grace,omitempty"`
}
