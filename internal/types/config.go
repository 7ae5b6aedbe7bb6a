package types

// ServerConfig is the YAML-loaded configuration for the SKEIN HTTP
// surface and its ambient subsystems (SPEC_FULL.md §0.3).
type ServerConfig struct {
	ListenAddr          string `yaml:"listen_addr"`
	WorktreesRootOverride string `yaml:"worktrees_root_override,omitempty"`
	StaleDays           int    `yaml:"stale_days"`
	MinGitVersion       string `yaml:"min_git_version"`
	NATS                NATSConfig `yaml:"nats"`
	RateLimit           RateLimitConfig `yaml:"rate_limit"`
}

// NATSConfig controls the optional embedded fan-out bus.
type NATSConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// RateLimitConfig controls the per-project token-bucket limiter.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// DefaultServerConfig returns sensible defaults used when no config
// file is present, mirroring the teacher's "missing config is not
// fatal" convention.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:    ":7744",
		StaleDays:     7,
		MinGitVersion: "2.38.0",
		NATS: NATSConfig{
			Enabled: true,
			Port:    4222,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
		},
	}
}

// WSMessage envelopes a live-feed notification sent to connected
// websocket clients (ambient real-time layer, never the record of truth).
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Live-feed message type constants.
const (
	WSTypeThreadAppended = "thread_appended"
	WSTypeYieldCreated   = "yield_created"
	WSTypeFolioUpdated   = "folio_updated"
)
