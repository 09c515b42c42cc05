package config

import "time"

// Config is the root configuration for a dashboard instance.
type Config struct {
	Stream  StreamConfig  `yaml:"stream"`
	Store   StoreConfig   `yaml:"store"`
	Render  RenderConfig  `yaml:"render"`
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
}

// StreamConfig holds WebSocket transport settings.
type StreamConfig struct {
	URL              string        `yaml:"url"`               // Combined-stream endpoint base (e.g. wss://fstream.binance.com/stream)
	Channels         []string      `yaml:"channels"`          // Named channels multiplexed on the single connection
	ReconnectBase    time.Duration `yaml:"reconnect_base"`    // Backoff base (doubles per attempt)
	ReconnectMax     time.Duration `yaml:"reconnect_max"`     // Backoff cap
	ReconnectJitter  time.Duration `yaml:"reconnect_jitter"`  // Uniform jitter added to each wait
	MaxAttempts      int           `yaml:"max_attempts"`      // Consecutive failures before giving up
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"` // Dial handshake deadline
}

// StoreConfig holds aggregation and spike-detection settings. The spike
// threshold numbers are empirical, so they stay configurable.
type StoreConfig struct {
	VolumeWindow    int     `yaml:"volume_window"`    // Per-symbol delta buffer capacity
	SpikeBlockSize  int     `yaml:"spike_block_size"` // Samples per historical block
	SpikeMinBlocks  int     `yaml:"spike_min_blocks"` // Completed blocks required before evaluating
	SpikeMultiplier float64 `yaml:"spike_multiplier"` // Flag when window sum >= multiplier * median block sum
	DefaultSuffix   string  `yaml:"default_suffix"`   // Symbol suffix filter for queries
	DefaultLimit    int     `yaml:"default_limit"`    // Row cap for queries
}

// RenderConfig holds repaint cadence settings. Tier and RefreshInterval are
// supplied by the session/tier lookup service at startup.
type RenderConfig struct {
	Tier             int           `yaml:"tier"`               // 0 = free, 1 = pro, 2 = elite
	RefreshInterval  time.Duration `yaml:"refresh_interval"`   // Free/Pro repaint interval
	CoalesceInterval time.Duration `yaml:"coalesce_interval"`  // Frame boundary for paint coalescing
	FallbackDeadline time.Duration `yaml:"fallback_deadline"`  // Best-effort first paint deadline
	MinReadyFraction float64       `yaml:"min_ready_fraction"` // Symbol completeness threshold at the deadline
	HydrationGainPct float64       `yaml:"hydration_gain_pct"` // Completeness gain (points) allowing one extra paint
}

// SessionConfig holds session/tier lookup settings. An empty URL skips the
// lookup and the configured render tier applies directly.
type SessionConfig struct {
	URL     string        `yaml:"url"`     // Session service base URL
	Token   string        `yaml:"token"`   // Bearer token (supports ${ENV} expansion)
	Timeout time.Duration `yaml:"timeout"` // Per-request timeout
}

// ServerConfig holds dashboard hub settings.
type ServerConfig struct {
	Addr             string `yaml:"addr"`               // HTTP listen address
	ClientSendBuffer int    `yaml:"client_send_buffer"` // Per-client outbound queue; slow clients past this are dropped
}
