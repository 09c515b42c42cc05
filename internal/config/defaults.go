package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultStreamURL        = "wss://fstream.binance.com/stream"
	DefaultReconnectBase    = 1 * time.Second
	DefaultReconnectMax     = 15 * time.Second
	DefaultReconnectJitter  = 500 * time.Millisecond
	DefaultMaxAttempts      = 10
	DefaultHandshakeTimeout = 10 * time.Second

	DefaultVolumeWindow    = 60
	DefaultSpikeBlockSize  = 10
	DefaultSpikeMinBlocks  = 3
	DefaultSpikeMultiplier = 3.0
	DefaultSuffix          = "USDT"
	DefaultLimit           = 200

	DefaultRefreshInterval  = 15 * time.Minute
	DefaultCoalesceInterval = 16 * time.Millisecond
	DefaultFallbackDeadline = 8 * time.Second
	DefaultMinReadyFraction = 0.4
	DefaultHydrationGainPct = 20.0

	DefaultServerAddr       = ":8080"
	DefaultClientSendBuffer = 16

	DefaultSessionTimeout = 10 * time.Second
)

// DefaultChannels are the two stream channels the core consumes.
var DefaultChannels = []string{"!ticker@arr", "!markPrice@arr"}

func (c *Config) applyDefaults() {
	// Stream defaults
	if c.Stream.URL == "" {
		c.Stream.URL = DefaultStreamURL
	}
	if len(c.Stream.Channels) == 0 {
		c.Stream.Channels = append([]string(nil), DefaultChannels...)
	}
	if c.Stream.ReconnectBase == 0 {
		c.Stream.ReconnectBase = DefaultReconnectBase
	}
	if c.Stream.ReconnectMax == 0 {
		c.Stream.ReconnectMax = DefaultReconnectMax
	}
	if c.Stream.ReconnectJitter == 0 {
		c.Stream.ReconnectJitter = DefaultReconnectJitter
	}
	if c.Stream.MaxAttempts == 0 {
		c.Stream.MaxAttempts = DefaultMaxAttempts
	}
	if c.Stream.HandshakeTimeout == 0 {
		c.Stream.HandshakeTimeout = DefaultHandshakeTimeout
	}

	// Store defaults
	if c.Store.VolumeWindow == 0 {
		c.Store.VolumeWindow = DefaultVolumeWindow
	}
	if c.Store.SpikeBlockSize == 0 {
		c.Store.SpikeBlockSize = DefaultSpikeBlockSize
	}
	if c.Store.SpikeMinBlocks == 0 {
		c.Store.SpikeMinBlocks = DefaultSpikeMinBlocks
	}
	if c.Store.SpikeMultiplier == 0 {
		c.Store.SpikeMultiplier = DefaultSpikeMultiplier
	}
	if c.Store.DefaultSuffix == "" {
		c.Store.DefaultSuffix = DefaultSuffix
	}
	if c.Store.DefaultLimit == 0 {
		c.Store.DefaultLimit = DefaultLimit
	}

	// Render defaults (Tier 0 is a valid value, so no default is applied)
	if c.Render.RefreshInterval == 0 {
		c.Render.RefreshInterval = DefaultRefreshInterval
	}
	if c.Render.CoalesceInterval == 0 {
		c.Render.CoalesceInterval = DefaultCoalesceInterval
	}
	if c.Render.FallbackDeadline == 0 {
		c.Render.FallbackDeadline = DefaultFallbackDeadline
	}
	if c.Render.MinReadyFraction == 0 {
		c.Render.MinReadyFraction = DefaultMinReadyFraction
	}
	if c.Render.HydrationGainPct == 0 {
		c.Render.HydrationGainPct = DefaultHydrationGainPct
	}

	// Server defaults
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.ClientSendBuffer == 0 {
		c.Server.ClientSendBuffer = DefaultClientSendBuffer
	}

	// Session defaults (URL stays empty: lookup is opt-in)
	if c.Session.Timeout == 0 {
		c.Session.Timeout = DefaultSessionTimeout
	}
}
