package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Stream.URL == "" {
		return errors.New("stream.url is required")
	}
	if !strings.HasPrefix(c.Stream.URL, "ws://") && !strings.HasPrefix(c.Stream.URL, "wss://") {
		return fmt.Errorf("stream.url must be a ws:// or wss:// URL, got %q", c.Stream.URL)
	}
	if len(c.Stream.Channels) != 2 {
		return fmt.Errorf("stream.channels must name the ticker and mark-price channels, got %d", len(c.Stream.Channels))
	}
	if c.Stream.ReconnectBase <= 0 {
		return errors.New("stream.reconnect_base must be positive")
	}
	if c.Stream.ReconnectMax < c.Stream.ReconnectBase {
		return errors.New("stream.reconnect_max must be >= stream.reconnect_base")
	}
	if c.Stream.MaxAttempts < 1 {
		return errors.New("stream.max_attempts must be >= 1")
	}

	if c.Store.VolumeWindow < 1 {
		return errors.New("store.volume_window must be >= 1")
	}
	if c.Store.SpikeBlockSize < 1 {
		return errors.New("store.spike_block_size must be >= 1")
	}
	if c.Store.SpikeBlockSize > c.Store.VolumeWindow {
		return fmt.Errorf("store.spike_block_size (%d) cannot exceed store.volume_window (%d)",
			c.Store.SpikeBlockSize, c.Store.VolumeWindow)
	}
	if c.Store.SpikeMinBlocks < 1 {
		return errors.New("store.spike_min_blocks must be >= 1")
	}
	if c.Store.SpikeMultiplier <= 0 {
		return errors.New("store.spike_multiplier must be positive")
	}
	if c.Store.DefaultLimit < 1 {
		return errors.New("store.default_limit must be >= 1")
	}

	if c.Render.Tier < 0 || c.Render.Tier > 2 {
		return fmt.Errorf("render.tier must be 0, 1, or 2, got %d", c.Render.Tier)
	}
	if c.Render.RefreshInterval <= 0 {
		return errors.New("render.refresh_interval must be positive")
	}
	if c.Render.CoalesceInterval <= 0 {
		return errors.New("render.coalesce_interval must be positive")
	}
	if c.Render.FallbackDeadline <= 0 {
		return errors.New("render.fallback_deadline must be positive")
	}
	if c.Render.MinReadyFraction < 0 || c.Render.MinReadyFraction > 1 {
		return fmt.Errorf("render.min_ready_fraction must be in [0, 1], got %g", c.Render.MinReadyFraction)
	}
	if c.Render.HydrationGainPct < 0 || c.Render.HydrationGainPct > 100 {
		return fmt.Errorf("render.hydration_gain_pct must be in [0, 100], got %g", c.Render.HydrationGainPct)
	}

	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.ClientSendBuffer < 1 {
		return errors.New("server.client_send_buffer must be >= 1")
	}

	if c.Session.URL != "" {
		if !strings.HasPrefix(c.Session.URL, "http://") && !strings.HasPrefix(c.Session.URL, "https://") {
			return fmt.Errorf("session.url must be an http:// or https:// URL, got %q", c.Session.URL)
		}
		if c.Session.Timeout <= 0 {
			return errors.New("session.timeout must be positive")
		}
	}

	return nil
}
