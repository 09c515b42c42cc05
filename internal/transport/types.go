package transport

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrStopped is returned by Start after Stop has been called.
var ErrStopped = errors.New("transport stopped")

// State is the connection state, owned solely by the transport and surfaced
// read-only to subscribers.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosing
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Message is a decoded frame from the multiplexed stream.
type Message struct {
	Channel    string          // Stream name the frame arrived on
	Payload    json.RawMessage // Channel-specific body, decoded downstream
	ReceivedAt time.Time       // Local timestamp when the frame was read
}

// frame is the wire envelope on the combined-stream endpoint.
type frame struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// Config configures the transport.
type Config struct {
	URL              string        // Combined-stream endpoint base
	Channels         []string      // Channel names joined onto the URL
	ReconnectBase    time.Duration // Backoff base (doubles per attempt)
	ReconnectMax     time.Duration // Backoff cap
	ReconnectJitter  time.Duration // Uniform jitter in [0, ReconnectJitter)
	MaxAttempts      int           // Consecutive failures before terminal disconnect
	HandshakeTimeout time.Duration // Dial handshake deadline
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ReconnectBase:    1 * time.Second,
		ReconnectMax:     15 * time.Second,
		ReconnectJitter:  500 * time.Millisecond,
		MaxAttempts:      10,
		HandshakeTimeout: 10 * time.Second,
	}
}
