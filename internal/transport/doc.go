// Package transport implements the StreamTransport component.
//
// The transport:
//   - Owns one multiplexed WebSocket connection carrying N named channels
//   - Delivers decoded {channel, payload} messages to registered listeners
//   - Self-heals on abnormal close with capped exponential backoff + jitter
//   - Goes terminally disconnected after exhausting the attempt budget
//     instead of failing the process
package transport
