package transport

import "time"

// backoffDelay returns the pre-jitter wait before reconnect attempt n
// (0-based): min(base << n, limit).
func backoffDelay(attempt int, base, limit time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 62 {
		return limit
	}
	d := base << uint(attempt)
	if d <= 0 || d > limit {
		return limit
	}
	return d
}
