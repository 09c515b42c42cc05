// Package tier resolves the subscription tier and refresh interval from the
// session service at startup.
//
// The lookup happens once: the dashboard core never re-checks mid-session.
// Transient service errors are retried with exponential backoff; a hard
// failure leaves the caller free to fall back to configured defaults.
package tier
