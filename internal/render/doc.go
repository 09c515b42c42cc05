// Package render schedules table repaints from store notifications.
//
// The coordinator gates the first paint on both streams having reported,
// with a best-effort fallback deadline so the UI is never blank forever.
// After the first paint the cadence depends on the subscription tier:
// elite repaints on every store notification, free and pro repaint on a
// fixed interval with at most one extra hydration paint while data is
// still filling in. Bursts of triggers coalesce to a single paint through
// a generation counter checked at the frame boundary.
package render
