// Package model defines shared data types used across the dashboard core.
//
// Conventions:
//   - Prices and volumes: float64; NaN marks a field no stream has populated yet
//   - Nullable stream fields (mark price, funding rate): *float64, nil until seen
//   - Timestamps: time.Time, local receive time
package model
