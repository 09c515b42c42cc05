// Package table turns state snapshots into the ordered display rows the UI
// sink consumes.
//
// The projection:
//   - Resolves each logical column from a prioritized alias list, accepting
//     raw numerics or pre-rendered strings
//   - Parses display strings (markup, currency/grouping symbols, K/M/B/T
//     suffixes, parenthesized negatives)
//   - Sorts stably with missing values last regardless of direction and
//     locale-collated asset comparison
//   - Formats prices and monetary figures for display
//
// Sort state is owned by the caller and passed in as a pure parameter.
package table
