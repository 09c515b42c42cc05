// Package store implements the AggregationStore component.
//
// The store:
//   - Ingests ticker and mark-price record batches from the message router
//   - Reconciles the two streams into one SymbolState per instrument
//   - Maintains per-symbol rolling volume-delta buffers and spike flags
//   - Notifies subscribers once per ingested batch, never per record
//   - Serves suffix-filtered, sorted symbol queries and spike snapshots
package store
