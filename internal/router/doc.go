// Package router decodes transport frames into typed record batches and
// feeds them to the aggregation store.
//
// The router:
//   - Maps channel names to the ticker / mark-price decoders
//   - Skips malformed individual records without aborting their batch
//   - Makes one store ingest call per frame, matching the store's
//     one-notification-per-batch contract
//   - Tracks received/routed/skip counters for observability
package router
