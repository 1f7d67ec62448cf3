// Package tasks runs the multi-step operations behind the CLI and TUI with non-blocking progress reporting.
//
// # Optimistic Toggles
//
// [Toggler] implements the Watched/Watchlist update protocol:
//
//  1. Read the movie's current status from the [store.ListStatusStore]
//  2. Apply the optimistic target ([OptimisticTarget]): watched flips and clears the watchlist when set,
//     watchlist flips and leaves watched alone
//  3. Call the backend toggle endpoint
//  4. Apply the backend's authoritative status, or restore the status from step 1 and notify on failure
//
// Each toggle takes a per-movie request token. Overlapping toggles for one movie resolve to the newest
// request that has not failed; a response that no longer decides the status settles as [Superseded].
// When every overlapping request fails, the status from before the first one is restored. There are no
// retries.
//
// # Progress Reporting
//
// Operations accept an optional chan<- [ProgressUpdate]. Sends use select with default so a slow or
// absent reader never blocks an operation.
//
// # Export
//
// [Exporter.BulkExport] writes lists through the formatter package using a worker pool. Movie metadata
// lookups share a [rate.Limiter] and a manifest summarizing every list is written to the output directory.
package tasks
