// Package store is the per-run outcome log backing a harness report.
//
// Each harness run opens its own SQLite database, normally ":memory:", records
// one row per completed example and reads the rows back in example order to
// build the report. Nothing outlives the run.
//
// # Ordering
//
// Examples may complete in any order when the harness runs them in parallel.
// Every row carries both the example id and a seq assigned by the store at
// insert time (1, 2, ... per run). ReadOutcomes is ORDER BY example_id so
// reports are reproducible; CompletionOrder is ORDER BY seq.
//
// # Database Configuration
//
//   - Single connection: ":memory:" databases are per-connection, and SQLite
//     allows one writer, so all writes are serialized through one conn
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Outcomes must reference a recorded run
package store
