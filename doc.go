// Package parstream computes a function over every element of a sequence
// using a bounded number of goroutines, delivering results to a consumer in
// input order regardless of how long each computation takes.
//
// It combines:
//   - one goroutine per item, spawned through errgroup, capped by a window
//   - a FIFO window of in-flight handles that makes ordering structural
//
// Core behavior:
//   - Run pulls items lazily, never holding more than limit in flight
//   - the consumer runs on the calling goroutine, strictly in input order
//   - the first worker or consumer error stops dispatch and aborts the run
//   - every already-dispatched worker is awaited before Run returns, even
//     on error, so no goroutine outlives the call
//
// Semantics:
//   - Run returns (n, nil) after delivering all n results
//   - Run returns (delivered, err) on the earliest-submitted failure; err
//     is a *StageError naming the stage and item index
//   - results computed for items at or past the failing index are discarded
//   - once ctx is done, dispatch stops and Run returns context.Cause(ctx)
//
// Ordering is free of a reorder buffer: the engine always awaits the front
// of the window before emitting a result or admitting new work. The price
// is head-of-line blocking, where a slow item delays delivery of finished
// results behind it.
//
// Policy options:
//   - WithPanicToError(true): report a worker panic as the run error (default)
//   - WithPanicToError(false): re-panic on the caller after the drain
package parstream
