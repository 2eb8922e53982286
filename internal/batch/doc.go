// Package batch is the orchestration core: it discovers archive work items,
// decides which are already up to date, dispatches the rest across a
// bounded worker pool, and aggregates per-item outcomes into a run report.
//
// Failures are confined to the item they belong to. A malformed archive, a
// worker panic, or a cancellation mid-run each surface as that item's
// outcome; the pool itself keeps going, and every discovered item ends the
// run with exactly one outcome.
package batch
