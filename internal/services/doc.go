// Package services defines shared utilities consumed by the pipeline stages
// and external tool clients.
//
// Key responsibilities:
//   - Context helpers that stamp work item names, stage names, and run
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent across stages.
//   - Thin abstractions that make command execution and progress streaming from
//     external tools testable.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability, timeouts) stays uniform across the pipeline.
package services
