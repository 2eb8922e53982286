// Package main hosts the stemstrip CLI entrypoint and command graph.
//
// The Cobra-based command tree turns a terminal invocation into one batch
// run: discover archives under the input path, schedule them across the
// worker pool, and print the run summary. Subcommands cover configuration
// scaffolding, external tool checks, and notification testing. It
// centralizes configuration resolution and logging setup so the heavy
// lifting stays in the internal packages.
package main
