// Package notifications delivers batch run events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. The Service interface covers run start, run completion, and
// per-archive failures so the CLI can emit consistent messages without
// duplicating HTTP glue.
//
// Extend this package if you need alternative transports; batch code depends
// only on the simple Service interface.
package notifications
