// Package config loads, normalizes, and validates stemstrip configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// STEMSTRIP_NTFY_TOPIC. The Config type centralizes every knob the CLI needs:
// staging and log directories, separation model and device policy, external
// tool binaries, and worker pool sizing.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
