// Package config loads, normalizes, and validates steno configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as STENO_SERVER_URL and
// STENO_API_TOKEN. The Config type gathers every knob the CLI and the sync
// engine need: where the transcription backend lives, how often to poll it,
// where local state (speaker overrides, preferences) is persisted, and how
// output is displayed and logged.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enum values, and clear validation errors.
package config
