// Package config loads, normalizes, and validates toneexport configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as TONEEXPORT_FFMPEG. The
// Config type centralizes every knob the exporter and CLI need so scratch,
// state, and tool locations are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
