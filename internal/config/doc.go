// Package config loads, normalizes, and validates reel configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// REEL_FFPROBE. The Config type centralizes the output format, release
// thresholds, and graph sizing used by export and playback so a session can
// be assembled from one value.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
