// Package config loads, normalizes, and validates tunely configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HF_TOKEN for the diarizer and TUNELY_S3_ACCESS_KEY for publishing. The
// Config type centralizes every knob the daemon and CLI need, including the
// karaoke style set and speaker mapping, so style references are checked once
// at load time instead of when the first song is rendered.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
