// Package config loads, normalizes, and validates mpd2mp4 configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file, and honours
// environment overrides such as MPD2MP4_FFMPEG. The Config type centralizes
// every knob the CLI needs so binary locations and output defaults are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
