// Package config loads, normalizes, and validates TransSRT configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GEMINI_API_KEY and OPENAI_API_KEY. The Config type centralizes every knob the
// daemon and CLI need, so chunk sizes, concurrency limits, retry backoff, and
// engine credentials are discovered in one pass and handed to constructors as a
// value rather than read from the process environment at call sites.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical language codes, and clear validation errors.
package config
