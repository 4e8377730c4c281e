// Package config loads, normalizes, and validates orderbell configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ORDERBELL_BACKEND_URL and ORDERBELL_RESTAURANT_ID. The Config type
// centralizes every knob the daemon and CLI need: the order backend, polling
// cadence, alert channels, history storage, and broker fan-out.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
