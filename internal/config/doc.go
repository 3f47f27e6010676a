// Package config loads, validates, and normalizes the atelier configuration.
//
// Configuration lives in a TOML file (default ~/.config/atelier/config.toml).
// Load applies repository defaults first, then file values, then path
// expansion and validation, so callers always receive a complete, usable
// Config. Policy knobs for the compliance engine (grace period, cycle length,
// per-cycle requirement) live here so the scanner and processor stay free of
// hard-coded policy.
package config
