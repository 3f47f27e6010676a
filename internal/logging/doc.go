// Package logging builds the daemon's slog loggers and standardizes the
// structured field vocabulary used across components.
//
// Console output targets interactive use; json output targets collection.
// Context helpers carry the artist and plan identifiers so every log line
// emitted while handling one artist can be correlated.
package logging
