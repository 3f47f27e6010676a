// Package api defines the JSON types shared by the daemon's HTTP surface
// and the CLI client, plus the converters from storage models to
// transport-friendly payloads.
package api
