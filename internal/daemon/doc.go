// Package daemon hosts the long-running atelierd process: it enforces
// single-instance execution with a lock file, runs the engine's background
// loops, and serves the HTTP API the CLI talks to.
package daemon
