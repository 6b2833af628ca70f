// Package tracing is a thin wrapper around OpenTelemetry so the rest of the
// code base can open and close spans without importing the upstream packages
// directly.  Initialisation is optional; without it spans are no-ops.
package tracing
