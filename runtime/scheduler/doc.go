// Package scheduler provides the cooperative chunking primitives that turn a
// long iterative computation into bounded-size steps separated by yield
// points, so the run stays responsive and cancellable without every consumer
// re-implementing the yield/abort dance.
package scheduler
