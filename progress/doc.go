// Package progress maintains the live progress tree for a single task run.
// Every running computation owns exactly one Node; child tasks attach their
// nodes underneath in spawn order and detach again when they complete.  The
// Progress wrapper around the root node is handed to observers and carries
// the sole external cancellation entry point, RequestAbort.
package progress
