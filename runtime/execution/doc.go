// Package execution holds the runtime core of a task run: the Task
// descriptor, the Context a running computation receives, and the Aborted
// error that distinguishes cooperative cancellation from ordinary failure.
//
// Cancellation is strictly cooperative.  The framework only observes an
// abort request at explicit checkpoints (Update, Checkpoint, RunChild and
// the scheduler's chunk boundaries); code that never reaches a checkpoint
// runs to completion regardless of any pending request.
package execution
