package execution

// TaskState represents the lifecycle state of one task node.
type TaskState string

const (
	TaskStateCreated   TaskState = "created"
	TaskStateRunning   TaskState = "running"
	TaskStateSucceeded TaskState = "succeeded"
	TaskStateAborted   TaskState = "aborted"
	TaskStateFailed    TaskState = "failed"
)

// Terminal reports whether the state is final.  A terminal task never
// transitions again; retrying requires a fresh run.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskStateSucceeded, TaskStateAborted, TaskStateFailed:
		return true
	}
	return false
}

// StateOf classifies a finished run's outcome.
func StateOf(err error) TaskState {
	switch {
	case err == nil:
		return TaskStateSucceeded
	case IsAborted(err):
		return TaskStateAborted
	default:
		return TaskStateFailed
	}
}
