package execution

// Task is a reusable, declarative description of a named asynchronous
// computation.  A Task value holds no mutable state; every run receives its
// own progress node and Context, so the same value may be executed any
// number of times, concurrently or not.
type Task[T any] struct {
	name    string
	run     func(*Context) (T, error)
	onAbort func()
}

// TaskOption customises a Task at construction time.
type TaskOption[T any] func(*Task[T])

// WithOnAbort registers a cleanup callback invoked exactly once per run iff
// that run terminates with an Abort.  Ordinary failures never trigger it;
// callers needing generic cleanup use their own scoped-resource discipline
// inside run.
func WithOnAbort[T any](fn func()) TaskOption[T] {
	return func(t *Task[T]) {
		t.onAbort = fn
	}
}

// NewTask creates a task descriptor.  It performs no work.
func NewTask[T any](name string, run func(*Context) (T, error), opts ...TaskOption[T]) *Task[T] {
	t := &Task[T]{name: name, run: run}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the task's immutable human-readable label.
func (t *Task[T]) Name() string {
	return t.name
}

// Execute runs the task's computation against the supplied context and
// settles its outcome: on Abort the task's cleanup callback fires before the
// error is handed to the caller, so unwinding proceeds leaf-first through
// nested RunChild calls.
func Execute[T any](ctx *Context, t *Task[T]) (T, error) {
	out, err := t.run(ctx)
	if err != nil && IsAborted(err) && t.onAbort != nil {
		t.onAbort()
	}
	return out, err
}
