package cotask

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cotask/cotask/internal/idgen"
	"github.com/cotask/cotask/progress"
	"github.com/cotask/cotask/runtime/execution"
	"github.com/cotask/cotask/service/event"
	"github.com/cotask/cotask/tracing"
)

// Run executes a root task to completion and returns its value, an Aborted
// error carrying the abort reason, or the computation's own failure
// unchanged.  Each call builds an independent progress tree; the driver
// never retries.
func Run[T any](ctx context.Context, task *execution.Task[T], opts ...Option) (T, error) {
	return Start(ctx, task, opts...).Wait(0)
}

// Start launches the run asynchronously and returns a handle to await it.
func Start[T any](ctx context.Context, task *execution.Task[T], opts ...Option) *Handle[T] {
	o := &runOptions{updateInterval: execution.DefaultUpdateInterval}
	for _, opt := range opts {
		opt(o)
	}

	runID := idgen.New()
	tree := progress.New(task.Name())
	spanCtx, span := tracing.StartSpan(ctx, "run "+task.Name(), "INTERNAL")
	span.WithAttributes(map[string]string{"run.id": runID})

	ectx := execution.NewContext(spanCtx, tree,
		execution.WithUpdateInterval(o.updateInterval),
		execution.WithMonitor(eventMonitor(o.events, runID)))

	h := &Handle[T]{
		taskName: task.Name(),
		tree:     tree,
		done:     make(chan struct{}),
	}
	go h.run(ectx, task, o, runID, span)
	return h
}

// Handle tracks one in-flight run.
type Handle[T any] struct {
	taskName string
	tree     *progress.Progress
	done     chan struct{}
	value    T
	err      error
}

func (h *Handle[T]) run(ectx *execution.Context, task *execution.Task[T], o *runOptions, runID string, span *tracing.Span) {
	defer close(h.done)

	monitor := eventMonitor(o.events, runID)
	if monitor != nil {
		monitor(execution.TaskStateRunning, h.tree.Snapshot(), nil)
	}

	taskDone := make(chan struct{})
	g := &errgroup.Group{}
	g.Go(func() error {
		defer close(taskDone)
		h.value, h.err = execution.Execute(ectx, task)
		return nil
	})
	if o.observer != nil || o.events != nil {
		g.Go(func() error {
			h.observe(o, runID, taskDone)
			return nil
		})
	}
	_ = g.Wait()

	tracing.EndSpan(span, h.err)
	if monitor != nil {
		monitor(execution.StateOf(h.err), h.tree.Snapshot(), h.err)
	}
}

// observe drives the throttled observer loop until the task settles.
func (h *Handle[T]) observe(o *runOptions, runID string, taskDone <-chan struct{}) {
	ticker := time.NewTicker(o.updateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-taskDone:
			return
		case <-ticker.C:
			if o.observer != nil {
				o.observer(h.tree)
			}
			if o.events != nil {
				snap := h.tree.Snapshot()
				ev := event.NewRunEvent(runID, snap.TaskName, event.KindProgress)
				ev.Message = snap.Message
				ev.Current, ev.Max = snap.Current, snap.Max
				if err := o.events.Publish(context.Background(), ev); err != nil {
					log.Printf("run %s: failed to publish progress event: %v", runID, err)
				}
			}
		}
	}
}

// Wait blocks until the run settles.  A positive timeout bounds the wait;
// zero or negative waits indefinitely.
func (h *Handle[T]) Wait(timeout time.Duration) (T, error) {
	if timeout <= 0 {
		<-h.done
		return h.value, h.err
	}
	select {
	case <-h.done:
		return h.value, h.err
	case <-time.After(timeout):
		var zero T
		return zero, fmt.Errorf("run %q: timed out after %s", h.taskName, timeout)
	}
}

// Done returns a channel closed when the run settles.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Progress returns the run's live progress wrapper.
func (h *Handle[T]) Progress() *progress.Progress {
	return h.tree
}

// Abort requests cooperative cancellation of the run.
func (h *Handle[T]) Abort(reason string) {
	h.tree.RequestAbort(reason)
}

// eventMonitor adapts the event journal to the execution monitor hook.  A
// nil service yields a nil monitor so the hot path pays nothing.
func eventMonitor(events *event.Service, runID string) execution.Monitor {
	if events == nil {
		return nil
	}
	return func(state execution.TaskState, snap progress.Snapshot, err error) {
		ev := event.NewRunEvent(runID, snap.TaskName, kindOf(state))
		ev.Message = snap.Message
		ev.Current, ev.Max = snap.Current, snap.Max
		if reason, ok := execution.AbortReason(err); ok {
			ev.Reason = reason
		} else if err != nil {
			ev.Error = err.Error()
		}
		if pErr := events.Publish(context.Background(), ev); pErr != nil {
			log.Printf("run %s: failed to publish %s event: %v", runID, ev.Kind, pErr)
		}
	}
}

func kindOf(state execution.TaskState) event.Kind {
	switch state {
	case execution.TaskStateRunning:
		return event.KindStarted
	case execution.TaskStateSucceeded:
		return event.KindCompleted
	case execution.TaskStateAborted:
		return event.KindAborted
	case execution.TaskStateFailed:
		return event.KindFailed
	}
	return event.Kind(state)
}
