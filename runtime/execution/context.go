package execution

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/cotask/cotask/internal/clock"
	"github.com/cotask/cotask/progress"
	"github.com/cotask/cotask/tracing"
)

// DefaultUpdateInterval is the minimum wall-clock interval between emitted
// progress updates when none is configured.
const DefaultUpdateInterval = 250 * time.Millisecond

// Monitor observes lifecycle transitions of task nodes within one run.  The
// driver uses it to feed the event journal.
type Monitor func(state TaskState, snapshot progress.Snapshot, err error)

// Context is the handle a running computation uses to report progress, yield
// cooperatively, observe cancellation and spawn child tasks.  It embeds the
// caller's context.Context, so deadlines and values flow through unchanged;
// cancellation of the embedded context surfaces as an Abort at the next
// checkpoint.
type Context struct {
	context.Context
	tree        *progress.Progress
	node        *progress.Node
	minInterval time.Duration
	lastEmit    *atomic.Int64
	monitor     Monitor
}

// Option customises a Context at construction time.
type Option func(*Context)

// WithUpdateInterval sets the minimum interval between emitted progress
// updates.  A non-positive value keeps the default.
func WithUpdateInterval(d time.Duration) Option {
	return func(c *Context) {
		if d > 0 {
			c.minInterval = d
		}
	}
}

// WithMonitor attaches a lifecycle monitor inherited by every child context.
func WithMonitor(m Monitor) Option {
	return func(c *Context) {
		c.monitor = m
	}
}

// NewContext creates the root execution context for one run over the
// supplied progress tree.
func NewContext(ctx context.Context, tree *progress.Progress, opts ...Option) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	c := &Context{
		Context:     ctx,
		tree:        tree,
		node:        tree.Root(),
		minInterval: DefaultUpdateInterval,
		lastEmit:    &atomic.Int64{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Value resolves the progress tree key locally, delegating everything else
// to the embedded context.
func (c *Context) Value(key any) any {
	if key == progress.ContextKey() {
		return c.tree
	}
	return c.Context.Value(key)
}

// Tree returns the run's progress tree.
func (c *Context) Tree() *progress.Progress {
	return c.tree
}

// Node returns the progress node owned by this context.
func (c *Context) Node() *progress.Node {
	return c.node
}

// ShouldUpdate reports whether enough wall-clock time has elapsed since the
// last emitted update to justify another one.  Tight loops use it as a cheap
// pre-check so most iterations skip Update entirely.
func (c *Context) ShouldUpdate() bool {
	return clock.Now().UnixNano()-c.lastEmit.Load() >= int64(c.minInterval)
}

// Checkpoint is the bare cooperative suspension point: it observes a pending
// abort request (returning Aborted) and otherwise yields the processor so
// other work can interleave.
func (c *Context) Checkpoint() error {
	if err := c.abortErr(); err != nil {
		return err
	}
	runtime.Gosched()
	return nil
}

// Update merges the given fields into the owned progress node and passes a
// checkpoint.  Emission of the merged state to observers is throttled to the
// configured interval; the merge itself always happens.
func (c *Context) Update(u progress.Update) error {
	return c.update(u, false)
}

// ForceUpdate is Update with the throttle bypassed.
func (c *Context) ForceUpdate(u progress.Update) error {
	return c.update(u, true)
}

// UpdateMessage is shorthand for Update with only a message change.
func (c *Context) UpdateMessage(message string) error {
	return c.update(progress.Update{Message: message}, false)
}

func (c *Context) update(u progress.Update, force bool) error {
	c.node.Apply(u)
	if force || c.ShouldUpdate() {
		c.lastEmit.Store(clock.Now().UnixNano())
		c.tree.Notify()
	}
	return c.Checkpoint()
}

func (c *Context) abortErr() error {
	if reason, ok := c.node.Aborted(); ok {
		return &Aborted{Reason: reason}
	}
	if err := c.Context.Err(); err != nil {
		// A cancelled host context is cooperative cancellation too; record
		// it on the tree so every other live checkpoint sees it.
		c.tree.RequestAbort(err.Error())
		reason, _ := c.node.Aborted()
		return &Aborted{Reason: reason}
	}
	return nil
}

// fork derives a context for a child node.  The child gets its own throttle
// clock; everything else is inherited.
func (c *Context) fork(ctx context.Context, node *progress.Node) *Context {
	return &Context{
		Context:     ctx,
		tree:        c.tree,
		node:        node,
		minInterval: c.minInterval,
		lastEmit:    &atomic.Int64{},
		monitor:     c.monitor,
	}
}

// RunChild executes a child task under the current node.  The child's
// progress node is attached in spawn order and detached when the child
// settles; the child's outcome (value, Abort or failure) propagates to the
// caller unchanged.  Siblings spawned from separate goroutines run
// concurrently; the framework never serialises them.
func RunChild[T any](c *Context, t *Task[T]) (T, error) {
	var zero T
	if err := c.abortErr(); err != nil {
		return zero, err
	}
	node := c.node.NewChild(t.Name())
	spanCtx, span := tracing.StartSpan(c.Context, "task "+t.Name(), "INTERNAL")
	child := c.fork(spanCtx, node)
	c.notify(TaskStateRunning, node, nil)
	out, err := Execute(child, t)
	c.node.RemoveChild(node)
	tracing.EndSpan(span, err)
	c.notify(StateOf(err), node, err)
	return out, err
}

func (c *Context) notify(state TaskState, node *progress.Node, err error) {
	if c.monitor != nil {
		c.monitor(state, node.Snapshot(), err)
	}
}
