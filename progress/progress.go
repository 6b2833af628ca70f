package progress

import (
	"context"
	"sync"
)

// Progress wraps the root node of one run's progress tree.  It is owned by
// the driver for the duration of a single run; the run's observer receives
// it on every tick and may call RequestAbort at any time.
type Progress struct {
	root *Node

	mu       sync.Mutex
	aborted  bool
	abortCh  chan struct{}
	onChange func(Snapshot)
}

// New creates a progress tree with a single root node for the named task.
func New(taskName string) *Progress {
	return &Progress{
		root:    newNode(taskName),
		abortCh: make(chan struct{}),
	}
}

// Root returns the root node of the tree.
func (p *Progress) Root() *Node {
	return p.root
}

// Snapshot returns a deep copy of the whole tree.
func (p *Progress) Snapshot() Snapshot {
	return p.root.Snapshot()
}

// RequestAbort asks the running computation to stop cooperatively.  The
// request propagates immediately to every live node so each checkpoint has a
// local flag to read.  The call is idempotent: the first reason wins and
// subsequent calls are no-ops.
func (p *Progress) RequestAbort(reason string) {
	p.mu.Lock()
	if p.aborted {
		p.mu.Unlock()
		return
	}
	p.aborted = true
	p.mu.Unlock()
	// Propagate the per-node flags before waking channel waiters so a woken
	// checkpoint always observes its local flag set.
	p.root.requestAbort(reason)
	close(p.abortCh)
}

// AbortRequested reports whether an abort has been requested, together with
// the recorded reason.
func (p *Progress) AbortRequested() (string, bool) {
	return p.root.Aborted()
}

// AbortSignal returns a channel closed on the first RequestAbort.  Suspension
// primitives (Delay, queue waits) select on it so an abort interrupts them
// without polling.
func (p *Progress) AbortSignal() <-chan struct{} {
	return p.abortCh
}

// OnChange registers a callback invoked with a fresh tree snapshot on every
// emitted progress update.  Only one callback can be active; passing nil
// disables it.  The callback runs on the updating goroutine and must return
// promptly.
func (p *Progress) OnChange(cb func(Snapshot)) {
	p.mu.Lock()
	p.onChange = cb
	p.mu.Unlock()
}

// Notify invokes the registered OnChange callback, if any, with a snapshot
// taken outside the tree's locks.
func (p *Progress) Notify() {
	p.mu.Lock()
	cb := p.onChange
	p.mu.Unlock()
	if cb != nil {
		cb(p.Snapshot())
	}
}

type progressKeyT struct{}

var progressKey progressKeyT

// WithProgress embeds the tree in a derived context so that consumer code
// far from the execution context can still reach it.
func WithProgress(ctx context.Context, p *Progress) context.Context {
	return context.WithValue(ctx, progressKey, p)
}

// FromContext extracts the tree from ctx.  The second return value is false
// when the context carries none.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(progressKey).(*Progress)
	return p, ok
}

// ContextKey returns the key under which WithProgress stores the tree.  The
// execution context uses it to answer Value lookups without deriving a new
// context per child task.
func ContextKey() any {
	return progressKey
}
