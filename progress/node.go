package progress

import (
	"sync"
	"time"

	"github.com/cotask/cotask/internal/clock"
)

// Update describes a partial progress change.  Unset fields leave the
// previous value in place: an empty Message keeps the old message, Max > 0
// switches the node to determinate progress and installs the range,
// Indeterminate clears it again.
type Update struct {
	Message       string
	Current       int64
	Max           int64
	Indeterminate bool
}

// Node is one entry of the live progress tree.  It is safe for concurrent
// use; the run's observer reads snapshots while the owning computation
// mutates the node.
type Node struct {
	mu             sync.RWMutex
	taskName       string
	message        string
	current        int64
	max            int64
	indeterminate  bool
	startedAt      time.Time
	children       []*Node
	abortRequested bool
	abortReason    string
}

// Snapshot is a deep value copy of a node subtree, suitable for read-only
// inspection outside the tree's locks.
type Snapshot struct {
	TaskName       string     `json:"taskName"`
	Message        string     `json:"message,omitempty"`
	Current        int64      `json:"current,omitempty"`
	Max            int64      `json:"max,omitempty"`
	Indeterminate  bool       `json:"indeterminate,omitempty"`
	StartedAt      time.Time  `json:"startedAt"`
	AbortRequested bool       `json:"abortRequested,omitempty"`
	AbortReason    string     `json:"abortReason,omitempty"`
	Children       []Snapshot `json:"children,omitempty"`
}

func newNode(taskName string) *Node {
	return &Node{
		taskName:      taskName,
		indeterminate: true,
		startedAt:     clock.Now(),
	}
}

// TaskName returns the immutable task label of this node.
func (n *Node) TaskName() string {
	return n.taskName
}

// NewChild creates a node for a spawned child task and appends it in spawn
// order.  A child created after an abort was requested inherits the abort
// flag so its first checkpoint fails locally.
func (n *Node) NewChild(taskName string) *Node {
	child := newNode(taskName)
	n.mu.Lock()
	child.abortRequested = n.abortRequested
	child.abortReason = n.abortReason
	n.children = append(n.children, child)
	n.mu.Unlock()
	return child
}

// RemoveChild detaches a completed child so the live tree shape reflects
// current activity only.
func (n *Node) RemoveChild(child *Node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

// ChildCount returns the number of currently attached children.
func (n *Node) ChildCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.children)
}

// Apply merges the update into the node.
func (n *Node) Apply(u Update) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if u.Message != "" {
		n.message = u.Message
	}
	switch {
	case u.Indeterminate:
		n.indeterminate = true
		n.current, n.max = 0, 0
	case u.Max > 0:
		n.indeterminate = false
		n.current, n.max = u.Current, u.Max
	case u.Current > 0 && !n.indeterminate:
		n.current = u.Current
	}
}

// Aborted reports whether an abort has been requested for this node and, if
// so, the reason recorded with the first request.
func (n *Node) Aborted() (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.abortReason, n.abortRequested
}

// requestAbort marks this node and every currently attached descendant.
// The caller (Progress.RequestAbort) guarantees it runs at most once per
// tree, so the first reason wins for every node.
func (n *Node) requestAbort(reason string) {
	n.mu.Lock()
	if n.abortRequested {
		n.mu.Unlock()
		return
	}
	n.abortRequested = true
	n.abortReason = reason
	children := append([]*Node(nil), n.children...)
	n.mu.Unlock()
	for _, child := range children {
		child.requestAbort(reason)
	}
}

// Snapshot copies the node subtree under its locks.
func (n *Node) Snapshot() Snapshot {
	n.mu.RLock()
	s := Snapshot{
		TaskName:       n.taskName,
		Message:        n.message,
		Current:        n.current,
		Max:            n.max,
		Indeterminate:  n.indeterminate,
		StartedAt:      n.startedAt,
		AbortRequested: n.abortRequested,
		AbortReason:    n.abortReason,
	}
	children := append([]*Node(nil), n.children...)
	n.mu.RUnlock()
	if len(children) > 0 {
		s.Children = make([]Snapshot, 0, len(children))
		for _, child := range children {
			s.Children = append(s.Children, child.Snapshot())
		}
	}
	return s
}

// Fraction returns current/max, or 0 when the node is indeterminate.
func (s Snapshot) Fraction() float64 {
	if s.Indeterminate || s.Max == 0 {
		return 0
	}
	return float64(s.Current) / float64(s.Max)
}
