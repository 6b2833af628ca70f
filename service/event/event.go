// Package event publishes run lifecycle and progress events to a pluggable
// queue so hosts can journal or react to what the driver executes without
// coupling to its internals.
package event

import (
	"time"

	"github.com/cotask/cotask/internal/clock"
)

// Kind classifies a run event.
type Kind string

const (
	KindStarted   Kind = "started"
	KindProgress  Kind = "progress"
	KindCompleted Kind = "completed"
	KindAborted   Kind = "aborted"
	KindFailed    Kind = "failed"
)

// RunEvent is one journal entry about a task node within a run.
type RunEvent struct {
	RunID     string    `json:"runID"`
	TaskName  string    `json:"taskName"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message,omitempty"`
	Current   int64     `json:"current,omitempty"`
	Max       int64     `json:"max,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewRunEvent stamps a run event with the current time.
func NewRunEvent(runID, taskName string, kind Kind) *RunEvent {
	return &RunEvent{
		RunID:     runID,
		TaskName:  taskName,
		Kind:      kind,
		CreatedAt: clock.Now(),
	}
}
