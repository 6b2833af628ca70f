package scheduler

import (
	"time"

	"github.com/cotask/cotask/runtime/execution"
)

// ChunkedSubtask repeatedly invokes processChunk with the current chunk size
// until it consumes fewer units than requested, which by convention signals
// end of input.  Every chunk boundary is a cooperative checkpoint: a pending
// abort terminates the loop with an Aborted error and the partially advanced
// state.  The report callback runs once per chunk with the caller-owned
// state; the scheduler attaches no meaning to progress itself, it only
// provides the checkpoint.
//
// Chunking is observationally transparent: for any chunk size >= 1 the final
// state matches a single uninterrupted pass over the same processChunk
// logic.
func ChunkedSubtask[S any](ctx *execution.Context, chunkSize int64, state S,
	processChunk func(chunkSize int64, state S) int64,
	report func(ctx *execution.Context, state S) error) (S, error) {

	if chunkSize < 1 {
		chunkSize = 1
	}
	for {
		if err := ctx.Checkpoint(); err != nil {
			return state, err
		}
		processed := processChunk(chunkSize, state)
		if report != nil {
			if err := report(ctx, state); err != nil {
				return state, err
			}
		}
		if processed < chunkSize {
			return state, nil
		}
	}
}

// Delay suspends cooperatively for d without doing chunked work.  It honours
// the same abort-visibility contract as Update: an abort requested while
// sleeping wakes the call immediately and it returns Aborted.
func Delay(ctx *execution.Context, d time.Duration) error {
	if err := ctx.Checkpoint(); err != nil {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	case <-ctx.Tree().AbortSignal():
	}
	return ctx.Checkpoint()
}
