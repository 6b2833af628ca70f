package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cotask/cotask/progress"
	"github.com/cotask/cotask/runtime/execution"
)

type lineState struct {
	total     int64
	processed int64
}

func processLines(chunkSize int64, state *lineState) int64 {
	remaining := state.total - state.processed
	if remaining > chunkSize {
		remaining = chunkSize
	}
	state.processed += remaining
	return remaining
}

func newTestContext() (*execution.Context, *progress.Progress) {
	tree := progress.New("root")
	return execution.NewContext(context.Background(), tree), tree
}

func TestChunkedSubtask_Transparency(t *testing.T) {
	testCases := []struct {
		name      string
		total     int64
		chunkSize int64
	}{
		{"single chunk covers input", 10, 100},
		{"exact multiple", 100, 10},
		{"ragged tail", 105, 10},
		{"chunk of one", 17, 1},
		{"empty input", 0, 10},
		{"chunk size clamped to one", 9, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, _ := newTestContext()
			state, err := ChunkedSubtask(ctx, tc.chunkSize, &lineState{total: tc.total}, processLines, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.total, state.processed)
		})
	}
}

func TestChunkedSubtask_ReportsPerChunk(t *testing.T) {
	ctx, _ := newTestContext()
	var reports []int64
	_, err := ChunkedSubtask(ctx, 10, &lineState{total: 35}, processLines,
		func(c *execution.Context, state *lineState) error {
			reports = append(reports, state.processed)
			return c.ForceUpdate(progress.Update{Current: state.processed, Max: state.total})
		})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20, 30, 35}, reports)
}

func TestChunkedSubtask_AbortBoundedOvershoot(t *testing.T) {
	ctx, tree := newTestContext()
	tree.OnChange(func(s progress.Snapshot) {
		if s.Fraction() >= 0.5 {
			tree.RequestAbort("halfway is enough")
		}
	})

	state, err := ChunkedSubtask(ctx, 100_000, &lineState{total: 1_000_000}, processLines,
		func(c *execution.Context, s *lineState) error {
			return c.ForceUpdate(progress.Update{Current: s.processed, Max: s.total})
		})
	require.True(t, execution.IsAborted(err))
	reason, _ := execution.AbortReason(err)
	assert.Equal(t, "halfway is enough", reason)
	assert.GreaterOrEqual(t, state.processed, int64(500_000))
	assert.LessOrEqual(t, state.processed, int64(600_000))
}

func TestChunkedSubtask_AbortBeforeFirstChunk(t *testing.T) {
	ctx, tree := newTestContext()
	tree.RequestAbort("never mind")
	state, err := ChunkedSubtask(ctx, 10, &lineState{total: 100}, processLines, nil)
	require.True(t, execution.IsAborted(err))
	assert.EqualValues(t, 0, state.processed)
}

func TestDelay_Completes(t *testing.T) {
	ctx, _ := newTestContext()
	started := time.Now()
	require.NoError(t, Delay(ctx, 30*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(started), 30*time.Millisecond)
}

func TestDelay_AbortWakesEarly(t *testing.T) {
	ctx, tree := newTestContext()
	go func() {
		time.Sleep(20 * time.Millisecond)
		tree.RequestAbort("wake up")
	}()
	started := time.Now()
	err := Delay(ctx, 5*time.Second)
	elapsed := time.Since(started)
	require.True(t, execution.IsAborted(err))
	assert.Less(t, elapsed, time.Second)
}

func TestDelay_CancelledContext(t *testing.T) {
	hostCtx, cancel := context.WithCancel(context.Background())
	tree := progress.New("root")
	ctx := execution.NewContext(hostCtx, tree)
	cancel()
	err := Delay(ctx, 5*time.Second)
	require.True(t, execution.IsAborted(err))
}
