package execution

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cotask/cotask/internal/clock"
	"github.com/cotask/cotask/progress"
)

func newTestContext(opts ...Option) (*Context, *progress.Progress) {
	tree := progress.New("root")
	return NewContext(context.Background(), tree, opts...), tree
}

func TestContext_UpdateMergesAndYields(t *testing.T) {
	ctx, tree := newTestContext()
	require.NoError(t, ctx.Update(progress.Update{Message: "reading", Current: 1, Max: 10}))
	require.NoError(t, ctx.Update(progress.Update{Current: 5}))

	snap := tree.Snapshot()
	assert.Equal(t, "reading", snap.Message)
	assert.EqualValues(t, 5, snap.Current)
	assert.EqualValues(t, 10, snap.Max)
}

func TestContext_UpdateObservesAbort(t *testing.T) {
	ctx, tree := newTestContext()
	tree.RequestAbort("stop now")

	err := ctx.Update(progress.Update{Message: "late"})
	require.Error(t, err)
	reason, ok := AbortReason(err)
	require.True(t, ok)
	assert.Equal(t, "stop now", reason)

	// The merge still happened before the checkpoint failed.
	assert.Equal(t, "late", tree.Snapshot().Message)
}

func TestContext_CancelledHostContextBecomesAbort(t *testing.T) {
	hostCtx, cancel := context.WithCancel(context.Background())
	tree := progress.New("root")
	ctx := NewContext(hostCtx, tree)
	cancel()

	err := ctx.Checkpoint()
	require.True(t, IsAborted(err))
	_, requested := tree.AbortRequested()
	assert.True(t, requested)
}

func TestContext_EmissionThrottle(t *testing.T) {
	base := time.Unix(1000, 0)
	now := base
	clock.NowFunc = func() time.Time { return now }
	defer func() { clock.NowFunc = time.Now }()

	ctx, tree := newTestContext(WithUpdateInterval(100 * time.Millisecond))
	var emissions int
	tree.OnChange(func(progress.Snapshot) { emissions++ })

	require.NoError(t, ctx.Update(progress.Update{Message: "a"}))
	assert.Equal(t, 1, emissions)

	// Within the interval: merged but not emitted.
	now = base.Add(50 * time.Millisecond)
	assert.False(t, ctx.ShouldUpdate())
	require.NoError(t, ctx.Update(progress.Update{Message: "b"}))
	assert.Equal(t, 1, emissions)
	assert.Equal(t, "b", tree.Snapshot().Message)

	// ForceUpdate bypasses the throttle.
	require.NoError(t, ctx.ForceUpdate(progress.Update{Message: "c"}))
	assert.Equal(t, 2, emissions)

	// After the interval the next update emits again.
	now = now.Add(150 * time.Millisecond)
	assert.True(t, ctx.ShouldUpdate())
	require.NoError(t, ctx.UpdateMessage("d"))
	assert.Equal(t, 3, emissions)
}

func TestRunChild_ComposesResults(t *testing.T) {
	ctx, tree := newTestContext()

	childA := NewTask("a", func(c *Context) (int, error) {
		require.NoError(t, c.UpdateMessage("a running"))
		return 2, nil
	})
	childB := NewTask("b", func(c *Context) (int, error) {
		return 3, nil
	})

	var midRunChildren int
	parent := NewTask("parent", func(c *Context) (int, error) {
		a, err := RunChild(c, childA)
		if err != nil {
			return 0, err
		}
		b, err := RunChild(c, childB)
		if err != nil {
			return 0, err
		}
		midRunChildren = c.Node().ChildCount()
		return a + b, nil
	})

	out, err := Execute(ctx, parent)
	require.NoError(t, err)
	assert.Equal(t, 5, out)
	// Children detach as they complete.
	assert.Equal(t, 0, midRunChildren)
	assert.Equal(t, 0, tree.Root().ChildCount())
}

func TestRunChild_AttachesDuringExecution(t *testing.T) {
	ctx, tree := newTestContext()
	child := NewTask("child", func(c *Context) (struct{}, error) {
		assert.Equal(t, 1, tree.Root().ChildCount())
		assert.Equal(t, "child", tree.Snapshot().Children[0].TaskName)
		return struct{}{}, nil
	})
	_, err := RunChild(ctx, child)
	require.NoError(t, err)
	assert.Equal(t, 0, tree.Root().ChildCount())
}

func TestRunChild_AbortInvokesOnAbortOnce(t *testing.T) {
	ctx, tree := newTestContext()

	var cleanups int
	child := NewTask("child", func(c *Context) (int, error) {
		tree.RequestAbort("cancelled")
		return 0, c.Checkpoint()
	}, WithOnAbort[int](func() { cleanups++ }))

	_, err := RunChild(ctx, child)
	require.True(t, IsAborted(err))
	assert.Equal(t, 1, cleanups)
}

func TestRunChild_FailureSkipsOnAbort(t *testing.T) {
	ctx, _ := newTestContext()

	var cleanups int
	boom := errors.New("boom")
	child := NewTask("child", func(c *Context) (int, error) {
		return 0, boom
	}, WithOnAbort[int](func() { cleanups++ }))

	_, err := RunChild(ctx, child)
	require.ErrorIs(t, err, boom)
	assert.False(t, IsAborted(err))
	assert.Equal(t, 0, cleanups)
}

func TestRunChild_PreStartAbort(t *testing.T) {
	ctx, tree := newTestContext()
	tree.RequestAbort("too late")

	started := false
	child := NewTask("child", func(c *Context) (int, error) {
		started = true
		return 1, nil
	})
	_, err := RunChild(ctx, child)
	require.True(t, IsAborted(err))
	assert.False(t, started)
	assert.Equal(t, 0, tree.Root().ChildCount())
}

func TestRunChild_CleanupUnwindsLeafFirst(t *testing.T) {
	ctx, tree := newTestContext()

	var order []string
	inner := NewTask("inner", func(c *Context) (int, error) {
		tree.RequestAbort("unwind")
		return 0, c.Checkpoint()
	}, WithOnAbort[int](func() { order = append(order, "inner") }))

	outer := NewTask("outer", func(c *Context) (int, error) {
		return RunChild(c, inner)
	}, WithOnAbort[int](func() { order = append(order, "outer") }))

	_, err := Execute(ctx, outer)
	require.True(t, IsAborted(err))
	assert.Equal(t, []string{"inner", "outer"}, order)
}

func TestContext_CarriesProgressValue(t *testing.T) {
	ctx, tree := newTestContext()
	got, ok := progress.FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, tree, got)
}

func TestContext_Monitor(t *testing.T) {
	type transition struct {
		state TaskState
		task  string
	}
	var seen []transition
	ctx, _ := newTestContext(WithMonitor(func(state TaskState, snap progress.Snapshot, err error) {
		seen = append(seen, transition{state: state, task: snap.TaskName})
	}))

	child := NewTask("child", func(c *Context) (int, error) { return 1, nil })
	_, err := RunChild(ctx, child)
	require.NoError(t, err)

	assert.Equal(t, []transition{
		{state: TaskStateRunning, task: "child"},
		{state: TaskStateSucceeded, task: "child"},
	}, seen)
}
