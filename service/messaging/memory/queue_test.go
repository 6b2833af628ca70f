package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID   string
	Body string
}

func TestQueue_PublishConsumeAck(t *testing.T) {
	queue := NewQueue[payload](DefaultConfig())
	require.NoError(t, queue.Publish(context.Background(), &payload{ID: "1", Body: "hello"}))

	msg, err := queue.Consume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.T().Body)
	require.NoError(t, msg.Ack())

	assert.Error(t, msg.Ack(), "double ack must be rejected")
	assert.Equal(t, 0, queue.Size())
}

func TestQueue_NackRequeues(t *testing.T) {
	config := DefaultConfig()
	config.RetryDelay = 5 * time.Millisecond
	queue := NewQueue[payload](config)
	require.NoError(t, queue.Publish(context.Background(), &payload{ID: "1"}))

	msg, err := queue.Consume(context.Background())
	require.NoError(t, err)
	require.NoError(t, msg.Nack(assert.AnError))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	retried, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", retried.T().ID)
}

func TestQueue_ExhaustedRetriesDeadLetter(t *testing.T) {
	config := Config{MaxRetries: 1, RetryDelay: time.Millisecond, DeadLetter: true, QueueBuffer: 4}
	queue := NewQueue[payload](config)
	require.NoError(t, queue.Publish(context.Background(), &payload{ID: "doomed"}))

	for i := 0; i < 2; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		msg, err := queue.Consume(ctx)
		cancel()
		require.NoError(t, err)
		require.NoError(t, msg.Nack(assert.AnError))
	}

	assert.Eventually(t, func() bool {
		return queue.DLQSize() == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, queue.Size())
}

func TestQueue_ConsumeHonoursContext(t *testing.T) {
	queue := NewQueue[payload](DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := queue.Consume(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
