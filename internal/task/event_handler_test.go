package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/musaabMD/expoiosweb/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvent(t *testing.T) *events.Event {
	t.Helper()
	event, err := events.NewEvent("test_event", map[string]string{"k": "v"}, time.Now())
	require.NoError(t, err)
	return event
}

func TestAsyncEventHandler_DeliversOnWorkerPool(t *testing.T) {
	logger := setupTestLogger()
	queue := NewTaskQueue(4, logger)
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 1}, logger)
	pool.Start()
	defer pool.Stop()

	delivered := make(chan *events.Event, 1)
	next := events.HandlerFunc(func(ctx context.Context, event *events.Event) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		delivered <- event
		return nil
	})

	h := NewAsyncEventHandler(next, queue, time.Second, logger)
	event := newTestEvent(t)
	require.NoError(t, h.HandleEvent(context.Background(), event))

	select {
	case got := <-delivered:
		assert.Same(t, event, got)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Timed out waiting for delivery")
	}
}

func TestAsyncEventHandler_QueueFull(t *testing.T) {
	logger := setupTestLogger()
	queue := NewTaskQueue(1, logger)
	next := events.HandlerFunc(func(ctx context.Context, event *events.Event) error { return nil })
	h := NewAsyncEventHandler(next, queue, 0, logger)

	require.NoError(t, h.HandleEvent(context.Background(), newTestEvent(t)))
	err := h.HandleEvent(context.Background(), newTestEvent(t))
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestAsyncEventHandler_QueueClosed(t *testing.T) {
	logger := setupTestLogger()
	queue := NewTaskQueue(1, logger)
	queue.Close()
	next := events.HandlerFunc(func(ctx context.Context, event *events.Event) error { return nil })
	h := NewAsyncEventHandler(next, queue, 0, logger)

	assert.ErrorIs(t, h.HandleEvent(context.Background(), newTestEvent(t)), ErrQueueClosed)
}

func TestEventDeliveryTask_WrapsError(t *testing.T) {
	want := errors.New("broker unavailable")
	task := &eventDeliveryTask{
		event: newTestEvent(t),
		next: events.HandlerFunc(func(ctx context.Context, event *events.Event) error {
			return want
		}),
		timeout: time.Second,
	}

	assert.Equal(t, TaskTypeEventDelivery, task.Type())
	err := task.Execute(context.Background())
	assert.ErrorIs(t, err, want)
}
