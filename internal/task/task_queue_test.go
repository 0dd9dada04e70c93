package task

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// funcTask is a Task backed by a function.
type funcTask struct {
	id uuid.UUID
	fn func(ctx context.Context) error
}

func newFuncTask(fn func(ctx context.Context) error) *funcTask {
	return &funcTask{id: uuid.New(), fn: fn}
}

func (f *funcTask) ID() uuid.UUID { return f.id }

func (f *funcTask) Type() string { return "func" }

func (f *funcTask) Execute(ctx context.Context) error {
	if f.fn == nil {
		return nil
	}
	return f.fn(ctx)
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTaskQueue_Enqueue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		capacity int
		prefill  int
		closed   bool
		wantErr  error
	}{
		{name: "room available", capacity: 2},
		{name: "at capacity", capacity: 1, prefill: 1, wantErr: ErrQueueFull},
		{name: "zero capacity never accepts", capacity: 0, wantErr: ErrQueueFull},
		{name: "closed", capacity: 2, closed: true, wantErr: ErrQueueClosed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			q := NewTaskQueue(tc.capacity, setupTestLogger())
			for i := 0; i < tc.prefill; i++ {
				require.NoError(t, q.Enqueue(newFuncTask(nil)))
			}
			if tc.closed {
				q.Close()
			}

			err := q.Enqueue(newFuncTask(nil))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTaskQueue_CloseKeepsQueuedTasks(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(2, setupTestLogger())
	first := newFuncTask(nil)
	require.NoError(t, q.Enqueue(first))

	q.Close()
	q.Close()

	got, ok := <-q.GetChannel()
	require.True(t, ok)
	assert.Equal(t, first.ID(), got.ID())

	_, ok = <-q.GetChannel()
	assert.False(t, ok, "channel is closed once drained")
}

func TestTaskQueue_ConcurrentEnqueueAndClose(t *testing.T) {
	t.Parallel()

	q := NewTaskQueue(64, setupTestLogger())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := q.Enqueue(newFuncTask(nil))
			if err != nil {
				assert.ErrorIs(t, err, ErrQueueClosed)
			}
		}()
	}
	q.Close()
	wg.Wait()

	drained := 0
	for range q.GetChannel() {
		drained++
	}
	assert.LessOrEqual(t, drained, 32)
}
