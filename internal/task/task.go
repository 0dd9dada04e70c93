package task

import (
	"context"

	"github.com/google/uuid"
)

// TaskTypeEventDelivery delivers one event to one downstream handler.
const TaskTypeEventDelivery = "event_delivery"

// Task is one unit of queued background work.
type Task interface {
	ID() uuid.UUID
	Type() string
	// Execute runs the work. ctx is canceled when the pool stops.
	Execute(ctx context.Context) error
}

// TaskQueueReader is the consuming side of a queue.
type TaskQueueReader interface {
	GetChannel() <-chan Task
}

// TaskQueueWriter is the producing side of a queue. Enqueue never blocks; it
// fails with ErrQueueFull or ErrQueueClosed instead.
type TaskQueueWriter interface {
	Enqueue(task Task) error
	Close()
}
