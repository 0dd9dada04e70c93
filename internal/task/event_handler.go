package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/musaabMD/expoiosweb/internal/events"
)

// DefaultDeliveryTimeout bounds a single background delivery.
const DefaultDeliveryTimeout = 10 * time.Second

// AsyncEventHandler implements events.EventHandler by queueing a delivery task
// for a downstream handler. HandleEvent returns as soon as the task is queued.
type AsyncEventHandler struct {
	next    events.EventHandler
	queue   TaskQueueWriter
	timeout time.Duration
	logger  *slog.Logger
}

var _ events.EventHandler = (*AsyncEventHandler)(nil)

// NewAsyncEventHandler wraps next so that it runs on the worker pool draining
// queue. A zero timeout selects DefaultDeliveryTimeout.
func NewAsyncEventHandler(
	next events.EventHandler,
	queue TaskQueueWriter,
	timeout time.Duration,
	logger *slog.Logger,
) *AsyncEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	return &AsyncEventHandler{
		next:    next,
		queue:   queue,
		timeout: timeout,
		logger:  logger.With("component", "async_event_handler"),
	}
}

// HandleEvent queues delivery of event. A full or closed queue is reported to
// the emitter; the event is not retried.
func (h *AsyncEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	t := &eventDeliveryTask{
		id:      uuid.New(),
		event:   event,
		next:    h.next,
		timeout: h.timeout,
	}
	if err := h.queue.Enqueue(t); err != nil {
		h.logger.Warn("dropping event delivery",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
		return fmt.Errorf("failed to queue event delivery: %w", err)
	}
	return nil
}

// eventDeliveryTask hands one event to one handler.
type eventDeliveryTask struct {
	id      uuid.UUID
	event   *events.Event
	next    events.EventHandler
	timeout time.Duration
}

func (t *eventDeliveryTask) ID() uuid.UUID { return t.id }

func (t *eventDeliveryTask) Type() string { return TaskTypeEventDelivery }

func (t *eventDeliveryTask) Execute(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	if err := t.next.HandleEvent(ctx, t.event); err != nil {
		return fmt.Errorf("deliver event %s: %w", t.event.ID, err)
	}
	return nil
}
