package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hirewire/talent-api/internal/domain"
)

// QueueAction describes what changed about the task queues.
type QueueAction string

// Queue change actions.
const (
	ActionSubmitted QueueAction = "submitted"
	ActionScheduled QueueAction = "scheduled"
	ActionStarted   QueueAction = "started"
	ActionCompleted QueueAction = "completed"
	ActionFailed    QueueAction = "failed"
	ActionDeleted   QueueAction = "deleted"
	ActionRetried   QueueAction = "retried"
	ActionCleaned   QueueAction = "cleaned"
)

// QueueEvent announces that queue state changed. It carries just enough for
// a listener to decide which queue panel to refresh; the task store remains
// the source of truth for the actual state.
type QueueEvent struct {
	// ID is a unique identifier for this event.
	ID uuid.UUID `json:"id"`

	// Action indicates what kind of change occurred.
	Action QueueAction `json:"action"`

	// Kind is the task family affected, empty for bulk actions like cleanup.
	Kind domain.TaskKind `json:"kind,omitempty"`

	// TaskID is the task affected, uuid.Nil for bulk actions.
	TaskID uuid.UUID `json:"task_id,omitempty"`

	// OccurredAt is the timestamp when the event was created.
	OccurredAt time.Time `json:"occurred_at"`
}

// NewQueueEvent creates a QueueEvent for the given action and task.
func NewQueueEvent(action QueueAction, kind domain.TaskKind, taskID uuid.UUID) *QueueEvent {
	return &QueueEvent{
		ID:         uuid.New(),
		Action:     action,
		Kind:       kind,
		TaskID:     taskID,
		OccurredAt: time.Now().UTC(),
	}
}

// Handler defines an interface for components that react to queue changes.
type Handler interface {
	// HandleQueueEvent processes the given event within the provided context.
	HandleQueueEvent(ctx context.Context, event *QueueEvent) error
}

// Emitter defines an interface for components that announce queue changes.
// Emit is fire-and-forget from the caller's perspective; implementations
// log delivery problems rather than surfacing them to the action that
// triggered the signal.
type Emitter interface {
	// Emit publishes the given event to all listeners.
	Emit(ctx context.Context, event *QueueEvent)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, event *QueueEvent) error

// HandleQueueEvent calls f(ctx, event).
func (f HandlerFunc) HandleQueueEvent(ctx context.Context, event *QueueEvent) error {
	return f(ctx, event)
}
