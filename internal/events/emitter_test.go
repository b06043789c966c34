package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/hirewire/talent-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

// mockHandler records received events and optionally fails.
type mockHandler struct {
	handledCount int
	lastEvent    *QueueEvent
	handlerError error
}

func (h *mockHandler) HandleQueueEvent(ctx context.Context, event *QueueEvent) error {
	h.handledCount++
	h.lastEvent = event
	return h.handlerError
}

func TestInMemoryEmitter(t *testing.T) {
	// Create a minimal logger that discards output
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEmitter(logger)
		event := NewQueueEvent(ActionSubmitted, domain.TaskKindParse, uuid.New())

		// Must not panic or block with nothing registered
		emitter.Emit(context.Background(), event)
	})

	t.Run("emit event reaches all handlers", func(t *testing.T) {
		emitter := NewInMemoryEmitter(logger)

		handler1 := &mockHandler{}
		handler2 := &mockHandler{}
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		event := NewQueueEvent(ActionCompleted, domain.TaskKindMatchBatch, uuid.New())
		emitter.Emit(context.Background(), event)

		assert.Equal(t, 1, handler1.handledCount)
		assert.Equal(t, 1, handler2.handledCount)
		assert.Equal(t, event, handler1.lastEvent)
		assert.Equal(t, event, handler2.lastEvent)
	})

	t.Run("failing handler does not stop delivery", func(t *testing.T) {
		emitter := NewInMemoryEmitter(logger)

		failingHandler := &mockHandler{handlerError: errors.New("handler error")}
		successHandler := &mockHandler{}
		emitter.RegisterHandler(failingHandler)
		emitter.RegisterHandler(successHandler)

		event := NewQueueEvent(ActionFailed, domain.TaskKindGenerate, uuid.New())
		emitter.Emit(context.Background(), event)

		assert.Equal(t, 1, failingHandler.handledCount)
		assert.Equal(t, 1, successHandler.handledCount)
	})
}

func TestNewQueueEvent(t *testing.T) {
	taskID := uuid.New()
	event := NewQueueEvent(ActionScheduled, domain.TaskKindMatchBatch, taskID)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, ActionScheduled, event.Action)
	assert.Equal(t, domain.TaskKindMatchBatch, event.Kind)
	assert.Equal(t, taskID, event.TaskID)
	assert.False(t, event.OccurredAt.IsZero())
}

func TestHandlerFunc(t *testing.T) {
	called := false
	var fn HandlerFunc = func(ctx context.Context, event *QueueEvent) error {
		called = true
		return nil
	}

	err := fn.HandleQueueEvent(context.Background(), NewQueueEvent(ActionDeleted, domain.TaskKindParse, uuid.New()))
	assert.NoError(t, err)
	assert.True(t, called)
}
