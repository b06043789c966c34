package task

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/hirewire/talent-api/internal/domain"
	"github.com/hirewire/talent-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTaskStoreResourceLock(t *testing.T) {
	ctx := context.Background()

	t.Run("second claim for the same resource is rejected", func(t *testing.T) {
		s := NewMemoryTaskStore()
		requestID := uuid.New()

		first, err := domain.NewGenerateTask(requestID, "Engineer", "", nil)
		require.NoError(t, err)
		require.NoError(t, first.MarkRunning())
		require.NoError(t, s.ClaimNewTask(ctx, first))

		second, err := domain.NewGenerateTask(requestID, "Engineer", "", nil)
		require.NoError(t, err)
		require.NoError(t, second.MarkRunning())
		assert.ErrorIs(t, s.ClaimNewTask(ctx, second), store.ErrResourceBusy)
	})

	t.Run("different resources run concurrently", func(t *testing.T) {
		s := NewMemoryTaskStore()

		first, err := domain.NewGenerateTask(uuid.New(), "Engineer", "", nil)
		require.NoError(t, err)
		require.NoError(t, first.MarkRunning())
		require.NoError(t, s.ClaimNewTask(ctx, first))

		second, err := domain.NewGenerateTask(uuid.New(), "Designer", "", nil)
		require.NoError(t, err)
		require.NoError(t, second.MarkRunning())
		assert.NoError(t, s.ClaimNewTask(ctx, second))
	})

	t.Run("lock releases when the task completes", func(t *testing.T) {
		s := NewMemoryTaskStore()
		requestID := uuid.New()

		first, err := domain.NewGenerateTask(requestID, "Engineer", "", nil)
		require.NoError(t, err)
		require.NoError(t, first.MarkRunning())
		require.NoError(t, s.ClaimNewTask(ctx, first))

		require.NoError(t, first.MarkCompleted())
		require.NoError(t, s.CompleteTask(ctx, first))

		second, err := domain.NewGenerateTask(requestID, "Engineer", "", nil)
		require.NoError(t, err)
		require.NoError(t, second.MarkRunning())
		assert.NoError(t, s.ClaimNewTask(ctx, second))
	})

	t.Run("deleting a running task releases its lock", func(t *testing.T) {
		s := NewMemoryTaskStore()
		requestID := uuid.New()

		first, err := domain.NewGenerateTask(requestID, "Engineer", "", nil)
		require.NoError(t, err)
		require.NoError(t, first.MarkRunning())
		require.NoError(t, s.ClaimNewTask(ctx, first))

		require.NoError(t, s.DeleteTask(ctx, first.ID))

		second, err := domain.NewGenerateTask(requestID, "Engineer", "", nil)
		require.NoError(t, err)
		require.NoError(t, second.MarkRunning())
		assert.NoError(t, s.ClaimNewTask(ctx, second))
	})
}

func TestMemoryTaskStoreClaimTask(t *testing.T) {
	ctx := context.Background()

	t.Run("claims a pending task", func(t *testing.T) {
		s := NewMemoryTaskStore()
		gen, err := domain.NewGenerateTask(uuid.New(), "Engineer", "", nil)
		require.NoError(t, err)
		require.NoError(t, s.CreateTask(ctx, gen))

		claimed, err := s.ClaimTask(ctx, gen.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusRunning, claimed.Status)

		stored, err := s.GetTask(ctx, gen.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusRunning, stored.Status)
	})

	t.Run("cannot claim a running task", func(t *testing.T) {
		s := NewMemoryTaskStore()
		gen, err := domain.NewGenerateTask(uuid.New(), "Engineer", "", nil)
		require.NoError(t, err)
		require.NoError(t, s.CreateTask(ctx, gen))

		_, err = s.ClaimTask(ctx, gen.ID)
		require.NoError(t, err)

		_, err = s.ClaimTask(ctx, gen.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("claim against a held resource fails without state change", func(t *testing.T) {
		s := NewMemoryTaskStore()
		requestID := uuid.New()

		holder, err := domain.NewGenerateTask(requestID, "Engineer", "", nil)
		require.NoError(t, err)
		require.NoError(t, holder.MarkRunning())
		require.NoError(t, s.ClaimNewTask(ctx, holder))

		waiting, err := domain.NewGenerateTask(requestID, "Engineer", "", nil)
		require.NoError(t, err)
		require.NoError(t, s.CreateTask(ctx, waiting))

		_, err = s.ClaimTask(ctx, waiting.ID)
		assert.ErrorIs(t, err, store.ErrResourceBusy)

		stored, err := s.GetTask(ctx, waiting.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusPending, stored.Status)
	})

	t.Run("missing task returns not found", func(t *testing.T) {
		s := NewMemoryTaskStore()
		_, err := s.ClaimTask(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestMemoryTaskStoreListTasks(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTaskStore()

	parse, err := domain.NewParseTask("uploads/a.pdf", "a.pdf", nil)
	require.NoError(t, err)
	require.NoError(t, s.CreateTask(ctx, parse))

	gen, err := domain.NewGenerateTask(uuid.New(), "Engineer", "", nil)
	require.NoError(t, err)
	require.NoError(t, s.CreateTask(ctx, gen))

	_, err = s.ClaimTask(ctx, gen.ID)
	require.NoError(t, err)

	t.Run("filters by kind", func(t *testing.T) {
		got, err := s.ListTasks(ctx, domain.TaskKindParse, nil)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, parse.ID, got[0].ID)
	})

	t.Run("filters by status", func(t *testing.T) {
		got, err := s.ListTasks(ctx, "", []domain.TaskStatus{domain.TaskStatusRunning})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, gen.ID, got[0].ID)
	})

	t.Run("no filters returns everything", func(t *testing.T) {
		got, err := s.ListTasks(ctx, "", nil)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}

func TestMemoryTaskStoreClonesState(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryTaskStore()

	batch, err := domain.NewMatchBatchTask(uuid.New(), []uuid.UUID{uuid.New()}, nil)
	require.NoError(t, err)
	require.NoError(t, s.CreateTask(ctx, batch))

	// Mutating the caller's copy must not leak into the store.
	batch.Match.ProcessedCount = 99

	stored, err := s.GetTask(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Match.ProcessedCount)
}
