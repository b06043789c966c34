package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParseTask(t *testing.T) {
	t.Run("creates valid pending task", func(t *testing.T) {
		task, err := NewParseTask("uploads/resume.pdf", "resume.pdf", nil)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, TaskKindParse, task.Kind)
		assert.Equal(t, TaskStatusPending, task.Status)
		assert.Equal(t, "file:uploads/resume.pdf", task.ResourceKey)
		require.NotNil(t, task.Parse)
		assert.Equal(t, "uploads/resume.pdf", task.Parse.FileKey)
		assert.Equal(t, "resume.pdf", task.Parse.Filename)
		assert.Nil(t, task.Match)
		assert.Nil(t, task.Generate)
	})

	t.Run("rejects empty file key", func(t *testing.T) {
		_, err := NewParseTask("", "resume.pdf", nil)
		assert.ErrorIs(t, err, ErrMissingPayload)
	})
}

func TestNewMatchBatchTask(t *testing.T) {
	jobID := uuid.New()
	candidates := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	t.Run("creates valid batch", func(t *testing.T) {
		task, err := NewMatchBatchTask(jobID, candidates, nil)
		require.NoError(t, err)

		assert.Equal(t, TaskKindMatchBatch, task.Kind)
		assert.Equal(t, "job:"+jobID.String(), task.ResourceKey)
		require.NotNil(t, task.Match)
		assert.Equal(t, 3, task.Match.TotalCount)
		assert.Equal(t, 0, task.Match.ProcessedCount)
	})

	t.Run("rejects nil job ID", func(t *testing.T) {
		_, err := NewMatchBatchTask(uuid.Nil, candidates, nil)
		assert.ErrorIs(t, err, ErrMissingPayload)
	})

	t.Run("rejects empty candidate list", func(t *testing.T) {
		_, err := NewMatchBatchTask(jobID, nil, nil)
		assert.ErrorIs(t, err, ErrMissingPayload)
	})
}

func TestNewGenerateTask(t *testing.T) {
	t.Run("creates valid task", func(t *testing.T) {
		requestID := uuid.New()
		task, err := NewGenerateTask(requestID, "Senior Go Engineer", "Platform", nil)
		require.NoError(t, err)

		assert.Equal(t, TaskKindGenerate, task.Kind)
		assert.Equal(t, "gen:"+requestID.String(), task.ResourceKey)
		require.NotNil(t, task.Generate)
		assert.Equal(t, "Senior Go Engineer", task.Generate.Subject)
	})

	t.Run("assigns request ID when absent", func(t *testing.T) {
		task, err := NewGenerateTask(uuid.Nil, "Senior Go Engineer", "", nil)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, task.Generate.RequestID)
	})

	t.Run("rejects empty subject", func(t *testing.T) {
		_, err := NewGenerateTask(uuid.New(), "", "", nil)
		assert.ErrorIs(t, err, ErrMissingPayload)
	})
}

func TestTaskValidate(t *testing.T) {
	t.Run("rejects mismatched payload", func(t *testing.T) {
		task, err := NewParseTask("uploads/a.pdf", "a.pdf", nil)
		require.NoError(t, err)

		task.Match = &MatchPayload{JobID: uuid.New()}
		assert.ErrorIs(t, task.Validate(), ErrMissingPayload)
	})

	t.Run("rejects missing resource key", func(t *testing.T) {
		task, err := NewParseTask("uploads/a.pdf", "a.pdf", nil)
		require.NoError(t, err)

		task.ResourceKey = ""
		assert.ErrorIs(t, task.Validate(), ErrEmptyResourceKey)
	})
}

func TestTaskTransitions(t *testing.T) {
	newPending := func(t *testing.T) *Task {
		task, err := NewParseTask("uploads/a.pdf", "a.pdf", nil)
		require.NoError(t, err)
		return task
	}

	t.Run("pending to running", func(t *testing.T) {
		task := newPending(t)
		require.NoError(t, task.MarkRunning())
		assert.Equal(t, TaskStatusRunning, task.Status)
	})

	t.Run("running to completed sets completed_at", func(t *testing.T) {
		task := newPending(t)
		require.NoError(t, task.MarkRunning())
		require.NoError(t, task.MarkCompleted())
		assert.Equal(t, TaskStatusCompleted, task.Status)
		assert.NotNil(t, task.CompletedAt)
		assert.True(t, task.Terminal())
	})

	t.Run("running to failed records message", func(t *testing.T) {
		task := newPending(t)
		require.NoError(t, task.MarkRunning())
		require.NoError(t, task.MarkFailed("provider exploded"))
		assert.Equal(t, TaskStatusFailed, task.Status)
		assert.Equal(t, "provider exploded", task.ErrorMessage)
		assert.True(t, task.Terminal())
	})

	t.Run("failed to running clears error state", func(t *testing.T) {
		task := newPending(t)
		require.NoError(t, task.MarkRunning())
		require.NoError(t, task.MarkFailed("transient"))

		require.NoError(t, task.MarkRunning())
		assert.Equal(t, TaskStatusRunning, task.Status)
		assert.Empty(t, task.ErrorMessage)
		assert.Nil(t, task.CompletedAt)
	})

	t.Run("completed task cannot run again", func(t *testing.T) {
		task := newPending(t)
		require.NoError(t, task.MarkRunning())
		require.NoError(t, task.MarkCompleted())
		assert.ErrorIs(t, task.MarkRunning(), ErrInvalidTransition)
	})

	t.Run("pending task cannot complete directly", func(t *testing.T) {
		task := newPending(t)
		assert.ErrorIs(t, task.MarkCompleted(), ErrInvalidTransition)
	})
}

func TestTaskDue(t *testing.T) {
	now := time.Now()
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Hour)

	t.Run("unscheduled pending task is due", func(t *testing.T) {
		task, err := NewParseTask("uploads/a.pdf", "a.pdf", nil)
		require.NoError(t, err)
		assert.True(t, task.Due(now))
	})

	t.Run("future schedule is not due", func(t *testing.T) {
		task, err := NewParseTask("uploads/a.pdf", "a.pdf", &later)
		require.NoError(t, err)
		assert.False(t, task.Due(now))
	})

	t.Run("elapsed schedule is due", func(t *testing.T) {
		task, err := NewParseTask("uploads/a.pdf", "a.pdf", &earlier)
		require.NoError(t, err)
		assert.True(t, task.Due(now))
	})

	t.Run("running task is never due", func(t *testing.T) {
		task, err := NewParseTask("uploads/a.pdf", "a.pdf", &earlier)
		require.NoError(t, err)
		require.NoError(t, task.MarkRunning())
		assert.False(t, task.Due(now))
	})
}

func TestMatchPayloadAdvance(t *testing.T) {
	jobID := uuid.New()
	candidates := []uuid.UUID{uuid.New(), uuid.New()}

	t.Run("advances monotonically and collects results", func(t *testing.T) {
		task, err := NewMatchBatchTask(jobID, candidates, nil)
		require.NoError(t, err)
		m := task.Match

		result, err := NewMatchResult(jobID, candidates[0], 87.5, "strong fit")
		require.NoError(t, err)

		require.NoError(t, m.Advance(result))
		assert.Equal(t, 1, m.ProcessedCount)
		assert.Len(t, m.Results, 1)

		// Skipped candidate: count advances, no result recorded.
		require.NoError(t, m.Advance(nil))
		assert.Equal(t, 2, m.ProcessedCount)
		assert.Len(t, m.Results, 1)
	})

	t.Run("cannot advance past total", func(t *testing.T) {
		task, err := NewMatchBatchTask(jobID, candidates, nil)
		require.NoError(t, err)
		m := task.Match

		require.NoError(t, m.Advance(nil))
		require.NoError(t, m.Advance(nil))
		assert.ErrorIs(t, m.Advance(nil), ErrProgressNotMonotonic)
	})

	t.Run("reset clears progress for a full re-run", func(t *testing.T) {
		task, err := NewMatchBatchTask(jobID, candidates, nil)
		require.NoError(t, err)
		m := task.Match

		require.NoError(t, m.Advance(nil))
		m.Reset()
		assert.Equal(t, 0, m.ProcessedCount)
		assert.Empty(t, m.Results)
		assert.Equal(t, 2, m.TotalCount)
	})
}

func TestTaskPayloadRoundTrip(t *testing.T) {
	jobID := uuid.New()
	task, err := NewMatchBatchTask(jobID, []uuid.UUID{uuid.New()}, nil)
	require.NoError(t, err)

	data, err := task.MarshalPayload()
	require.NoError(t, err)

	restored := &Task{ID: task.ID, Kind: task.Kind, Status: task.Status, ResourceKey: task.ResourceKey}
	require.NoError(t, restored.UnmarshalPayload(data))
	require.NotNil(t, restored.Match)
	assert.Equal(t, jobID, restored.Match.JobID)
	assert.Equal(t, 1, restored.Match.TotalCount)
}
