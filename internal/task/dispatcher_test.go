package task

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hirewire/talent-api/internal/domain"
	"github.com/hirewire/talent-api/internal/intel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatchedEngine(t *testing.T, tasks *MemoryTaskStore) (*Engine, chan string) {
	t.Helper()
	generated := make(chan string, 16)
	provider := &fakeProvider{
		generateFunc: func(ctx context.Context, subject, department string) (string, error) {
			generated <- subject
			return "generated text", nil
		},
		scoreFunc: func(ctx context.Context, _ uuid.UUID, _ *domain.Candidate) (*intel.MatchScore, error) {
			return &intel.MatchScore{Score: 50, Summary: "ok"}, nil
		},
	}
	engine := newTestEngine(t, tasks, newFakeCandidateStore(), &fakeMatchStore{}, &fakeBlobStore{}, provider, &recordingEmitter{})
	return engine, generated
}

func TestDispatchDue(t *testing.T) {
	t.Run("task before its scheduled time is not dispatched", func(t *testing.T) {
		tasks := NewMemoryTaskStore()
		engine, _ := newDispatchedEngine(t, tasks)
		d := NewDispatcher(tasks, engine, DispatcherConfig{}, testLogger())

		at := time.Now().Add(time.Hour)
		gen, err := domain.NewGenerateTask(uuid.New(), "Future Role", "", &at)
		require.NoError(t, err)
		require.NoError(t, tasks.CreateTask(context.Background(), gen))

		assert.Equal(t, 0, d.DispatchDue(context.Background()))

		stored, err := tasks.GetTask(context.Background(), gen.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusPending, stored.Status)
	})

	t.Run("due task is claimed and executed", func(t *testing.T) {
		tasks := NewMemoryTaskStore()
		engine, generated := newDispatchedEngine(t, tasks)
		d := NewDispatcher(tasks, engine, DispatcherConfig{}, testLogger())

		at := time.Now().Add(-time.Minute)
		gen, err := domain.NewGenerateTask(uuid.New(), "Past Due Role", "", &at)
		require.NoError(t, err)
		require.NoError(t, tasks.CreateTask(context.Background(), gen))

		assert.Equal(t, 1, d.DispatchDue(context.Background()))
		d.Stop() // waits for the dispatched run to finish

		select {
		case subject := <-generated:
			assert.Equal(t, "Past Due Role", subject)
		default:
			t.Fatal("expected the due task to reach the provider")
		}

		stored, err := tasks.GetTask(context.Background(), gen.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusCompleted, stored.Status)
	})

	t.Run("clock advance makes future task eligible", func(t *testing.T) {
		tasks := NewMemoryTaskStore()
		engine, _ := newDispatchedEngine(t, tasks)
		d := NewDispatcher(tasks, engine, DispatcherConfig{}, testLogger())

		at := time.Now().Add(time.Hour)
		gen, err := domain.NewGenerateTask(uuid.New(), "Tonight Role", "", &at)
		require.NoError(t, err)
		require.NoError(t, tasks.CreateTask(context.Background(), gen))

		assert.Equal(t, 0, d.DispatchDue(context.Background()))

		d.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		assert.Equal(t, 1, d.DispatchDue(context.Background()))
		d.Stop()
	})

	t.Run("busy resource leaves the task pending", func(t *testing.T) {
		tasks := NewMemoryTaskStore()
		engine, _ := newDispatchedEngine(t, tasks)
		d := NewDispatcher(tasks, engine, DispatcherConfig{}, testLogger())

		requestID := uuid.New()

		// A running task already holds the resource.
		running, err := domain.NewGenerateTask(requestID, "Role A", "", nil)
		require.NoError(t, err)
		require.NoError(t, running.MarkRunning())
		require.NoError(t, tasks.ClaimNewTask(context.Background(), running))

		// A due pending task wants the same resource.
		blocked, err := domain.NewGenerateTask(requestID, "Role A again", "", nil)
		require.NoError(t, err)
		require.NoError(t, tasks.CreateTask(context.Background(), blocked))

		assert.Equal(t, 0, d.DispatchDue(context.Background()))

		stored, err := tasks.GetTask(context.Background(), blocked.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusPending, stored.Status, "blocked task must stay pending for the next tick")
	})
}
