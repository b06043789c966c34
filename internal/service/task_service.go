package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hirewire/talent-api/internal/domain"
	"github.com/hirewire/talent-api/internal/events"
	"github.com/hirewire/talent-api/internal/store"
	"github.com/hirewire/talent-api/internal/task"
)

// Service-level errors surfaced to the API layer.
var (
	// ErrTaskNotRetryable is returned when retry is requested for a task
	// that is not in a retryable state. Only FAILED match-batch and
	// generate tasks can be retried.
	ErrTaskNotRetryable = errors.New("task is not retryable")
)

// TaskServiceConfig holds scheduling defaults for deferred submissions.
type TaskServiceConfig struct {
	// MatchScheduleHour is the local hour deferred match batches default
	// to when the caller gives no time (next occurrence). Default 2.
	MatchScheduleHour int

	// GenerateScheduleHour is the default hour for deferred generation
	// tasks. Default 3.
	GenerateScheduleHour int

	// StreamBuffer is the event buffer size for progress streams.
	StreamBuffer int
}

// TaskService exposes the orchestration operations: immediate streaming
// submission, deferred submission, listing, run-now, cancel, retry, and
// manual timeout cleanup. It is the only place that decides between the
// immediate path (claim lock now, stream progress) and the deferred path
// (persist PENDING, return at once).
type TaskService struct {
	tasks   store.TaskStore
	engine  *task.Engine
	emitter events.Emitter
	config  TaskServiceConfig
	reaper  *task.Reaper
	logger  *slog.Logger
	now     func() time.Time
}

// NewTaskService creates a TaskService.
func NewTaskService(
	tasks store.TaskStore,
	engine *task.Engine,
	reaper *task.Reaper,
	emitter events.Emitter,
	config TaskServiceConfig,
	logger *slog.Logger,
) *TaskService {
	if config.MatchScheduleHour <= 0 {
		config.MatchScheduleHour = 2
	}
	if config.GenerateScheduleHour <= 0 {
		config.GenerateScheduleHour = 3
	}
	if config.StreamBuffer <= 0 {
		config.StreamBuffer = 64
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	return &TaskService{
		tasks:   tasks,
		engine:  engine,
		reaper:  reaper,
		emitter: emitter,
		config:  config,
		logger:  logger.With("component", "task_service"),
		now:     time.Now,
	}
}

// SubmitImmediate claims the task's resource lock, persists it as RUNNING,
// and starts execution in the background. The returned stream emits
// progress events followed by exactly one terminal event. Execution is
// detached from the caller's context: a consumer that disconnects does not
// cancel the work, and the task store reflects the true outcome.
func (s *TaskService) SubmitImmediate(ctx context.Context, t *domain.Task) (*task.Stream, error) {
	if err := t.MarkRunning(); err != nil {
		return nil, err
	}
	if err := s.tasks.ClaimNewTask(ctx, t); err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, events.NewQueueEvent(events.ActionSubmitted, t.Kind, t.ID))

	stream := task.NewStream(s.config.StreamBuffer)
	go s.engine.Run(context.Background(), t, stream)
	return stream, nil
}

// SubmitDeferred persists the task as PENDING with a scheduled run time and
// returns immediately. When the caller gives no time, the task defaults to
// the next occurrence of the off-peak hour for its family.
func (s *TaskService) SubmitDeferred(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	if t.ScheduledFor == nil {
		at := s.defaultScheduleFor(t.Kind)
		t.ScheduledFor = &at
	}
	if err := s.tasks.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("task scheduled",
		"task_id", t.ID,
		"task_kind", t.Kind,
		"scheduled_for", t.ScheduledFor)
	s.emitter.Emit(ctx, events.NewQueueEvent(events.ActionScheduled, t.Kind, t.ID))
	return t, nil
}

// ListTasks retrieves tasks filtered by kind and status.
func (s *TaskService) ListTasks(ctx context.Context, kind domain.TaskKind, statuses []domain.TaskStatus) ([]*domain.Task, error) {
	return s.tasks.ListTasks(ctx, kind, statuses)
}

// RunNow forces a PENDING task to execute immediately instead of waiting
// for the dispatcher. Returns store.ErrResourceBusy when the resource lock
// cannot be acquired; the task stays PENDING in that case.
func (s *TaskService) RunNow(ctx context.Context, id uuid.UUID) error {
	claimed, err := s.tasks.ClaimTask(ctx, id)
	if err != nil {
		return err
	}
	s.emitter.Emit(ctx, events.NewQueueEvent(events.ActionStarted, claimed.Kind, claimed.ID))
	go s.engine.Run(context.Background(), claimed, task.DiscardSink{})
	return nil
}

// Cancel removes a task record. For PENDING tasks this is a precise delete
// before the dispatcher picks it up. For RUNNING tasks it is a forced,
// non-interrupting clear: the in-flight provider call may keep running,
// but the record is removed so the resource becomes claimable again, and
// the resource's true state is unknown until the next successful run
// overwrites it.
func (s *TaskService) Cancel(ctx context.Context, id uuid.UUID) error {
	t, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if t.Status == domain.TaskStatusRunning {
		s.logger.Warn("force-cancelling running task; in-flight work is not interrupted",
			"task_id", t.ID,
			"task_kind", t.Kind,
			"resource_key", t.ResourceKey)
	}
	if err := s.tasks.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.emitter.Emit(ctx, events.NewQueueEvent(events.ActionDeleted, t.Kind, t.ID))
	return nil
}

// Retry re-runs a FAILED match-batch or generate task, reusing the same
// task identity, and streams progress like an immediate submission. The
// batch re-processes its original candidate list from the beginning.
func (s *TaskService) Retry(ctx context.Context, id uuid.UUID) (*task.Stream, error) {
	t, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != domain.TaskStatusFailed || t.Kind == domain.TaskKindParse {
		return nil, fmt.Errorf("%w: %s task in status %s", ErrTaskNotRetryable, t.Kind, t.Status)
	}

	claimed, err := s.tasks.ClaimTask(ctx, id)
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, events.NewQueueEvent(events.ActionRetried, claimed.Kind, claimed.ID))

	stream := task.NewStream(s.config.StreamBuffer)
	go s.engine.Run(context.Background(), claimed, stream)
	return stream, nil
}

// CleanupTimedOut manually triggers one reaper pass and returns the number
// of stuck tasks cleared.
func (s *TaskService) CleanupTimedOut(ctx context.Context) (int, error) {
	return s.reaper.RunOnce(ctx)
}

// defaultScheduleFor returns the next occurrence of the off-peak hour for
// the task family: 02:00 for match batches, 03:00 for generation, now for
// anything else.
func (s *TaskService) defaultScheduleFor(kind domain.TaskKind) time.Time {
	now := s.now()
	var hour int
	switch kind {
	case domain.TaskKindMatchBatch:
		hour = s.config.MatchScheduleHour
	case domain.TaskKindGenerate:
		hour = s.config.GenerateScheduleHour
	default:
		return now
	}
	at := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !at.After(now) {
		at = at.Add(24 * time.Hour)
	}
	return at
}
