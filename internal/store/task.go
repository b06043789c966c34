package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hirewire/talent-api/internal/domain"
)

// TaskStore defines the interface for persisting task records. It is the
// single coordination point between submitters, the dispatcher, and the
// reaper: the claim methods enforce the at-most-one-RUNNING-task-per-
// resource-key invariant atomically, so multiple process instances can
// share one store without double-executing a task.
type TaskStore interface {
	// CreateTask persists a new PENDING task. Deferred submissions land
	// here and wait for the dispatcher.
	CreateTask(ctx context.Context, t *domain.Task) error

	// ClaimNewTask persists a new task directly in the RUNNING state,
	// checking the resource lock in the same atomic step. Returns
	// ErrResourceBusy if another task holds the same resource key.
	ClaimNewTask(ctx context.Context, t *domain.Task) error

	// ClaimTask transitions an existing PENDING or FAILED task to RUNNING,
	// checking the resource lock atomically. Returns the claimed task with
	// its current payload, ErrTaskNotFound if it does not exist or is not
	// claimable, or ErrResourceBusy if the resource is held.
	ClaimTask(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// GetTask retrieves a task by ID.
	GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListTasks retrieves tasks, optionally filtered by kind (empty kind
	// matches all) and by status (empty slice matches all). Results are
	// ordered by creation time.
	ListTasks(ctx context.Context, kind domain.TaskKind, statuses []domain.TaskStatus) ([]*domain.Task, error)

	// ListDueTasks retrieves PENDING tasks whose scheduled time has elapsed
	// at the given instant, oldest first.
	ListDueTasks(ctx context.Context, now time.Time) ([]*domain.Task, error)

	// UpdateProgress persists the payload of a RUNNING task and refreshes
	// its updated_at timestamp. The engine calls this after every
	// checkpoint so the reaper sees live tasks as fresh.
	UpdateProgress(ctx context.Context, t *domain.Task) error

	// CompleteTask transitions a RUNNING task to COMPLETED, persisting the
	// final payload.
	CompleteTask(ctx context.Context, t *domain.Task) error

	// FailTask transitions a RUNNING task to FAILED with the given error
	// message. The payload is left as last persisted, freezing progress.
	FailTask(ctx context.Context, id uuid.UUID, message string) error

	// DeleteTask removes a task record. Deleting a RUNNING task releases
	// its resource lock without interrupting any in-flight work.
	DeleteTask(ctx context.Context, id uuid.UUID) error

	// ReapStuckTasks force-clears RUNNING tasks whose updated_at is older
	// than the grace period: parse tasks are deleted, match and generate
	// tasks are marked FAILED with a timeout error. Returns the number of
	// tasks cleared.
	ReapStuckTasks(ctx context.Context, olderThan time.Duration) (int, error)
}

// CandidateStore defines the interface for persisting candidate records.
type CandidateStore interface {
	// CreateCandidate persists a new candidate produced by resume parsing.
	CreateCandidate(ctx context.Context, c *domain.Candidate) error

	// GetCandidate retrieves a candidate by ID.
	GetCandidate(ctx context.Context, id uuid.UUID) (*domain.Candidate, error)
}

// MatchStore defines the interface for persisting match results.
type MatchStore interface {
	// UpsertMatch inserts a match result or overwrites the existing one
	// for the same (job, candidate) pair.
	UpsertMatch(ctx context.Context, m *domain.MatchResult) error

	// ListMatchesByJob retrieves all match results for a job posting,
	// highest score first.
	ListMatchesByJob(ctx context.Context, jobID uuid.UUID) ([]*domain.MatchResult, error)
}
