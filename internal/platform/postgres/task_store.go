package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hirewire/talent-api/internal/domain"
	"github.com/hirewire/talent-api/internal/platform/logger"
	"github.com/hirewire/talent-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface using
// PostgreSQL. Unlike the read-mostly stores it holds the *sql.DB directly
// so reaping can run its statements in one transaction.
type PostgresTaskStore struct {
	db *sql.DB
}

// NewPostgresTaskStore creates a new PostgresTaskStore.
func NewPostgresTaskStore(db *sql.DB) *PostgresTaskStore {
	return &PostgresTaskStore{
		db: db,
	}
}

const taskColumns = `id, kind, status, resource_key, payload, error_message, scheduled_for, created_at, updated_at, completed_at`

// CreateTask persists a new PENDING task.
func (s *PostgresTaskStore) CreateTask(ctx context.Context, t *domain.Task) error {
	return s.insertTask(ctx, t, domain.TaskStatusPending)
}

// ClaimNewTask persists a new task directly in the RUNNING state. The
// partial unique index on (resource_key) WHERE status = 'running' makes
// the lock check and the insert a single atomic step: a concurrent
// submission for the same resource fails with a unique violation, which
// surfaces as ErrResourceBusy.
func (s *PostgresTaskStore) ClaimNewTask(ctx context.Context, t *domain.Task) error {
	err := s.insertTask(ctx, t, domain.TaskStatusRunning)
	if isUniqueViolation(err) {
		return store.ErrResourceBusy
	}
	return err
}

func (s *PostgresTaskStore) insertTask(ctx context.Context, t *domain.Task, status domain.TaskStatus) error {
	log := logger.FromContext(ctx)

	if t.Status != status {
		return fmt.Errorf("%w: task must be %s to insert", domain.ErrInvalidTransition, status)
	}

	payload, err := t.MarshalPayload()
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	query := `
		INSERT INTO tasks (id, kind, status, resource_key, payload, error_message, scheduled_for, created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = s.db.ExecContext(ctx, query,
		t.ID,
		t.Kind,
		t.Status,
		t.ResourceKey,
		payload,
		t.ErrorMessage,
		t.ScheduledFor,
		t.CreatedAt,
		t.UpdatedAt,
		t.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Let the caller decide: ClaimNewTask maps this to a lock
			// conflict, CreateTask treats it as a duplicate insert.
			return err
		}
		log.Error("failed to insert task",
			"task_id", t.ID,
			"task_kind", t.Kind,
			"error", err)
		return fmt.Errorf("failed to insert task: %w", err)
	}

	return nil
}

// ClaimTask transitions a PENDING or FAILED task to RUNNING in a single
// guarded UPDATE. The statement only matches when no other task holds the
// resource key in the running state, so it is safe across concurrent
// dispatcher instances.
func (s *PostgresTaskStore) ClaimTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContext(ctx)

	now := time.Now().UTC()
	query := `
		UPDATE tasks
		SET status = 'running', error_message = '', completed_at = NULL, updated_at = $2
		WHERE id = $1
		  AND status IN ('pending', 'failed')
		  AND NOT EXISTS (
			SELECT 1 FROM tasks held
			WHERE held.resource_key = tasks.resource_key
			  AND held.status = 'running'
			  AND held.id <> tasks.id
		  )
		RETURNING ` + taskColumns

	row := s.db.QueryRowContext(ctx, query, id, now)
	t, err := scanTask(row)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		if isUniqueViolation(err) {
			// Lost a race with another claimer for the same resource.
			return nil, store.ErrResourceBusy
		}
		log.Error("failed to claim task", "task_id", id, "error", err)
		return nil, fmt.Errorf("failed to claim task: %w", err)
	}

	// Nothing matched: distinguish a missing/unclaimable task from a held
	// resource so the dispatcher can leave blocked tasks pending.
	var resourceKey string
	var status domain.TaskStatus
	checkQuery := `SELECT resource_key, status FROM tasks WHERE id = $1`
	if err := s.db.QueryRowContext(ctx, checkQuery, id).Scan(&resourceKey, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to inspect unclaimable task: %w", err)
	}
	if status != domain.TaskStatusPending && status != domain.TaskStatusFailed {
		return nil, store.ErrTaskNotFound
	}
	return nil, store.ErrResourceBusy
}

// GetTask retrieves a task by ID.
func (s *PostgresTaskStore) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	t, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// ListTasks retrieves tasks filtered by kind and status, oldest first.
func (s *PostgresTaskStore) ListTasks(ctx context.Context, kind domain.TaskKind, statuses []domain.TaskStatus) ([]*domain.Task, error) {
	log := logger.FromContext(ctx)

	var conditions []string
	var args []any

	if kind != "" {
		args = append(args, kind)
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ", ")))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list tasks", "kind", kind, "error", err)
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// ListDueTasks retrieves PENDING tasks whose scheduled time has elapsed.
func (s *PostgresTaskStore) ListDueTasks(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE status = 'pending'
		  AND (scheduled_for IS NULL OR scheduled_for <= $1)
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list due tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// UpdateProgress persists the payload of a RUNNING task and refreshes its
// updated_at timestamp.
func (s *PostgresTaskStore) UpdateProgress(ctx context.Context, t *domain.Task) error {
	payload, err := t.MarshalPayload()
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	query := `
		UPDATE tasks
		SET payload = $2, updated_at = $3
		WHERE id = $1 AND status = 'running'
	`
	return s.execExpectingRow(ctx, query, t.ID, payload, time.Now().UTC())
}

// CompleteTask transitions a RUNNING task to COMPLETED with its final payload.
func (s *PostgresTaskStore) CompleteTask(ctx context.Context, t *domain.Task) error {
	payload, err := t.MarshalPayload()
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	now := time.Now().UTC()
	query := `
		UPDATE tasks
		SET status = 'completed', payload = $2, completed_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'running'
	`
	return s.execExpectingRow(ctx, query, t.ID, payload, now)
}

// FailTask transitions a RUNNING task to FAILED with the error message.
// The payload keeps its last persisted value, freezing progress where the
// batch stopped.
func (s *PostgresTaskStore) FailTask(ctx context.Context, id uuid.UUID, message string) error {
	now := time.Now().UTC()
	query := `
		UPDATE tasks
		SET status = 'failed', error_message = $2, completed_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'running'
	`
	return s.execExpectingRow(ctx, query, id, message, now)
}

// DeleteTask removes a task record, releasing its resource lock if it was
// running.
func (s *PostgresTaskStore) DeleteTask(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

// ReapStuckTasks force-clears RUNNING tasks whose updated_at is older than
// the grace period: parse tasks are deleted, other kinds are marked FAILED
// with a synthetic timeout error. Both statements run in one transaction so
// a crash between them cannot leave a half-reaped pass.
func (s *PostgresTaskStore) ReapStuckTasks(ctx context.Context, olderThan time.Duration) (int, error) {
	log := logger.FromContext(ctx)

	cutoff := time.Now().UTC().Add(-olderThan)
	var deleted, failed int64

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		deleteQuery := `
			DELETE FROM tasks
			WHERE kind = 'parse' AND status = 'running' AND updated_at < $1
		`
		result, err := tx.ExecContext(ctx, deleteQuery, cutoff)
		if err != nil {
			return fmt.Errorf("failed to delete stuck parse tasks: %w", err)
		}
		if deleted, err = result.RowsAffected(); err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		now := time.Now().UTC()
		failQuery := `
			UPDATE tasks
			SET status = 'failed', error_message = 'task timed out while running', completed_at = $2, updated_at = $2
			WHERE kind <> 'parse' AND status = 'running' AND updated_at < $1
		`
		result, err = tx.ExecContext(ctx, failQuery, cutoff, now)
		if err != nil {
			return fmt.Errorf("failed to fail stuck tasks: %w", err)
		}
		if failed, err = result.RowsAffected(); err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	cleared := int(deleted + failed)
	if cleared > 0 {
		log.Warn("reaped stuck tasks", "deleted_parse", deleted, "failed_other", failed)
	}
	return cleared, nil
}

// execExpectingRow runs an update that must affect exactly one row,
// mapping zero affected rows to ErrUpdateFailed.
func (s *PostgresTaskStore) execExpectingRow(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return store.ErrUpdateFailed
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanTask.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var payload []byte
	var errorMessage sql.NullString
	var scheduledFor sql.NullTime
	var completedAt sql.NullTime

	err := row.Scan(
		&t.ID,
		&t.Kind,
		&t.Status,
		&t.ResourceKey,
		&payload,
		&errorMessage,
		&scheduledFor,
		&t.CreatedAt,
		&t.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	t.ErrorMessage = errorMessage.String
	if scheduledFor.Valid {
		v := scheduledFor.Time
		t.ScheduledFor = &v
	}
	if completedAt.Valid {
		v := completedAt.Time
		t.CompletedAt = &v
	}
	if err := t.UnmarshalPayload(payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task payload: %w", err)
	}
	return &t, nil
}

func collectTasks(rows *sql.Rows) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return tasks, nil
}
