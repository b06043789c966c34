package task

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hirewire/talent-api/internal/domain"
	"github.com/hirewire/talent-api/internal/store"
)

// MemoryTaskStore is an in-memory implementation of store.TaskStore. It
// enforces the same resource lock and transition rules as the Postgres
// implementation, guarded by a single mutex, which makes it suitable for
// tests and single-process development runs.
type MemoryTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
}

// NewMemoryTaskStore creates an empty in-memory task store.
func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

// CreateTask implements store.TaskStore.
func (s *MemoryTaskStore) CreateTask(ctx context.Context, t *domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[t.ID]; exists {
		return store.ErrDuplicate
	}
	s.tasks[t.ID] = cloneTask(t)
	return nil
}

// ClaimNewTask implements store.TaskStore. The resource check and the
// insert happen under one lock, mirroring the single transaction the
// Postgres store uses.
func (s *MemoryTaskStore) ClaimNewTask(ctx context.Context, t *domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks[t.ID]; exists {
		return store.ErrDuplicate
	}
	if s.resourceHeldLocked(t.ResourceKey, t.ID) {
		return store.ErrResourceBusy
	}
	s.tasks[t.ID] = cloneTask(t)
	return nil
}

// ClaimTask implements store.TaskStore.
func (s *MemoryTaskStore) ClaimTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	if t.Status != domain.TaskStatusPending && t.Status != domain.TaskStatusFailed {
		return nil, store.ErrTaskNotFound
	}
	if s.resourceHeldLocked(t.ResourceKey, t.ID) {
		return nil, store.ErrResourceBusy
	}
	if err := t.MarkRunning(); err != nil {
		return nil, err
	}
	return cloneTask(t), nil
}

// GetTask implements store.TaskStore.
func (s *MemoryTaskStore) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

// ListTasks implements store.TaskStore.
func (s *MemoryTaskStore) ListTasks(ctx context.Context, kind domain.TaskKind, statuses []domain.TaskStatus) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Task
	for _, t := range s.tasks {
		if kind != "" && t.Kind != kind {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, t.Status) {
			continue
		}
		out = append(out, cloneTask(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListDueTasks implements store.TaskStore.
func (s *MemoryTaskStore) ListDueTasks(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Task
	for _, t := range s.tasks {
		if t.Due(now) {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// UpdateProgress implements store.TaskStore.
func (s *MemoryTaskStore) UpdateProgress(ctx context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[t.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	if existing.Status != domain.TaskStatusRunning {
		return store.ErrUpdateFailed
	}
	updated := cloneTask(t)
	updated.Status = domain.TaskStatusRunning
	updated.UpdatedAt = time.Now().UTC()
	s.tasks[t.ID] = updated
	return nil
}

// CompleteTask implements store.TaskStore.
func (s *MemoryTaskStore) CompleteTask(ctx context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[t.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	if existing.Status != domain.TaskStatusRunning {
		return store.ErrUpdateFailed
	}
	s.tasks[t.ID] = cloneTask(t)
	return nil
}

// FailTask implements store.TaskStore.
func (s *MemoryTaskStore) FailTask(ctx context.Context, id uuid.UUID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	return t.MarkFailed(message)
}

// DeleteTask implements store.TaskStore.
func (s *MemoryTaskStore) DeleteTask(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

// ReapStuckTasks implements store.TaskStore.
func (s *MemoryTaskStore) ReapStuckTasks(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	s.mu.Lock()
	defer s.mu.Unlock()
	cleared := 0
	for id, t := range s.tasks {
		if t.Status != domain.TaskStatusRunning || !t.UpdatedAt.Before(cutoff) {
			continue
		}
		if t.Kind == domain.TaskKindParse {
			delete(s.tasks, id)
		} else {
			if err := t.MarkFailed("task timed out while running"); err != nil {
				return cleared, err
			}
		}
		cleared++
	}
	return cleared, nil
}

// resourceHeldLocked reports whether any other task holds the resource key
// in the RUNNING state. Caller must hold s.mu.
func (s *MemoryTaskStore) resourceHeldLocked(resourceKey string, excludeID uuid.UUID) bool {
	for _, t := range s.tasks {
		if t.ID != excludeID && t.ResourceKey == resourceKey && t.Status == domain.TaskStatusRunning {
			return true
		}
	}
	return false
}

func containsStatus(statuses []domain.TaskStatus, status domain.TaskStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// cloneTask deep-copies a task so callers never share mutable payload state
// with the store.
func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	if t.ScheduledFor != nil {
		v := *t.ScheduledFor
		c.ScheduledFor = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	if t.Parse != nil {
		p := *t.Parse
		c.Parse = &p
	}
	if t.Match != nil {
		m := *t.Match
		m.CandidateIDs = append([]uuid.UUID(nil), t.Match.CandidateIDs...)
		m.Results = append([]domain.MatchResult(nil), t.Match.Results...)
		c.Match = &m
	}
	if t.Generate != nil {
		g := *t.Generate
		c.Generate = &g
	}
	return &c
}
