package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskKind identifies which family of background work a task belongs to.
type TaskKind string

// Supported task kinds.
const (
	TaskKindParse      TaskKind = "parse"
	TaskKindMatchBatch TaskKind = "match_batch"
	TaskKindGenerate   TaskKind = "generate"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

// Possible task status values.
const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Common validation errors for Task.
var (
	ErrEmptyTaskID          = errors.New("task ID cannot be empty")
	ErrInvalidTaskKind      = errors.New("invalid task kind")
	ErrInvalidTaskStatus    = errors.New("invalid task status")
	ErrEmptyResourceKey     = errors.New("task resource key cannot be empty")
	ErrMissingPayload       = errors.New("task payload does not match its kind")
	ErrInvalidTransition    = errors.New("invalid task status transition")
	ErrProgressNotMonotonic = errors.New("processed count cannot decrease")
)

// ParsePayload holds the data for a resume parse task.
type ParsePayload struct {
	FileKey  string `json:"file_key"`
	Filename string `json:"filename"`
	// CandidateID is set when the parse completes and a candidate record
	// has been created from the document.
	CandidateID uuid.UUID `json:"candidate_id,omitempty"`
}

// MatchPayload holds the data for an AI job-matching batch.
type MatchPayload struct {
	JobID          uuid.UUID     `json:"job_id"`
	CandidateIDs   []uuid.UUID   `json:"candidate_ids"`
	TotalCount     int           `json:"total_count"`
	ProcessedCount int           `json:"processed_count"`
	Results        []MatchResult `json:"results,omitempty"`
}

// GeneratePayload holds the data for an AI content generation task.
type GeneratePayload struct {
	RequestID  uuid.UUID `json:"request_id"`
	Subject    string    `json:"subject"`
	Department string    `json:"department,omitempty"`
	// GeneratedText is populated when the task completes.
	GeneratedText string `json:"generated_text,omitempty"`
}

// Task is the common envelope shared by all three task families. Exactly one
// of the payload pointers is non-nil, matching Kind.
type Task struct {
	ID           uuid.UUID  `json:"id"`
	Kind         TaskKind   `json:"kind"`
	Status       TaskStatus `json:"status"`
	ResourceKey  string     `json:"resource_key"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`

	Parse    *ParsePayload    `json:"parse,omitempty"`
	Match    *MatchPayload    `json:"match,omitempty"`
	Generate *GeneratePayload `json:"generate,omitempty"`
}

// NewParseTask creates a parse task for an uploaded resume file.
// The resource key is derived from the file key, so two parses of the same
// upload can never run concurrently.
func NewParseTask(fileKey, filename string, scheduledFor *time.Time) (*Task, error) {
	if fileKey == "" {
		return nil, fmt.Errorf("%w: file key is required", ErrMissingPayload)
	}
	t := newTask(TaskKindParse, "file:"+fileKey, scheduledFor)
	t.Parse = &ParsePayload{FileKey: fileKey, Filename: filename}
	return t, t.Validate()
}

// NewMatchBatchTask creates a matching batch for a job posting against an
// ordered list of candidates.
func NewMatchBatchTask(jobID uuid.UUID, candidateIDs []uuid.UUID, scheduledFor *time.Time) (*Task, error) {
	if jobID == uuid.Nil {
		return nil, fmt.Errorf("%w: job ID is required", ErrMissingPayload)
	}
	if len(candidateIDs) == 0 {
		return nil, fmt.Errorf("%w: candidate list is empty", ErrMissingPayload)
	}
	t := newTask(TaskKindMatchBatch, "job:"+jobID.String(), scheduledFor)
	t.Match = &MatchPayload{
		JobID:        jobID,
		CandidateIDs: candidateIDs,
		TotalCount:   len(candidateIDs),
	}
	return t, t.Validate()
}

// NewGenerateTask creates a content generation task for a request.
func NewGenerateTask(requestID uuid.UUID, subject, department string, scheduledFor *time.Time) (*Task, error) {
	if requestID == uuid.Nil {
		requestID = uuid.New()
	}
	if subject == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrMissingPayload)
	}
	t := newTask(TaskKindGenerate, "gen:"+requestID.String(), scheduledFor)
	t.Generate = &GeneratePayload{RequestID: requestID, Subject: subject, Department: department}
	return t, t.Validate()
}

func newTask(kind TaskKind, resourceKey string, scheduledFor *time.Time) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:           uuid.New(),
		Kind:         kind,
		Status:       TaskStatusPending,
		ResourceKey:  resourceKey,
		ScheduledFor: scheduledFor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate checks the envelope and that the payload matches the kind.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if !isValidTaskKind(t.Kind) {
		return ErrInvalidTaskKind
	}
	if !isValidTaskStatus(t.Status) {
		return ErrInvalidTaskStatus
	}
	if t.ResourceKey == "" {
		return ErrEmptyResourceKey
	}
	switch t.Kind {
	case TaskKindParse:
		if t.Parse == nil || t.Match != nil || t.Generate != nil {
			return ErrMissingPayload
		}
	case TaskKindMatchBatch:
		if t.Match == nil || t.Parse != nil || t.Generate != nil {
			return ErrMissingPayload
		}
	case TaskKindGenerate:
		if t.Generate == nil || t.Parse != nil || t.Match != nil {
			return ErrMissingPayload
		}
	}
	return nil
}

// Terminal reports whether the task is in a terminal state.
func (t *Task) Terminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// Due reports whether the task is eligible to run at the given instant.
// Tasks without a scheduled time are due immediately.
func (t *Task) Due(now time.Time) bool {
	if t.Status != TaskStatusPending {
		return false
	}
	return t.ScheduledFor == nil || !t.ScheduledFor.After(now)
}

// MarkRunning transitions the task into the RUNNING state. Only PENDING and
// FAILED (retry) tasks may enter RUNNING.
func (t *Task) MarkRunning() error {
	if t.Status != TaskStatusPending && t.Status != TaskStatusFailed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, TaskStatusRunning)
	}
	t.Status = TaskStatusRunning
	t.ErrorMessage = ""
	t.CompletedAt = nil
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkCompleted transitions a RUNNING task to COMPLETED.
func (t *Task) MarkCompleted() error {
	if t.Status != TaskStatusRunning {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, TaskStatusCompleted)
	}
	now := time.Now().UTC()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	return nil
}

// MarkFailed transitions a RUNNING task to FAILED, recording the error.
func (t *Task) MarkFailed(message string) error {
	if t.Status != TaskStatusRunning {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, TaskStatusFailed)
	}
	now := time.Now().UTC()
	t.Status = TaskStatusFailed
	t.ErrorMessage = message
	t.CompletedAt = &now
	t.UpdatedAt = now
	return nil
}

// Advance records one processed candidate on a match batch. The processed
// count only ever moves forward.
func (p *MatchPayload) Advance(result *MatchResult) error {
	if p.ProcessedCount >= p.TotalCount {
		return fmt.Errorf("%w: already processed %d of %d", ErrProgressNotMonotonic, p.ProcessedCount, p.TotalCount)
	}
	p.ProcessedCount++
	if result != nil {
		p.Results = append(p.Results, *result)
	}
	return nil
}

// Reset clears batch progress before a full re-run. Retry re-processes the
// original candidate list from the beginning.
func (p *MatchPayload) Reset() {
	p.ProcessedCount = 0
	p.Results = nil
}

// MarshalPayload serializes the kind-specific payload for persistence.
func (t *Task) MarshalPayload() ([]byte, error) {
	switch t.Kind {
	case TaskKindParse:
		return json.Marshal(t.Parse)
	case TaskKindMatchBatch:
		return json.Marshal(t.Match)
	case TaskKindGenerate:
		return json.Marshal(t.Generate)
	default:
		return nil, ErrInvalidTaskKind
	}
}

// UnmarshalPayload decodes a persisted payload into the field matching the
// task's kind.
func (t *Task) UnmarshalPayload(data []byte) error {
	switch t.Kind {
	case TaskKindParse:
		t.Parse = &ParsePayload{}
		return json.Unmarshal(data, t.Parse)
	case TaskKindMatchBatch:
		t.Match = &MatchPayload{}
		return json.Unmarshal(data, t.Match)
	case TaskKindGenerate:
		t.Generate = &GeneratePayload{}
		return json.Unmarshal(data, t.Generate)
	default:
		return ErrInvalidTaskKind
	}
}

func isValidTaskKind(kind TaskKind) bool {
	switch kind {
	case TaskKindParse, TaskKindMatchBatch, TaskKindGenerate:
		return true
	default:
		return false
	}
}

func isValidTaskStatus(status TaskStatus) bool {
	switch status {
	case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}
