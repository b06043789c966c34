package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/hirewire/talent-api/internal/domain"
)

// CreateTaskRequest is the request body for submitting a task, immediate or
// deferred. Exactly one of the payload objects must be set, matching Kind.
type CreateTaskRequest struct {
	Kind         string                 `json:"kind"          validate:"required,oneof=parse match_batch generate"`
	ScheduledFor *time.Time             `json:"scheduled_for,omitempty"`
	Parse        *ParseRequestPayload   `json:"parse,omitempty"`
	Match        *MatchRequestPayload   `json:"match,omitempty"`
	Generate     *GenerateRequestPayload `json:"generate,omitempty"`
}

// ParseRequestPayload carries the input for a resume parse task.
type ParseRequestPayload struct {
	FileKey  string `json:"file_key" validate:"required"`
	Filename string `json:"filename"`
}

// MatchRequestPayload carries the input for a matching batch.
type MatchRequestPayload struct {
	JobID        uuid.UUID   `json:"job_id"        validate:"required"`
	CandidateIDs []uuid.UUID `json:"candidate_ids" validate:"required,min=1"`
}

// GenerateRequestPayload carries the input for a content generation task.
type GenerateRequestPayload struct {
	RequestID  uuid.UUID `json:"request_id,omitempty"`
	Subject    string    `json:"subject"    validate:"required"`
	Department string    `json:"department,omitempty"`
}

// TaskResponse represents the response data for a task.
type TaskResponse struct {
	ID           string     `json:"id"`
	Kind         string     `json:"kind"`
	Status       string     `json:"status"`
	ResourceKey  string     `json:"resource_key"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`

	Parse    *domain.ParsePayload    `json:"parse,omitempty"`
	Match    *domain.MatchPayload    `json:"match,omitempty"`
	Generate *domain.GeneratePayload `json:"generate,omitempty"`
}

// CleanupResponse reports how many stuck tasks a manual cleanup pass cleared.
type CleanupResponse struct {
	Reaped int `json:"reaped"`
}

// taskToResponse transforms a domain task into its API representation.
func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:           t.ID.String(),
		Kind:         string(t.Kind),
		Status:       string(t.Status),
		ResourceKey:  t.ResourceKey,
		ScheduledFor: t.ScheduledFor,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		CompletedAt:  t.CompletedAt,
		ErrorMessage: t.ErrorMessage,
		Parse:        t.Parse,
		Match:        t.Match,
		Generate:     t.Generate,
	}
}

// tasksToResponse transforms a slice of domain tasks.
func tasksToResponse(tasks []*domain.Task) []TaskResponse {
	responses := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		responses = append(responses, taskToResponse(t))
	}
	return responses
}
