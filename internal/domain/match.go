package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for MatchResult.
var (
	ErrEmptyMatchJobID       = errors.New("match job ID cannot be empty")
	ErrEmptyMatchCandidateID = errors.New("match candidate ID cannot be empty")
	ErrInvalidMatchScore     = errors.New("match score must be between 0 and 100")
)

// MatchResult is one candidate's scored fit for a job posting. Results are
// keyed by (JobID, CandidateID); re-running a batch overwrites the previous
// score for the pair.
type MatchResult struct {
	ID          uuid.UUID `json:"id"`
	JobID       uuid.UUID `json:"job_id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	Score       float64   `json:"score"`
	Summary     string    `json:"summary,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewMatchResult creates a match result for a (job, candidate) pair.
func NewMatchResult(jobID, candidateID uuid.UUID, score float64, summary string) (*MatchResult, error) {
	now := time.Now().UTC()
	m := &MatchResult{
		ID:          uuid.New(),
		JobID:       jobID,
		CandidateID: candidateID,
		Score:       score,
		Summary:     summary,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks if the MatchResult has valid data.
func (m *MatchResult) Validate() error {
	if m.JobID == uuid.Nil {
		return ErrEmptyMatchJobID
	}
	if m.CandidateID == uuid.Nil {
		return ErrEmptyMatchCandidateID
	}
	if m.Score < 0 || m.Score > 100 {
		return ErrInvalidMatchScore
	}
	return nil
}
