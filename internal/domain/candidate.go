package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Candidate.
var (
	ErrEmptyCandidateID   = errors.New("candidate ID cannot be empty")
	ErrEmptyCandidateName = errors.New("candidate name cannot be empty")
)

// Candidate is the structured record produced by parsing an uploaded resume.
type Candidate struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Skills         []string  `json:"skills,omitempty"`
	Summary        string    `json:"summary,omitempty"`
	SourceFilename string    `json:"source_filename,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewCandidate creates a candidate record with a fresh ID and timestamps.
// Returns an error if validation fails.
func NewCandidate(name, email, phone string, skills []string, summary, sourceFilename string) (*Candidate, error) {
	now := time.Now().UTC()
	c := &Candidate{
		ID:             uuid.New(),
		Name:           name,
		Email:          email,
		Phone:          phone,
		Skills:         skills,
		Summary:        summary,
		SourceFilename: sourceFilename,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks if the Candidate has valid data.
func (c *Candidate) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCandidateID
	}
	if c.Name == "" {
		return ErrEmptyCandidateName
	}
	return nil
}
