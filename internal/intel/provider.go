package intel

import (
	"context"

	"github.com/google/uuid"
	"github.com/hirewire/talent-api/internal/domain"
)

// ParsedResume is the structured result of parsing a resume document.
type ParsedResume struct {
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Phone   string   `json:"phone"`
	Skills  []string `json:"skills"`
	Summary string   `json:"summary"`
}

// MatchScore is the provider's assessment of one candidate's fit for a job.
type MatchScore struct {
	Score   float64 `json:"score"`
	Summary string  `json:"summary"`
}

// ResumeParser turns an uploaded resume document into structured fields.
type ResumeParser interface {
	// ParseResume extracts candidate fields from the raw document bytes.
	// The filename is passed along as a hint for the document format.
	ParseResume(ctx context.Context, data []byte, filename string) (*ParsedResume, error)
}

// MatchScorer evaluates how well a candidate fits a job posting.
type MatchScorer interface {
	// ScoreCandidate returns a 0-100 score and a short summary for the
	// candidate against the given job. Returns ErrUnavailable when the
	// provider is globally unreachable.
	ScoreCandidate(ctx context.Context, jobID uuid.UUID, candidate *domain.Candidate) (*MatchScore, error)
}

// ContentGenerator produces text content for a subject, such as a job
// description for a title and department.
type ContentGenerator interface {
	// GenerateContent returns generated text for the subject.
	GenerateContent(ctx context.Context, subject, department string) (string, error)
}
