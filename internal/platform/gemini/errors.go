package gemini

import "errors"

// Input validation errors.
var (
	// ErrEmptyDocument is returned when ParseResume receives no document bytes.
	ErrEmptyDocument = errors.New("resume document cannot be empty")

	// ErrEmptySubject is returned when GenerateContent receives no subject.
	ErrEmptySubject = errors.New("generation subject cannot be empty")

	// ErrNilCandidate is returned when ScoreCandidate receives a nil candidate.
	ErrNilCandidate = errors.New("candidate cannot be nil")
)
