package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hirewire/talent-api/internal/domain"
	"github.com/hirewire/talent-api/internal/platform/logger"
	"github.com/hirewire/talent-api/internal/store"
)

// PostgresCandidateStore implements the store.CandidateStore interface
// using PostgreSQL.
type PostgresCandidateStore struct {
	db store.DBTX
}

// NewPostgresCandidateStore creates a new PostgresCandidateStore.
func NewPostgresCandidateStore(db store.DBTX) *PostgresCandidateStore {
	return &PostgresCandidateStore{
		db: db,
	}
}

// CreateCandidate persists a candidate record produced by resume parsing.
func (s *PostgresCandidateStore) CreateCandidate(ctx context.Context, c *domain.Candidate) error {
	log := logger.FromContext(ctx)

	if err := c.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO candidates (id, name, email, phone, skills, summary, source_filename, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.ExecContext(ctx, query,
		c.ID,
		c.Name,
		c.Email,
		c.Phone,
		strings.Join(c.Skills, ","),
		c.Summary,
		c.SourceFilename,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to insert candidate", "candidate_id", c.ID, "error", err)
		return fmt.Errorf("failed to insert candidate: %w", err)
	}
	return nil
}

// GetCandidate retrieves a candidate by ID.
func (s *PostgresCandidateStore) GetCandidate(ctx context.Context, id uuid.UUID) (*domain.Candidate, error) {
	query := `
		SELECT id, name, email, phone, skills, summary, source_filename, created_at, updated_at
		FROM candidates
		WHERE id = $1
	`

	var c domain.Candidate
	var skills sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&skills,
		&c.Summary,
		&c.SourceFilename,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrCandidateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	if skills.Valid && skills.String != "" {
		c.Skills = strings.Split(skills.String, ",")
	}
	return &c, nil
}
