package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hirewire/talent-api/internal/domain"
	"github.com/hirewire/talent-api/internal/platform/logger"
	"github.com/hirewire/talent-api/internal/store"
)

// PostgresMatchStore implements the store.MatchStore interface using
// PostgreSQL.
type PostgresMatchStore struct {
	db store.DBTX
}

// NewPostgresMatchStore creates a new PostgresMatchStore.
func NewPostgresMatchStore(db store.DBTX) *PostgresMatchStore {
	return &PostgresMatchStore{
		db: db,
	}
}

// UpsertMatch inserts a match result or overwrites the existing one for
// the same (job, candidate) pair. Re-running a batch refreshes scores in
// place instead of accumulating duplicates.
func (s *PostgresMatchStore) UpsertMatch(ctx context.Context, m *domain.MatchResult) error {
	log := logger.FromContext(ctx)

	if err := m.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO match_results (id, job_id, candidate_id, score, summary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (job_id, candidate_id)
		DO UPDATE SET score = EXCLUDED.score, summary = EXCLUDED.summary, updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		m.ID,
		m.JobID,
		m.CandidateID,
		m.Score,
		m.Summary,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to upsert match result",
			"job_id", m.JobID,
			"candidate_id", m.CandidateID,
			"error", err)
		return fmt.Errorf("failed to upsert match result: %w", err)
	}
	return nil
}

// ListMatchesByJob retrieves all match results for a job, highest score first.
func (s *PostgresMatchStore) ListMatchesByJob(ctx context.Context, jobID uuid.UUID) ([]*domain.MatchResult, error) {
	query := `
		SELECT id, job_id, candidate_id, score, summary, created_at, updated_at
		FROM match_results
		WHERE job_id = $1
		ORDER BY score DESC
	`

	rows, err := s.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list match results: %w", err)
	}
	defer rows.Close()

	var results []*domain.MatchResult
	for rows.Next() {
		var m domain.MatchResult
		if err := rows.Scan(&m.ID, &m.JobID, &m.CandidateID, &m.Score, &m.Summary, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match result row: %w", err)
		}
		results = append(results, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match result rows: %w", err)
	}
	return results, nil
}
