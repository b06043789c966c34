package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatchResult(t *testing.T) {
	jobID := uuid.New()
	candidateID := uuid.New()

	t.Run("creates valid result", func(t *testing.T) {
		m, err := NewMatchResult(jobID, candidateID, 92.5, "excellent fit")
		require.NoError(t, err)
		assert.Equal(t, jobID, m.JobID)
		assert.Equal(t, candidateID, m.CandidateID)
		assert.Equal(t, 92.5, m.Score)
	})

	t.Run("accepts score boundaries", func(t *testing.T) {
		_, err := NewMatchResult(jobID, candidateID, 0, "")
		assert.NoError(t, err)
		_, err = NewMatchResult(jobID, candidateID, 100, "")
		assert.NoError(t, err)
	})

	t.Run("rejects out of range scores", func(t *testing.T) {
		_, err := NewMatchResult(jobID, candidateID, -1, "")
		assert.ErrorIs(t, err, ErrInvalidMatchScore)
		_, err = NewMatchResult(jobID, candidateID, 100.5, "")
		assert.ErrorIs(t, err, ErrInvalidMatchScore)
	})

	t.Run("rejects nil IDs", func(t *testing.T) {
		_, err := NewMatchResult(uuid.Nil, candidateID, 50, "")
		assert.ErrorIs(t, err, ErrEmptyMatchJobID)
		_, err = NewMatchResult(jobID, uuid.Nil, 50, "")
		assert.ErrorIs(t, err, ErrEmptyMatchCandidateID)
	})
}
