package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCandidate(t *testing.T) {
	t.Run("creates valid candidate", func(t *testing.T) {
		c, err := NewCandidate("Ada Lovelace", "ada@example.com", "555-0100",
			[]string{"mathematics", "programming"}, "pioneer", "ada.pdf")
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, c.ID)
		assert.Equal(t, "Ada Lovelace", c.Name)
		assert.Equal(t, "ada.pdf", c.SourceFilename)
		assert.False(t, c.CreatedAt.IsZero())
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewCandidate("", "ada@example.com", "", nil, "", "ada.pdf")
		assert.ErrorIs(t, err, ErrEmptyCandidateName)
	})

	t.Run("optional fields may be empty", func(t *testing.T) {
		c, err := NewCandidate("Ada Lovelace", "", "", nil, "", "")
		require.NoError(t, err)
		assert.NoError(t, c.Validate())
	})
}
