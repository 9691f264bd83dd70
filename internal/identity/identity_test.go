package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "signet/pkg/domain-errors"
)

func TestValidateToken(t *testing.T) {
	v := NewValidator("test-secret")
	userID := uuid.New()

	t.Run("accepts a token it issued", func(t *testing.T) {
		token, err := v.IssueAccessToken(userID, "owner@example.com", time.Hour)
		require.NoError(t, err)

		claims, err := v.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, "owner@example.com", claims.Email)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		token, err := v.IssueAccessToken(userID, "owner@example.com", -time.Minute)
		require.NoError(t, err)

		_, err = v.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		other := NewValidator("other-secret")
		token, err := other.IssueAccessToken(userID, "", time.Hour)
		require.NoError(t, err)

		_, err = v.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := v.ValidateToken("not-a-jwt")
		require.Error(t, err)
	})
}
