package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService(t *testing.T) {
	t.Run("generate and validate", func(t *testing.T) {
		svc := NewJWTService("test-secret", 1)
		userID := uuid.New()

		token, err := svc.Generate(userID, "alice@example.com", "Alice")
		require.NoError(t, err)

		claims, err := svc.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, "alice@example.com", claims.Email)
		assert.Equal(t, "Alice", claims.Name)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		token, err := NewJWTService("secret-a", 1).Generate(uuid.New(), "a@b.c", "A")
		require.NoError(t, err)

		_, err = NewJWTService("secret-b", 1).Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		svc := NewJWTService("test-secret", -1)
		token, err := svc.Generate(uuid.New(), "a@b.c", "A")
		require.NoError(t, err)

		_, err = svc.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := NewJWTService("test-secret", 1).Validate("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
