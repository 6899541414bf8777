package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shift-payroll/auth"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := auth.HashPassword("super-secret")
	require.NoError(t, err)
	assert.NotEqual(t, "super-secret", hash)

	assert.NoError(t, auth.CheckPassword(hash, "super-secret"))
	assert.ErrorIs(t, auth.CheckPassword(hash, "wrong"), auth.ErrInvalidCredentials)
	assert.ErrorIs(t, auth.CheckPassword("", "super-secret"), auth.ErrInvalidCredentials)
	assert.ErrorIs(t, auth.CheckPassword("not-a-hash", "super-secret"), auth.ErrInvalidCredentials)
}

func TestGenerateAndParseToken(t *testing.T) {
	token, err := auth.GenerateToken("test-secret", time.Now(), time.Hour)
	require.NoError(t, err)

	claims, err := auth.ParseToken("test-secret", token, time.Now())
	require.NoError(t, err)
	assert.Equal(t, auth.SettingsScope, claims.Scope)
}

func TestParseToken_UsesGivenClock(t *testing.T) {
	// GIVEN: A token issued on a fixed clock far from the wall clock
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	token, err := auth.GenerateToken("test-secret", issued, time.Hour)
	require.NoError(t, err)

	// WHEN: Verifying it on the same clock, inside its lifetime
	claims, err := auth.ParseToken("test-secret", token, issued.Add(30*time.Minute))

	// THEN: It is accepted
	require.NoError(t, err)
	assert.True(t, issued.Add(time.Hour).Equal(claims.ExpiresAt.Time))
}

func TestParseToken_Rejects(t *testing.T) {
	t.Run("wrong secret", func(t *testing.T) {
		token, err := auth.GenerateToken("test-secret", time.Now(), time.Hour)
		require.NoError(t, err)

		_, err = auth.ParseToken("other-secret", token, time.Now())
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := auth.GenerateToken("test-secret", time.Now().Add(-2*time.Hour), time.Hour)
		require.NoError(t, err)

		_, err = auth.ParseToken("test-secret", token, time.Now())
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("expired at the verifying clock", func(t *testing.T) {
		issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		token, err := auth.GenerateToken("test-secret", issued, time.Hour)
		require.NoError(t, err)

		_, err = auth.ParseToken("test-secret", token, issued.Add(2*time.Hour))
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("other scope", func(t *testing.T) {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{Scope: "admin"}).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = auth.ParseToken("test-secret", signed, time.Now())
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := auth.ParseToken("test-secret", "not.a.token", time.Now())
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}
