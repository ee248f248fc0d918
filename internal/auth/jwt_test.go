package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	t.Parallel()

	manager := NewJWTManager("test-secret", time.Hour)

	token, err := manager.GenerateToken("user1", "user1@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, "user1", claims.UserID)
	require.Equal(t, "user1@example.com", claims.Email)
	require.NotNil(t, claims.ExpiresAt)
}

func TestJWTManager_VerifyToken_Failures(t *testing.T) {
	t.Parallel()

	manager := NewJWTManager("test-secret", time.Hour)

	t.Run("wrong_secret", func(t *testing.T) {
		t.Parallel()

		other := NewJWTManager("other-secret", time.Hour)
		token, err := other.GenerateToken("user1", "user1@example.com")
		require.NoError(t, err)

		_, err = manager.VerifyToken(token)
		require.Error(t, err)
	})

	t.Run("expired_token", func(t *testing.T) {
		t.Parallel()

		expired := NewJWTManager("test-secret", -time.Minute)
		token, err := expired.GenerateToken("user1", "user1@example.com")
		require.NoError(t, err)

		_, err = manager.VerifyToken(token)
		require.Error(t, err)
	})

	t.Run("garbage_token", func(t *testing.T) {
		t.Parallel()

		_, err := manager.VerifyToken("not.a.token")
		require.Error(t, err)
	})

	t.Run("unexpected_signing_method", func(t *testing.T) {
		t.Parallel()

		// alg=none tokens must never pass
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user1"})
		token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = manager.VerifyToken(token)
		require.Error(t, err)
	})
}
