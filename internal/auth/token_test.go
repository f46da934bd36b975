package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, userID, name string, exp time.Time) string {
	t.Helper()

	claims := Claims{
		UserID: userID,
		Name:   name,
	}
	if !exp.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestDecodeClaims(t *testing.T) {
	token := signedToken(t, "u1", "alice", time.Now().Add(time.Hour))

	claims, err := DecodeClaims(token)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.UserID)
	require.Equal(t, "alice", claims.Name)
}

func TestDecodeClaims_Malformed(t *testing.T) {
	_, err := DecodeClaims("not-a-token")
	require.Error(t, err)
}

func TestExpired(t *testing.T) {
	now := time.Now()

	require.False(t, Expired(signedToken(t, "u1", "alice", now.Add(time.Hour)), now))
	require.True(t, Expired(signedToken(t, "u1", "alice", now.Add(-time.Minute)), now))
	require.False(t, Expired(signedToken(t, "u1", "alice", time.Time{}), now), "no exp claim never expires")
	require.True(t, Expired("garbage", now))
}
