package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerRejectsBadConfig(t *testing.T) {
	_, err := NewManager("", "HS256", 30, 1440)
	assert.Error(t, err)

	_, err = NewManager("secret", "RS256", 30, 1440)
	assert.Error(t, err)

	_, err = NewManager("secret", "NOPE", 30, 1440)
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	mgr, err := NewManager("secret", "HS256", 30, 1440)
	require.NoError(t, err)

	token, err := mgr.CreateAccessToken("user-1", "admin", "a@b.cd")
	require.NoError(t, err)

	claims, err := mgr.DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "admin", claims.RoleOrType)
	assert.Equal(t, "a@b.cd", claims.Email)

	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	assert.Equal(t, 30*time.Minute, ttl)
}

func TestRefreshTokenLifetime(t *testing.T) {
	mgr, err := NewManager("secret", "HS256", 30, 1440)
	require.NoError(t, err)

	token, err := mgr.CreateRefreshToken("user-1", "client", "a@b.cd")
	require.NoError(t, err)

	claims, err := mgr.DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestDecodeExpiredToken(t *testing.T) {
	mgr, err := NewManager("secret", "HS256", 30, 1440)
	require.NoError(t, err)

	token, err := mgr.create("user-1", "admin", "a@b.cd", -time.Minute)
	require.NoError(t, err)

	_, err = mgr.DecodeToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestDecodeWrongSecret(t *testing.T) {
	mgr, err := NewManager("secret", "HS256", 30, 1440)
	require.NoError(t, err)
	other, err := NewManager("autre", "HS256", 30, 1440)
	require.NoError(t, err)

	token, err := mgr.CreateAccessToken("user-1", "admin", "a@b.cd")
	require.NoError(t, err)

	_, err = other.DecodeToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("s3cr3t")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cr3t", hashed)

	assert.True(t, VerifyPassword("s3cr3t", hashed))
	assert.False(t, VerifyPassword("wrong", hashed))
}
