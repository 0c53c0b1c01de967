package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_AccessAndRefresh(t *testing.T) {
	m := NewJWTManager("access", "refresh", time.Minute, time.Hour)

	access, aexp, err := m.GenerateAccessToken(7, "sid-1")
	require.NoError(t, err)
	assert.True(t, aexp.After(time.Now()))

	claims, err := m.ParseAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "sid-1", claims.SessionID)

	_, err = m.ParseRefreshToken(access)
	assert.Error(t, err, "access token is not a refresh token")

	refresh, _, err := m.GenerateRefreshToken(7, "sid-1")
	require.NoError(t, err)
	_, err = m.ParseRefreshToken(refresh)
	assert.NoError(t, err)
}

func TestJWTManager_Expired(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewJWTManager("access", "refresh", time.Minute, time.Hour)
	m.Now = func() time.Time { return now }

	tok, _, err := m.GenerateAccessToken(1, "s")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = m.ParseAccessToken(tok)
	assert.ErrorIs(t, err, ErrSessionToken)
}
