package helpers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedTokens(secret string, now *time.Time) *ActionTokens {
	a := NewActionTokens(secret)
	a.Now = func() time.Time { return *now }
	return a
}

func TestActionTokens_RoundTrip(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := fixedTokens("secret", &now)

	tok, err := a.Generate(PurposeChangeEmail, 42, "new@example.com", time.Hour)
	require.NoError(t, err)

	claims, ok := a.Verify(tok, PurposeChangeEmail)
	require.True(t, ok)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "new@example.com", claims.NewEmail)
}

func TestActionTokens_Expiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := fixedTokens("secret", &now)
	tok, err := a.Generate(PurposeConfirm, 1, "", time.Hour)
	require.NoError(t, err)

	now = now.Add(59 * time.Minute)
	_, ok := a.Verify(tok, PurposeConfirm)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = a.Verify(tok, PurposeConfirm)
	assert.False(t, ok)
}

func TestActionTokens_WrongPurpose(t *testing.T) {
	now := time.Now()
	a := fixedTokens("secret", &now)
	tok, err := a.Generate(PurposeConfirm, 1, "", time.Hour)
	require.NoError(t, err)

	_, ok := a.Verify(tok, PurposeReset)
	assert.False(t, ok)
	_, ok = a.Verify(tok, PurposeChangeEmail)
	assert.False(t, ok)
}

func TestActionTokens_TamperedOrForeign(t *testing.T) {
	now := time.Now()
	a := fixedTokens("secret", &now)
	other := fixedTokens("another secret", &now)
	tok, err := a.Generate(PurposeReset, 1, "", time.Hour)
	require.NoError(t, err)

	_, ok := other.Verify(tok, PurposeReset)
	assert.False(t, ok, "signed with a different secret")

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	_, ok = a.Verify(parts[0]+"."+parts[1]+"."+string(sig), PurposeReset)
	assert.False(t, ok, "signature flipped")

	for _, junk := range []string{"", "abc", "a.b.c", tok + "x"} {
		_, ok = a.Verify(junk, PurposeReset)
		assert.False(t, ok, "malformed %q", junk)
	}
}

func TestActionTokens_Stamped(t *testing.T) {
	now := time.Now()
	a := fixedTokens("secret", &now)
	stamp := PasswordStamp("$2a$04$hash")
	tok, err := a.GenerateStamped(PurposeReset, 7, stamp, time.Hour)
	require.NoError(t, err)

	claims, ok := a.Verify(tok, PurposeReset)
	require.True(t, ok)
	assert.Equal(t, stamp, claims.Stamp)
	assert.Empty(t, claims.NewEmail)
	assert.NotEqual(t, stamp, PasswordStamp("$2a$04$other"))
}
