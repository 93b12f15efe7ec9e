package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"finanzas/internal/core"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewSessionManagerRejectsShortSecret(t *testing.T) {
	_, err := NewSessionManager("short", time.Hour)
	require.Error(t, err)
	_, err = NewSessionManager(testSecret, 0)
	require.Error(t, err)
}

func TestSessionRoundTrip(t *testing.T) {
	m, err := NewSessionManager(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := m.Issue(42)
	require.NoError(t, err)

	id, err := m.Resolve(token)
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
}

func TestSessionTokensAreUnique(t *testing.T) {
	m, err := NewSessionManager(testSecret, time.Hour)
	require.NoError(t, err)
	a, _ := m.Issue(1)
	b, _ := m.Issue(1)
	require.NotEqual(t, a, b)
}

func TestResolveRejectsBadTokens(t *testing.T) {
	m, err := NewSessionManager(testSecret, time.Hour)
	require.NoError(t, err)
	valid, err := m.Issue(7)
	require.NoError(t, err)

	other, err := NewSessionManager(strings.Repeat("x", 32), time.Hour)
	require.NoError(t, err)
	foreign, err := other.Issue(7)
	require.NoError(t, err)

	// A plaintext user id is what an unsigned cookie would carry.
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "7", Issuer: issuer}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"plain user id", "7"},
		{"garbage", "not.a.token"},
		{"tampered signature", valid[:len(valid)-2] + "xx"},
		{"signed with another secret", foreign},
		{"alg none", unsigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Resolve(tt.token)
			require.ErrorIs(t, err, core.ErrMissingSession)
		})
	}
}

func TestResolveRejectsExpiredToken(t *testing.T) {
	m, err := NewSessionManager(testSecret, time.Minute)
	require.NoError(t, err)
	issued := time.Now()
	m.now = func() time.Time { return issued }

	token, err := m.Issue(3)
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = m.Resolve(token)
	require.ErrorIs(t, err, core.ErrMissingSession)
}
