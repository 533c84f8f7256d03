package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestService(sessionTTL time.Duration) *Service {
	return NewService([]byte("test-secret"), "auth-test", sessionTTL)
}

func TestSessionRoundTrip(t *testing.T) {
	svc := newTestService(0)

	raw, err := svc.IssueSession(42, true)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := svc.Verify(raw, PurposeSession)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.AccountID)
	require.True(t, claims.IsAdmin)
	require.Equal(t, PurposeSession, claims.Purpose)
}

func TestSessionWithoutTTLNeverExpires(t *testing.T) {
	svc := newTestService(0)

	raw, err := svc.IssueSession(7, false)
	require.NoError(t, err)

	// Verify far in the future; with no expiry claim only the signature counts.
	svc.now = func() time.Time { return time.Now().Add(10 * 365 * 24 * time.Hour) }
	claims, err := svc.Verify(raw, PurposeSession)
	require.NoError(t, err)
	require.Equal(t, int64(7), claims.AccountID)
}

func TestShortLivedRoundTrip(t *testing.T) {
	svc := newTestService(0)

	raw, err := svc.IssueShortLived("a@x.com", PurposeVerifyEmail, time.Hour)
	require.NoError(t, err)

	claims, err := svc.Verify(raw, PurposeVerifyEmail)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", claims.Email)
	require.Zero(t, claims.AccountID)
}

func TestShortLivedExpires(t *testing.T) {
	svc := newTestService(0)

	raw, err := svc.IssueShortLived("a@x.com", PurposePasswordReset, time.Hour)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Verify(raw, PurposePasswordReset)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRejectsWrongPurpose(t *testing.T) {
	svc := newTestService(0)

	raw, err := svc.IssueShortLived("a@x.com", PurposeVerifyEmail, time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify(raw, PurposePasswordReset)
	require.ErrorIs(t, err, ErrInvalid)

	_, err = svc.Verify(raw, PurposeSession)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	svc := newTestService(0)
	other := NewService([]byte("different-secret"), "auth-test", 0)

	raw, err := other.IssueSession(1, false)
	require.NoError(t, err)

	_, err = svc.Verify(raw, PurposeSession)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := newTestService(0)

	_, err := svc.Verify("not-a-token", PurposeSession)
	require.ErrorIs(t, err, ErrInvalid)
}
