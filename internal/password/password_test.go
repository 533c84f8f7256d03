package password_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charchit19/auth-mindsparkle/internal/password"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := password.Hash("longenough1!")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.Contains(t, hash, "$argon2id$")

	ok, err := password.Verify("longenough1!", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = password.Verify("wrong password", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashIsSalted(t *testing.T) {
	first, err := password.Hash("longenough1!")
	require.NoError(t, err)
	second, err := password.Hash("longenough1!")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	_, err := password.Verify("anything", "not-a-hash")
	require.Error(t, err)
}

func TestValidatePolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"seven chars rejected", "short1!", password.ErrPasswordTooShort},
		{"no digit or symbol rejected", "longenough", password.ErrPasswordNeedsDigit},
		{"no symbol rejected", "longenough1", password.ErrPasswordNeedsSymbol},
		{"full policy accepted", "longenough1!", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := password.ValidatePolicy(tt.password)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
