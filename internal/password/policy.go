package password

import (
	"errors"
	"strings"
	"unicode"
)

const minLength = 8

// symbols is the punctuation set at least one of which must appear.
const symbols = "!@#$%^&*()_+-=[]{}|;:'\",.<>/?`~\\"

// Policy violations reported by ValidatePolicy.
var (
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters long")
	ErrPasswordNeedsDigit = errors.New("password must contain at least one digit")
	ErrPasswordNeedsSymbol = errors.New("password must contain at least one symbol")
)

// ValidatePolicy checks a plaintext password against the account password
// policy. It is enforced by callers before Hash is attempted.
func ValidatePolicy(plaintext string) error {
	if len(plaintext) < minLength {
		return ErrPasswordTooShort
	}
	hasDigit := false
	hasSymbol := false
	for _, r := range plaintext {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(symbols, r):
			hasSymbol = true
		}
	}
	if !hasDigit {
		return ErrPasswordNeedsDigit
	}
	if !hasSymbol {
		return ErrPasswordNeedsSymbol
	}
	return nil
}
