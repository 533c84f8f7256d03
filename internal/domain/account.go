package domain

import (
	"errors"
	"time"
)

// Account represents a registered user.
type Account struct {
	ID                int64
	FirstName         string
	LastName          string
	Email             string
	Country           string
	PhoneNumber       string
	PasswordHash      string
	IsVerified        bool
	IsAdmin           bool
	VerificationToken string
	ResetToken        string
	ResetExpiresAt    *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Sentinel errors surfaced by the account store.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrAccountIsAdmin  = errors.New("account is an admin")
)

// Countries lists the values accepted for Account.Country.
var Countries = []string{
	"India",
	"United States",
	"Canada",
	"United Kingdom",
	"Australia",
}

// ValidCountry reports whether value is one of the supported countries.
func ValidCountry(value string) bool {
	for _, country := range Countries {
		if country == value {
			return true
		}
	}
	return false
}

// ValidPhoneNumber reports whether value is exactly ten ASCII digits.
func ValidPhoneNumber(value string) bool {
	if len(value) != 10 {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
