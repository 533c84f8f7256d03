package service

import (
	"time"

	"github.com/charchit19/auth-mindsparkle/internal/domain"
)

// AccountView is the external representation of an account. The password
// hash and token columns never leave the service layer.
type AccountView struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	PhoneNumber string    `json:"phoneNumber"`
	IsVerified  bool      `json:"isVerified"`
	IsAdmin     bool      `json:"isAdmin"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newAccountView(account domain.Account) AccountView {
	return AccountView{
		ID:          account.ID,
		FirstName:   account.FirstName,
		LastName:    account.LastName,
		Email:       account.Email,
		Country:     account.Country,
		PhoneNumber: account.PhoneNumber,
		IsVerified:  account.IsVerified,
		IsAdmin:     account.IsAdmin,
		CreatedAt:   account.CreatedAt,
	}
}

// RegisterRequest carries the registration payload.
type RegisterRequest struct {
	FirstName     string
	LastName      string
	Email         string
	Country       string
	PhoneNumber   string
	Password      string
	BotCheckToken string
}

// LoginResult is returned on successful login.
type LoginResult struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	Token   string `json:"token"`
	IsAdmin bool   `json:"isAdmin"`
}

// UpdateProfileRequest patches the self-service mutable fields. Email and
// the admin flag are immutable here.
type UpdateProfileRequest struct {
	FirstName   string
	LastName    string
	Country     string
	PhoneNumber string
}

// AdminUpdateRequest patches the admin-editable fields. Empty fields are
// left unchanged; IsVerified applies only when non-nil. Password and the
// admin flag are never touched through this path.
type AdminUpdateRequest struct {
	FirstName   string
	LastName    string
	Email       string
	Country     string
	PhoneNumber string
	IsVerified  *bool
}
