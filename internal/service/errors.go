package service

import (
	"fmt"
	"net/http"
)

// AuthError is a client-visible business-rule violation. Anything else that
// escapes the service layer is collapsed to a generic server error at the
// handler boundary.
type AuthError struct {
	Code        string
	Description string
	Status      int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func newAuthError(code, desc string, status int) *AuthError {
	return &AuthError{Code: code, Description: desc, Status: status}
}

func errValidation(desc string) *AuthError {
	return newAuthError("invalid_request", desc, http.StatusBadRequest)
}

func errInvalidCredentials() *AuthError {
	// Identical wording for unknown email and wrong password so the login
	// endpoint cannot be used for account enumeration.
	return newAuthError("invalid_credentials", "Invalid credentials.", http.StatusBadRequest)
}

func errEmailNotVerified() *AuthError {
	return newAuthError("email_not_verified", "Please verify your email first.", http.StatusBadRequest)
}

func errDuplicateEmail() *AuthError {
	return newAuthError("duplicate_email", "User already exists.", http.StatusBadRequest)
}

func errBotCheckFailed() *AuthError {
	return newAuthError("bot_check_failed", "reCAPTCHA verification failed.", http.StatusBadRequest)
}

func errAccountNotFound() *AuthError {
	return newAuthError("not_found", "User not found.", http.StatusNotFound)
}

func errAlreadyVerified() *AuthError {
	return newAuthError("already_verified", "Email is already verified.", http.StatusBadRequest)
}

func errInvalidOrExpiredToken() *AuthError {
	return newAuthError("invalid_token", "Invalid or expired token.", http.StatusBadRequest)
}

func errCannotDeleteAdmin() *AuthError {
	return newAuthError("cannot_delete_admin", "Can't delete admin.", http.StatusBadRequest)
}

func errUpstreamFailure(desc string) *AuthError {
	return newAuthError("upstream_failure", desc, http.StatusInternalServerError)
}
