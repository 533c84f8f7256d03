package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/charchit19/auth-mindsparkle/internal/adapter/captcha"
	"github.com/charchit19/auth-mindsparkle/internal/config"
	"github.com/charchit19/auth-mindsparkle/internal/domain"
	"github.com/charchit19/auth-mindsparkle/internal/mail"
	pw "github.com/charchit19/auth-mindsparkle/internal/password"
	"github.com/charchit19/auth-mindsparkle/internal/repository"
	"github.com/charchit19/auth-mindsparkle/internal/token"
)

// AdminDirectory answers whether an email is on the admin allow-list.
// Consulted exactly once per account, at registration.
type AdminDirectory interface {
	IsAdminEmail(ctx context.Context, email string) (bool, error)
}

// AuthService encapsulates the self-service authentication flows.
type AuthService struct {
	accounts  repository.AccountRepository
	admins    AdminDirectory
	tokens    *token.Service
	mailer    mail.Mailer
	botCheck  captcha.Verifier
	snowflake *snowflake.Node
	cfg       config.Config
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewAuthService wires dependencies.
func NewAuthService(accounts repository.AccountRepository, admins AdminDirectory, tokens *token.Service, mailer mail.Mailer, botCheck captcha.Verifier, node *snowflake.Node, cfg config.Config, logger *zap.Logger) *AuthService {
	return &AuthService{
		accounts:  accounts,
		admins:    admins,
		tokens:    tokens,
		mailer:    mailer,
		botCheck:  botCheck,
		snowflake: node,
		cfg:       cfg,
		logger:    logger,
		tracer:    otel.Tracer("github.com/charchit19/auth-mindsparkle/internal/service"),
	}
}

// Register creates an unverified account and emails a verification link.
// The caller is not logged in by this call.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) error {
	ctx, span := s.startSpan(ctx, "AuthService.Register")
	defer span.End()

	confirmed, err := s.botCheck.Verify(ctx, req.BotCheckToken)
	if err != nil {
		span.RecordError(err)
		return errUpstreamFailure("Bot-check provider unavailable.")
	}
	if !confirmed {
		return errBotCheckFailed()
	}

	normalized := normalizeEmail(req.Email)
	if err := validateRegistration(req, normalized); err != nil {
		return err
	}

	if _, err := s.accounts.GetByEmail(ctx, normalized); err == nil {
		return errDuplicateEmail()
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		span.RecordError(err)
		return fmt.Errorf("check existing account: %w", err)
	}

	isAdmin, err := s.admins.IsAdminEmail(ctx, normalized)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("admin directory lookup: %w", err)
	}

	hashed, err := pw.Hash(req.Password)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("hash password: %w", err)
	}

	verificationToken, err := s.tokens.IssueShortLived(normalized, token.PurposeVerifyEmail, s.cfg.ShortLivedTokenTTL)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("issue verification token: %w", err)
	}

	account := domain.Account{
		ID:                s.snowflake.Generate().Int64(),
		FirstName:         strings.TrimSpace(req.FirstName),
		LastName:          strings.TrimSpace(req.LastName),
		Email:             normalized,
		Country:           req.Country,
		PhoneNumber:       req.PhoneNumber,
		PasswordHash:      hashed,
		IsVerified:        false,
		IsAdmin:           isAdmin,
		VerificationToken: verificationToken,
	}

	created, err := s.accounts.Create(ctx, account)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return errDuplicateEmail()
		}
		return fmt.Errorf("create account: %w", err)
	}

	s.audit("register.success", "account_id", created.ID, "is_admin", created.IsAdmin)

	// The account mutation stands even if the mail dispatch fails.
	if err := s.sendVerificationEmail(ctx, created.Email, verificationToken); err != nil {
		span.RecordError(err)
		return errUpstreamFailure("Verification email could not be sent.")
	}
	return nil
}

// ResendVerification reissues a verification token for an unverified account.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	ctx, span := s.startSpan(ctx, "AuthService.ResendVerification")
	defer span.End()

	account, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return errAccountNotFound()
		}
		span.RecordError(err)
		return fmt.Errorf("load account: %w", err)
	}
	if account.IsVerified {
		return errAlreadyVerified()
	}

	verificationToken, err := s.tokens.IssueShortLived(account.Email, token.PurposeVerifyEmail, s.cfg.ShortLivedTokenTTL)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("issue verification token: %w", err)
	}

	account.VerificationToken = verificationToken
	if _, err := s.accounts.Update(ctx, account); err != nil {
		span.RecordError(err)
		return fmt.Errorf("store verification token: %w", err)
	}

	if err := s.sendVerificationEmail(ctx, account.Email, verificationToken); err != nil {
		span.RecordError(err)
		return errUpstreamFailure("Verification email could not be sent.")
	}

	s.audit("verification.resend", "account_id", account.ID)
	return nil
}

// VerifyEmail marks the account behind a verification token as verified and
// clears the stored token. Verified is terminal; there is no path back.
func (s *AuthService) VerifyEmail(ctx context.Context, raw string) error {
	ctx, span := s.startSpan(ctx, "AuthService.VerifyEmail")
	defer span.End()

	claims, err := s.tokens.Verify(raw, token.PurposeVerifyEmail)
	if err != nil {
		return errInvalidOrExpiredToken()
	}

	account, err := s.accounts.GetByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return errInvalidOrExpiredToken()
		}
		span.RecordError(err)
		return fmt.Errorf("load account: %w", err)
	}

	account.IsVerified = true
	account.VerificationToken = ""
	if _, err := s.accounts.Update(ctx, account); err != nil {
		span.RecordError(err)
		return fmt.Errorf("mark verified: %w", err)
	}

	s.audit("verification.success", "account_id", account.ID)
	return nil
}

// Login checks credentials and issues a session token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, plaintext string) (LoginResult, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Login")
	defer span.End()

	account, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return LoginResult{}, errInvalidCredentials()
	}

	valid, err := pw.Verify(plaintext, account.PasswordHash)
	if err != nil || !valid {
		return LoginResult{}, errInvalidCredentials()
	}

	if !account.IsVerified {
		return LoginResult{}, errEmailNotVerified()
	}

	session, err := s.tokens.IssueSession(account.ID, account.IsAdmin)
	if err != nil {
		span.RecordError(err)
		return LoginResult{}, fmt.Errorf("issue session token: %w", err)
	}

	s.audit("login.success", "account_id", account.ID, "is_admin", account.IsAdmin)
	return LoginResult{
		ID:      account.ID,
		Email:   account.Email,
		Token:   session,
		IsAdmin: account.IsAdmin,
	}, nil
}

// GetProfile returns the acting principal's own account view.
func (s *AuthService) GetProfile(ctx context.Context, accountID int64) (AccountView, error) {
	ctx, span := s.startSpan(ctx, "AuthService.GetProfile")
	defer span.End()

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return AccountView{}, errAccountNotFound()
		}
		span.RecordError(err)
		return AccountView{}, fmt.Errorf("load account: %w", err)
	}
	return newAccountView(account), nil
}

// UpdateProfile patches the principal's mutable fields. Empty fields keep
// their current value; email and the admin flag cannot be changed here.
func (s *AuthService) UpdateProfile(ctx context.Context, accountID int64, req UpdateProfileRequest) (AccountView, error) {
	ctx, span := s.startSpan(ctx, "AuthService.UpdateProfile")
	defer span.End()

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return AccountView{}, errAccountNotFound()
		}
		span.RecordError(err)
		return AccountView{}, fmt.Errorf("load account: %w", err)
	}

	if err := applyPatch(&account, req.FirstName, req.LastName, req.Country, req.PhoneNumber); err != nil {
		return AccountView{}, err
	}

	updated, err := s.accounts.Update(ctx, account)
	if err != nil {
		span.RecordError(err)
		return AccountView{}, fmt.Errorf("update account: %w", err)
	}

	s.audit("profile.update", "account_id", updated.ID)
	return newAccountView(updated), nil
}

// RequestPasswordReset stores a time-boxed reset token on the account and
// emails a reset link. Unlike login, this endpoint reveals existence.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	ctx, span := s.startSpan(ctx, "AuthService.RequestPasswordReset")
	defer span.End()

	account, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return errAccountNotFound()
		}
		span.RecordError(err)
		return fmt.Errorf("load account: %w", err)
	}

	resetToken, err := s.tokens.IssueShortLived(account.Email, token.PurposePasswordReset, s.cfg.ShortLivedTokenTTL)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("issue reset token: %w", err)
	}

	ttl := s.cfg.ShortLivedTokenTTL
	if ttl <= 0 {
		ttl = token.DefaultShortLivedTTL
	}
	expiry := time.Now().UTC().Add(ttl)
	account.ResetToken = resetToken
	account.ResetExpiresAt = &expiry
	if _, err := s.accounts.Update(ctx, account); err != nil {
		span.RecordError(err)
		return fmt.Errorf("store reset token: %w", err)
	}

	s.audit("password_reset.requested", "account_id", account.ID)

	resetURL := fmt.Sprintf("%s/reset-password/%s", strings.TrimRight(s.cfg.FrontendURL, "/"), resetToken)
	body := fmt.Sprintf(`
      <p>You have requested to reset your password. Please click the link below to reset your password:</p>
      <a href="%s" target="_blank">Click here to reset your password</a>
    `, resetURL)
	if err := s.mailer.Send(ctx, account.Email, "Password Reset", body); err != nil {
		span.RecordError(err)
		return errUpstreamFailure("Password reset email could not be sent.")
	}
	return nil
}

// ResetPassword sets a new password for the account whose stored reset token
// matches and is unexpired, then clears the token so it cannot be reused.
// The stored expiry is checked independently of the token's own signature
// expiry.
func (s *AuthService) ResetPassword(ctx context.Context, raw, newPassword string) error {
	ctx, span := s.startSpan(ctx, "AuthService.ResetPassword")
	defer span.End()

	if _, err := s.tokens.Verify(raw, token.PurposePasswordReset); err != nil {
		return errInvalidOrExpiredToken()
	}
	if err := pw.ValidatePolicy(newPassword); err != nil {
		return errValidation(capitalize(err.Error()) + ".")
	}

	account, err := s.accounts.GetByValidResetToken(ctx, raw, time.Now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return errInvalidOrExpiredToken()
		}
		span.RecordError(err)
		return fmt.Errorf("lookup reset token: %w", err)
	}

	hashed, err := pw.Hash(newPassword)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("hash password: %w", err)
	}

	account.PasswordHash = hashed
	account.ResetToken = ""
	account.ResetExpiresAt = nil
	if _, err := s.accounts.Update(ctx, account); err != nil {
		span.RecordError(err)
		return fmt.Errorf("store new password: %w", err)
	}

	s.audit("password_reset.success", "account_id", account.ID)
	return nil
}

func (s *AuthService) sendVerificationEmail(ctx context.Context, to, verificationToken string) error {
	verificationURL := fmt.Sprintf("%s/api/auth/verify-email/%s", strings.TrimRight(s.cfg.PublicBaseURL, "/"), verificationToken)
	body := fmt.Sprintf(`
      <p>Please verify your email by clicking on the following link:</p>
      <a href="%s" target="_blank">Verify your email</a>
    `, verificationURL)
	return s.mailer.Send(ctx, to, "Email Verification", body)
}

func validateRegistration(req RegisterRequest, normalizedEmail string) error {
	if normalizedEmail == "" {
		return errValidation("Email is required.")
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return errValidation("First and last name are required.")
	}
	if !domain.ValidCountry(req.Country) {
		return errValidation("Country is not supported.")
	}
	if !domain.ValidPhoneNumber(req.PhoneNumber) {
		return errValidation("Phone number must be exactly 10 digits.")
	}
	if err := pw.ValidatePolicy(req.Password); err != nil {
		return errValidation(capitalize(err.Error()) + ".")
	}
	return nil
}

// applyPatch overlays non-empty fields onto account, validating the ones
// that carry a format constraint. Shared by profile and admin updates.
func applyPatch(account *domain.Account, firstName, lastName, country, phoneNumber string) error {
	if v := strings.TrimSpace(firstName); v != "" {
		account.FirstName = v
	}
	if v := strings.TrimSpace(lastName); v != "" {
		account.LastName = v
	}
	if country != "" {
		if !domain.ValidCountry(country) {
			return errValidation("Country is not supported.")
		}
		account.Country = country
	}
	if phoneNumber != "" {
		if !domain.ValidPhoneNumber(phoneNumber) {
			return errValidation("Phone number must be exactly 10 digits.")
		}
		account.PhoneNumber = phoneNumber
	}
	return nil
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func capitalize(value string) string {
	if value == "" {
		return value
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

func (s *AuthService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

func (s *AuthService) audit(event string, attrs ...any) {
	auditLog(s.log(), event, attrs...)
}

func (s *AuthService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}

func auditLog(logger *zap.Logger, event string, attrs ...any) {
	if logger == nil {
		return
	}
	fields := make([]zap.Field, 0, len(attrs)/2+2)
	fields = append(fields, zap.String("event", event), zap.Time("timestamp", time.Now().UTC()))
	for i := 0; i+1 < len(attrs); i += 2 {
		key, ok := attrs[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, attrs[i+1]))
	}
	logger.Info("audit", fields...)
}
