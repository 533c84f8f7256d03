package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charchit19/auth-mindsparkle/internal/config"
	"github.com/charchit19/auth-mindsparkle/internal/domain"
	"github.com/charchit19/auth-mindsparkle/internal/service"
	"github.com/charchit19/auth-mindsparkle/internal/token"
)

func newTestAuthService(t *testing.T, accounts *memoryAccountRepo, mailer *fakeMailer, botCheck *fakeBotCheck, adminEmails ...string) *service.AuthService {
	t.Helper()

	admins := &staticAdminDirectory{emails: map[string]bool{}}
	for _, email := range adminEmails {
		admins.emails[email] = true
	}

	cfg := config.Config{
		ShortLivedTokenTTL: time.Hour,
		PublicBaseURL:      "http://localhost:8080",
		FrontendURL:        "http://localhost:3000",
		ServiceName:        "auth-test",
	}
	tokens := token.NewService([]byte("test-secret"), cfg.ServiceName, 0)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return service.NewAuthService(accounts, admins, tokens, mailer, botCheck, node, cfg, zap.NewNop())
}

func validRegistration() service.RegisterRequest {
	return service.RegisterRequest{
		FirstName:     "Asha",
		LastName:      "Rao",
		Email:         "a@x.com",
		Country:       "India",
		PhoneNumber:   "1234567890",
		Password:      "longenough1!",
		BotCheckToken: "challenge",
	}
}

func TestRegisterCreatesUnverifiedAccount(t *testing.T) {
	ctx := context.Background()
	accounts := newMemoryAccountRepo()
	mailer := &fakeMailer{}
	svc := newTestAuthService(t, accounts, mailer, &fakeBotCheck{ok: true})

	require.NoError(t, svc.Register(ctx, validRegistration()))

	account, err := accounts.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.False(t, account.IsVerified)
	require.False(t, account.IsAdmin)
	require.NotEmpty(t, account.VerificationToken)
	require.NotEqual(t, "longenough1!", account.PasswordHash)

	require.Len(t, mailer.sent, 1)
	require.Equal(t, "a@x.com", mailer.sent[0].to)
	require.Equal(t, "Email Verification", mailer.sent[0].subject)
	require.Contains(t, mailer.sent[0].body, account.VerificationToken)
}

func TestLoginRefusedUntilVerified(t *testing.T) {
	ctx := context.Background()
	accounts := newMemoryAccountRepo()
	svc := newTestAuthService(t, accounts, &fakeMailer{}, &fakeBotCheck{ok: true})

	require.NoError(t, svc.Register(ctx, validRegistration()))

	// Correct credentials are not enough while unverified.
	_, err := svc.Login(ctx, "a@x.com", "longenough1!")
	requireAuthError(t, err, "email_not_verified")

	account, err := accounts.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NoError(t, svc.VerifyEmail(ctx, account.VerificationToken))

	account, err = accounts.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, account.IsVerified)
	require.Empty(t, account.VerificationToken)

	result, err := svc.Login(ctx, "a@x.com", "longenough1!")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, account.ID, result.ID)
	require.False(t, result.IsAdmin)
}

func TestLoginInvalidCredentialsIndistinguishable(t *testing.T) {
	ctx := context.Background()
	accounts := newMemoryAccountRepo()
	svc := newTestAuthService(t, accounts, &fakeMailer{}, &fakeBotCheck{ok: true})

	require.NoError(t, svc.Register(ctx, validRegistration()))

	_, wrongPassword := svc.Login(ctx, "a@x.com", "not the password")
	_, unknownEmail := svc.Login(ctx, "nobody@x.com", "longenough1!")

	requireAuthError(t, wrongPassword, "invalid_credentials")
	requireAuthError(t, unknownEmail, "invalid_credentials")
	require.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(t, newMemoryAccountRepo(), &fakeMailer{}, &fakeBotCheck{ok: true})

	require.NoError(t, svc.Register(ctx, validRegistration()))
	requireAuthError(t, svc.Register(ctx, validRegistration()), "duplicate_email")
}

func TestRegisterBotCheck(t *testing.T) {
	ctx := context.Background()

	svc := newTestAuthService(t, newMemoryAccountRepo(), &fakeMailer{}, &fakeBotCheck{ok: false})
	requireAuthError(t, svc.Register(ctx, validRegistration()), "bot_check_failed")

	svc = newTestAuthService(t, newMemoryAccountRepo(), &fakeMailer{}, &fakeBotCheck{err: errors.New("provider down")})
	requireAuthError(t, svc.Register(ctx, validRegistration()), "upstream_failure")
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(t, newMemoryAccountRepo(), &fakeMailer{}, &fakeBotCheck{ok: true})

	tests := []struct {
		name   string
		mutate func(*service.RegisterRequest)
	}{
		{"password too short", func(r *service.RegisterRequest) { r.Password = "short1!" }},
		{"password without digit or symbol", func(r *service.RegisterRequest) { r.Password = "longenough" }},
		{"phone too short", func(r *service.RegisterRequest) { r.PhoneNumber = "12345" }},
		{"phone with letters", func(r *service.RegisterRequest) { r.PhoneNumber = "12345abcde" }},
		{"unsupported country", func(r *service.RegisterRequest) { r.Country = "Atlantis" }},
		{"missing first name", func(r *service.RegisterRequest) { r.FirstName = " " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegistration()
			tt.mutate(&req)
			requireAuthError(t, svc.Register(ctx, req), "invalid_request")
		})
	}
}

func TestRegisterAdminAllowList(t *testing.T) {
	ctx := context.Background()
	accounts := newMemoryAccountRepo()
	svc := newTestAuthService(t, accounts, &fakeMailer{}, &fakeBotCheck{ok: true}, "a@x.com")

	require.NoError(t, svc.Register(ctx, validRegistration()))

	account, err := accounts.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, account.IsAdmin)
}

func TestResendVerification(t *testing.T) {
	ctx := context.Background()
	accounts := newMemoryAccountRepo()
	mailer := &fakeMailer{}
	svc := newTestAuthService(t, accounts, mailer, &fakeBotCheck{ok: true})

	requireAuthError(t, svc.ResendVerification(ctx, "nobody@x.com"), "not_found")

	require.NoError(t, svc.Register(ctx, validRegistration()))

	require.NoError(t, svc.ResendVerification(ctx, "a@x.com"))
	account, err := accounts.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, account.VerificationToken)
	require.Len(t, mailer.sent, 2)

	require.NoError(t, svc.VerifyEmail(ctx, account.VerificationToken))
	requireAuthError(t, svc.ResendVerification(ctx, "a@x.com"), "already_verified")
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	accounts := newMemoryAccountRepo()
	mailer := &fakeMailer{}
	svc := newTestAuthService(t, accounts, mailer, &fakeBotCheck{ok: true})

	requireAuthError(t, svc.RequestPasswordReset(ctx, "nobody@x.com"), "not_found")

	require.NoError(t, svc.Register(ctx, validRegistration()))
	account, _ := accounts.GetByEmail(ctx, "a@x.com")
	require.NoError(t, svc.VerifyEmail(ctx, account.VerificationToken))

	require.NoError(t, svc.RequestPasswordReset(ctx, "a@x.com"))
	account, _ = accounts.GetByEmail(ctx, "a@x.com")
	require.NotEmpty(t, account.ResetToken)
	require.NotNil(t, account.ResetExpiresAt)
	require.True(t, account.ResetExpiresAt.After(time.Now()))
	require.Contains(t, mailer.sent[len(mailer.sent)-1].body, account.ResetToken)

	resetToken := account.ResetToken
	require.NoError(t, svc.ResetPassword(ctx, resetToken, "brandnew2@"))

	account, _ = accounts.GetByEmail(ctx, "a@x.com")
	require.Empty(t, account.ResetToken)
	require.Nil(t, account.ResetExpiresAt)

	_, err := svc.Login(ctx, "a@x.com", "brandnew2@")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "a@x.com", "longenough1!")
	requireAuthError(t, err, "invalid_credentials")

	// One-time use: the same token must not be accepted twice.
	requireAuthError(t, svc.ResetPassword(ctx, resetToken, "another3rd#"), "invalid_token")
}

func TestResetTokenStoredExpiryIsAuthoritative(t *testing.T) {
	ctx := context.Background()
	accounts := newMemoryAccountRepo()
	svc := newTestAuthService(t, accounts, &fakeMailer{}, &fakeBotCheck{ok: true})

	require.NoError(t, svc.Register(ctx, validRegistration()))
	require.NoError(t, svc.RequestPasswordReset(ctx, "a@x.com"))

	// Expire the stored deadline while the token signature is still valid.
	account, _ := accounts.GetByEmail(ctx, "a@x.com")
	past := time.Now().Add(-time.Minute)
	account.ResetExpiresAt = &past
	_, err := accounts.Update(ctx, account)
	require.NoError(t, err)

	requireAuthError(t, svc.ResetPassword(ctx, account.ResetToken, "brandnew2@"), "invalid_token")
}

func TestVerificationTokenRejectedByResetEndpoint(t *testing.T) {
	ctx := context.Background()
	accounts := newMemoryAccountRepo()
	svc := newTestAuthService(t, accounts, &fakeMailer{}, &fakeBotCheck{ok: true})

	require.NoError(t, svc.Register(ctx, validRegistration()))
	account, _ := accounts.GetByEmail(ctx, "a@x.com")

	requireAuthError(t, svc.ResetPassword(ctx, account.VerificationToken, "brandnew2@"), "invalid_token")
}

func TestResetRequestMailFailureKeepsStoredToken(t *testing.T) {
	ctx := context.Background()
	accounts := newMemoryAccountRepo()
	mailer := &fakeMailer{}
	svc := newTestAuthService(t, accounts, mailer, &fakeBotCheck{ok: true})

	require.NoError(t, svc.Register(ctx, validRegistration()))

	mailer.err = errors.New("smtp unreachable")
	requireAuthError(t, svc.RequestPasswordReset(ctx, "a@x.com"), "upstream_failure")

	// The store mutation stands even though the dispatch failed.
	account, _ := accounts.GetByEmail(ctx, "a@x.com")
	require.NotEmpty(t, account.ResetToken)
	require.NotNil(t, account.ResetExpiresAt)
}

func TestProfileReadAndUpdate(t *testing.T) {
	ctx := context.Background()
	accounts := newMemoryAccountRepo()
	svc := newTestAuthService(t, accounts, &fakeMailer{}, &fakeBotCheck{ok: true})

	require.NoError(t, svc.Register(ctx, validRegistration()))
	account, _ := accounts.GetByEmail(ctx, "a@x.com")

	view, err := svc.GetProfile(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, "Asha", view.FirstName)
	require.Equal(t, "a@x.com", view.Email)

	_, err = svc.UpdateProfile(ctx, account.ID, service.UpdateProfileRequest{PhoneNumber: "12345"})
	requireAuthError(t, err, "invalid_request")

	view, err = svc.UpdateProfile(ctx, account.ID, service.UpdateProfileRequest{
		FirstName:   "Asha-Marie",
		Country:     "Canada",
		PhoneNumber: "0987654321",
	})
	require.NoError(t, err)
	require.Equal(t, "Asha-Marie", view.FirstName)
	require.Equal(t, "Canada", view.Country)
	require.Equal(t, "0987654321", view.PhoneNumber)
	// Untouched fields keep their values.
	require.Equal(t, "Rao", view.LastName)
	require.Equal(t, "a@x.com", view.Email)
}

func requireAuthError(t *testing.T, err error, code string) {
	t.Helper()
	var authErr *service.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, code, authErr.Code)
}

// ---- fakes ----

type memoryAccountRepo struct {
	accounts map[int64]domain.Account
}

func newMemoryAccountRepo() *memoryAccountRepo {
	return &memoryAccountRepo{accounts: map[int64]domain.Account{}}
}

func (m *memoryAccountRepo) GetByEmail(_ context.Context, email string) (domain.Account, error) {
	for _, account := range m.accounts {
		if account.Email == email {
			return account, nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

func (m *memoryAccountRepo) GetByID(_ context.Context, id int64) (domain.Account, error) {
	account, ok := m.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return account, nil
}

func (m *memoryAccountRepo) GetByValidResetToken(_ context.Context, token string, now time.Time) (domain.Account, error) {
	for _, account := range m.accounts {
		if account.ResetToken == token && account.ResetToken != "" &&
			account.ResetExpiresAt != nil && account.ResetExpiresAt.After(now) {
			return account, nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

func (m *memoryAccountRepo) Create(_ context.Context, account domain.Account) (domain.Account, error) {
	for _, existing := range m.accounts {
		if existing.Email == account.Email {
			return domain.Account{}, domain.ErrDuplicateEmail
		}
	}
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	m.accounts[account.ID] = account
	return account, nil
}

func (m *memoryAccountRepo) Update(_ context.Context, account domain.Account) (domain.Account, error) {
	if _, ok := m.accounts[account.ID]; !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	account.UpdatedAt = time.Now()
	m.accounts[account.ID] = account
	return account, nil
}

func (m *memoryAccountRepo) Delete(_ context.Context, id int64) error {
	account, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if account.IsAdmin {
		return domain.ErrAccountIsAdmin
	}
	delete(m.accounts, id)
	return nil
}

func (m *memoryAccountRepo) List(_ context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	for _, account := range m.accounts {
		accounts = append(accounts, account)
	}
	return accounts, nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

type fakeBotCheck struct {
	ok  bool
	err error
}

func (f *fakeBotCheck) Verify(context.Context, string) (bool, error) {
	return f.ok, f.err
}

type staticAdminDirectory struct {
	emails map[string]bool
}

func (d *staticAdminDirectory) IsAdminEmail(_ context.Context, email string) (bool, error) {
	return d.emails[email], nil
}
