package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/charchit19/auth-mindsparkle/internal/domain"
	pw "github.com/charchit19/auth-mindsparkle/internal/password"
	"github.com/charchit19/auth-mindsparkle/internal/repository"
)

// AdminService implements the administrator console operations. All of its
// methods assume the gate has already established an admin principal.
type AdminService struct {
	accounts repository.AccountRepository
	logger   *zap.Logger
	tracer   trace.Tracer
}

func NewAdminService(accounts repository.AccountRepository, logger *zap.Logger) *AdminService {
	return &AdminService{
		accounts: accounts,
		logger:   logger,
		tracer:   otel.Tracer("github.com/charchit19/auth-mindsparkle/internal/service"),
	}
}

// ListUsers returns every account. No pagination; the console loads the
// full set.
func (s *AdminService) ListUsers(ctx context.Context) ([]AccountView, error) {
	ctx, span := s.startSpan(ctx, "AdminService.ListUsers")
	defer span.End()

	accounts, err := s.accounts.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	views := make([]AccountView, 0, len(accounts))
	for _, account := range accounts {
		views = append(views, newAccountView(account))
	}
	return views, nil
}

// UpdateUser patches the admin-editable fields of the target account. The
// password and the admin flag are not reachable through this path.
func (s *AdminService) UpdateUser(ctx context.Context, id int64, req AdminUpdateRequest) (AccountView, error) {
	ctx, span := s.startSpan(ctx, "AdminService.UpdateUser")
	defer span.End()

	account, err := s.accounts.GetByID(ctx, id)
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
	if req.Email != "" {
		account.Email = normalizeEmail(req.Email)
	}
	if req.IsVerified != nil {
		account.IsVerified = *req.IsVerified
	}

	updated, err := s.accounts.Update(ctx, account)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return AccountView{}, errDuplicateEmail()
		}
		return AccountView{}, fmt.Errorf("update account: %w", err)
	}

	s.audit("admin.user_update", "account_id", updated.ID)
	return newAccountView(updated), nil
}

// ForceResetPassword sets a new password directly, bypassing the emailed
// reset link. Only the minimum length is validated here.
func (s *AdminService) ForceResetPassword(ctx context.Context, id int64, newPassword string) error {
	ctx, span := s.startSpan(ctx, "AdminService.ForceResetPassword")
	defer span.End()

	if len(newPassword) < 8 {
		return newAuthError("invalid_request", "Password must be at least 8 characters long.", http.StatusBadRequest)
	}

	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return errAccountNotFound()
		}
		span.RecordError(err)
		return fmt.Errorf("load account: %w", err)
	}

	hashed, err := pw.Hash(newPassword)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("hash password: %w", err)
	}

	account.PasswordHash = hashed
	if _, err := s.accounts.Update(ctx, account); err != nil {
		span.RecordError(err)
		return fmt.Errorf("store new password: %w", err)
	}

	s.audit("admin.force_reset_password", "account_id", account.ID)
	return nil
}

// DeleteUser removes the target account. Admin accounts are undeletable.
func (s *AdminService) DeleteUser(ctx context.Context, id int64) error {
	ctx, span := s.startSpan(ctx, "AdminService.DeleteUser")
	defer span.End()

	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return errAccountNotFound()
		}
		span.RecordError(err)
		return fmt.Errorf("load account: %w", err)
	}
	if account.IsAdmin {
		return errCannotDeleteAdmin()
	}

	if err := s.accounts.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, domain.ErrAccountIsAdmin):
			return errCannotDeleteAdmin()
		case errors.Is(err, domain.ErrAccountNotFound):
			return errAccountNotFound()
		}
		span.RecordError(err)
		return fmt.Errorf("delete account: %w", err)
	}

	s.audit("admin.user_delete", "account_id", id)
	return nil
}

func (s *AdminService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

func (s *AdminService) audit(event string, attrs ...any) {
	logger := s.logger
	if logger == nil {
		logger = zap.L()
	}
	auditLog(logger, event, attrs...)
}
