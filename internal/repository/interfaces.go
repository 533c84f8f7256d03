package repository

import (
	"context"
	"time"

	"github.com/charchit19/auth-mindsparkle/internal/domain"
)

// AccountRepository exposes persistence for user accounts.
type AccountRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	GetByID(ctx context.Context, id int64) (domain.Account, error)
	// GetByValidResetToken matches only when the stored reset token equals
	// token and the stored expiry is after now.
	GetByValidResetToken(ctx context.Context, token string, now time.Time) (domain.Account, error)
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
	Update(ctx context.Context, account domain.Account) (domain.Account, error)
	// Delete refuses accounts flagged as admin with domain.ErrAccountIsAdmin.
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Account, error)
}

// AdminListRepository stores the allow-list of emails granted the admin flag
// at registration.
type AdminListRepository interface {
	Contains(ctx context.Context, email string) (bool, error)
	Add(ctx context.Context, email string) error
}
