package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/charchit19/auth-mindsparkle/internal/domain"
)

// Compile-time interface assertions.
var (
	_ AccountRepository   = (*PostgresAccountRepo)(nil)
	_ AdminListRepository = (*PostgresAdminListRepo)(nil)
)

const accountColumns = `id, first_name, last_name, email, country, phone_number,
password_hash, is_verified, is_admin, verification_token, reset_token,
reset_expires_at, created_at, updated_at`

// PostgresAccountRepo implements AccountRepository on pgx.
type PostgresAccountRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresAccountRepo(pool *pgxpool.Pool) *PostgresAccountRepo {
	return &PostgresAccountRepo{pool: pool}
}

func (r *PostgresAccountRepo) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return scanAccount(row)
}

func (r *PostgresAccountRepo) GetByID(ctx context.Context, id int64) (domain.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func (r *PostgresAccountRepo) GetByValidResetToken(ctx context.Context, token string, now time.Time) (domain.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE reset_token = $1 AND reset_expires_at > $2`, token, now)
	return scanAccount(row)
}

func (r *PostgresAccountRepo) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO accounts (id, first_name, last_name, email, country,
		        phone_number, password_hash, is_verified, is_admin,
		        verification_token, reset_token, reset_expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING `+accountColumns,
		account.ID, account.FirstName, account.LastName, account.Email,
		account.Country, account.PhoneNumber, account.PasswordHash,
		account.IsVerified, account.IsAdmin,
		nullable(account.VerificationToken), nullable(account.ResetToken),
		account.ResetExpiresAt)

	created, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.Account{}, domain.ErrDuplicateEmail
		}
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}
	return created, nil
}

func (r *PostgresAccountRepo) Update(ctx context.Context, account domain.Account) (domain.Account, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE accounts
		 SET first_name = $2, last_name = $3, email = $4, country = $5,
		     phone_number = $6, password_hash = $7, is_verified = $8,
		     verification_token = $9, reset_token = $10,
		     reset_expires_at = $11, updated_at = now()
		 WHERE id = $1
		 RETURNING `+accountColumns,
		account.ID, account.FirstName, account.LastName, account.Email,
		account.Country, account.PhoneNumber, account.PasswordHash,
		account.IsVerified, nullable(account.VerificationToken),
		nullable(account.ResetToken), account.ResetExpiresAt)

	updated, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.Account{}, domain.ErrDuplicateEmail
		}
		return domain.Account{}, fmt.Errorf("update account: %w", err)
	}
	return updated, nil
}

func (r *PostgresAccountRepo) Delete(ctx context.Context, id int64) error {
	// The admin guard also lives in the service layer; the predicate here
	// keeps the invariant even if a caller skips that check.
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM accounts WHERE id = $1 AND NOT is_admin`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var isAdmin bool
	err = r.pool.QueryRow(ctx,
		`SELECT is_admin FROM accounts WHERE id = $1`, id).Scan(&isAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("delete account lookup: %w", err)
	}
	if isAdmin {
		return domain.ErrAccountIsAdmin
	}
	return domain.ErrAccountNotFound
}

func (r *PostgresAccountRepo) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// PostgresAdminListRepo implements AdminListRepository on pgx.
type PostgresAdminListRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresAdminListRepo(pool *pgxpool.Pool) *PostgresAdminListRepo {
	return &PostgresAdminListRepo{pool: pool}
}

func (r *PostgresAdminListRepo) Contains(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM admin_emails WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("admin list lookup: %w", err)
	}
	return exists, nil
}

func (r *PostgresAdminListRepo) Add(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO admin_emails (email) VALUES ($1) ON CONFLICT (email) DO NOTHING`, email)
	if err != nil {
		return fmt.Errorf("admin list add: %w", err)
	}
	return nil
}

func scanAccount(row pgx.Row) (domain.Account, error) {
	var (
		account           domain.Account
		verificationToken *string
		resetToken        *string
	)
	err := row.Scan(
		&account.ID, &account.FirstName, &account.LastName, &account.Email,
		&account.Country, &account.PhoneNumber, &account.PasswordHash,
		&account.IsVerified, &account.IsAdmin,
		&verificationToken, &resetToken, &account.ResetExpiresAt,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, err
	}
	if verificationToken != nil {
		account.VerificationToken = *verificationToken
	}
	if resetToken != nil {
		account.ResetToken = *resetToken
	}
	return account, nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
