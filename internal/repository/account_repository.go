package repository

import (
	"context"
	"errors"

	"github.com/EmielEDW/chiro-sub000/internal/db"
	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
)

type AccountRepository struct {
	DB *db.Postgres
}

type CreateAccountParams struct {
	Name                  string
	Email                 string
	Role                  domain.AccountRole
	IsGuestAccount        bool
	AllowsNegativeBalance bool
	PasswordHash          *string
}

const accountColumns = `id, name, email, role, is_guest, allows_negative_balance, active, password_hash, created_at, updated_at`

func (r AccountRepository) Create(ctx context.Context, p CreateAccountParams) (*domain.Account, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO accounts (name, email, role, is_guest, allows_negative_balance, active, password_hash, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5, TRUE, $6, now(), now())
		RETURNING `+accountColumns,
		p.Name, p.Email, p.Role, p.IsGuestAccount, p.AllowsNegativeBalance, p.PasswordHash)
	return scanAccount(row)
}

func (r AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id=$1 AND deleted_at IS NULL
	`, id)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return account, nil
}

func (r AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE email=$1 AND deleted_at IS NULL
	`, email)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return account, nil
}

func (r AccountRepository) List(ctx context.Context, limit int) ([]domain.Account, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE deleted_at IS NULL
		ORDER BY name ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (r AccountRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE accounts
		SET active=$1, updated_at=now()
		WHERE id=$2 AND deleted_at IS NULL
	`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteGuest soft-deletes a guest tab. Guests with consumption history are
// kept for auditability and the call fails with ErrConflict.
func (r AccountRepository) DeleteGuest(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE accounts
		SET deleted_at=now(), updated_at=now()
		WHERE id=$1 AND deleted_at IS NULL AND is_guest = TRUE
		  AND NOT EXISTS (SELECT 1 FROM consumptions c WHERE c.account_id = accounts.id)
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.DB.Pool.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM accounts WHERE id=$1 AND deleted_at IS NULL AND is_guest = TRUE)
		`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a    domain.Account
		role string
	)
	if err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&role,
		&a.IsGuestAccount,
		&a.AllowsNegativeBalance,
		&a.Active,
		&a.PasswordHash,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.Role = domain.AccountRole(role)
	return &a, nil
}

// IsDuplicate detects unique constraint violation.
func IsDuplicate(err error) bool {
	return db.IsUniqueViolation(err)
}
