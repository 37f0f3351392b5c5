package repository

import (
	"context"
	"errors"

	"github.com/EmielEDW/chiro-sub000/internal/db"
	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
)

type TopUpRepository struct {
	DB *db.Postgres
}

type CreateTopUpInput struct {
	AccountID         int64
	Amount            int64
	Provider          domain.TopUpProvider
	ProviderReference string
	Status            domain.TopUpStatus
}

const topupColumns = `id, account_id, amount, provider, provider_reference, status, created_at`

func (r TopUpRepository) Create(ctx context.Context, in CreateTopUpInput) (*domain.TopUp, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO topups (account_id, amount, provider, provider_reference, status, created_at)
		VALUES ($1,$2,$3,$4,$5, now())
		RETURNING `+topupColumns,
		in.AccountID, in.Amount, in.Provider, in.ProviderReference, in.Status)
	t, err := scanTopUp(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return t, nil
}

func (r TopUpRepository) GetByID(ctx context.Context, id int64) (*domain.TopUp, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT `+topupColumns+` FROM topups WHERE id=$1
	`, id)
	t, err := scanTopUp(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r TopUpRepository) GetByReference(ctx context.Context, provider domain.TopUpProvider, reference string) (*domain.TopUp, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT `+topupColumns+` FROM topups WHERE provider=$1 AND provider_reference=$2
	`, provider, reference)
	t, err := scanTopUp(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// Transition moves a top-up from one status to another. The expected current
// status is part of the WHERE clause, so a raced webhook retry or a concurrent
// cancellation surfaces as ErrConflict instead of a silent double transition.
func (r TopUpRepository) Transition(ctx context.Context, id int64, from, to domain.TopUpStatus) (*domain.TopUp, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE topups
		SET status=$1
		WHERE id=$2 AND status=$3
		RETURNING `+topupColumns,
		to, id, from)
	t, err := scanTopUp(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := r.DB.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM topups WHERE id=$1)`, id).Scan(&exists); err != nil {
				return nil, err
			}
			if !exists {
				return nil, domain.ErrNotFound
			}
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return t, nil
}

func (r TopUpRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]domain.TopUp, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+topupColumns+`
		FROM topups
		WHERE account_id=$1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.TopUp
	for rows.Next() {
		t, err := scanTopUp(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

func scanTopUp(row pgx.Row) (*domain.TopUp, error) {
	var t domain.TopUp
	var provider, status string
	if err := row.Scan(&t.ID, &t.AccountID, &t.Amount, &provider, &t.ProviderReference, &status, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Provider = domain.TopUpProvider(provider)
	t.Status = domain.TopUpStatus(status)
	return &t, nil
}
