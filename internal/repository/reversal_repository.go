package repository

import (
	"context"
	"errors"

	"github.com/EmielEDW/chiro-sub000/internal/db"
	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
)

type ReversalRepository struct {
	DB *db.Postgres
}

// Exists reports whether a reversal is already recorded for the event pair.
// This is only a courtesy pre-check for ordering of failures; the race-free
// gate is the unique index hit inside Create.
func (r ReversalRepository) Exists(ctx context.Context, eventID int64, eventType domain.EventType) (bool, error) {
	var exists bool
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reversals WHERE original_event_id=$1 AND original_event_type=$2
		)
	`, eventID, eventType).Scan(&exists)
	return exists, err
}

type CreateReversalInput struct {
	AccountID         int64
	OriginalEventID   int64
	OriginalEventType domain.EventType
	Reason            string
	ReversedBy        int64
	// AdjustmentDelta compensates the original event: +price for a
	// consumption refund, -amount for a top-up claw-back.
	AdjustmentDelta  int64
	AdjustmentReason string
	// RestoreItemID, when set, restores one unit of stock. Missing or
	// untracked items are skipped silently; the monetary reversal stands.
	RestoreItemID *int64
}

// Create records the reversal, its compensating adjustment and the optional
// stock restoration as one atomic unit. A duplicate reversal attempt fails
// on the unique index and maps to ErrAlreadyReversed, which also closes the
// check-then-insert race between concurrent requests.
func (r ReversalRepository) Create(ctx context.Context, in CreateReversalInput) (*domain.Reversal, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var rev domain.Reversal
	var eventType string
	err = tx.QueryRow(ctx, `
		INSERT INTO reversals (account_id, original_event_id, original_event_type, reason, reversed_by, created_at)
		VALUES ($1,$2,$3,$4,$5, now())
		RETURNING id, account_id, original_event_id, original_event_type, reason, reversed_by, created_at
	`, in.AccountID, in.OriginalEventID, in.OriginalEventType, in.Reason, in.ReversedBy).Scan(
		&rev.ID, &rev.AccountID, &rev.OriginalEventID, &eventType, &rev.Reason, &rev.ReversedBy, &rev.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyReversed
		}
		return nil, err
	}
	rev.OriginalEventType = domain.EventType(eventType)

	createdBy := in.ReversedBy
	if _, err := createAdjustmentWith(ctx, tx, CreateAdjustmentInput{
		AccountID: in.AccountID,
		Delta:     in.AdjustmentDelta,
		Reason:    in.AdjustmentReason,
		CreatedBy: &createdBy,
	}); err != nil {
		return nil, err
	}

	if in.RestoreItemID != nil {
		if err := restoreStockUnit(ctx, tx, *in.RestoreItemID, &createdBy); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &rev, nil
}

// restoreStockUnit puts one unit back on a tracked counter and appends the
// matching stock ledger entry. An item that was deleted or untracked since
// the purchase is skipped; best effort by policy, never an error.
func restoreStockUnit(ctx context.Context, tx pgx.Tx, itemID int64, createdBy *int64) error {
	var quantity int
	err := tx.QueryRow(ctx, `
		UPDATE catalog_items
		SET stock_quantity = stock_quantity + 1, updated_at = now()
		WHERE id=$1 AND deleted_at IS NULL AND stock_quantity IS NOT NULL
		RETURNING stock_quantity
	`, itemID).Scan(&quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO stock_ledger (item_id, quantity_change, transaction_type, notes, created_by, created_at)
		VALUES ($1, 1, $2, 'restored by reversal', $3, now())
	`, itemID, domain.StockEntryReversal, createdBy)
	return err
}

func (r ReversalRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]domain.Reversal, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, account_id, original_event_id, original_event_type, reason, reversed_by, created_at
		FROM reversals
		WHERE account_id=$1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Reversal
	for rows.Next() {
		var rev domain.Reversal
		var eventType string
		if err := rows.Scan(&rev.ID, &rev.AccountID, &rev.OriginalEventID, &eventType, &rev.Reason, &rev.ReversedBy, &rev.CreatedAt); err != nil {
			return nil, err
		}
		rev.OriginalEventType = domain.EventType(eventType)
		items = append(items, rev)
	}
	return items, rows.Err()
}
