package repository

import (
	"context"
	"errors"

	"github.com/EmielEDW/chiro-sub000/internal/db"
	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
)

type StockRepository struct {
	DB *db.Postgres
}

// StockRow is a tracked item with its ledger entry count, for the overview.
type StockRow struct {
	ItemID            int64
	Name              string
	Quantity          int
	LowStockThreshold int
	LedgerEntries     int64
}

func (r StockRepository) List(ctx context.Context, limit int) ([]StockRow, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT ci.id, ci.name, ci.stock_quantity, ci.low_stock_threshold,
		       (SELECT COUNT(*) FROM stock_ledger sl WHERE sl.item_id = ci.id)
		FROM catalog_items ci
		WHERE ci.deleted_at IS NULL AND ci.stock_quantity IS NOT NULL
		ORDER BY ci.name ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StockRow
	for rows.Next() {
		var s StockRow
		if err := rows.Scan(&s.ItemID, &s.Name, &s.Quantity, &s.LowStockThreshold, &s.LedgerEntries); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

type AdjustStockInput struct {
	ItemID            int64
	Change            int
	Type              domain.StockEntryType
	Notes             string
	SessionID         *string
	CreatedBy         *int64
	EnforceStockFloor bool
}

// Adjust applies one stock delta and appends the ledger entry atomically.
// The counter update is a single increment statement, not read-then-write,
// so concurrent adjustments on the same item cannot lose updates.
func (r StockRepository) Adjust(ctx context.Context, in AdjustStockInput) (*domain.StockLedgerEntry, int, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback(ctx)

	level, err := applyStockDelta(ctx, tx, in.ItemID, in.Change, in.EnforceStockFloor)
	if err != nil {
		return nil, 0, err
	}

	entry, err := appendStockEntry(ctx, tx, in)
	if err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return entry, level.Quantity, nil
}

// AuditLine is one counted quantity from a physical stock audit.
type AuditLine struct {
	ItemID  int64
	Counted int
}

type AuditInput struct {
	SessionID string
	Lines     []AuditLine
	Notes     string
	CreatedBy *int64
}

// Audit reconciles counted quantities against the live counters in one
// transaction. Rows are locked while the deltas are computed, and only
// non-zero deltas produce ledger entries.
func (r StockRepository) Audit(ctx context.Context, in AuditInput) ([]domain.StockLedgerEntry, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var entries []domain.StockLedgerEntry
	for _, line := range in.Lines {
		var current int
		err := tx.QueryRow(ctx, `
			SELECT stock_quantity
			FROM catalog_items
			WHERE id=$1 AND deleted_at IS NULL AND stock_quantity IS NOT NULL
			FOR UPDATE
		`, line.ItemID).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.ErrNotFound
			}
			return nil, err
		}
		change := line.Counted - current
		if change == 0 {
			continue
		}
		if _, err := tx.Exec(ctx, `
			UPDATE catalog_items
			SET stock_quantity = $1, updated_at = now()
			WHERE id=$2
		`, line.Counted, line.ItemID); err != nil {
			return nil, err
		}
		sessionID := in.SessionID
		entry, err := appendStockEntry(ctx, tx, AdjustStockInput{
			ItemID:    line.ItemID,
			Change:    change,
			Type:      domain.StockEntryAdjustment,
			Notes:     in.Notes,
			SessionID: &sessionID,
			CreatedBy: in.CreatedBy,
		})
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return entries, nil
}

func appendStockEntry(ctx context.Context, q pgxQuerier, in AdjustStockInput) (*domain.StockLedgerEntry, error) {
	var e domain.StockLedgerEntry
	var entryType string
	err := q.QueryRow(ctx, `
		INSERT INTO stock_ledger (item_id, quantity_change, transaction_type, notes, session_id, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6, now())
		RETURNING id, item_id, quantity_change, transaction_type, notes, session_id, created_by, created_at
	`, in.ItemID, in.Change, in.Type, in.Notes, in.SessionID, in.CreatedBy).Scan(
		&e.ID, &e.ItemID, &e.QuantityChange, &entryType, &e.Notes, &e.SessionID, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.TransactionType = domain.StockEntryType(entryType)
	return &e, nil
}

func (r StockRepository) History(ctx context.Context, itemID int64, limit int) ([]domain.StockLedgerEntry, error) {
	var exists bool
	if err := r.DB.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM catalog_items WHERE id=$1 AND deleted_at IS NULL)
	`, itemID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, item_id, quantity_change, transaction_type, notes, session_id, created_by, created_at
		FROM stock_ledger
		WHERE item_id=$1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, itemID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []domain.StockLedgerEntry
	for rows.Next() {
		var e domain.StockLedgerEntry
		var entryType string
		if err := rows.Scan(&e.ID, &e.ItemID, &e.QuantityChange, &entryType, &e.Notes, &e.SessionID, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.TransactionType = domain.StockEntryType(entryType)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
