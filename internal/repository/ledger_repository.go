package repository

import (
	"context"
	"errors"

	"github.com/EmielEDW/chiro-sub000/internal/db"
	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// LedgerRepository owns the append-only monetary event log: consumptions,
// adjustments and the derived balance sum.
type LedgerRepository struct {
	DB *db.Postgres
}

// pgxQuerier is satisfied by both pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Balance derives the spendable balance from the event log in one query:
// paid top-ups minus consumptions plus adjustments. Reversals are never
// consulted; their compensating adjustments already sit in the sum.
func (r LedgerRepository) Balance(ctx context.Context, accountID int64) (int64, error) {
	return balanceWith(ctx, r.DB.Pool, accountID)
}

func (r LedgerRepository) BalanceWithTx(ctx context.Context, tx pgx.Tx, accountID int64) (int64, error) {
	return balanceWith(ctx, tx, accountID)
}

func balanceWith(ctx context.Context, q pgxQuerier, accountID int64) (int64, error) {
	var balance int64
	err := q.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT SUM(amount) FROM topups WHERE account_id=$1 AND status='paid'), 0)
			- COALESCE((SELECT SUM(price_at_purchase) FROM consumptions WHERE account_id=$1), 0)
			+ COALESCE((SELECT SUM(delta) FROM adjustments WHERE account_id=$1), 0)
	`, accountID).Scan(&balance)
	return balance, err
}

func (r LedgerRepository) GetConsumption(ctx context.Context, id int64) (*domain.Consumption, error) {
	var c domain.Consumption
	var channel string
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT id, account_id, item_id, item_name, price_at_purchase, source_channel, created_at
		FROM consumptions
		WHERE id=$1
	`, id).Scan(&c.ID, &c.AccountID, &c.ItemID, &c.ItemName, &c.PriceAtPurchase, &channel, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	c.Channel = domain.Channel(channel)
	return &c, nil
}

// StockDelta is one stock movement recorded together with a consumption.
type StockDelta struct {
	ItemID int64
	Change int
	Notes  string
}

// StockLevel reports a counter after a movement, for low-stock checks.
type StockLevel struct {
	ItemID    int64
	Name      string
	Quantity  int
	Threshold int
}

type CreateConsumptionInput struct {
	AccountID         int64
	ItemID            *int64
	ItemName          string
	PriceAtPurchase   int64
	Channel           domain.Channel
	StockDeltas       []StockDelta
	EnforceStockFloor bool
	CreatedBy         *int64
}

// CreateConsumption appends the consumption and applies its stock movements
// as one atomic unit. Each movement is a single guarded increment statement
// plus a stock ledger entry, so concurrent sales cannot lose updates.
func (r LedgerRepository) CreateConsumption(ctx context.Context, in CreateConsumptionInput) (*domain.Consumption, []StockLevel, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	var c domain.Consumption
	var channel string
	err = tx.QueryRow(ctx, `
		INSERT INTO consumptions (account_id, item_id, item_name, price_at_purchase, source_channel, created_at)
		VALUES ($1,$2,$3,$4,$5, now())
		RETURNING id, account_id, item_id, item_name, price_at_purchase, source_channel, created_at
	`, in.AccountID, in.ItemID, in.ItemName, in.PriceAtPurchase, in.Channel).Scan(
		&c.ID, &c.AccountID, &c.ItemID, &c.ItemName, &c.PriceAtPurchase, &channel, &c.CreatedAt)
	if err != nil {
		return nil, nil, err
	}
	c.Channel = domain.Channel(channel)

	levels := make([]StockLevel, 0, len(in.StockDeltas))
	for _, d := range in.StockDeltas {
		level, err := applyStockDelta(ctx, tx, d.ItemID, d.Change, in.EnforceStockFloor)
		if err != nil {
			return nil, nil, err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO stock_ledger (item_id, quantity_change, transaction_type, notes, created_by, created_at)
			VALUES ($1,$2,$3,$4,$5, now())
		`, d.ItemID, d.Change, domain.StockEntryPurchase, d.Notes, in.CreatedBy); err != nil {
			return nil, nil, err
		}
		levels = append(levels, *level)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return &c, levels, nil
}

// applyStockDelta bumps a tracked counter with a single atomic statement.
// The floor guard is part of the WHERE clause so enforcement cannot race.
func applyStockDelta(ctx context.Context, q pgxQuerier, itemID int64, change int, enforceFloor bool) (*StockLevel, error) {
	level := StockLevel{ItemID: itemID}
	err := q.QueryRow(ctx, `
		UPDATE catalog_items
		SET stock_quantity = stock_quantity + $1, updated_at = now()
		WHERE id=$2 AND deleted_at IS NULL AND stock_quantity IS NOT NULL
		  AND ($3 = FALSE OR stock_quantity + $1 >= 0)
		RETURNING name, stock_quantity, low_stock_threshold
	`, change, itemID, enforceFloor).Scan(&level.Name, &level.Quantity, &level.Threshold)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var tracked bool
			if err := q.QueryRow(ctx, `
				SELECT stock_quantity IS NOT NULL
				FROM catalog_items
				WHERE id=$1 AND deleted_at IS NULL
			`, itemID).Scan(&tracked); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, domain.ErrNotFound
				}
				return nil, err
			}
			if tracked {
				return nil, domain.ErrInsufficientStock
			}
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &level, nil
}

type CreateAdjustmentInput struct {
	AccountID int64
	Delta     int64
	Reason    string
	CreatedBy *int64
}

func (r LedgerRepository) CreateAdjustment(ctx context.Context, in CreateAdjustmentInput) (*domain.Adjustment, error) {
	return createAdjustmentWith(ctx, r.DB.Pool, in)
}

func createAdjustmentWith(ctx context.Context, q pgxQuerier, in CreateAdjustmentInput) (*domain.Adjustment, error) {
	var a domain.Adjustment
	err := q.QueryRow(ctx, `
		INSERT INTO adjustments (account_id, delta, reason, created_by, created_at)
		VALUES ($1,$2,$3,$4, now())
		RETURNING id, account_id, delta, reason, created_by, created_at
	`, in.AccountID, in.Delta, in.Reason, in.CreatedBy).Scan(
		&a.ID, &a.AccountID, &a.Delta, &a.Reason, &a.CreatedBy, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r LedgerRepository) ListConsumptions(ctx context.Context, accountID int64, limit int) ([]domain.Consumption, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, account_id, item_id, item_name, price_at_purchase, source_channel, created_at
		FROM consumptions
		WHERE account_id=$1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Consumption
	for rows.Next() {
		var c domain.Consumption
		var channel string
		if err := rows.Scan(&c.ID, &c.AccountID, &c.ItemID, &c.ItemName, &c.PriceAtPurchase, &channel, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Channel = domain.Channel(channel)
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r LedgerRepository) ListAdjustments(ctx context.Context, accountID int64, limit int) ([]domain.Adjustment, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, account_id, delta, reason, created_by, created_at
		FROM adjustments
		WHERE account_id=$1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Adjustment
	for rows.Next() {
		var a domain.Adjustment
		if err := rows.Scan(&a.ID, &a.AccountID, &a.Delta, &a.Reason, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
