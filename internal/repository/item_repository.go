package repository

import (
	"context"
	"errors"

	"github.com/EmielEDW/chiro-sub000/internal/db"
	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
)

type ItemRepository struct {
	DB *db.Postgres
}

type CreateItemParams struct {
	Name               string
	PriceCents         int64
	PurchasePriceCents int64
	StockQuantity      *int
	LowStockThreshold  int
	IsMixedDrink       bool
}

const itemColumns = `id, name, price_cents, purchase_price_cents, stock_quantity, low_stock_threshold, active, is_mixed_drink, created_at, updated_at`

func (r ItemRepository) Create(ctx context.Context, p CreateItemParams) (*domain.CatalogItem, error) {
	stock := p.StockQuantity
	if p.IsMixedDrink {
		// Mixed drinks never hold their own counter.
		stock = nil
	}
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO catalog_items (name, price_cents, purchase_price_cents, stock_quantity, low_stock_threshold, active, is_mixed_drink, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5, TRUE, $6, now(), now())
		RETURNING `+itemColumns,
		p.Name, p.PriceCents, p.PurchasePriceCents, stock, p.LowStockThreshold, p.IsMixedDrink)
	return scanItem(row)
}

func (r ItemRepository) GetByID(ctx context.Context, id int64) (*domain.CatalogItem, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM catalog_items
		WHERE id=$1 AND deleted_at IS NULL
	`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r ItemRepository) List(ctx context.Context, activeOnly bool, limit int) ([]domain.CatalogItem, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+itemColumns+`
		FROM catalog_items
		WHERE deleted_at IS NULL AND (NOT $1 OR active)
		ORDER BY name ASC
		LIMIT $2
	`, activeOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.CatalogItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

type UpdateItemParams struct {
	Name               string
	PriceCents         int64
	PurchasePriceCents int64
	LowStockThreshold  int
	Active             bool
}

func (r ItemRepository) Update(ctx context.Context, id int64, p UpdateItemParams) (*domain.CatalogItem, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE catalog_items
		SET name=$1, price_cents=$2, purchase_price_cents=$3, low_stock_threshold=$4, active=$5, updated_at=now()
		WHERE id=$6 AND deleted_at IS NULL
		RETURNING `+itemColumns,
		p.Name, p.PriceCents, p.PurchasePriceCents, p.LowStockThreshold, p.Active, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

// SetComponents replaces the bill of materials of a mixed drink.
func (r ItemRepository) SetComponents(ctx context.Context, itemID int64, components []domain.MixedComponent) error {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var isMixed bool
	if err := tx.QueryRow(ctx, `
		SELECT is_mixed_drink FROM catalog_items WHERE id=$1 AND deleted_at IS NULL
	`, itemID).Scan(&isMixed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	if !isMixed {
		return domain.ErrConflict
	}

	if _, err := tx.Exec(ctx, `DELETE FROM item_components WHERE item_id=$1`, itemID); err != nil {
		return err
	}
	for _, c := range components {
		if _, err := tx.Exec(ctx, `
			INSERT INTO item_components (item_id, component_id, quantity)
			VALUES ($1,$2,$3)
		`, itemID, c.ComponentID, c.Quantity); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Components returns the bill of materials with each component's live stock,
// so callers can compute derived availability.
func (r ItemRepository) Components(ctx context.Context, itemID int64) ([]domain.MixedComponent, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT ic.item_id, ic.component_id, ci.name, ic.quantity, ci.stock_quantity
		FROM item_components ic
		JOIN catalog_items ci ON ci.id = ic.component_id
		WHERE ic.item_id=$1 AND ci.deleted_at IS NULL
		ORDER BY ci.name ASC
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var components []domain.MixedComponent
	for rows.Next() {
		var c domain.MixedComponent
		if err := rows.Scan(&c.ItemID, &c.ComponentID, &c.ComponentName, &c.Quantity, &c.ComponentStock); err != nil {
			return nil, err
		}
		components = append(components, c)
	}
	return components, rows.Err()
}

func (r ItemRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE catalog_items
		SET deleted_at=now(), updated_at=now()
		WHERE id=$1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanItem(row pgx.Row) (*domain.CatalogItem, error) {
	var it domain.CatalogItem
	if err := row.Scan(
		&it.ID,
		&it.Name,
		&it.PriceCents,
		&it.PurchasePriceCents,
		&it.StockQuantity,
		&it.LowStockThreshold,
		&it.Active,
		&it.IsMixedDrink,
		&it.CreatedAt,
		&it.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &it, nil
}
