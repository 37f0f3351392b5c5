package repository

import (
	"context"

	"github.com/EmielEDW/chiro-sub000/internal/db"
)

type DashboardRepository struct {
	DB *db.Postgres
}

type DashboardSummary struct {
	TotalRevenue       int64
	TodayRevenue       int64
	TotalConsumptions  int64
	OutstandingBalance int64
	LowStockItems      int64
}

type TopItem struct {
	Name   string
	Amount int64
	Count  int64
}

// Summary aggregates the club-wide numbers: lifetime and today's revenue,
// the total prepaid credit still outstanding and how many tracked items sit
// at or below their low-stock threshold.
func (r DashboardRepository) Summary(ctx context.Context) (DashboardSummary, error) {
	var s DashboardSummary
	err := r.DB.Pool.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT SUM(price_at_purchase) FROM consumptions), 0),
			COALESCE((SELECT SUM(price_at_purchase) FROM consumptions WHERE created_at::date = CURRENT_DATE), 0),
			(SELECT COUNT(*) FROM consumptions),
			COALESCE((SELECT SUM(amount) FROM topups WHERE status='paid'), 0)
				- COALESCE((SELECT SUM(price_at_purchase) FROM consumptions), 0)
				+ COALESCE((SELECT SUM(delta) FROM adjustments), 0),
			(SELECT COUNT(*) FROM catalog_items
			 WHERE deleted_at IS NULL AND stock_quantity IS NOT NULL
			   AND stock_quantity <= low_stock_threshold)
	`).Scan(&s.TotalRevenue, &s.TodayRevenue, &s.TotalConsumptions, &s.OutstandingBalance, &s.LowStockItems)
	return s, err
}

func (r DashboardRepository) TopItems(ctx context.Context, limit int) ([]TopItem, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT item_name, COALESCE(SUM(price_at_purchase),0) AS amount, COUNT(*) AS cnt
		FROM consumptions
		WHERE item_name <> ''
		GROUP BY item_name
		ORDER BY amount DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TopItem
	for rows.Next() {
		var it TopItem
		if err := rows.Scan(&it.Name, &it.Amount, &it.Count); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
