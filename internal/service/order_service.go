package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/EmielEDW/chiro-sub000/internal/metrics"
	"github.com/EmielEDW/chiro-sub000/internal/repository"
)

// ItemCatalog loads items and mixed-drink bills of materials.
type ItemCatalog interface {
	GetByID(ctx context.Context, id int64) (*domain.CatalogItem, error)
	Components(ctx context.Context, itemID int64) ([]domain.MixedComponent, error)
}

// OrderLedger is the monetary event log as seen by the order flow.
type OrderLedger interface {
	Balance(ctx context.Context, accountID int64) (int64, error)
	CreateConsumption(ctx context.Context, in repository.CreateConsumptionInput) (*domain.Consumption, []repository.StockLevel, error)
}

// NotificationWriter records low-stock notifications; best effort.
type NotificationWriter interface {
	Create(ctx context.Context, in repository.CreateNotificationInput) (*domain.Notification, error)
}

// OrderService records purchases: one consumption event plus the stock
// movements it causes, in a single transaction.
type OrderService struct {
	Accounts          AccountReader
	Items             ItemCatalog
	Ledger            OrderLedger
	Notifications     NotificationWriter
	EnforceStockFloor bool
	Logger            *slog.Logger
}

type PlaceOrderInput struct {
	AccountID int64
	ItemID    int64
	Channel   domain.Channel
	CreatedBy *int64
}

// PlaceOrder debits the account for one unit of the item. Accounts without
// credit are rejected before anything is written when the purchase would
// push them below zero; admin-channel orders bypass that check. Mixed
// drinks decrement their components per bill of materials, plain tracked
// items decrement their own counter.
func (s OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*domain.Consumption, error) {
	account, err := s.Accounts.GetByID(ctx, in.AccountID)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, domain.ErrAccountInactive
	}

	item, err := s.Items.GetByID(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.Active {
		return nil, domain.ErrNotFound
	}

	if in.Channel != domain.ChannelAdmin && !account.AllowsNegativeBalance {
		balance, err := s.Ledger.Balance(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		if balance-item.PriceCents < 0 {
			return nil, domain.ErrInsufficientBalance
		}
	}

	deltas, err := s.stockDeltas(ctx, item)
	if err != nil {
		return nil, err
	}

	itemID := item.ID
	consumption, levels, err := s.Ledger.CreateConsumption(ctx, repository.CreateConsumptionInput{
		AccountID:         account.ID,
		ItemID:            &itemID,
		ItemName:          item.Name,
		PriceAtPurchase:   item.PriceCents,
		Channel:           in.Channel,
		StockDeltas:       deltas,
		EnforceStockFloor: s.EnforceStockFloor,
		CreatedBy:         in.CreatedBy,
	})
	if err != nil {
		return nil, err
	}

	s.notifyLowStock(ctx, levels)
	metrics.OrdersTotal.WithLabelValues(string(in.Channel)).Inc()
	return consumption, nil
}

func (s OrderService) stockDeltas(ctx context.Context, item *domain.CatalogItem) ([]repository.StockDelta, error) {
	if item.IsMixedDrink {
		components, err := s.Items.Components(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		var deltas []repository.StockDelta
		for _, c := range components {
			if c.ComponentStock == nil {
				continue
			}
			deltas = append(deltas, repository.StockDelta{
				ItemID: c.ComponentID,
				Change: -c.Quantity,
				Notes:  "used for " + item.Name,
			})
		}
		return deltas, nil
	}
	if item.StockQuantity != nil {
		return []repository.StockDelta{{ItemID: item.ID, Change: -1, Notes: "sold"}}, nil
	}
	return nil, nil
}

// notifyLowStock writes a warning when a counter lands at or below its
// threshold. Failures here never fail the sale.
func (s OrderService) notifyLowStock(ctx context.Context, levels []repository.StockLevel) {
	if s.Notifications == nil {
		return
	}
	for _, level := range levels {
		if level.Threshold <= 0 || level.Quantity > level.Threshold {
			continue
		}
		_, err := s.Notifications.Create(ctx, repository.CreateNotificationInput{
			Title:   "Low stock: " + level.Name,
			Message: fmt.Sprintf("%s is down to %d (threshold %d)", level.Name, level.Quantity, level.Threshold),
			Type:    domain.NotificationWarning,
		})
		if err != nil {
			s.Logger.Warn("low stock notification failed", "item", level.ItemID, "err", err)
		}
	}
}
