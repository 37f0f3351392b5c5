package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/EmielEDW/chiro-sub000/internal/metrics"
	"github.com/EmielEDW/chiro-sub000/internal/repository"
)

// AccountReader loads accounts for policy decisions.
type AccountReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
}

// ItemReader loads catalog items for stock restoration checks.
type ItemReader interface {
	GetByID(ctx context.Context, id int64) (*domain.CatalogItem, error)
}

// ConsumptionReader loads consumption events.
type ConsumptionReader interface {
	GetConsumption(ctx context.Context, id int64) (*domain.Consumption, error)
}

// TopUpReader loads top-up events.
type TopUpReader interface {
	GetByID(ctx context.Context, id int64) (*domain.TopUp, error)
}

// ReversalStore records reversals. Create must be atomic across the
// reversal row, the compensating adjustment and any stock restoration, and
// must map a duplicate pair to domain.ErrAlreadyReversed.
type ReversalStore interface {
	Exists(ctx context.Context, eventID int64, eventType domain.EventType) (bool, error)
	Create(ctx context.Context, in repository.CreateReversalInput) (*domain.Reversal, error)
}

// ReversalService undoes consumptions and top-ups by writing compensating
// adjustments, never by mutating history.
type ReversalService struct {
	Accounts     AccountReader
	Items        ItemReader
	Consumptions ConsumptionReader
	TopUps       TopUpReader
	Reversals    ReversalStore
	SelfWindow   time.Duration
	Logger       *slog.Logger
	Now          func() time.Time
}

// CanReverse is the single authorization policy for reversals. Treasurers
// and admins may reverse any transaction at any age; everyone else may only
// undo their own consumptions within the self-service window.
func CanReverse(acting *domain.Account, ownerID int64, eventType domain.EventType, eventAge, window time.Duration) error {
	if acting.Role.CanActForOthers() {
		return nil
	}
	if acting.ID != ownerID || eventType != domain.EventConsumption {
		return domain.ErrForbidden
	}
	if eventAge > window {
		return domain.ErrReversalWindowExpired
	}
	return nil
}

// Reverse undoes a prior monetary event. Preconditions are checked in
// order: the event must exist, must not be reversed yet, and the acting
// account must pass the reversal policy. The store-level unique constraint
// keeps the idempotency guarantee under concurrent requests.
func (s ReversalService) Reverse(ctx context.Context, eventID int64, eventType domain.EventType, actingID int64, reason string) (*domain.Reversal, error) {
	acting, err := s.Accounts.GetByID(ctx, actingID)
	if err != nil {
		return nil, err
	}

	var (
		ownerID       int64
		eventCreated  time.Time
		adjustDelta   int64
		restoreItemID *int64
	)
	switch eventType {
	case domain.EventConsumption:
		c, err := s.Consumptions.GetConsumption(ctx, eventID)
		if err != nil {
			return nil, err
		}
		ownerID = c.AccountID
		eventCreated = c.CreatedAt
		adjustDelta = c.PriceAtPurchase
		restoreItemID = s.stockRestoreTarget(ctx, c)
	case domain.EventTopUp:
		t, err := s.TopUps.GetByID(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if t.Status != domain.TopUpPaid {
			return nil, domain.ErrConflict
		}
		ownerID = t.AccountID
		eventCreated = t.CreatedAt
		adjustDelta = -t.Amount
	default:
		return nil, domain.ErrNotFound
	}

	exists, err := s.Reversals.Exists(ctx, eventID, eventType)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrAlreadyReversed
	}

	if err := CanReverse(acting, ownerID, eventType, s.now().Sub(eventCreated), s.SelfWindow); err != nil {
		return nil, err
	}

	rev, err := s.Reversals.Create(ctx, repository.CreateReversalInput{
		AccountID:         ownerID,
		OriginalEventID:   eventID,
		OriginalEventType: eventType,
		Reason:            reason,
		ReversedBy:        acting.ID,
		AdjustmentDelta:   adjustDelta,
		AdjustmentReason:  fmt.Sprintf("reversal of %s #%d", eventType, eventID),
		RestoreItemID:     restoreItemID,
	})
	if err != nil {
		return nil, err
	}

	metrics.ReversalsTotal.WithLabelValues(string(eventType)).Inc()
	s.Logger.Info("transaction reversed",
		"eventType", eventType, "eventID", eventID,
		"account", ownerID, "reversedBy", acting.ID)
	return rev, nil
}

// stockRestoreTarget decides whether the reversal should put a unit back.
// Only stock-tracked plain items qualify; a deleted item means the monetary
// reversal proceeds without stock restoration.
func (s ReversalService) stockRestoreTarget(ctx context.Context, c *domain.Consumption) *int64 {
	if c.ItemID == nil {
		return nil
	}
	item, err := s.Items.GetByID(ctx, *c.ItemID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.Logger.Warn("stock restore lookup failed", "item", *c.ItemID, "err", err)
		}
		return nil
	}
	if item.IsMixedDrink || item.StockQuantity == nil {
		return nil
	}
	return c.ItemID
}

func (s ReversalService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
