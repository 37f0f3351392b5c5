package service

import (
	"context"

	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/EmielEDW/chiro-sub000/internal/repository"
	"github.com/google/uuid"
)

// StockStore applies stock movements atomically.
type StockStore interface {
	Adjust(ctx context.Context, in repository.AdjustStockInput) (*domain.StockLedgerEntry, int, error)
	Audit(ctx context.Context, in repository.AuditInput) ([]domain.StockLedgerEntry, error)
}

// StockService orchestrates manual corrections, restock sessions and stock
// audits on top of the atomic store operations.
type StockService struct {
	Stock             StockStore
	EnforceStockFloor bool
}

// Adjust applies one manual correction.
func (s StockService) Adjust(ctx context.Context, itemID int64, change int, notes string, actingID int64) (*domain.StockLedgerEntry, int, error) {
	return s.Stock.Adjust(ctx, repository.AdjustStockInput{
		ItemID:            itemID,
		Change:            change,
		Type:              domain.StockEntryAdjustment,
		Notes:             notes,
		CreatedBy:         &actingID,
		EnforceStockFloor: s.EnforceStockFloor,
	})
}

// RestockLine is one delivery line of a restock session.
type RestockLine struct {
	ItemID   int64
	Quantity int
	Notes    string
}

// Restock records a delivery as a series of positive adjustments sharing a
// session id for traceability.
func (s StockService) Restock(ctx context.Context, lines []RestockLine, actingID int64) (string, []domain.StockLedgerEntry, error) {
	sessionID := uuid.NewString()
	entries := make([]domain.StockLedgerEntry, 0, len(lines))
	for _, line := range lines {
		if line.Quantity == 0 {
			continue
		}
		entry, _, err := s.Stock.Adjust(ctx, repository.AdjustStockInput{
			ItemID:            line.ItemID,
			Change:            line.Quantity,
			Type:              domain.StockEntryAdjustment,
			Notes:             line.Notes,
			SessionID:         &sessionID,
			CreatedBy:         &actingID,
			EnforceStockFloor: s.EnforceStockFloor,
		})
		if err != nil {
			return "", nil, err
		}
		entries = append(entries, *entry)
	}
	return sessionID, entries, nil
}

// AuditCount is one counted quantity from a physical stock take.
type AuditCount struct {
	ItemID  int64
	Counted int
}

// Audit reconciles physical counts against the live counters. Only items
// whose counted quantity differs from the expected one produce ledger
// entries; all lines share the returned audit session id.
func (s StockService) Audit(ctx context.Context, counts []AuditCount, notes string, actingID int64) (string, []domain.StockLedgerEntry, error) {
	sessionID := uuid.NewString()
	lines := make([]repository.AuditLine, 0, len(counts))
	for _, c := range counts {
		lines = append(lines, repository.AuditLine{ItemID: c.ItemID, Counted: c.Counted})
	}
	entries, err := s.Stock.Audit(ctx, repository.AuditInput{
		SessionID: sessionID,
		Lines:     lines,
		Notes:     notes,
		CreatedBy: &actingID,
	})
	if err != nil {
		return "", nil, err
	}
	return sessionID, entries, nil
}
