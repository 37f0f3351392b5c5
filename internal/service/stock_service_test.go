package service

import (
	"context"
	"testing"

	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustRecordsManualCorrection(t *testing.T) {
	store := &fakeStockStore{quantity: 10}
	svc := StockService{Stock: store, EnforceStockFloor: true}

	entry, quantity, err := svc.Adjust(context.Background(), 10, -2, "breakage", 2)
	require.NoError(t, err)
	assert.Equal(t, 8, quantity)
	assert.Equal(t, domain.StockEntryAdjustment, entry.TransactionType)

	require.Len(t, store.adjusted, 1)
	in := store.adjusted[0]
	assert.True(t, in.EnforceStockFloor)
	require.NotNil(t, in.CreatedBy)
	assert.Equal(t, int64(2), *in.CreatedBy)
}

func TestRestockSharesOneSession(t *testing.T) {
	store := &fakeStockStore{}
	svc := StockService{Stock: store}

	sessionID, entries, err := svc.Restock(context.Background(), []RestockLine{
		{ItemID: 10, Quantity: 24, Notes: "crate of cola"},
		{ItemID: 11, Quantity: 0},
		{ItemID: 12, Quantity: 12},
	}, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, sessionID)
	assert.Len(t, entries, 2, "zero-quantity lines are skipped")

	for _, in := range store.adjusted {
		require.NotNil(t, in.SessionID)
		assert.Equal(t, sessionID, *in.SessionID)
		assert.Equal(t, domain.StockEntryAdjustment, in.Type)
	}
}

func TestAuditDelegatesCounts(t *testing.T) {
	store := &fakeStockStore{}
	svc := StockService{Stock: store}

	sessionID, _, err := svc.Audit(context.Background(), []AuditCount{
		{ItemID: 10, Counted: 18},
		{ItemID: 12, Counted: 5},
	}, "friday stocktake", 2)
	require.NoError(t, err)
	assert.NotEmpty(t, sessionID)

	require.Len(t, store.audits, 1)
	in := store.audits[0]
	assert.Equal(t, sessionID, in.SessionID)
	assert.Equal(t, "friday stocktake", in.Notes)
	require.Len(t, in.Lines, 2)
	assert.Equal(t, 18, in.Lines[0].Counted)
}
