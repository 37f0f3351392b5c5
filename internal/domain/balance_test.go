package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(minutes int) time.Time {
	return time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
}

func TestBalanceFromEvents(t *testing.T) {
	topups := []TopUp{
		{ID: 1, Amount: 2500, Status: TopUpPaid, CreatedAt: ts(0)},
		{ID: 2, Amount: 1000, Status: TopUpPending, CreatedAt: ts(5)},
		{ID: 3, Amount: 500, Status: TopUpFailed, CreatedAt: ts(6)},
	}
	consumptions := []Consumption{
		{ID: 10, PriceAtPurchase: 350, CreatedAt: ts(10)},
	}

	assert.Equal(t, int64(2150), BalanceFromEvents(topups, consumptions, nil),
		"only paid top-ups count toward the balance")
}

func TestBalanceAfterReversalAdjustment(t *testing.T) {
	topups := []TopUp{{ID: 1, Amount: 2500, Status: TopUpPaid, CreatedAt: ts(0)}}
	consumptions := []Consumption{{ID: 10, PriceAtPurchase: 350, CreatedAt: ts(10)}}
	adjustments := []Adjustment{{ID: 20, Delta: 350, Reason: "reversal of consumption #10", CreatedAt: ts(20)}}

	assert.Equal(t, int64(2500), BalanceFromEvents(topups, consumptions, adjustments),
		"a reversed consumption nets out through its compensating adjustment")
}

func TestBalanceTopUpClawBack(t *testing.T) {
	topups := []TopUp{{ID: 1, Amount: 2500, Status: TopUpPaid, CreatedAt: ts(0)}}
	adjustments := []Adjustment{{ID: 20, Delta: -2500, Reason: "reversal of topup #1", CreatedAt: ts(20)}}

	assert.Equal(t, int64(0), BalanceFromEvents(topups, nil, adjustments))
}

func TestBalanceCanGoNegative(t *testing.T) {
	consumptions := []Consumption{{ID: 10, PriceAtPurchase: 500, CreatedAt: ts(0)}}

	assert.Equal(t, int64(-500), BalanceFromEvents(nil, consumptions, nil),
		"guest tabs run into the negative without clamping")
}

func TestStatementLinesRunningBalance(t *testing.T) {
	topups := []TopUp{
		{ID: 1, Amount: 2000, Provider: ProviderCash, Status: TopUpPaid, CreatedAt: ts(0)},
		{ID: 2, Amount: 1000, Provider: ProviderStripe, Status: TopUpPending, CreatedAt: ts(30)},
	}
	consumptions := []Consumption{
		{ID: 10, ItemName: "Cola", PriceAtPurchase: 150, CreatedAt: ts(10)},
		{ID: 11, ItemName: "Chips", PriceAtPurchase: 100, CreatedAt: ts(20)},
	}
	adjustments := []Adjustment{
		{ID: 20, Delta: 150, Reason: "reversal of consumption #10", CreatedAt: ts(40)},
	}

	lines := StatementLines(topups, consumptions, adjustments)
	require.Len(t, lines, 5)

	assert.Equal(t, int64(2000), lines[0].Running)
	assert.Equal(t, int64(1850), lines[1].Running)
	assert.Equal(t, int64(1750), lines[2].Running)
	assert.Equal(t, int64(1750), lines[3].Running, "pending top-up shows but does not move the balance")
	assert.Equal(t, int64(0), lines[3].Delta)
	assert.Equal(t, int64(1900), lines[4].Running)

	assert.Equal(t, BalanceFromEvents(topups, consumptions, adjustments), lines[len(lines)-1].Running,
		"the last running value equals the derived balance")
}

func TestStatementLinesChronological(t *testing.T) {
	topups := []TopUp{{ID: 1, Amount: 500, Status: TopUpPaid, CreatedAt: ts(50)}}
	consumptions := []Consumption{{ID: 10, PriceAtPurchase: 100, CreatedAt: ts(5)}}

	lines := StatementLines(topups, consumptions, nil)
	require.Len(t, lines, 2)
	assert.Equal(t, "consumption", lines[0].Kind)
	assert.True(t, lines[0].CreatedAt.Before(lines[1].CreatedAt))
}

func TestDerivedStock(t *testing.T) {
	gin := 10
	tonic := 3
	components := []MixedComponent{
		{ComponentID: 1, Quantity: 2, ComponentStock: &gin},
		{ComponentID: 2, Quantity: 1, ComponentStock: &tonic},
	}
	assert.Equal(t, 3, DerivedStock(components), "limited by the scarcest component")
}

func TestDerivedStockIgnoresUntrackedComponents(t *testing.T) {
	gin := 10
	components := []MixedComponent{
		{ComponentID: 1, Quantity: 2, ComponentStock: &gin},
		{ComponentID: 2, Quantity: 1, ComponentStock: nil},
	}
	assert.Equal(t, 5, DerivedStock(components))
}

func TestDerivedStockAllUntracked(t *testing.T) {
	components := []MixedComponent{
		{ComponentID: 1, Quantity: 1, ComponentStock: nil},
	}
	assert.Equal(t, 0, DerivedStock(components))
	assert.Equal(t, 0, DerivedStock(nil))
}

func TestDerivedStockNegativeComponentClampsToZero(t *testing.T) {
	gin := -4
	tonic := 8
	components := []MixedComponent{
		{ComponentID: 1, Quantity: 1, ComponentStock: &gin},
		{ComponentID: 2, Quantity: 1, ComponentStock: &tonic},
	}
	assert.Equal(t, 0, DerivedStock(components))
}
