package service

import (
	"context"
	"testing"

	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/EmielEDW/chiro-sub000/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderFixture() (*fakeAccounts, *fakeItems, *fakeLedger, *fakeNotifications, OrderService) {
	accounts := &fakeAccounts{accounts: map[int64]domain.Account{
		1: {ID: 1, Name: "Member", Role: domain.RoleOrdinary, Active: true},
		2: {ID: 2, Name: "Guest", Role: domain.RoleOrdinary, IsGuestAccount: true, AllowsNegativeBalance: true, Active: true},
		3: {ID: 3, Name: "Frozen", Role: domain.RoleOrdinary, Active: false},
	}}
	items := &fakeItems{
		items: map[int64]domain.CatalogItem{
			10: {ID: 10, Name: "Cola", PriceCents: 150, StockQuantity: intPtr(20), Active: true},
			11: {ID: 11, Name: "Chips", PriceCents: 100, Active: true},
			12: {ID: 12, Name: "Gin Tonic", PriceCents: 450, IsMixedDrink: true, Active: true},
			13: {ID: 13, Name: "Retired", PriceCents: 100, Active: false},
		},
		components: map[int64][]domain.MixedComponent{
			12: {
				{ItemID: 12, ComponentID: 20, ComponentName: "Gin", Quantity: 1, ComponentStock: intPtr(8)},
				{ItemID: 12, ComponentID: 21, ComponentName: "Tonic", Quantity: 2, ComponentStock: intPtr(10)},
				{ItemID: 12, ComponentID: 22, ComponentName: "Lime", Quantity: 1},
			},
		},
	}
	ledger := &fakeLedger{balance: 500}
	notifications := &fakeNotifications{}

	svc := OrderService{
		Accounts:      accounts,
		Items:         items,
		Ledger:        ledger,
		Notifications: notifications,
		Logger:        discardLogger(),
	}
	return accounts, items, ledger, notifications, svc
}

func TestPlaceOrderDebitsAndDecrementsStock(t *testing.T) {
	_, _, ledger, _, svc := newOrderFixture()

	c, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{AccountID: 1, ItemID: 10, Channel: domain.ChannelTap})
	require.NoError(t, err)
	assert.Equal(t, int64(150), c.PriceAtPurchase)
	assert.Equal(t, "Cola", c.ItemName)

	require.Len(t, ledger.createdConsumptions, 1)
	in := ledger.createdConsumptions[0]
	require.Len(t, in.StockDeltas, 1)
	assert.Equal(t, int64(10), in.StockDeltas[0].ItemID)
	assert.Equal(t, -1, in.StockDeltas[0].Change)
}

func TestPlaceOrderInsufficientBalance(t *testing.T) {
	_, _, ledger, _, svc := newOrderFixture()
	ledger.balance = 100

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{AccountID: 1, ItemID: 10, Channel: domain.ChannelTap})
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Empty(t, ledger.createdConsumptions, "nothing may be written when the check fails")
}

func TestPlaceOrderExactBalanceAllowed(t *testing.T) {
	_, _, ledger, _, svc := newOrderFixture()
	ledger.balance = 150

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{AccountID: 1, ItemID: 10, Channel: domain.ChannelTap})
	assert.NoError(t, err, "spending down to exactly zero is fine")
}

func TestGuestMayGoNegative(t *testing.T) {
	_, _, ledger, _, svc := newOrderFixture()
	ledger.balance = -500

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{AccountID: 2, ItemID: 10, Channel: domain.ChannelTap})
	assert.NoError(t, err)
}

func TestAdminChannelBypassesCreditCheck(t *testing.T) {
	_, _, ledger, _, svc := newOrderFixture()
	ledger.balance = 0

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{AccountID: 1, ItemID: 10, Channel: domain.ChannelAdmin})
	assert.NoError(t, err)
}

func TestInactiveAccountCannotOrder(t *testing.T) {
	_, _, _, _, svc := newOrderFixture()

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{AccountID: 3, ItemID: 10, Channel: domain.ChannelTap})
	assert.ErrorIs(t, err, domain.ErrAccountInactive)
}

func TestInactiveItemNotSellable(t *testing.T) {
	_, _, _, _, svc := newOrderFixture()

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{AccountID: 1, ItemID: 13, Channel: domain.ChannelTap})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMixedDrinkDecrementsComponents(t *testing.T) {
	_, _, ledger, _, svc := newOrderFixture()

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{AccountID: 1, ItemID: 12, Channel: domain.ChannelQR})
	require.NoError(t, err)

	require.Len(t, ledger.createdConsumptions, 1)
	deltas := ledger.createdConsumptions[0].StockDeltas
	// Lime is untracked and must not appear.
	require.Len(t, deltas, 2)
	assert.Equal(t, int64(20), deltas[0].ItemID)
	assert.Equal(t, -1, deltas[0].Change)
	assert.Equal(t, int64(21), deltas[1].ItemID)
	assert.Equal(t, -2, deltas[1].Change)
}

func TestUntrackedItemTouchesNoStock(t *testing.T) {
	_, _, ledger, _, svc := newOrderFixture()

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{AccountID: 1, ItemID: 11, Channel: domain.ChannelTap})
	require.NoError(t, err)
	require.Len(t, ledger.createdConsumptions, 1)
	assert.Empty(t, ledger.createdConsumptions[0].StockDeltas)
}

func TestLowStockNotification(t *testing.T) {
	_, _, ledger, notifications, svc := newOrderFixture()
	ledger.levels = []repository.StockLevel{
		{ItemID: 10, Name: "Cola", Quantity: 3, Threshold: 5},
		{ItemID: 21, Name: "Tonic", Quantity: 50, Threshold: 5},
	}

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{AccountID: 1, ItemID: 10, Channel: domain.ChannelTap})
	require.NoError(t, err)

	require.Len(t, notifications.created, 1, "only the counter at or below threshold warns")
	assert.Contains(t, notifications.created[0].Title, "Cola")
}

func TestNotificationFailureDoesNotFailSale(t *testing.T) {
	_, _, ledger, notifications, svc := newOrderFixture()
	ledger.levels = []repository.StockLevel{{ItemID: 10, Name: "Cola", Quantity: 1, Threshold: 5}}
	notifications.err = assert.AnError

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{AccountID: 1, ItemID: 10, Channel: domain.ChannelTap})
	assert.NoError(t, err)
}

func TestOutOfStockRejectsSale(t *testing.T) {
	_, _, ledger, _, svc := newOrderFixture()
	ledger.createErr = domain.ErrInsufficientStock

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{AccountID: 1, ItemID: 10, Channel: domain.ChannelTap})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}
