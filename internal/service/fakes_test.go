package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/EmielEDW/chiro-sub000/internal/repository"
)

// In-memory stand-ins for the repository layer, so service policy can be
// tested without a database.

type fakeAccounts struct {
	accounts map[int64]domain.Account
}

func (f *fakeAccounts) GetByID(_ context.Context, id int64) (*domain.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

type fakeItems struct {
	items      map[int64]domain.CatalogItem
	components map[int64][]domain.MixedComponent
}

func (f *fakeItems) GetByID(_ context.Context, id int64) (*domain.CatalogItem, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &it, nil
}

func (f *fakeItems) Components(_ context.Context, itemID int64) ([]domain.MixedComponent, error) {
	return f.components[itemID], nil
}

type fakeLedger struct {
	balance      int64
	consumptions map[int64]domain.Consumption

	createdConsumptions []repository.CreateConsumptionInput
	levels              []repository.StockLevel
	createErr           error
	nextID              int64
}

func (f *fakeLedger) Balance(_ context.Context, _ int64) (int64, error) {
	return f.balance, nil
}

func (f *fakeLedger) GetConsumption(_ context.Context, id int64) (*domain.Consumption, error) {
	c, ok := f.consumptions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (f *fakeLedger) CreateConsumption(_ context.Context, in repository.CreateConsumptionInput) (*domain.Consumption, []repository.StockLevel, error) {
	if f.createErr != nil {
		return nil, nil, f.createErr
	}
	f.createdConsumptions = append(f.createdConsumptions, in)
	f.nextID++
	return &domain.Consumption{
		ID:              f.nextID,
		AccountID:       in.AccountID,
		ItemID:          in.ItemID,
		ItemName:        in.ItemName,
		PriceAtPurchase: in.PriceAtPurchase,
		Channel:         in.Channel,
		CreatedAt:       time.Now(),
	}, f.levels, nil
}

type fakeTopUps struct {
	mu     sync.Mutex
	topups map[int64]domain.TopUp
	nextID int64

	transitions []string
}

func (f *fakeTopUps) GetByID(_ context.Context, id int64) (*domain.TopUp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.topups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (f *fakeTopUps) GetByReference(_ context.Context, provider domain.TopUpProvider, reference string) (*domain.TopUp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.topups {
		if t.Provider == provider && t.ProviderReference == reference {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTopUps) Create(_ context.Context, in repository.CreateTopUpInput) (*domain.TopUp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.topups {
		if t.Provider == in.Provider && t.ProviderReference == in.ProviderReference {
			return nil, domain.ErrConflict
		}
	}
	f.nextID++
	t := domain.TopUp{
		ID:                f.nextID,
		AccountID:         in.AccountID,
		Amount:            in.Amount,
		Provider:          in.Provider,
		ProviderReference: in.ProviderReference,
		Status:            in.Status,
		CreatedAt:         time.Now(),
	}
	if f.topups == nil {
		f.topups = map[int64]domain.TopUp{}
	}
	f.topups[t.ID] = t
	return &t, nil
}

func (f *fakeTopUps) Transition(_ context.Context, id int64, from, to domain.TopUpStatus) (*domain.TopUp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.topups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if t.Status != from {
		return nil, domain.ErrConflict
	}
	t.Status = to
	f.topups[id] = t
	f.transitions = append(f.transitions, fmt.Sprintf("%d:%s->%s", id, from, to))
	return &t, nil
}

type fakeReversals struct {
	existing map[string]bool
	created  []repository.CreateReversalInput
	nextID   int64
}

func reversalKey(eventID int64, eventType domain.EventType) string {
	return fmt.Sprintf("%d/%s", eventID, eventType)
}

func (f *fakeReversals) Exists(_ context.Context, eventID int64, eventType domain.EventType) (bool, error) {
	return f.existing[reversalKey(eventID, eventType)], nil
}

func (f *fakeReversals) Create(_ context.Context, in repository.CreateReversalInput) (*domain.Reversal, error) {
	key := reversalKey(in.OriginalEventID, in.OriginalEventType)
	if f.existing[key] {
		return nil, domain.ErrAlreadyReversed
	}
	if f.existing == nil {
		f.existing = map[string]bool{}
	}
	f.existing[key] = true
	f.created = append(f.created, in)
	f.nextID++
	reversedBy := in.ReversedBy
	return &domain.Reversal{
		ID:                f.nextID,
		AccountID:         in.AccountID,
		OriginalEventID:   in.OriginalEventID,
		OriginalEventType: in.OriginalEventType,
		Reason:            in.Reason,
		ReversedBy:        &reversedBy,
		CreatedAt:         time.Now(),
	}, nil
}

type fakeNotifications struct {
	created []repository.CreateNotificationInput
	err     error
}

func (f *fakeNotifications) Create(_ context.Context, in repository.CreateNotificationInput) (*domain.Notification, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, in)
	return &domain.Notification{ID: int64(len(f.created)), Title: in.Title, Message: in.Message, Type: in.Type}, nil
}

type fakeStockStore struct {
	adjusted []repository.AdjustStockInput
	audits   []repository.AuditInput
	quantity int
	err      error
	nextID   int64
}

func (f *fakeStockStore) Adjust(_ context.Context, in repository.AdjustStockInput) (*domain.StockLedgerEntry, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	f.adjusted = append(f.adjusted, in)
	f.quantity += in.Change
	f.nextID++
	return &domain.StockLedgerEntry{
		ID:              f.nextID,
		ItemID:          in.ItemID,
		QuantityChange:  in.Change,
		TransactionType: in.Type,
		Notes:           in.Notes,
		SessionID:       in.SessionID,
		CreatedBy:       in.CreatedBy,
		CreatedAt:       time.Now(),
	}, f.quantity, nil
}

func (f *fakeStockStore) Audit(_ context.Context, in repository.AuditInput) ([]domain.StockLedgerEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.audits = append(f.audits, in)
	entries := make([]domain.StockLedgerEntry, 0, len(in.Lines))
	for _, line := range in.Lines {
		f.nextID++
		sessionID := in.SessionID
		entries = append(entries, domain.StockLedgerEntry{
			ID:              f.nextID,
			ItemID:          line.ItemID,
			QuantityChange:  line.Counted,
			TransactionType: domain.StockEntryAdjustment,
			SessionID:       &sessionID,
			CreatedAt:       time.Now(),
		})
	}
	return entries, nil
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }
