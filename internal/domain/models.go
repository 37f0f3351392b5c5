package domain

import "time"

// Enumerations
const (
	RoleOrdinary  AccountRole = "ordinary"
	RoleTreasurer AccountRole = "treasurer"
	RoleAdmin     AccountRole = "admin"

	ChannelTap   Channel = "tap"
	ChannelQR    Channel = "qr"
	ChannelAdmin Channel = "admin"

	ProviderStripe       TopUpProvider = "stripe"
	ProviderCash         TopUpProvider = "cash"
	ProviderBankTransfer TopUpProvider = "banktransfer"

	TopUpPending   TopUpStatus = "pending"
	TopUpPaid      TopUpStatus = "paid"
	TopUpFailed    TopUpStatus = "failed"
	TopUpCancelled TopUpStatus = "cancelled"

	EventConsumption EventType = "consumption"
	EventTopUp       EventType = "topup"

	StockEntryPurchase   StockEntryType = "purchase"
	StockEntryAdjustment StockEntryType = "adjustment"
	StockEntryReversal   StockEntryType = "reversal"

	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

type AccountRole string
type Channel string
type TopUpProvider string
type TopUpStatus string
type EventType string
type StockEntryType string
type NotificationType string

// CanActForOthers reports whether the role may act on other accounts'
// transactions (reversals, manual top-ups, adjustments).
func (r AccountRole) CanActForOthers() bool {
	return r == RoleTreasurer || r == RoleAdmin
}

// Account is a member or an ad-hoc guest tab. Guests typically allow a
// negative balance and have no login credentials.
type Account struct {
	ID                    int64
	Name                  string
	Email                 string
	Role                  AccountRole
	IsGuestAccount        bool
	AllowsNegativeBalance bool
	Active                bool
	PasswordHash          *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	DeletedAt             *time.Time
}

// CatalogItem is a purchasable product. StockQuantity is nil for untracked
// items and for mixed drinks, whose availability derives from components.
type CatalogItem struct {
	ID                 int64
	Name               string
	PriceCents         int64
	PurchasePriceCents int64
	StockQuantity      *int
	LowStockThreshold  int
	Active             bool
	IsMixedDrink       bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          *time.Time
}

// MixedComponent is one line of a mixed drink's bill of materials.
type MixedComponent struct {
	ItemID         int64
	ComponentID    int64
	ComponentName  string
	Quantity       int
	ComponentStock *int
}

// Consumption debits an account. Append-only; never mutated or deleted.
type Consumption struct {
	ID              int64
	AccountID       int64
	ItemID          *int64
	ItemName        string
	PriceAtPurchase int64
	Channel         Channel
	CreatedAt       time.Time
}

// TopUp credits an account once its status is paid. Pending, failed and
// cancelled top-ups never contribute to the balance.
type TopUp struct {
	ID                int64
	AccountID         int64
	Amount            int64
	Provider          TopUpProvider
	ProviderReference string
	Status            TopUpStatus
	CreatedAt         time.Time
}

// Adjustment is a manual signed correction. It is also the compensation
// mechanism for reversals: refund for consumptions, claw-back for top-ups.
type Adjustment struct {
	ID        int64
	AccountID int64
	Delta     int64
	Reason    string
	CreatedBy *int64
	CreatedAt time.Time
}

// Reversal marks a prior consumption or top-up as undone. At most one may
// exist per (OriginalEventID, OriginalEventType) pair.
type Reversal struct {
	ID                int64
	AccountID         int64
	OriginalEventID   int64
	OriginalEventType EventType
	Reason            string
	ReversedBy        *int64
	CreatedAt         time.Time
}

// StockLedgerEntry is one append-only stock delta. The sum of all entries
// for an item plus its initial value equals the live counter at all times.
type StockLedgerEntry struct {
	ID              int64
	ItemID          int64
	QuantityChange  int
	TransactionType StockEntryType
	Notes           string
	SessionID       *string
	CreatedBy       *int64
	CreatedAt       time.Time
}

type Notification struct {
	ID        int64
	AccountID *int64
	Title     string
	Message   string
	Type      NotificationType
	CreatedAt time.Time
	ReadAt    *time.Time
	DeletedAt *time.Time
}

// LedgerLine is one row of an account statement: a consumption, paid top-up
// or adjustment with its signed effect and the running balance after it.
type LedgerLine struct {
	Kind      string
	EventID   int64
	Detail    string
	Delta     int64
	Running   int64
	CreatedAt time.Time
}
