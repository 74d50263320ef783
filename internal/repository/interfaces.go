package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mshami/kwikship-backend/internal/models"
)

// Conditions detected at the storage layer. Services wrap or re-surface
// these; handlers match with errors.Is.
var (
	ErrNotFound = errors.New("not found")

	// ErrInsufficientFunds: the conditional debit (amount >= X) matched no
	// row. The balance and the transactions table are untouched.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrRefundExists: a refund transaction for this shipment is already on
	// record (unique index on related_shipment for refunds).
	ErrRefundExists = errors.New("refund already recorded for shipment")

	ErrDuplicateEmail = errors.New("email already registered")
)

type Users interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

type Wallets interface {
	// GetOrCreate returns the (user, currency) row, inserting a zero balance
	// if missing.
	GetOrCreate(ctx context.Context, userID string, cur models.Currency) (models.Balance, error)
	Get(ctx context.Context, userID string, cur models.Currency) (models.Balance, error)
	// All returns every currency's balance for the user, zero-filled for
	// currencies with no row yet.
	All(ctx context.Context, userID string) (map[models.Currency]decimal.Decimal, error)
}

// TransactionFilter narrows List. Zero values mean "no constraint";
// non-matching filters yield empty slices, never errors.
type TransactionFilter struct {
	UserID   string
	Type     models.TransactionType
	Status   models.TransactionStatus
	Currency models.Currency
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// Transactions is the append-only ledger. Apply is the single write path:
// it moves the (user, currency) balance and inserts the transaction row in
// one storage transaction, filling ID, Reference, BalanceBefore,
// BalanceAfter and CreatedAt on the returned record. A debit that would go
// negative fails with ErrInsufficientFunds and persists nothing.
type Transactions interface {
	Apply(ctx context.Context, txn models.Transaction) (models.Transaction, error)
	GetByID(ctx context.Context, id string) (models.Transaction, error)
	List(ctx context.Context, f TransactionFilter) ([]models.Transaction, error)
	Count(ctx context.Context, f TransactionFilter) (int, error)
	// SumCompleted aggregates completed transactions of the given type per
	// currency since the cutoff. Used by admin reporting only.
	SumCompleted(ctx context.Context, typ models.TransactionType, since time.Time) (map[models.Currency]decimal.Decimal, error)
}

type ShipmentFilter struct {
	UserID string
	Status models.ShipmentStatus
	Limit  int
	Offset int
}

type Shipments interface {
	Create(ctx context.Context, s models.Shipment) (models.Shipment, error)
	GetByID(ctx context.Context, id string) (models.Shipment, error)
	GetByTrackingNumber(ctx context.Context, tn string) (models.Shipment, error)
	List(ctx context.Context, f ShipmentFilter) ([]models.Shipment, error)
	Count(ctx context.Context, f ShipmentFilter) (int, error)
	CountByStatus(ctx context.Context) (map[models.ShipmentStatus]int, error)
	// SetPaid flips cost.is_paid. Only ShipmentService calls this, right
	// after the corresponding ledger operation.
	SetPaid(ctx context.Context, id string, paid bool) error
	// UpdateStatus sets the status, appends the history event and, when
	// delivered, stamps actual_delivery.
	UpdateStatus(ctx context.Context, id string, status models.ShipmentStatus, ev models.StatusEvent) error
	// Delete removes a shipment row; used to roll back creation when the
	// wallet payment fails.
	Delete(ctx context.Context, id string) error
}

type ActivityLogs interface {
	Create(ctx context.Context, l models.ActivityLog) error
	List(ctx context.Context, action, category, userID string, limit, offset int) ([]models.ActivityLog, error)
}
