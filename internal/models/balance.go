package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is one (user, currency) wallet row. Never mutated directly by
// application code; the only write path is the ledger Apply in the
// repository layer, which pairs the mutation with a Transaction.
type Balance struct {
	UserID        string          `json:"user_id"`
	Currency      Currency        `json:"currency"`
	Amount        decimal.Decimal `json:"amount"`
	LastUpdatedAt time.Time       `json:"last_updated_at"`
}
