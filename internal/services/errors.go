package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mshami/kwikship-backend/internal/models"
)

// Sentinel errors surfaced by the ledger and shipment services.
// Match with errors.Is; InsufficientFundsError carries detail via errors.As.
var (
	// ErrInvalidAmount: amount <= 0 passed to a ledger operation. Rejected
	// before any mutation.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInsufficientFunds: a debit exceeds the current balance. Nothing
	// persisted; the enclosing action must compensate.
	ErrInsufficientFunds = errors.New("insufficient balance")

	// ErrTerminalStatus: transition attempted out of delivered/cancelled.
	ErrTerminalStatus = errors.New("shipment is in a terminal status")

	// ErrAlreadyRefunded: a refund transaction for the shipment already
	// exists; issuing another would double-pay the user.
	ErrAlreadyRefunded = errors.New("shipment already refunded")

	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("not authorized")
	ErrBadRequest = errors.New("invalid request")
)

type InsufficientFundsError struct {
	UserID    string
	Currency  models.Currency
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance: have %s %s, need %s",
		e.Available, e.Currency, e.Requested)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }
