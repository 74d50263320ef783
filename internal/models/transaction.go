package models

import (
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType determines the sign of a ledger operation.
type TransactionType string

const (
	TxnDeposit    TransactionType = "deposit"
	TxnWithdrawal TransactionType = "withdrawal"
	TxnPayment    TransactionType = "payment"
	TxnRefund     TransactionType = "refund"
	TxnFee        TransactionType = "fee"
	TxnCommission TransactionType = "commission"
)

// IsCredit reports whether the type increases the balance.
// Everything else debits.
func (t TransactionType) IsCredit() bool {
	return t == TxnDeposit || t == TxnRefund
}

func (t TransactionType) Valid() bool {
	switch t {
	case TxnDeposit, TxnWithdrawal, TxnPayment, TxnRefund, TxnFee, TxnCommission:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TxnPending   TransactionStatus = "pending"
	TxnCompleted TransactionStatus = "completed"
	TxnFailed    TransactionStatus = "failed"
	TxnCancelled TransactionStatus = "cancelled"
)

type PaymentMethod string

const (
	MethodWallet        PaymentMethod = "wallet"
	MethodCash          PaymentMethod = "cash"
	MethodCard          PaymentMethod = "card"
	MethodBankTransfer  PaymentMethod = "bank-transfer"
	MethodMobilePayment PaymentMethod = "mobile-payment"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodWallet, MethodCash, MethodCard, MethodBankTransfer, MethodMobilePayment:
		return true
	}
	return false
}

// Transaction is the immutable record of one balance mutation. Once written
// with status completed it is never updated; a reversal is a new row.
// BalanceBefore/BalanceAfter are snapshots in the transaction's currency,
// taken inside the same storage transaction that moved the balance.
type Transaction struct {
	ID                string            `json:"id"`
	UserID            string            `json:"user_id"`
	Type              TransactionType   `json:"type"`
	Amount            decimal.Decimal   `json:"amount"`
	Currency          Currency          `json:"currency"`
	Status            TransactionStatus `json:"status"`
	Method            PaymentMethod     `json:"method"`
	Reference         string            `json:"reference"`
	RelatedShipmentID *string           `json:"related_shipment_id,omitempty"`
	Description       string            `json:"description"`
	BalanceBefore     decimal.Decimal   `json:"balance_before"`
	BalanceAfter      decimal.Decimal   `json:"balance_after"`
	ProcessedBy       *string           `json:"processed_by,omitempty"`
	ProcessedAt       *time.Time        `json:"processed_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

const refAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewTransactionReference produces a human-quotable reference like
// TXN17241234A6B9F2KQ: a TXN prefix, the trailing digits of the unix
// timestamp, and a random base36 tail.
func NewTransactionReference() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if len(ts) > 8 {
		ts = ts[len(ts)-8:]
	}
	var b strings.Builder
	b.WriteString("TXN")
	b.WriteString(ts)
	for i := 0; i < 8; i++ {
		b.WriteByte(refAlphabet[rand.Intn(len(refAlphabet))])
	}
	return b.String()
}
