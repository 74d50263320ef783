package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mshami/kwikship-backend/internal/metrics"
	"github.com/mshami/kwikship-backend/internal/models"
	"github.com/mshami/kwikship-backend/internal/notify"
	repo "github.com/mshami/kwikship-backend/internal/repository"
	"github.com/mshami/kwikship-backend/internal/worker"
)

// LedgerService is the only code path that moves wallet money. Every
// mutation goes through Debit or Credit, which delegate the atomic
// balance-plus-record write to the transactions repository. Nothing here
// reads a balance and then writes it back; sufficiency is decided by the
// storage layer's conditional update, so concurrent operations on one
// (user, currency) serialize there.
type LedgerService struct {
	trx repo.Transactions
	wal repo.Wallets
	log repo.ActivityLogs
	wp  *worker.Pool
	nt  notify.Notifier
}

func NewLedgerService(t repo.Transactions, w repo.Wallets, l repo.ActivityLogs, wp *worker.Pool, nt notify.Notifier) *LedgerService {
	if nt == nil {
		nt = notify.Nop{}
	}
	return &LedgerService{trx: t, wal: w, log: l, wp: wp, nt: nt}
}

// LedgerOp describes one requested balance mutation. Type decides the sign:
// deposit/refund credit, everything else debits.
type LedgerOp struct {
	UserID            string
	Currency          models.Currency
	Amount            decimal.Decimal
	Type              models.TransactionType
	Method            models.PaymentMethod
	RelatedShipmentID *string
	Description       string
	ProcessedBy       *string
}

func (op LedgerOp) validate() error {
	if !op.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !op.Currency.Valid() {
		return fmt.Errorf("%w: currency %q", ErrBadRequest, op.Currency)
	}
	if !op.Type.Valid() {
		return fmt.Errorf("%w: transaction type %q", ErrBadRequest, op.Type)
	}
	return nil
}

func (s *LedgerService) apply(ctx context.Context, op LedgerOp) (models.Transaction, error) {
	if err := op.validate(); err != nil {
		metrics.TransactionsFailed.WithLabelValues("invalid_amount").Inc()
		return models.Transaction{}, err
	}

	now := time.Now()
	txn := models.Transaction{
		UserID:            op.UserID,
		Type:              op.Type,
		Amount:            op.Amount,
		Currency:          op.Currency,
		Status:            models.TxnCompleted,
		Method:            op.Method,
		RelatedShipmentID: op.RelatedShipmentID,
		Description:       op.Description,
		ProcessedBy:       op.ProcessedBy,
		ProcessedAt:       &now,
	}

	txn, err := s.trx.Apply(ctx, txn)
	if err != nil {
		if errors.Is(err, repo.ErrInsufficientFunds) {
			metrics.TransactionsFailed.WithLabelValues("insufficient_funds").Inc()
			ife := &InsufficientFundsError{
				UserID:    op.UserID,
				Currency:  op.Currency,
				Requested: op.Amount,
			}
			if b, berr := s.wal.Get(ctx, op.UserID, op.Currency); berr == nil {
				ife.Available = b.Amount
			}
			return models.Transaction{}, ife
		}
		metrics.TransactionsFailed.WithLabelValues("storage").Inc()
		return models.Transaction{}, err
	}
	metrics.TransactionsTotal.WithLabelValues(string(txn.Type)).Inc()

	s.audit(txn.UserID, string(txn.Type), "wallet",
		fmt.Sprintf("%s %s %s (ref %s)", txn.Type, txn.Amount, txn.Currency, txn.Reference),
		txn.ID, "Transaction")
	s.publish(notify.Event{Name: notify.EventNewTransaction, UserID: txn.UserID, Payload: txn})

	return txn, nil
}

// Debit decreases the balance for a withdrawal/payment/fee/commission and
// appends the completed Transaction. Fails with ErrInvalidAmount or
// ErrInsufficientFunds; on failure nothing is persisted.
func (s *LedgerService) Debit(ctx context.Context, op LedgerOp) (models.Transaction, error) {
	if op.Type.IsCredit() {
		return models.Transaction{}, fmt.Errorf("%w: %s is not a debit type", ErrBadRequest, op.Type)
	}
	return s.apply(ctx, op)
}

// Credit increases the balance for a deposit/refund. No upper bound.
func (s *LedgerService) Credit(ctx context.Context, op LedgerOp) (models.Transaction, error) {
	if !op.Type.IsCredit() {
		return models.Transaction{}, fmt.Errorf("%w: %s is not a credit type", ErrBadRequest, op.Type)
	}
	return s.apply(ctx, op)
}

func (s *LedgerService) GetBalance(ctx context.Context, userID string, cur models.Currency) (decimal.Decimal, error) {
	if !cur.Valid() {
		return decimal.Zero, fmt.Errorf("%w: currency %q", ErrBadRequest, cur)
	}
	b, err := s.wal.GetOrCreate(ctx, userID, cur)
	if err != nil {
		return decimal.Zero, err
	}
	return b.Amount, nil
}

func (s *LedgerService) Balances(ctx context.Context, userID string) (map[models.Currency]decimal.Decimal, error) {
	return s.wal.All(ctx, userID)
}

// Deposit and Withdraw are the wallet handler entry points.

func (s *LedgerService) Deposit(ctx context.Context, userID string, cur models.Currency, amount decimal.Decimal, method models.PaymentMethod) (models.Transaction, error) {
	if !method.Valid() {
		return models.Transaction{}, fmt.Errorf("%w: method %q", ErrBadRequest, method)
	}
	return s.Credit(ctx, LedgerOp{
		UserID:      userID,
		Currency:    cur,
		Amount:      amount,
		Type:        models.TxnDeposit,
		Method:      method,
		Description: "Deposit to wallet",
	})
}

func (s *LedgerService) Withdraw(ctx context.Context, userID string, cur models.Currency, amount decimal.Decimal, method models.PaymentMethod) (models.Transaction, error) {
	if !method.Valid() {
		return models.Transaction{}, fmt.Errorf("%w: method %q", ErrBadRequest, method)
	}
	return s.Debit(ctx, LedgerOp{
		UserID:      userID,
		Currency:    cur,
		Amount:      amount,
		Type:        models.TxnWithdrawal,
		Method:      method,
		Description: "Withdrawal from wallet",
	})
}

// GetTransaction enforces ownership: the owner or an admin may read.
func (s *LedgerService) GetTransaction(ctx context.Context, id, requesterID, requesterRole string) (models.Transaction, error) {
	txn, err := s.trx.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.Transaction{}, ErrNotFound
	}
	if err != nil {
		return models.Transaction{}, err
	}
	if txn.UserID != requesterID && !models.IsAdminRole(requesterRole) {
		return models.Transaction{}, ErrForbidden
	}
	return txn, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, f repo.TransactionFilter) ([]models.Transaction, int, error) {
	txns, err := s.trx.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.trx.Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func (s *LedgerService) audit(userID, action, category, description, targetID, targetModel string) {
	uid, tid := userID, targetID
	_ = s.log.Create(context.Background(), models.ActivityLog{
		UserID:      &uid,
		Action:      action,
		Category:    category,
		Description: description,
		TargetID:    &tid,
		TargetModel: targetModel,
	})
}

func (s *LedgerService) publish(ev notify.Event) {
	if s.wp == nil {
		s.nt.Publish(ev)
		return
	}
	s.wp.Submit(func() { s.nt.Publish(ev) })
}
