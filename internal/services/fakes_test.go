package services_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mshami/kwikship-backend/internal/models"
	repo "github.com/mshami/kwikship-backend/internal/repository"
)

// In-memory repositories honoring the same contract as the postgres layer:
// Apply is serialized and conditional (a debit that would go negative fails
// with ErrInsufficientFunds and writes nothing), and at most one refund
// transaction may reference a shipment (ErrRefundExists).

type balKey struct {
	userID   string
	currency models.Currency
}

type fakeState struct {
	mu        sync.Mutex
	balances  map[balKey]decimal.Decimal
	txns      []models.Transaction
	shipments map[string]models.Shipment
	logs      []models.ActivityLog
}

func newFakeState() *fakeState {
	return &fakeState{
		balances:  map[balKey]decimal.Decimal{},
		shipments: map[string]models.Shipment{},
	}
}

// ---------------- Wallets ----------------

type fakeWallets struct{ st *fakeState }

func (f *fakeWallets) GetOrCreate(_ context.Context, userID string, cur models.Currency) (models.Balance, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	k := balKey{userID, cur}
	if _, ok := f.st.balances[k]; !ok {
		f.st.balances[k] = decimal.Zero
	}
	return models.Balance{UserID: userID, Currency: cur, Amount: f.st.balances[k], LastUpdatedAt: time.Now()}, nil
}

func (f *fakeWallets) Get(_ context.Context, userID string, cur models.Currency) (models.Balance, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	amt, ok := f.st.balances[balKey{userID, cur}]
	if !ok {
		return models.Balance{}, repo.ErrNotFound
	}
	return models.Balance{UserID: userID, Currency: cur, Amount: amt, LastUpdatedAt: time.Now()}, nil
}

func (f *fakeWallets) All(_ context.Context, userID string) (map[models.Currency]decimal.Decimal, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	out := map[models.Currency]decimal.Decimal{}
	for _, c := range models.Currencies() {
		out[c] = decimal.Zero
	}
	for k, v := range f.st.balances {
		if k.userID == userID {
			out[k.currency] = v
		}
	}
	return out, nil
}

// ---------------- Transactions ----------------

type fakeTxns struct{ st *fakeState }

func (f *fakeTxns) Apply(_ context.Context, txn models.Transaction) (models.Transaction, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()

	if txn.Type == models.TxnRefund && txn.RelatedShipmentID != nil {
		for _, t := range f.st.txns {
			if t.Type == models.TxnRefund && t.RelatedShipmentID != nil && *t.RelatedShipmentID == *txn.RelatedShipmentID {
				return models.Transaction{}, repo.ErrRefundExists
			}
		}
	}

	k := balKey{txn.UserID, txn.Currency}
	before := f.st.balances[k]
	var after decimal.Decimal
	if txn.Type.IsCredit() {
		after = before.Add(txn.Amount)
	} else {
		if before.LessThan(txn.Amount) {
			return models.Transaction{}, repo.ErrInsufficientFunds
		}
		after = before.Sub(txn.Amount)
	}
	f.st.balances[k] = after

	txn.ID = uuid.NewString()
	txn.Reference = models.NewTransactionReference()
	txn.BalanceBefore = before
	txn.BalanceAfter = after
	txn.CreatedAt = time.Now()
	f.st.txns = append(f.st.txns, txn)
	return txn, nil
}

func (f *fakeTxns) GetByID(_ context.Context, id string) (models.Transaction, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, t := range f.st.txns {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Transaction{}, repo.ErrNotFound
}

func matches(t models.Transaction, fl repo.TransactionFilter) bool {
	if fl.UserID != "" && t.UserID != fl.UserID {
		return false
	}
	if fl.Type != "" && t.Type != fl.Type {
		return false
	}
	if fl.Status != "" && t.Status != fl.Status {
		return false
	}
	if fl.Currency != "" && t.Currency != fl.Currency {
		return false
	}
	if fl.From != nil && t.CreatedAt.Before(*fl.From) {
		return false
	}
	if fl.To != nil && t.CreatedAt.After(*fl.To) {
		return false
	}
	return true
}

func (f *fakeTxns) List(_ context.Context, fl repo.TransactionFilter) ([]models.Transaction, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	out := []models.Transaction{}
	for _, t := range f.st.txns {
		if matches(t, fl) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTxns) Count(_ context.Context, fl repo.TransactionFilter) (int, error) {
	out, _ := f.List(context.Background(), fl)
	return len(out), nil
}

func (f *fakeTxns) SumCompleted(_ context.Context, typ models.TransactionType, since time.Time) (map[models.Currency]decimal.Decimal, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	out := map[models.Currency]decimal.Decimal{}
	for _, c := range models.Currencies() {
		out[c] = decimal.Zero
	}
	for _, t := range f.st.txns {
		if t.Type == typ && t.Status == models.TxnCompleted && !t.CreatedAt.Before(since) {
			out[t.Currency] = out[t.Currency].Add(t.Amount)
		}
	}
	return out, nil
}

// ---------------- Shipments ----------------

type fakeShipments struct{ st *fakeState }

func (f *fakeShipments) Create(_ context.Context, s models.Shipment) (models.Shipment, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.TrackingNumber == "" {
		s.TrackingNumber = models.NewTrackingNumber()
	}
	if s.Status == "" {
		s.Status = models.ShipmentPending
	}
	now := time.Now()
	s.CreatedAt, s.UpdatedAt = now, now
	s.StatusHistory = []models.StatusEvent{{Status: s.Status, Timestamp: now}}
	f.st.shipments[s.ID] = s
	return s, nil
}

func (f *fakeShipments) GetByID(_ context.Context, id string) (models.Shipment, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	s, ok := f.st.shipments[id]
	if !ok {
		return models.Shipment{}, repo.ErrNotFound
	}
	return s, nil
}

func (f *fakeShipments) GetByTrackingNumber(_ context.Context, tn string) (models.Shipment, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	for _, s := range f.st.shipments {
		if strings.EqualFold(s.TrackingNumber, tn) {
			return s, nil
		}
	}
	return models.Shipment{}, repo.ErrNotFound
}

func (f *fakeShipments) List(_ context.Context, fl repo.ShipmentFilter) ([]models.Shipment, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	out := []models.Shipment{}
	for _, s := range f.st.shipments {
		if fl.UserID != "" && s.UserID != fl.UserID {
			continue
		}
		if fl.Status != "" && s.Status != fl.Status {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeShipments) Count(_ context.Context, fl repo.ShipmentFilter) (int, error) {
	out, _ := f.List(context.Background(), fl)
	return len(out), nil
}

func (f *fakeShipments) CountByStatus(_ context.Context) (map[models.ShipmentStatus]int, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	out := map[models.ShipmentStatus]int{}
	for _, s := range f.st.shipments {
		out[s.Status]++
	}
	return out, nil
}

func (f *fakeShipments) SetPaid(_ context.Context, id string, paid bool) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	s, ok := f.st.shipments[id]
	if !ok {
		return repo.ErrNotFound
	}
	s.Cost.IsPaid = paid
	f.st.shipments[id] = s
	return nil
}

func (f *fakeShipments) UpdateStatus(_ context.Context, id string, status models.ShipmentStatus, ev models.StatusEvent) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	s, ok := f.st.shipments[id]
	if !ok {
		return repo.ErrNotFound
	}
	now := time.Now()
	s.Status = status
	ev.Status = status
	ev.Timestamp = now
	s.StatusHistory = append(s.StatusHistory, ev)
	if status == models.ShipmentDelivered {
		s.ActualDelivery = &now
	}
	s.UpdatedAt = now
	f.st.shipments[id] = s
	return nil
}

func (f *fakeShipments) Delete(_ context.Context, id string) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	delete(f.st.shipments, id)
	return nil
}

// ---------------- ActivityLogs ----------------

type fakeLogs struct{ st *fakeState }

func (f *fakeLogs) Create(_ context.Context, l models.ActivityLog) error {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	l.ID = uuid.NewString()
	l.CreatedAt = time.Now()
	f.st.logs = append(f.st.logs, l)
	return nil
}

func (f *fakeLogs) List(_ context.Context, action, category, userID string, limit, offset int) ([]models.ActivityLog, error) {
	f.st.mu.Lock()
	defer f.st.mu.Unlock()
	out := []models.ActivityLog{}
	for _, l := range f.st.logs {
		if action != "" && l.Action != action {
			continue
		}
		if category != "" && l.Category != category {
			continue
		}
		if userID != "" && (l.UserID == nil || *l.UserID != userID) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}
