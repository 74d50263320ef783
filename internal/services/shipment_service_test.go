package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshami/kwikship-backend/internal/models"
	"github.com/mshami/kwikship-backend/internal/services"
)

func newTestServices(t *testing.T) (*services.ShipmentService, *services.LedgerService, *fakeState) {
	t.Helper()
	st := newFakeState()
	ledger := services.NewLedgerService(&fakeTxns{st}, &fakeWallets{st}, &fakeLogs{st}, nil, nil)
	ships := services.NewShipmentService(&fakeShipments{st}, ledger, &fakeLogs{st}, nil, nil)
	return ships, ledger, st
}

func walletShipment(userID, amount string, cur models.Currency) models.Shipment {
	return models.Shipment{
		UserID:   userID,
		Sender:   models.Party{Name: "Samir", Phone: "555", Address: "Old Town 1", City: "Damascus", Country: "Syria"},
		Receiver: models.Party{Name: "Lina", Phone: "556", Address: "Main St 9", City: "Aleppo", Country: "Syria"},
		Package:  models.Package{Type: "parcel", Weight: 2.5, Quantity: 1},
		Service:  models.Service{Type: "standard"},
		Cost: models.Cost{
			Amount:        dec(amount),
			Currency:      cur,
			PaymentMethod: models.MethodWallet,
		},
	}
}

func countTxns(st *fakeState, typ models.TransactionType) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for _, txn := range st.txns {
		if txn.Type == typ {
			n++
		}
	}
	return n
}

func TestShipmentCreate_WalletPayment(t *testing.T) {
	ships, ledger, st := newTestServices(t)
	ctx := context.Background()
	deposit(t, ledger, "u1", models.CurrencySYP, "5000")

	sh, err := ships.Create(ctx, walletShipment("u1", "5000", models.CurrencySYP))
	require.NoError(t, err)

	assert.True(t, sh.Cost.IsPaid)
	assert.Contains(t, sh.TrackingNumber, "KSH")
	assert.Equal(t, models.ShipmentPending, sh.Status)

	bal, err := ledger.GetBalance(ctx, "u1", models.CurrencySYP)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())

	require.Equal(t, 1, countTxns(st, models.TxnPayment))
	st.mu.Lock()
	payment := st.txns[len(st.txns)-1]
	st.mu.Unlock()
	require.NotNil(t, payment.RelatedShipmentID)
	assert.Equal(t, sh.ID, *payment.RelatedShipmentID)
	assert.Equal(t, models.TxnCompleted, payment.Status)
}

func TestShipmentCreate_InsufficientFunds_RollsBackShipment(t *testing.T) {
	ships, ledger, st := newTestServices(t)
	ctx := context.Background()
	deposit(t, ledger, "u1", models.CurrencySYP, "1000")

	_, err := ships.Create(ctx, walletShipment("u1", "5000", models.CurrencySYP))
	require.ErrorIs(t, err, services.ErrInsufficientFunds)

	st.mu.Lock()
	remaining := len(st.shipments)
	st.mu.Unlock()
	assert.Zero(t, remaining, "failed wallet payment must not leave a shipment behind")
	assert.Zero(t, countTxns(st, models.TxnPayment))

	bal, err := ledger.GetBalance(ctx, "u1", models.CurrencySYP)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("1000")))
}

func TestShipmentCreate_CashStaysUnpaid(t *testing.T) {
	ships, _, st := newTestServices(t)
	ctx := context.Background()

	in := walletShipment("u1", "20", models.CurrencyUSD)
	in.Cost.PaymentMethod = models.MethodCash
	sh, err := ships.Create(ctx, in)
	require.NoError(t, err)

	assert.False(t, sh.Cost.IsPaid)
	assert.Zero(t, countTxns(st, models.TxnPayment), "cash settles out of band")
}

func TestShipmentCreate_RejectsBadCost(t *testing.T) {
	ships, _, _ := newTestServices(t)
	ctx := context.Background()

	in := walletShipment("u1", "1", models.CurrencyUSD)
	in.Cost.Amount = dec("0")
	_, err := ships.Create(ctx, in)
	assert.ErrorIs(t, err, services.ErrBadRequest)

	in = walletShipment("u1", "1", "EUR")
	_, err = ships.Create(ctx, in)
	assert.ErrorIs(t, err, services.ErrBadRequest)
}

func TestShipmentCancel_RefundRoundTrip(t *testing.T) {
	ships, ledger, st := newTestServices(t)
	ctx := context.Background()
	deposit(t, ledger, "u1", models.CurrencySYP, "5000")

	sh, err := ships.Create(ctx, walletShipment("u1", "5000", models.CurrencySYP))
	require.NoError(t, err)

	cancelled, err := ships.Cancel(ctx, sh.ID, "u1")
	require.NoError(t, err)

	assert.Equal(t, models.ShipmentCancelled, cancelled.Status)
	assert.False(t, cancelled.Cost.IsPaid)

	bal, err := ledger.GetBalance(ctx, "u1", models.CurrencySYP)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("5000")), "refund restores the pre-creation balance")

	assert.Equal(t, 1, countTxns(st, models.TxnPayment))
	assert.Equal(t, 1, countTxns(st, models.TxnRefund))
}

func TestShipmentCancel_OwnershipEnforced(t *testing.T) {
	ships, ledger, _ := newTestServices(t)
	ctx := context.Background()
	deposit(t, ledger, "u1", models.CurrencyUSD, "50")

	sh, err := ships.Create(ctx, walletShipment("u1", "50", models.CurrencyUSD))
	require.NoError(t, err)

	_, err = ships.Cancel(ctx, sh.ID, "intruder")
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestShipmentCancel_TerminalStatesStayTerminal(t *testing.T) {
	ships, ledger, _ := newTestServices(t)
	ctx := context.Background()
	deposit(t, ledger, "u1", models.CurrencyUSD, "50")

	sh, err := ships.Create(ctx, walletShipment("u1", "50", models.CurrencyUSD))
	require.NoError(t, err)

	delivered, err := ships.UpdateStatus(ctx, sh.ID, models.ShipmentDelivered, "left at door", "Aleppo", "admin1")
	require.NoError(t, err)
	require.NotNil(t, delivered.ActualDelivery)
	historyLen := len(delivered.StatusHistory)

	// repeated transitions out of a terminal state always fail and leave
	// history untouched
	for _, next := range []models.ShipmentStatus{models.ShipmentInTransit, models.ShipmentCancelled} {
		_, err := ships.UpdateStatus(ctx, sh.ID, next, "", "", "admin1")
		assert.ErrorIs(t, err, services.ErrTerminalStatus)
	}
	_, err = ships.Cancel(ctx, sh.ID, "u1")
	assert.ErrorIs(t, err, services.ErrTerminalStatus)

	after, err := ships.Get(ctx, sh.ID, "u1", models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, models.ShipmentDelivered, after.Status)
	assert.Len(t, after.StatusHistory, historyLen)
}

func TestShipmentCancel_DeliveredKeepsFunds(t *testing.T) {
	ships, ledger, st := newTestServices(t)
	ctx := context.Background()
	deposit(t, ledger, "u1", models.CurrencyUSD, "50")

	sh, err := ships.Create(ctx, walletShipment("u1", "50", models.CurrencyUSD))
	require.NoError(t, err)
	_, err = ships.UpdateStatus(ctx, sh.ID, models.ShipmentDelivered, "", "", "admin1")
	require.NoError(t, err)

	_, err = ships.Cancel(ctx, sh.ID, "u1")
	require.ErrorIs(t, err, services.ErrTerminalStatus)
	assert.Zero(t, countTxns(st, models.TxnRefund))
}

func TestShipmentCancel_SecondRefundBlockedByLedger(t *testing.T) {
	ships, ledger, st := newTestServices(t)
	ctx := context.Background()
	deposit(t, ledger, "u1", models.CurrencySYP, "5000")

	sh, err := ships.Create(ctx, walletShipment("u1", "5000", models.CurrencySYP))
	require.NoError(t, err)
	_, err = ships.Cancel(ctx, sh.ID, "u1")
	require.NoError(t, err)

	// Simulate a racing canceller that loaded the shipment before the first
	// cancellation committed: force the stale paid/pending view back into
	// the store and cancel again. The refund uniqueness rule in the ledger
	// must reject the second credit.
	st.mu.Lock()
	stale := st.shipments[sh.ID]
	stale.Status = models.ShipmentPending
	stale.Cost.IsPaid = true
	st.shipments[sh.ID] = stale
	st.mu.Unlock()

	_, err = ships.Cancel(ctx, sh.ID, "u1")
	require.ErrorIs(t, err, services.ErrAlreadyRefunded)

	assert.Equal(t, 1, countTxns(st, models.TxnRefund))
	bal, err := ledger.GetBalance(ctx, "u1", models.CurrencySYP)
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("5000")), "no double refund")
}

func TestShipmentUpdateStatus_PermissiveGraph(t *testing.T) {
	ships, _, _ := newTestServices(t)
	ctx := context.Background()

	in := walletShipment("u1", "10", models.CurrencyUSD)
	in.Cost.PaymentMethod = models.MethodCash
	sh, err := ships.Create(ctx, in)
	require.NoError(t, err)

	// skipping intermediate states is allowed
	out, err := ships.UpdateStatus(ctx, sh.ID, models.ShipmentOutForDelivery, "on the truck", "Homs", "admin1")
	require.NoError(t, err)
	assert.Equal(t, models.ShipmentOutForDelivery, out.Status)

	// and moving "backwards" is too
	back, err := ships.UpdateStatus(ctx, sh.ID, models.ShipmentConfirmed, "", "", "admin1")
	require.NoError(t, err)
	assert.Equal(t, models.ShipmentConfirmed, back.Status)

	last := back.StatusHistory[len(back.StatusHistory)-1]
	assert.Equal(t, models.ShipmentConfirmed, last.Status)
	require.NotNil(t, back.StatusHistory[1].UpdatedBy)
	assert.Equal(t, "admin1", *back.StatusHistory[1].UpdatedBy)
	assert.Equal(t, "on the truck", back.StatusHistory[1].Note)
	assert.Equal(t, "Homs", back.StatusHistory[1].Location)
}

func TestShipmentUpdateStatus_UnknownStatusRejected(t *testing.T) {
	ships, _, _ := newTestServices(t)
	ctx := context.Background()

	in := walletShipment("u1", "10", models.CurrencyUSD)
	in.Cost.PaymentMethod = models.MethodCard
	sh, err := ships.Create(ctx, in)
	require.NoError(t, err)

	_, err = ships.UpdateStatus(ctx, sh.ID, "teleported", "", "", "admin1")
	assert.ErrorIs(t, err, services.ErrBadRequest)
}

func TestShipmentTrack_PublicLookup(t *testing.T) {
	ships, _, _ := newTestServices(t)
	ctx := context.Background()

	in := walletShipment("u1", "10", models.CurrencyUSD)
	in.Cost.PaymentMethod = models.MethodCash
	sh, err := ships.Create(ctx, in)
	require.NoError(t, err)

	got, err := ships.Track(ctx, sh.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, sh.ID, got.ID)

	_, err = ships.Track(ctx, "KSH000000NOPE")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestShipmentGet_AdminMayReadAny(t *testing.T) {
	ships, _, _ := newTestServices(t)
	ctx := context.Background()

	in := walletShipment("u1", "10", models.CurrencyUSD)
	in.Cost.PaymentMethod = models.MethodCash
	sh, err := ships.Create(ctx, in)
	require.NoError(t, err)

	_, err = ships.Get(ctx, sh.ID, "stranger", models.RoleUser)
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = ships.Get(ctx, sh.ID, "boss", models.RoleSuperAdmin)
	assert.NoError(t, err)
}
