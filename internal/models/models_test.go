package models_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mshami/kwikship-backend/internal/models"
)

func TestParseCurrency(t *testing.T) {
	for _, ok := range []string{"USD", "SYP"} {
		c, err := models.ParseCurrency(ok)
		assert.NoError(t, err)
		assert.True(t, c.Valid())
	}
	for _, bad := range []string{"", "usd", "EUR", "SY P"} {
		_, err := models.ParseCurrency(bad)
		assert.Error(t, err, "currency %q must be rejected", bad)
	}
}

func TestTransactionTypeSignConvention(t *testing.T) {
	credits := []models.TransactionType{models.TxnDeposit, models.TxnRefund}
	debits := []models.TransactionType{models.TxnWithdrawal, models.TxnPayment, models.TxnFee, models.TxnCommission}

	for _, c := range credits {
		assert.True(t, c.IsCredit(), "%s credits", c)
	}
	for _, d := range debits {
		assert.False(t, d.IsCredit(), "%s debits", d)
	}
	assert.False(t, models.TransactionType("gift").Valid())
}

func TestShipmentStatusTerminal(t *testing.T) {
	assert.True(t, models.ShipmentDelivered.Terminal())
	assert.True(t, models.ShipmentCancelled.Terminal())

	for _, s := range []models.ShipmentStatus{
		models.ShipmentPending, models.ShipmentConfirmed, models.ShipmentPickedUp,
		models.ShipmentInTransit, models.ShipmentOutForDelivery, models.ShipmentReturned,
	} {
		assert.False(t, s.Terminal(), "%s is not terminal", s)
	}
	assert.False(t, models.ShipmentStatus("lost").Valid())
}

func TestGeneratedIdentifiers(t *testing.T) {
	ref := models.NewTransactionReference()
	assert.True(t, strings.HasPrefix(ref, "TXN"))
	assert.Len(t, ref, len("TXN")+8+8)

	tn := models.NewTrackingNumber()
	assert.True(t, strings.HasPrefix(tn, "KSH"))
	assert.Len(t, tn, len("KSH")+6+6)
	assert.Equal(t, strings.ToUpper(tn), tn)

	assert.NotEqual(t, models.NewTransactionReference(), models.NewTransactionReference())
}
