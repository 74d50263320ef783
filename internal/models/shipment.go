package models

import (
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ShipmentStatus string

const (
	ShipmentPending        ShipmentStatus = "pending"
	ShipmentConfirmed      ShipmentStatus = "confirmed"
	ShipmentPickedUp       ShipmentStatus = "picked-up"
	ShipmentInTransit      ShipmentStatus = "in-transit"
	ShipmentOutForDelivery ShipmentStatus = "out-for-delivery"
	ShipmentDelivered      ShipmentStatus = "delivered"
	ShipmentCancelled      ShipmentStatus = "cancelled"
	ShipmentReturned       ShipmentStatus = "returned"
)

func (s ShipmentStatus) Valid() bool {
	switch s {
	case ShipmentPending, ShipmentConfirmed, ShipmentPickedUp, ShipmentInTransit,
		ShipmentOutForDelivery, ShipmentDelivered, ShipmentCancelled, ShipmentReturned:
		return true
	}
	return false
}

// Terminal statuses admit no further transition. Any non-terminal status may
// move to any other status; only the terminal guard is engineered.
func (s ShipmentStatus) Terminal() bool {
	return s == ShipmentDelivered || s == ShipmentCancelled
}

type Party struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
}

type Package struct {
	Type        string  `json:"type"` // document|parcel|package
	Weight      float64 `json:"weight"`
	Description string  `json:"description,omitempty"`
	Quantity    int     `json:"quantity"`
}

type Service struct {
	Type         string `json:"type"` // standard|express|overnight
	DeliveryTime string `json:"delivery_time,omitempty"`
}

// Cost is the payment-relevant subset of a shipment. IsPaid is set only by
// the two ledger-invoking paths in ShipmentService (pay on create, refund on
// cancel); nothing else writes it.
type Cost struct {
	Amount        decimal.Decimal `json:"amount"`
	Currency      Currency        `json:"currency"`
	PaymentMethod PaymentMethod   `json:"payment_method"` // wallet|cash|card
	IsPaid        bool            `json:"is_paid"`
}

type StatusEvent struct {
	Status    ShipmentStatus `json:"status"`
	Note      string         `json:"note,omitempty"`
	Location  string         `json:"location,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	UpdatedBy *string        `json:"updated_by,omitempty"`
}

type Shipment struct {
	ID                string         `json:"id"`
	TrackingNumber    string         `json:"tracking_number"`
	UserID            string         `json:"user_id"`
	Sender            Party          `json:"sender"`
	Receiver          Party          `json:"receiver"`
	Package           Package        `json:"package"`
	Service           Service        `json:"service"`
	Cost              Cost           `json:"cost"`
	Status            ShipmentStatus `json:"status"`
	StatusHistory     []StatusEvent  `json:"status_history"`
	Notes             string         `json:"notes,omitempty"`
	EstimatedDelivery *time.Time     `json:"estimated_delivery,omitempty"`
	ActualDelivery    *time.Time     `json:"actual_delivery,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// NewTrackingNumber: KSH + trailing unix digits + random base36, uppercase.
func NewTrackingNumber() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if len(ts) > 6 {
		ts = ts[len(ts)-6:]
	}
	var b strings.Builder
	b.WriteString("KSH")
	b.WriteString(ts)
	for i := 0; i < 6; i++ {
		b.WriteByte(refAlphabet[rand.Intn(len(refAlphabet))])
	}
	return b.String()
}
