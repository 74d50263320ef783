package models

import "time"

// ActivityLog is the append-only audit trail of user and admin actions.
// Written after the guarded operation commits; never load-bearing.
type ActivityLog struct {
	ID          string    `json:"id"`
	UserID      *string   `json:"user_id,omitempty"`
	Action      string    `json:"action"`   // e.g. deposit, create-shipment, admin-action
	Category    string    `json:"category"` // wallet|shipment|admin|auth
	Description string    `json:"description"`
	TargetID    *string   `json:"target_id,omitempty"`
	TargetModel string    `json:"target_model,omitempty"` // Transaction|Shipment|User
	CreatedAt   time.Time `json:"created_at"`
}
