// Package notify is the side channel for "something happened" events.
// Publishers fire after the guarded operation has committed; delivery is
// best effort and never a precondition for anything.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	EventNewShipment    = "new-shipment"
	EventShipmentUpdate = "shipment-update"
	EventNewTransaction = "new-transaction"
)

type Event struct {
	Name    string `json:"event"`
	UserID  string `json:"user_id,omitempty"`
	Payload any    `json:"payload"`
}

type Notifier interface {
	Publish(ev Event)
}

// Nop discards events. Default when no webhook URL is configured.
type Nop struct{}

func (Nop) Publish(Event) {}

// Webhook POSTs each event as JSON to a configured endpoint (the admin
// dashboard's ingest). Failures are logged and dropped.
type Webhook struct {
	URL    string
	Client *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (w *Webhook) Publish(ev Event) {
	body, err := json.Marshal(ev)
	if err != nil {
		slog.Error("notify marshal", "event", ev.Name, "err", err)
		return
	}
	req, err := http.NewRequest(http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		slog.Error("notify request", "event", ev.Name, "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		slog.Warn("notify deliver", "event", ev.Name, "err", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("notify deliver", "event", ev.Name, "err", fmt.Errorf("status %d", resp.StatusCode))
	}
}
