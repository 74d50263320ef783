package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mshami/kwikship-backend/internal/api/httpx"
	"github.com/mshami/kwikship-backend/internal/api/validate"
	"github.com/mshami/kwikship-backend/internal/middleware"
	"github.com/mshami/kwikship-backend/internal/models"
	repo "github.com/mshami/kwikship-backend/internal/repository"
	"github.com/mshami/kwikship-backend/internal/services"
)

type ShipmentHandler struct {
	Shipments *services.ShipmentService
}

func NewShipmentHandler(ss *services.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{Shipments: ss}
}

type createShipmentReq struct {
	Sender   models.Party   `json:"sender"`
	Receiver models.Party   `json:"receiver"`
	Package  models.Package `json:"package"`
	Service  models.Service `json:"service"`
	Cost     struct {
		Amount        decimal.Decimal `json:"amount"`
		Currency      string          `json:"currency"`
		PaymentMethod string          `json:"payment_method"`
	} `json:"cost"`
	Notes             string     `json:"notes"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
}

func (req createShipmentReq) validate() error {
	return validate.Collect(
		validate.Required("sender.name", req.Sender.Name),
		validate.Required("sender.city", req.Sender.City),
		validate.Required("receiver.name", req.Receiver.Name),
		validate.Required("receiver.city", req.Receiver.City),
		validate.OneOf("package.type", req.Package.Type, "document", "parcel", "package"),
		validate.OneOf("service.type", req.Service.Type, "standard", "express", "overnight"),
		validate.Positive("cost.amount", req.Cost.Amount),
		validate.OneOf("cost.currency", req.Cost.Currency, "USD", "SYP"),
		validate.OneOf("cost.payment_method", req.Cost.PaymentMethod, "wallet", "cash", "card"),
	)
}

func (h *ShipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())

	var req createShipmentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}
	if err := req.validate(); err != nil {
		writeServiceError(w, err)
		return
	}

	shipment := models.Shipment{
		UserID:   uid,
		Sender:   req.Sender,
		Receiver: req.Receiver,
		Package:  req.Package,
		Service:  req.Service,
		Cost: models.Cost{
			Amount:        req.Cost.Amount,
			Currency:      models.Currency(req.Cost.Currency),
			PaymentMethod: models.PaymentMethod(req.Cost.PaymentMethod),
		},
		Notes:             req.Notes,
		EstimatedDelivery: req.EstimatedDelivery,
	}
	created, err := h.Shipments.Create(r.Context(), shipment)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (h *ShipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	page, limit, offset := pageParams(r, 10)

	f := repo.ShipmentFilter{
		UserID: uid,
		Status: models.ShipmentStatus(r.URL.Query().Get("status")),
		Limit:  limit,
		Offset: offset,
	}
	out, total, err := h.Shipments.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"data":       out,
		"pagination": httpx.NewPagination(page, limit, total),
	})
}

func (h *ShipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	role, _ := middleware.Role(r.Context())
	sh, err := h.Shipments.Get(r.Context(), chi.URLParam(r, "id"), uid, role)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sh)
}

// Track is public: no auth, and only the tracking-relevant subset goes out.
func (h *ShipmentHandler) Track(w http.ResponseWriter, r *http.Request) {
	tn := strings.ToUpper(chi.URLParam(r, "trackingNumber"))
	sh, err := h.Shipments.Track(r.Context(), tn)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"tracking_number":    sh.TrackingNumber,
		"status":             sh.Status,
		"status_history":     sh.StatusHistory,
		"sender":             sh.Sender,
		"receiver":           sh.Receiver,
		"estimated_delivery": sh.EstimatedDelivery,
		"actual_delivery":    sh.ActualDelivery,
	})
}

func (h *ShipmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	sh, err := h.Shipments.Cancel(r.Context(), chi.URLParam(r, "id"), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sh)
}
