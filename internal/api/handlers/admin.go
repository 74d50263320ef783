package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mshami/kwikship-backend/internal/api/httpx"
	"github.com/mshami/kwikship-backend/internal/middleware"
	"github.com/mshami/kwikship-backend/internal/models"
	repo "github.com/mshami/kwikship-backend/internal/repository"
	"github.com/mshami/kwikship-backend/internal/services"
)

type AdminHandler struct {
	Shipments *services.ShipmentService
	Ledger    *services.LedgerService
	Users     *services.UserService
	Reports   *services.ReportService
}

func NewAdminHandler(ss *services.ShipmentService, ls *services.LedgerService, us *services.UserService, rs *services.ReportService) *AdminHandler {
	return &AdminHandler{Shipments: ss, Ledger: ls, Users: us, Reports: rs}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	period := 30
	if v := r.URL.Query().Get("period"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			period = n
		}
	}
	stats, err := h.Reports.Stats(r.Context(), period)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stats)
}

type updateStatusReq struct {
	Status   string `json:"status"`
	Note     string `json:"note"`
	Location string `json:"location"`
}

func (h *AdminHandler) UpdateShipmentStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.UserID(r.Context())

	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return
	}
	sh, err := h.Shipments.UpdateStatus(r.Context(), chi.URLParam(r, "id"),
		models.ShipmentStatus(req.Status), req.Note, req.Location, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sh)
}

func (h *AdminHandler) AllShipments(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := pageParams(r, 10)
	f := repo.ShipmentFilter{
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

func (h *AdminHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := pageParams(r, 10)
	f := repo.TransactionFilter{
		UserID:   r.URL.Query().Get("user_id"),
		Type:     models.TransactionType(r.URL.Query().Get("type")),
		Status:   models.TransactionStatus(r.URL.Query().Get("status")),
		Currency: models.Currency(r.URL.Query().Get("currency")),
		Limit:    limit,
		Offset:   offset,
	}
	if v := r.URL.Query().Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.From = &t
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.To = &t
		}
	}
	txns, total, err := h.Ledger.ListTransactions(r.Context(), f)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"data":       txns,
		"pagination": httpx.NewPagination(page, limit, total),
	})
}

func (h *AdminHandler) ActivityLogs(w http.ResponseWriter, r *http.Request) {
	_, limit, offset := pageParams(r, 20)
	q := r.URL.Query()
	logs, err := h.Reports.ActivityLogs(r.Context(), q.Get("action"), q.Get("category"), q.Get("user_id"), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"data": logs})
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	_, limit, offset := pageParams(r, 50)
	users, err := h.Users.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"data": users})
}
