package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/mshami/kwikship-backend/internal/api/httpx"
	"github.com/mshami/kwikship-backend/internal/middleware"
	"github.com/mshami/kwikship-backend/internal/models"
	repo "github.com/mshami/kwikship-backend/internal/repository"
	"github.com/mshami/kwikship-backend/internal/services"
)

type WalletHandler struct {
	Ledger *services.LedgerService
}

func NewWalletHandler(ls *services.LedgerService) *WalletHandler {
	return &WalletHandler{Ledger: ls}
}

func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	balances, err := h.Ledger.Balances(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"balance": balances})
}

type moveFundsReq struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Method   string          `json:"method"`
}

func (h *WalletHandler) decodeMove(w http.ResponseWriter, r *http.Request) (string, models.Currency, decimal.Decimal, models.PaymentMethod, bool) {
	uid, _ := middleware.UserID(r.Context())
	var req moveFundsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid body", nil)
		return "", "", decimal.Zero, "", false
	}
	cur, err := models.ParseCurrency(req.Currency)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return "", "", decimal.Zero, "", false
	}
	method := models.PaymentMethod(req.Method)
	if method == "" {
		method = models.MethodCash
	}
	return uid, cur, req.Amount, method, true
}

func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	uid, cur, amount, method, ok := h.decodeMove(w, r)
	if !ok {
		return
	}
	txn, err := h.Ledger.Deposit(r.Context(), uid, cur, amount, method)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"transaction": txn, "new_balance": txn.BalanceAfter})
}

func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	uid, cur, amount, method, ok := h.decodeMove(w, r)
	if !ok {
		return
	}
	txn, err := h.Ledger.Withdraw(r.Context(), uid, cur, amount, method)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"transaction": txn, "new_balance": txn.BalanceAfter})
}

func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	page, limit, offset := pageParams(r, 10)

	f := repo.TransactionFilter{
		UserID:   uid,
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

func (h *WalletHandler) TransactionByID(w http.ResponseWriter, r *http.Request) {
	uid, _ := middleware.UserID(r.Context())
	role, _ := middleware.Role(r.Context())
	txn, err := h.Ledger.GetTransaction(r.Context(), chi.URLParam(r, "id"), uid, role)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, txn)
}
