// Package handlers holds the thin HTTP collaborators around the services.
// No business guard lives here; handlers decode, call a service, and map
// service errors to statuses.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/mshami/kwikship-backend/internal/api/httpx"
	"github.com/mshami/kwikship-backend/internal/api/validate"
	"github.com/mshami/kwikship-backend/internal/services"
)

func writeServiceError(w http.ResponseWriter, err error) {
	var verrs validate.Errs
	var ife *services.InsufficientFundsError
	switch {
	case errors.As(err, &verrs):
		httpx.WriteError(w, http.StatusBadRequest, "validation", "invalid request", verrs)
	case errors.As(err, &ife):
		httpx.WriteError(w, http.StatusBadRequest, "insufficient_funds", ife.Error(),
			map[string]string{"available": ife.Available.String(), "requested": ife.Requested.String()})
	case errors.Is(err, services.ErrInsufficientFunds):
		httpx.WriteError(w, http.StatusBadRequest, "insufficient_funds", err.Error(), nil)
	case errors.Is(err, services.ErrInvalidAmount):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_amount", err.Error(), nil)
	case errors.Is(err, services.ErrTerminalStatus):
		httpx.WriteError(w, http.StatusConflict, "terminal_status", err.Error(), nil)
	case errors.Is(err, services.ErrAlreadyRefunded):
		httpx.WriteError(w, http.StatusConflict, "already_refunded", err.Error(), nil)
	case errors.Is(err, services.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "not found", nil)
	case errors.Is(err, services.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "not authorized", nil)
	case errors.Is(err, services.ErrBadRequest):
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", nil)
	default:
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}

func pageParams(r *http.Request, defLimit int) (page, limit, offset int) {
	page, limit = 1, defLimit
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	return page, limit, (page - 1) * limit
}
