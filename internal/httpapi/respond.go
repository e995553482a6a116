package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/andreasstove999/retail-backend/internal/apperr"
	"github.com/andreasstove999/retail-backend/internal/auth"
	"github.com/andreasstove999/retail-backend/internal/cart"
	"github.com/andreasstove999/retail-backend/internal/catalog"
	"github.com/andreasstove999/retail-backend/internal/order"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps domain errors onto the HTTP contract. Anything
// unrecognized is an internal failure and deliberately unspecific.
func writeServiceError(w http.ResponseWriter, err error) {
	var validation *apperr.Validation
	var insufficient *catalog.InsufficientStockError

	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Msg)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrTokenInvalid):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, order.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "order belongs to a different user")
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, cart.ErrProductNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":     "insufficient stock",
			"productId": insufficient.ProductID,
			"requested": insufficient.Requested,
			"available": insufficient.Available,
		})
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusConflict, "cannot create order with empty cart")
	case errors.Is(err, order.ErrConcurrencyConflict):
		writeError(w, http.StatusConflict, "checkout conflict, please retry")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
