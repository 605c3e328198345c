package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Badawy24/Flash-Sale-Checkout/internal/domain"
)

const (
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidID          = "invalid_id"
	codeUserRequired       = "user_id_required"
	codeInvalidQuantity    = "invalid_quantity"
	codeInvalidPrice       = "invalid_price"
	codeInvalidStock       = "invalid_stock"
	codeInvalidOutcome     = "invalid_outcome"
	codeNameRequired       = "product_name_required"
	codeProductNotFound    = "product_not_found"
	codeHoldNotFound       = "hold_not_found"
	codeOrderNotFound      = "order_not_found"
	codeInsufficientStock  = "insufficient_stock"
	codeHoldAlreadyUsed    = "hold_already_used"
	codeForbidden          = "forbidden"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")

	body, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeDomainError maps service errors shared across handlers; handlers deal
// with their operation-specific errors before falling back here.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrUserRequired):
		writeError(w, http.StatusBadRequest, codeUserRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusNotFound, codeProductNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
