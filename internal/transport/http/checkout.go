package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Badawy24/Flash-Sale-Checkout/internal/app"
	"github.com/Badawy24/Flash-Sale-Checkout/internal/domain"
)

// CheckoutStarter is the minimal interface needed to convert a hold into an
// order.
type CheckoutStarter interface {
	Checkout(ctx context.Context, in app.CheckoutInput) (app.CheckoutResult, error)
}

// HandleCheckout returns an HTTP handler for checking out a hold.
func HandleCheckout(svc CheckoutStarter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userIDHeader)
		if userID == "" {
			writeError(w, http.StatusUnprocessableEntity, codeUserRequired, domain.ErrUserRequired.Error())
			return
		}

		var req checkoutRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.HoldID == "" {
			writeError(w, http.StatusUnprocessableEntity, codeHoldNotFound, "hold_id is required")
			return
		}

		res, err := svc.Checkout(r.Context(), app.CheckoutInput{
			HoldID: req.HoldID,
			UserID: userID,
		})
		if err != nil {
			var used *domain.HoldAlreadyUsedError
			switch {
			case errors.As(err, &used):
				writeJSON(w, http.StatusUnprocessableEntity, holdAlreadyUsedResponse{
					Error:   "hold already used",
					Code:    codeHoldAlreadyUsed,
					OrderID: used.OrderID,
				})
			case errors.Is(err, domain.ErrHoldNotFound):
				writeError(w, http.StatusNotFound, codeHoldNotFound, "hold not found or expired")
			default:
				writeDomainError(w, err)
			}
			return
		}

		writeJSON(w, http.StatusCreated, checkoutResponse{
			OrderID:    res.Order.ID,
			PaymentURL: res.PaymentURL,
		})
	}
}

type checkoutRequest struct {
	HoldID string `json:"hold_id"`
}

type checkoutResponse struct {
	OrderID    string `json:"order_id"`
	PaymentURL string `json:"payment_url"`
}

type holdAlreadyUsedResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	OrderID string `json:"order_id"`
}
