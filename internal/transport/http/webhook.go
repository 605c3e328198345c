package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Badawy24/Flash-Sale-Checkout/internal/app"
	"github.com/Badawy24/Flash-Sale-Checkout/internal/domain"
)

// SettlementHandler is the minimal interface needed to apply a payment
// notification.
type SettlementHandler interface {
	Handle(ctx context.Context, in app.SettlementInput) (app.SettlementResult, error)
}

// HandlePaymentWebhook returns an HTTP handler for payment provider
// notifications. Duplicates settle to 200 with an informative message; a
// missing order is a retryable 404.
func HandlePaymentWebhook(svc SettlementHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req paymentWebhookRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, codeInvalidOutcome, err.Error())
			return
		}

		res, err := svc.Handle(r.Context(), app.SettlementInput{
			OrderID:        req.OrderID,
			Outcome:        app.Outcome(req.Status),
			TransactionID:  req.TransactionID,
			IdempotencyKey: req.IdempotencyKey,
		})
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrInvalidID):
				writeError(w, http.StatusNotFound, codeOrderNotFound, "order not found, please retry")
			case errors.Is(err, domain.ErrInvalidOutcome):
				writeError(w, http.StatusUnprocessableEntity, codeInvalidOutcome, err.Error())
			default:
				writeDomainError(w, err)
			}
			return
		}

		message := "webhook processed"
		switch {
		case res.KeyReplayed:
			message = "webhook already processed"
		case res.AlreadySettled:
			message = "order already processed"
		}

		writeJSON(w, http.StatusOK, paymentWebhookResponse{
			Message:     message,
			OrderStatus: string(res.OrderStatus),
		})
	}
}

type paymentWebhookRequest struct {
	OrderID        string `json:"order_id"`
	Status         string `json:"status"`
	TransactionID  string `json:"transaction_id"`
	IdempotencyKey string `json:"idempotency_key"`
}

func (r paymentWebhookRequest) validate() error {
	if r.OrderID == "" {
		return errors.New("order_id is required")
	}
	if r.Status != string(app.OutcomePaid) && r.Status != string(app.OutcomeFailed) {
		return domain.ErrInvalidOutcome
	}
	if r.TransactionID == "" {
		return errors.New("transaction_id is required")
	}
	if r.IdempotencyKey == "" {
		return errors.New("idempotency_key is required")
	}
	return nil
}

type paymentWebhookResponse struct {
	Message     string `json:"message"`
	OrderStatus string `json:"order_status"`
}
