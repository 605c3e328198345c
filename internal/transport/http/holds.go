package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Badawy24/Flash-Sale-Checkout/internal/app"
	"github.com/Badawy24/Flash-Sale-Checkout/internal/domain"
)

const userIDHeader = "X-User-ID"

// maxHoldQuantity bounds a single hold request.
const maxHoldQuantity = 1000

// HoldCreator is the minimal interface needed to create a hold.
type HoldCreator interface {
	CreateHold(ctx context.Context, in app.CreateHoldInput) (domain.Hold, error)
}

// HandleCreateHold returns an HTTP handler for reserving stock.
func HandleCreateHold(svc HoldCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userIDHeader)
		if userID == "" {
			writeError(w, http.StatusUnprocessableEntity, codeUserRequired, domain.ErrUserRequired.Error())
			return
		}

		var req createHoldRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, codeInvalidQuantity, err.Error())
			return
		}

		hold, err := svc.CreateHold(r.Context(), app.CreateHoldInput{
			UserID:    userID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		})
		if err != nil {
			var insufficient *domain.InsufficientStockError
			switch {
			case errors.As(err, &insufficient):
				writeError(w, http.StatusUnprocessableEntity, codeInsufficientStock, "not enough stock")
			case errors.Is(err, domain.ErrInvalidQuantity):
				writeError(w, http.StatusUnprocessableEntity, codeInvalidQuantity, err.Error())
			default:
				writeDomainError(w, err)
			}
			return
		}

		writeJSON(w, http.StatusCreated, createHoldResponse{
			HoldID:    hold.ID,
			ExpiresAt: hold.ExpiresAt,
		})
	}
}

type createHoldRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (r createHoldRequest) validate() error {
	if r.ProductID == "" {
		return errors.New("product_id is required")
	}
	if r.Quantity <= 0 || r.Quantity > maxHoldQuantity {
		return domain.ErrInvalidQuantity
	}
	return nil
}

type createHoldResponse struct {
	HoldID    string    `json:"hold_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
