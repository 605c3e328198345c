package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Badawy24/Flash-Sale-Checkout/internal/clock"
	"github.com/Badawy24/Flash-Sale-Checkout/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CheckoutHoldStore interface {
	GetActiveHoldForUpdate(ctx context.Context, id, userID string, now time.Time) (domain.Hold, error)
	UpdateHoldStatus(ctx context.Context, id string, status domain.HoldStatus) error
}

type CheckoutOrderStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetOrderByHoldID(ctx context.Context, holdID string) (*domain.Order, error)
	CreateOrder(ctx context.Context, order domain.Order) error
}

type ProductReader interface {
	GetProduct(ctx context.Context, id string) (domain.Product, error)
}

// OrderService converts a still-valid hold into a pending order.
type OrderService struct {
	holds      CheckoutHoldStore
	orders     CheckoutOrderStore
	products   ProductReader
	clock      clock.Clock
	payBaseURL string
}

func NewOrderService(holds CheckoutHoldStore, orders CheckoutOrderStore, products ProductReader, clk clock.Clock, payBaseURL string) *OrderService {
	return &OrderService{
		holds:      holds,
		orders:     orders,
		products:   products,
		clock:      clk,
		payBaseURL: payBaseURL,
	}
}

type CheckoutInput struct {
	HoldID string
	UserID string
}

type CheckoutResult struct {
	Order      domain.Order
	PaymentURL string
}

// Checkout locks the hold (owner-scoped, active, unexpired), snapshots the
// price at the product's current value, creates the pending order and marks
// the hold used, all in one transaction. A hold that already has an order
// yields HoldAlreadyUsedError carrying the existing order id.
func (s *OrderService) Checkout(ctx context.Context, in CheckoutInput) (CheckoutResult, error) {
	now := s.clock.Now()
	var result CheckoutResult

	err := s.orders.WithTx(ctx, func(txCtx context.Context) error {
		hold, err := s.holds.GetActiveHoldForUpdate(txCtx, in.HoldID, in.UserID, now)
		if err != nil {
			return err
		}

		if existing, err := s.orders.GetOrderByHoldID(txCtx, hold.ID); err != nil {
			return err
		} else if existing != nil {
			return &domain.HoldAlreadyUsedError{OrderID: existing.ID}
		}

		// Price is computed at checkout time, not hold time; the product may
		// have been repriced since the hold was taken.
		product, err := s.products.GetProduct(txCtx, hold.ProductID)
		if err != nil {
			return err
		}

		order := domain.Order{
			ID:        uuid.NewString(),
			UserID:    hold.UserID,
			ProductID: hold.ProductID,
			HoldID:    hold.ID,
			Quantity:  hold.Quantity,
			Price:     product.Price.Mul(decimal.NewFromInt(int64(hold.Quantity))),
			Status:    domain.OrderStatusPending,
			CreatedAt: now,
		}

		if err := s.orders.CreateOrder(txCtx, order); err != nil {
			// A concurrent checkout may win the insert race despite the hold
			// lock filter; surface the existing order id like any other replay.
			if errors.Is(err, domain.ErrHoldAlreadyUsed) {
				existing, lookupErr := s.orders.GetOrderByHoldID(txCtx, hold.ID)
				if lookupErr != nil {
					return lookupErr
				}
				if existing != nil {
					return &domain.HoldAlreadyUsedError{OrderID: existing.ID}
				}
			}
			return err
		}
		if err := s.holds.UpdateHoldStatus(txCtx, hold.ID, domain.HoldStatusUsed); err != nil {
			return err
		}

		result = CheckoutResult{
			Order:      order,
			PaymentURL: fmt.Sprintf("%s/pay/%s", s.payBaseURL, order.ID),
		}
		return nil
	})
	if err != nil {
		return CheckoutResult{}, err
	}
	return result, nil
}
