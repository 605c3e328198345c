package app

import (
	"context"

	"github.com/Badawy24/Flash-Sale-Checkout/internal/domain"
	"github.com/rs/zerolog"
)

// Outcome is the payment provider's verdict for an order.
type Outcome string

const (
	OutcomePaid   Outcome = "paid"
	OutcomeFailed Outcome = "failed"
)

type SettlementOrderStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetOrderByPaymentReference(ctx context.Context, key string) (*domain.Order, error)
	GetOrderForUpdate(ctx context.Context, id string) (domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error
	SetPaymentReference(ctx context.Context, id, key string) error
}

type SettlementHoldStore interface {
	GetHold(ctx context.Context, id string) (domain.Hold, error)
	UpdateHoldStatus(ctx context.Context, id string, status domain.HoldStatus) error
}

// StockAdjuster is the slice of the stock ledger settlement needs.
type StockAdjuster interface {
	Release(ctx context.Context, productID string, qty int) error
	Fulfill(ctx context.Context, productID string, qty int) error
}

// SettlementService applies an external payment outcome to a pending order
// exactly once, no matter how many notifications arrive, in what order, or
// with what keys. The Pending-only guard under the order row lock carries
// the whole guarantee; the idempotency-key fast path only makes exact
// replays cheap.
type SettlementService struct {
	orders SettlementOrderStore
	holds  SettlementHoldStore
	ledger StockAdjuster
	logger zerolog.Logger
}

func NewSettlementService(orders SettlementOrderStore, holds SettlementHoldStore, ledger StockAdjuster, logger zerolog.Logger) *SettlementService {
	return &SettlementService{
		orders: orders,
		holds:  holds,
		ledger: ledger,
		logger: logger,
	}
}

type SettlementInput struct {
	OrderID        string
	Outcome        Outcome
	TransactionID  string
	IdempotencyKey string
}

type SettlementResult struct {
	OrderStatus domain.OrderStatus
	// KeyReplayed: this exact idempotency key was consumed before; nothing
	// was touched.
	KeyReplayed bool
	// AlreadySettled: the order left Pending under a different key; nothing
	// but possibly the stored reference changed.
	AlreadySettled bool
}

// Handle processes one payment notification. ErrOrderNotFound is retryable:
// the order's checkout may still be in flight when the provider first calls.
func (s *SettlementService) Handle(ctx context.Context, in SettlementInput) (SettlementResult, error) {
	if in.Outcome != OutcomePaid && in.Outcome != OutcomeFailed {
		return SettlementResult{}, domain.ErrInvalidOutcome
	}

	// Fast path: an order already carries this key, so the notification is
	// an exact replay. No lock, no side effects.
	if existing, err := s.orders.GetOrderByPaymentReference(ctx, in.IdempotencyKey); err != nil {
		return SettlementResult{}, err
	} else if existing != nil {
		return SettlementResult{OrderStatus: existing.Status, KeyReplayed: true}, nil
	}

	var result SettlementResult
	err := s.orders.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.orders.GetOrderForUpdate(txCtx, in.OrderID)
		if err != nil {
			return err
		}

		if order.Status != domain.OrderStatusPending {
			// Duplicate without a matching key, or the loser of a race.
			// Record the key for traceability if none is stored, but apply
			// no state change.
			if order.PaymentReference == "" {
				if err := s.orders.SetPaymentReference(txCtx, order.ID, in.IdempotencyKey); err != nil {
					return err
				}
			}
			result = SettlementResult{OrderStatus: order.Status, AlreadySettled: true}
			return nil
		}

		switch in.Outcome {
		case OutcomePaid:
			if err := s.settlePaid(txCtx, order, in.IdempotencyKey); err != nil {
				return err
			}
			result = SettlementResult{OrderStatus: domain.OrderStatusPaid}
		case OutcomeFailed:
			if err := s.settleFailed(txCtx, order, in.IdempotencyKey); err != nil {
				return err
			}
			result = SettlementResult{OrderStatus: domain.OrderStatusCancelled}
		}
		return nil
	})
	if err != nil {
		return SettlementResult{}, err
	}

	s.logger.Info().
		Str("order_id", in.OrderID).
		Str("outcome", string(in.Outcome)).
		Str("transaction_id", in.TransactionID).
		Str("order_status", string(result.OrderStatus)).
		Bool("key_replayed", result.KeyReplayed).
		Bool("already_settled", result.AlreadySettled).
		Msg("payment notification handled")
	return result, nil
}

func (s *SettlementService) settlePaid(ctx context.Context, order domain.Order, key string) error {
	if err := s.orders.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusPaid); err != nil {
		return err
	}
	if err := s.orders.SetPaymentReference(ctx, order.ID, key); err != nil {
		return err
	}
	return s.ledger.Fulfill(ctx, order.ProductID, order.Quantity)
}

func (s *SettlementService) settleFailed(ctx context.Context, order domain.Order, key string) error {
	if err := s.orders.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusCancelled); err != nil {
		return err
	}
	if err := s.orders.SetPaymentReference(ctx, order.ID, key); err != nil {
		return err
	}
	if err := s.ledger.Release(ctx, order.ProductID, order.Quantity); err != nil {
		return err
	}

	// Reclaim the hold's slot alongside the cancelled order.
	hold, err := s.holds.GetHold(ctx, order.HoldID)
	if err != nil {
		return err
	}
	if hold.Status == domain.HoldStatusActive || hold.Status == domain.HoldStatusUsed {
		return s.holds.UpdateHoldStatus(ctx, hold.ID, domain.HoldStatusExpired)
	}
	return nil
}
