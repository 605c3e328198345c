package app

import (
	"context"
	"time"

	"github.com/Badawy24/Flash-Sale-Checkout/internal/clock"
	"github.com/Badawy24/Flash-Sale-Checkout/internal/domain"
	"github.com/google/uuid"
)

type HoldStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateHold(ctx context.Context, hold domain.Hold) error
}

// StockReserver is the slice of the stock ledger hold creation needs.
type StockReserver interface {
	Reserve(ctx context.Context, productID string, qty int) error
}

// HoldService creates time-bounded reservations against the stock ledger.
type HoldService struct {
	store   HoldStore
	ledger  StockReserver
	clock   clock.Clock
	holdTTL time.Duration
}

const defaultHoldTTL = 2 * time.Minute

func NewHoldService(store HoldStore, ledger StockReserver, clk clock.Clock, opts ...HoldServiceOption) *HoldService {
	svc := &HoldService{
		store:   store,
		ledger:  ledger,
		clock:   clk,
		holdTTL: defaultHoldTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type HoldServiceOption func(*HoldService)

// WithHoldTTL overrides the default TTL for new holds.
func WithHoldTTL(d time.Duration) HoldServiceOption {
	return func(s *HoldService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

type CreateHoldInput struct {
	UserID    string
	ProductID string
	Quantity  int
}

// CreateHold reserves stock and records the hold in one transaction. The
// product row lock taken by the reservation spans the hold insert, so the
// whole operation is all-or-nothing.
func (s *HoldService) CreateHold(ctx context.Context, in CreateHoldInput) (domain.Hold, error) {
	if in.UserID == "" {
		return domain.Hold{}, domain.ErrUserRequired
	}
	if in.Quantity <= 0 {
		return domain.Hold{}, domain.ErrInvalidQuantity
	}

	now := s.clock.Now()
	hold := domain.Hold{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Status:    domain.HoldStatusActive,
		ExpiresAt: now.Add(s.holdTTL),
		CreatedAt: now,
	}

	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.ledger.Reserve(txCtx, in.ProductID, in.Quantity); err != nil {
			return err
		}
		return s.store.CreateHold(txCtx, hold)
	})
	if err != nil {
		return domain.Hold{}, err
	}

	return hold, nil
}
