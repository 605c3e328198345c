package app

import (
	"context"
	"time"

	"github.com/Badawy24/Flash-Sale-Checkout/internal/clock"
	"github.com/Badawy24/Flash-Sale-Checkout/internal/domain"
	"github.com/rs/zerolog"
)

type ReaperHoldStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	ListExpiredActiveHolds(ctx context.Context, now time.Time) ([]domain.Hold, error)
	LockActiveHold(ctx context.Context, id string) (domain.Hold, error)
	UpdateHoldStatus(ctx context.Context, id string, status domain.HoldStatus) error
}

type ReaperOrderStore interface {
	GetOrderByHoldID(ctx context.Context, holdID string) (*domain.Order, error)
}

// StockReleaser is the slice of the stock ledger the reaper needs.
type StockReleaser interface {
	Release(ctx context.Context, productID string, qty int) error
}

// ExpiryReaper reclaims holds whose time window lapsed without a checkout.
// Each hold is its own transaction, so one failure never blocks the rest,
// and the active-only re-lock makes overlapping runs safe without a global
// mutex.
type ExpiryReaper struct {
	holds    ReaperHoldStore
	orders   ReaperOrderStore
	ledger   StockReleaser
	clock    clock.Clock
	interval time.Duration
	logger   zerolog.Logger
}

const defaultReapInterval = time.Minute

func NewExpiryReaper(holds ReaperHoldStore, orders ReaperOrderStore, ledger StockReleaser, clk clock.Clock, logger zerolog.Logger, opts ...ReaperOption) *ExpiryReaper {
	r := &ExpiryReaper{
		holds:    holds,
		orders:   orders,
		ledger:   ledger,
		clock:    clk,
		interval: defaultReapInterval,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type ReaperOption func(*ExpiryReaper)

// WithReapInterval overrides the default sweep interval.
func WithReapInterval(d time.Duration) ReaperOption {
	return func(r *ExpiryReaper) {
		if d > 0 {
			r.interval = d
		}
	}
}

// Run sweeps on a fixed interval until ctx is cancelled.
func (r *ExpiryReaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.ReapOnce(ctx); err != nil {
				r.logger.Error().Err(err).Msg("expiry sweep failed")
			}
		}
	}
}

// ReapStats counts the outcomes of one sweep.
type ReapStats struct {
	Expired    int
	MarkedUsed int
	Skipped    int
	Failed     int
}

// ReapOnce processes every hold that is active and past its expiry at the
// time of the call.
func (r *ExpiryReaper) ReapOnce(ctx context.Context) (ReapStats, error) {
	now := r.clock.Now()
	var stats ReapStats

	expired, err := r.holds.ListExpiredActiveHolds(ctx, now)
	if err != nil {
		return stats, err
	}
	if len(expired) == 0 {
		return stats, nil
	}

	for _, hold := range expired {
		if err := r.reapHold(ctx, hold.ID, &stats); err != nil {
			stats.Failed++
			r.logger.Error().Err(err).Str("hold_id", hold.ID).Msg("reap hold failed")
		}
	}

	r.logger.Info().
		Int("found", len(expired)).
		Int("expired", stats.Expired).
		Int("marked_used", stats.MarkedUsed).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("expiry sweep completed")
	return stats, nil
}

func (r *ExpiryReaper) reapHold(ctx context.Context, holdID string, stats *ReapStats) error {
	return r.holds.WithTx(ctx, func(txCtx context.Context) error {
		hold, err := r.holds.LockActiveHold(txCtx, holdID)
		if err != nil {
			// A concurrent checkout or settlement already consumed the hold.
			if err == domain.ErrHoldNotFound {
				stats.Skipped++
				return nil
			}
			return err
		}

		order, err := r.orders.GetOrderByHoldID(txCtx, hold.ID)
		if err != nil {
			return err
		}
		if order != nil {
			// Checkout won the race: the reservation stays held pending
			// settlement, so no stock is released.
			if err := r.holds.UpdateHoldStatus(txCtx, hold.ID, domain.HoldStatusUsed); err != nil {
				return err
			}
			stats.MarkedUsed++
			return nil
		}

		if err := r.holds.UpdateHoldStatus(txCtx, hold.ID, domain.HoldStatusExpired); err != nil {
			return err
		}
		if err := r.ledger.Release(txCtx, hold.ProductID, hold.Quantity); err != nil {
			return err
		}
		stats.Expired++
		return nil
	})
}
