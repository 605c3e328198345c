package app

import (
	"context"

	"github.com/Badawy24/Flash-Sale-Checkout/internal/domain"
	"github.com/rs/zerolog"
)

// ProductStore is the product row access the ledger needs. Both methods run
// against the transaction carried on ctx.
type ProductStore interface {
	GetProductForUpdate(ctx context.Context, id string) (domain.Product, error)
	UpdateStock(ctx context.Context, id string, stock, reserved int) error
}

// CacheInvalidator drops a product's cached read view after a mutation.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, productID string)
}

// StockLedger owns every mutation of a product's (stock, reserved) pair.
// Each operation locks the product row, applies the check and the change
// under that one lock acquisition, and invalidates the read cache. Callers
// provide the surrounding transaction via ctx.
type StockLedger struct {
	store  ProductStore
	cache  CacheInvalidator
	logger zerolog.Logger
}

func NewStockLedger(store ProductStore, cache CacheInvalidator, logger zerolog.Logger) *StockLedger {
	return &StockLedger{store: store, cache: cache, logger: logger}
}

// Reserve increments reserved by qty, failing when fewer than qty units are
// available. The availability check and the increment share the same row
// lock so two concurrent callers cannot both observe sufficient stock.
func (l *StockLedger) Reserve(ctx context.Context, productID string, qty int) error {
	product, err := l.store.GetProductForUpdate(ctx, productID)
	if err != nil {
		return err
	}

	available := product.Stock - product.Reserved
	if available < qty {
		return &domain.InsufficientStockError{Available: available}
	}

	if err := l.store.UpdateStock(ctx, product.ID, product.Stock, product.Reserved+qty); err != nil {
		return err
	}
	l.invalidate(ctx, product.ID)
	return nil
}

// Release returns qty reserved units to availability. The zero floor should
// never engage; when it does it signals a double release and is logged.
func (l *StockLedger) Release(ctx context.Context, productID string, qty int) error {
	product, err := l.store.GetProductForUpdate(ctx, productID)
	if err != nil {
		return err
	}

	reserved := product.Reserved - qty
	if reserved < 0 {
		l.logger.Warn().
			Str("product_id", product.ID).
			Int("reserved", product.Reserved).
			Int("quantity", qty).
			Msg("release would drive reserved negative, flooring at zero")
		reserved = 0
	}

	if err := l.store.UpdateStock(ctx, product.ID, product.Stock, reserved); err != nil {
		return err
	}
	l.invalidate(ctx, product.ID)
	return nil
}

// Fulfill consumes qty units on confirmed payment, decrementing both stock
// and reserved.
func (l *StockLedger) Fulfill(ctx context.Context, productID string, qty int) error {
	product, err := l.store.GetProductForUpdate(ctx, productID)
	if err != nil {
		return err
	}

	stock := product.Stock - qty
	reserved := product.Reserved - qty
	if stock < 0 || reserved < 0 {
		l.logger.Warn().
			Str("product_id", product.ID).
			Int("stock", product.Stock).
			Int("reserved", product.Reserved).
			Int("quantity", qty).
			Msg("fulfill would drive counters negative, flooring at zero")
		if stock < 0 {
			stock = 0
		}
		if reserved < 0 {
			reserved = 0
		}
	}

	if err := l.store.UpdateStock(ctx, product.ID, stock, reserved); err != nil {
		return err
	}
	l.invalidate(ctx, product.ID)
	return nil
}

func (l *StockLedger) invalidate(ctx context.Context, productID string) {
	if l.cache != nil {
		l.cache.Invalidate(ctx, productID)
	}
}
