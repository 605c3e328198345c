package app

import (
	"context"

	"github.com/Badawy24/Flash-Sale-Checkout/internal/clock"
	"github.com/Badawy24/Flash-Sale-Checkout/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type ProductCatalogStore interface {
	CreateProduct(ctx context.Context, product domain.Product) error
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// ProductCache is a short-lived read-through cache for product display
// reads. It is never consulted by a mutating path; the stock ledger
// invalidates entries on every counter change.
type ProductCache interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	Set(ctx context.Context, product domain.Product) error
}

// ProductService serves the catalog: create/list plus the cached detail view.
type ProductService struct {
	store  ProductCatalogStore
	cache  ProductCache
	clock  clock.Clock
	logger zerolog.Logger
}

func NewProductService(store ProductCatalogStore, cache ProductCache, clk clock.Clock, logger zerolog.Logger) *ProductService {
	return &ProductService{
		store:  store,
		cache:  cache,
		clock:  clk,
		logger: logger,
	}
}

type CreateProductInput struct {
	Name  string
	Price decimal.Decimal
	Stock int
}

func (s *ProductService) CreateProduct(ctx context.Context, in CreateProductInput) (domain.Product, error) {
	if in.Name == "" {
		return domain.Product{}, domain.ErrProductNameEmpty
	}
	if in.Price.IsNegative() {
		return domain.Product{}, domain.ErrInvalidPrice
	}
	if in.Stock < 0 {
		return domain.Product{}, domain.ErrInvalidStock
	}

	product := domain.Product{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Price:     in.Price,
		Stock:     in.Stock,
		Reserved:  0,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *ProductService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.store.ListProducts(ctx)
}

// GetProduct serves the display view through the cache. Cache failures are
// soft: the read falls through to the store.
func (s *ProductService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			s.logger.Warn().Err(err).Str("product_id", id).Msg("product cache read failed")
		} else if cached != nil {
			return *cached, nil
		}
	}

	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, product); err != nil {
			s.logger.Warn().Err(err).Str("product_id", id).Msg("product cache write failed")
		}
	}
	return product, nil
}
