package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Badawy24/Flash-Sale-Checkout/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultProductTTL = 10 * time.Second

// ProductCache is a short-lived redis cache for product display reads. It is
// only ever a convenience for the read path; reservation decisions always go
// to the database.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewProductCache(client *redis.Client, logger zerolog.Logger, opts ...Option) *ProductCache {
	c := &ProductCache{
		client: client,
		ttl:    defaultProductTTL,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Option func(*ProductCache)

// WithTTL overrides the default entry lifetime.
func WithTTL(d time.Duration) Option {
	return func(c *ProductCache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

type productEntry struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Reserved  int             `json:"reserved"`
	CreatedAt time.Time       `json:"created_at"`
}

// Get returns the cached product, or nil on a miss.
func (c *ProductCache) Get(ctx context.Context, id string) (*domain.Product, error) {
	raw, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var entry productEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &domain.Product{
		ID:        entry.ID,
		Name:      entry.Name,
		Price:     entry.Price,
		Stock:     entry.Stock,
		Reserved:  entry.Reserved,
		CreatedAt: entry.CreatedAt,
	}, nil
}

func (c *ProductCache) Set(ctx context.Context, product domain.Product) error {
	raw, err := json.Marshal(productEntry{
		ID:        product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Stock:     product.Stock,
		Reserved:  product.Reserved,
		CreatedAt: product.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, productKey(product.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops the product's entry. Called synchronously by every stock
// mutation; a failure only shortens the staleness window to the TTL, so it
// is logged rather than propagated.
func (c *ProductCache) Invalidate(ctx context.Context, productID string) {
	if err := c.client.Del(ctx, productKey(productID)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("product_id", productID).Msg("product cache invalidation failed")
	}
}

func productKey(id string) string {
	return "product:" + id
}
