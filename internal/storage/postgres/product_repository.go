package postgres

import (
	"context"
	"fmt"

	"github.com/Badawy24/Flash-Sale-Checkout/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product domain.Product) error {
	const stmt = `
INSERT INTO products (id, name, price, stock, reserved, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := runner(ctx, r.pool).Exec(ctx, stmt,
		product.ID,
		product.Name,
		product.Price,
		product.Stock,
		product.Reserved,
		product.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *ProductRepository) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	const query = `
SELECT id, name, price, stock, reserved, created_at
FROM products
WHERE id = $1`

	return r.scanProduct(runner(ctx, r.pool).QueryRow(ctx, query, id))
}

// GetProductForUpdate takes the exclusive row lock every stock mutation runs
// under. Must be called inside a transaction.
func (r *ProductRepository) GetProductForUpdate(ctx context.Context, id string) (domain.Product, error) {
	const query = `
SELECT id, name, price, stock, reserved, created_at
FROM products
WHERE id = $1
FOR UPDATE`

	return r.scanProduct(runner(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *ProductRepository) UpdateStock(ctx context.Context, id string, stock, reserved int) error {
	const stmt = `UPDATE products SET stock = $2, reserved = $3 WHERE id = $1`

	tag, err := runner(ctx, r.pool).Exec(ctx, stmt, id, stock, reserved)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const query = `
SELECT id, name, price, stock, reserved, created_at
FROM products
ORDER BY created_at ASC`

	rows, err := runner(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Reserved, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate products: %w", rows.Err())
	}
	return products, nil
}

func (r *ProductRepository) scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Reserved, &p.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Product{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}
