package postgres

import (
	"context"
	"fmt"

	"github.com/Badawy24/Flash-Sale-Checkout/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	const stmt = `
INSERT INTO orders (id, user_id, product_id, hold_id, quantity, price, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := runner(ctx, r.pool).Exec(ctx, stmt,
		order.ID,
		order.UserID,
		order.ProductID,
		order.HoldID,
		order.Quantity,
		order.Price,
		order.Status,
		order.CreatedAt,
	)
	if err != nil {
		// The unique hold_id constraint is the backstop for two concurrent
		// checkouts of the same hold.
		if isUniqueViolation(err) {
			return domain.ErrHoldAlreadyUsed
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrHoldNotFound
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// GetOrderForUpdate takes the exclusive order row lock that scopes a
// settlement transaction. Must be called inside a transaction.
func (r *OrderRepository) GetOrderForUpdate(ctx context.Context, id string) (domain.Order, error) {
	const query = `
SELECT id, user_id, product_id, hold_id, quantity, price, status, payment_reference, created_at
FROM orders
WHERE id = $1
FOR UPDATE`

	o, err := r.scanOrder(runner(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		return domain.Order{}, err
	}
	return *o, nil
}

func (r *OrderRepository) GetOrderByHoldID(ctx context.Context, holdID string) (*domain.Order, error) {
	const query = `
SELECT id, user_id, product_id, hold_id, quantity, price, status, payment_reference, created_at
FROM orders
WHERE hold_id = $1`

	o, err := r.scanOrder(runner(ctx, r.pool).QueryRow(ctx, query, holdID))
	if err != nil {
		if err == domain.ErrOrderNotFound {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

// GetOrderByPaymentReference serves the settlement fast path: an exact
// replay is answered from the already-consumed idempotency key without
// taking any lock.
func (r *OrderRepository) GetOrderByPaymentReference(ctx context.Context, key string) (*domain.Order, error) {
	const query = `
SELECT id, user_id, product_id, hold_id, quantity, price, status, payment_reference, created_at
FROM orders
WHERE payment_reference = $1`

	o, err := r.scanOrder(runner(ctx, r.pool).QueryRow(ctx, query, key))
	if err != nil {
		if err == domain.ErrOrderNotFound {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	const stmt = `UPDATE orders SET status = $2 WHERE id = $1`

	tag, err := runner(ctx, r.pool).Exec(ctx, stmt, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) SetPaymentReference(ctx context.Context, id, key string) error {
	const stmt = `UPDATE orders SET payment_reference = $2 WHERE id = $1`

	tag, err := runner(ctx, r.pool).Exec(ctx, stmt, id, key)
	if err != nil {
		return fmt.Errorf("set payment reference: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var status string
	var paymentRef *string
	err := row.Scan(&o.ID, &o.UserID, &o.ProductID, &o.HoldID, &o.Quantity, &o.Price, &status, &paymentRef, &o.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	o.Status = domain.OrderStatus(status)
	if paymentRef != nil {
		o.PaymentReference = *paymentRef
	}
	return &o, nil
}
