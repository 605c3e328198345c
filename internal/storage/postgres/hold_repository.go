package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Badawy24/Flash-Sale-Checkout/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HoldRepository struct {
	pool *pgxpool.Pool
}

func NewHoldRepository(pool *pgxpool.Pool) *HoldRepository {
	return &HoldRepository{pool: pool}
}

func (r *HoldRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *HoldRepository) CreateHold(ctx context.Context, hold domain.Hold) error {
	const stmt = `
INSERT INTO holds (id, user_id, product_id, quantity, status, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := runner(ctx, r.pool).Exec(ctx, stmt,
		hold.ID,
		hold.UserID,
		hold.ProductID,
		hold.Quantity,
		hold.Status,
		hold.ExpiresAt,
		hold.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("create hold: %w", err)
	}
	return nil
}

func (r *HoldRepository) GetHold(ctx context.Context, id string) (domain.Hold, error) {
	const query = `
SELECT id, user_id, product_id, quantity, status, expires_at, created_at
FROM holds
WHERE id = $1`

	return r.scanHold(runner(ctx, r.pool).QueryRow(ctx, query, id))
}

// GetActiveHoldForUpdate locks the hold for checkout. The filter bundles
// "never existed", "wrong owner", "already consumed" and "time-expired" into
// a single miss; callers see all four as ErrHoldNotFound.
func (r *HoldRepository) GetActiveHoldForUpdate(ctx context.Context, id, userID string, now time.Time) (domain.Hold, error) {
	const query = `
SELECT id, user_id, product_id, quantity, status, expires_at, created_at
FROM holds
WHERE id = $1 AND user_id = $2 AND status = 'active' AND expires_at > $3
FOR UPDATE`

	return r.scanHold(runner(ctx, r.pool).QueryRow(ctx, query, id, userID, now))
}

// LockActiveHold locks the hold for the reaper. The status filter alone
// guarantees a hold is processed by the sweep at most once; a miss means a
// concurrent checkout or settlement got there first.
func (r *HoldRepository) LockActiveHold(ctx context.Context, id string) (domain.Hold, error) {
	const query = `
SELECT id, user_id, product_id, quantity, status, expires_at, created_at
FROM holds
WHERE id = $1 AND status = 'active'
FOR UPDATE`

	return r.scanHold(runner(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *HoldRepository) ListExpiredActiveHolds(ctx context.Context, now time.Time) ([]domain.Hold, error) {
	const query = `
SELECT id, user_id, product_id, quantity, status, expires_at, created_at
FROM holds
WHERE status = 'active' AND expires_at <= $1
ORDER BY expires_at ASC`

	rows, err := runner(ctx, r.pool).Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list expired holds: %w", err)
	}
	defer rows.Close()

	var holds []domain.Hold
	for rows.Next() {
		var h domain.Hold
		var status string
		if err := rows.Scan(&h.ID, &h.UserID, &h.ProductID, &h.Quantity, &status, &h.ExpiresAt, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan hold: %w", err)
		}
		h.Status = domain.HoldStatus(status)
		holds = append(holds, h)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate holds: %w", rows.Err())
	}
	return holds, nil
}

func (r *HoldRepository) UpdateHoldStatus(ctx context.Context, id string, status domain.HoldStatus) error {
	const stmt = `UPDATE holds SET status = $2 WHERE id = $1`

	tag, err := runner(ctx, r.pool).Exec(ctx, stmt, id, status)
	if err != nil {
		return fmt.Errorf("update hold status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrHoldNotFound
	}
	return nil
}

func (r *HoldRepository) scanHold(row pgx.Row) (domain.Hold, error) {
	var h domain.Hold
	var status string
	err := row.Scan(&h.ID, &h.UserID, &h.ProductID, &h.Quantity, &status, &h.ExpiresAt, &h.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Hold{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Hold{}, domain.ErrHoldNotFound
		}
		return domain.Hold{}, fmt.Errorf("get hold: %w", err)
	}
	h.Status = domain.HoldStatus(status)
	return h, nil
}
