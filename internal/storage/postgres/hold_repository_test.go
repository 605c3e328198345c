package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/Badawy24/Flash-Sale-Checkout/internal/domain"
	"github.com/Badawy24/Flash-Sale-Checkout/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestHoldRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewHoldRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("CreateHold inserts row", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		productID := testutil.InsertProduct(t, ctx, pool, "Sneaker", decimal.NewFromInt(50), 10, 0)
		now := time.Now().UTC()

		hold := domain.Hold{
			ID:        uuid.NewString(),
			UserID:    "user-1",
			ProductID: productID,
			Quantity:  2,
			Status:    domain.HoldStatusActive,
			ExpiresAt: now.Add(2 * time.Minute),
			CreatedAt: now,
		}
		if err := repo.CreateHold(ctx, hold); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := repo.GetHold(ctx, hold.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.UserID != "user-1" || got.Quantity != 2 || got.Status != domain.HoldStatusActive {
			t.Fatalf("unexpected hold: %+v", got)
		}
	})

	t.Run("CreateHold rejects unknown product", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		hold := domain.Hold{
			ID:        uuid.NewString(),
			UserID:    "user-1",
			ProductID: uuid.NewString(),
			Quantity:  1,
			Status:    domain.HoldStatusActive,
			ExpiresAt: time.Now().Add(2 * time.Minute).UTC(),
			CreatedAt: time.Now().UTC(),
		}
		if err := repo.CreateHold(ctx, hold); err != domain.ErrProductNotFound {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("GetActiveHoldForUpdate conflates misses", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		productID := testutil.InsertProduct(t, ctx, pool, "Sneaker", decimal.NewFromInt(50), 10, 0)
		now := time.Now().UTC()

		liveID := testutil.InsertHold(t, ctx, pool, productID, domain.Hold{
			UserID: "user-1", Quantity: 2,
			Status: domain.HoldStatusActive, ExpiresAt: now.Add(2 * time.Minute),
		})
		lapsedID := testutil.InsertHold(t, ctx, pool, productID, domain.Hold{
			UserID: "user-1", Quantity: 1,
			Status: domain.HoldStatusActive, ExpiresAt: now.Add(-time.Minute),
		})
		usedID := testutil.InsertHold(t, ctx, pool, productID, domain.Hold{
			UserID: "user-1", Quantity: 1,
			Status: domain.HoldStatusUsed, ExpiresAt: now.Add(2 * time.Minute),
		})

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			hold, err := repo.GetActiveHoldForUpdate(txCtx, liveID, "user-1", now)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if hold.ID != liveID || hold.Quantity != 2 {
				t.Fatalf("unexpected hold: %+v", hold)
			}

			misses := []struct {
				name   string
				id     string
				userID string
			}{
				{"unknown id", uuid.NewString(), "user-1"},
				{"wrong owner", liveID, "user-2"},
				{"time-expired", lapsedID, "user-1"},
				{"already consumed", usedID, "user-1"},
			}
			for _, m := range misses {
				if _, err := repo.GetActiveHoldForUpdate(txCtx, m.id, m.userID, now); err != domain.ErrHoldNotFound {
					t.Fatalf("%s: expected ErrHoldNotFound, got %v", m.name, err)
				}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("tx failed: %v", err)
		}

		if _, err := repo.GetActiveHoldForUpdate(ctx, "not-a-uuid", "user-1", now); err != domain.ErrInvalidID {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("LockActiveHold filters on status only", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		productID := testutil.InsertProduct(t, ctx, pool, "Sneaker", decimal.NewFromInt(50), 10, 0)
		now := time.Now().UTC()

		lapsedID := testutil.InsertHold(t, ctx, pool, productID, domain.Hold{
			UserID: "user-1", Quantity: 1,
			Status: domain.HoldStatusActive, ExpiresAt: now.Add(-time.Minute),
		})
		usedID := testutil.InsertHold(t, ctx, pool, productID, domain.Hold{
			UserID: "user-1", Quantity: 1,
			Status: domain.HoldStatusUsed, ExpiresAt: now.Add(-time.Minute),
		})

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			// A lapsed hold still locks; the reaper decides its fate.
			if _, err := repo.LockActiveHold(txCtx, lapsedID); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if _, err := repo.LockActiveHold(txCtx, usedID); err != domain.ErrHoldNotFound {
				t.Fatalf("expected ErrHoldNotFound, got %v", err)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("tx failed: %v", err)
		}
	})

	t.Run("ListExpiredActiveHolds excludes live and consumed", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		productID := testutil.InsertProduct(t, ctx, pool, "Sneaker", decimal.NewFromInt(50), 10, 0)
		now := time.Now().UTC()

		lapsedID := testutil.InsertHold(t, ctx, pool, productID, domain.Hold{
			UserID: "user-1", Quantity: 1,
			Status: domain.HoldStatusActive, ExpiresAt: now.Add(-time.Minute),
		})
		testutil.InsertHold(t, ctx, pool, productID, domain.Hold{
			UserID: "user-2", Quantity: 1,
			Status: domain.HoldStatusActive, ExpiresAt: now.Add(2 * time.Minute),
		})
		testutil.InsertHold(t, ctx, pool, productID, domain.Hold{
			UserID: "user-3", Quantity: 1,
			Status: domain.HoldStatusExpired, ExpiresAt: now.Add(-time.Minute),
		})

		holds, err := repo.ListExpiredActiveHolds(ctx, now)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(holds) != 1 || holds[0].ID != lapsedID {
			t.Fatalf("unexpected holds: %+v", holds)
		}
	})

	t.Run("UpdateHoldStatus transitions and misses", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		productID := testutil.InsertProduct(t, ctx, pool, "Sneaker", decimal.NewFromInt(50), 10, 0)
		holdID := testutil.InsertHold(t, ctx, pool, productID, domain.Hold{
			UserID: "user-1", Quantity: 1,
			Status: domain.HoldStatusActive, ExpiresAt: time.Now().Add(2 * time.Minute).UTC(),
		})

		if err := repo.UpdateHoldStatus(ctx, holdID, domain.HoldStatusUsed); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := testutil.GetHoldStatus(t, ctx, pool, holdID); got != domain.HoldStatusUsed {
			t.Fatalf("expected used, got %s", got)
		}

		if err := repo.UpdateHoldStatus(ctx, uuid.NewString(), domain.HoldStatusExpired); err != domain.ErrHoldNotFound {
			t.Fatalf("expected ErrHoldNotFound, got %v", err)
		}
	})
}
