package domain

import "time"

type HoldStatus string

const (
	HoldStatusActive  HoldStatus = "active"
	HoldStatusUsed    HoldStatus = "used"
	HoldStatusExpired HoldStatus = "expired"
)

// Hold represents reserved inventory for a limited time. An active hold
// backs quantity units of the product's reserved counter until it is
// checked out (used) or reclaimed (expired). Used and expired are terminal.
type Hold struct {
	ID        string
	UserID    string
	ProductID string
	Quantity  int
	Status    HoldStatus
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Lapsed reports whether the hold's time window has elapsed at now.
func (h Hold) Lapsed(now time.Time) bool {
	return !h.ExpiresAt.After(now)
}
