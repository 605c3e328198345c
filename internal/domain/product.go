package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product owns the shared stock counters. Invariant: 0 <= reserved <= stock.
// Mutated only by the stock ledger inside a transaction holding the product
// row lock.
type Product struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Stock     int
	Reserved  int
	CreatedAt time.Time
}

// Available returns the stock not backing any hold or pending order.
func (p Product) Available() int {
	available := p.Stock - p.Reserved
	if available < 0 {
		return 0
	}
	return available
}
