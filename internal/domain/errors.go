package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrHoldNotFound      = errors.New("hold not found or expired")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidID         = errors.New("invalid id")
	ErrUserRequired      = errors.New("user id required")
	ErrProductNameEmpty  = errors.New("product name required")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrInvalidStock      = errors.New("invalid stock")
	ErrInvalidOutcome    = errors.New("invalid payment outcome")
	ErrHoldAlreadyUsed   = errors.New("hold already used")
	ErrInsufficientStock = errors.New("not enough stock")
)

// InsufficientStockError rejects a reservation that exceeds the product's
// available stock. It matches ErrInsufficientStock via errors.Is.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock: %d available", e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// HoldAlreadyUsedError reports a checkout against a hold that already has an
// order. It carries the existing order id so callers can return it instead
// of creating new state. Matches ErrHoldAlreadyUsed via errors.Is.
type HoldAlreadyUsedError struct {
	OrderID string
}

func (e *HoldAlreadyUsedError) Error() string {
	return "hold already used"
}

func (e *HoldAlreadyUsedError) Is(target error) bool {
	return target == ErrHoldAlreadyUsed
}
