package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a pending purchase derived from a hold, settled asynchronously by
// a payment notification. Price is snapshotted at checkout time, not at hold
// time. PaymentReference holds the settlement idempotency key once consumed;
// empty means no notification has touched the order yet.
type Order struct {
	ID               string
	UserID           string
	ProductID        string
	HoldID           string
	Quantity         int
	Price            decimal.Decimal
	Status           OrderStatus
	PaymentReference string
	CreatedAt        time.Time
}
