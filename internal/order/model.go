package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/retail-backend/internal/apperr"
)

var (
	ErrNotFound     = errors.New("order: not found")
	ErrEmptyCart    = errors.New("order: cart is empty")
	ErrUnauthorized = errors.New("order: access denied")
	// ErrConcurrencyConflict is returned when product row locks could not
	// be acquired before the checkout deadline.
	ErrConcurrencyConflict = errors.New("order: concurrent checkout conflict")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
)

// ParseStatus accepts any recognized status value. Transition legality
// is deliberately not checked; admins may move an order both ways.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusShipped, StatusDelivered:
		return Status(s), nil
	}
	return "", apperr.Validationf("unknown order status %q", s)
}

// Item is an immutable snapshot: quantity and unit price as they were
// the instant the order was placed, decoupled from later catalog edits.
type Item struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

type Order struct {
	ID              string          `json:"orderId"`
	UserID          string          `json:"userId"`
	Items           []Item          `json:"items"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          Status          `json:"status"`
	ShippingAddress string          `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
