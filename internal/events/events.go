package events

import (
	"time"

	"github.com/andreasstove999/retail-backend/internal/order"
)

const (
	OrderCreatedQueue       = "order.created"
	OrderStatusChangedQueue = "order.status_changed"
)

type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	// UnitPrice is the decimal string snapshot, e.g. "10.00".
	UnitPrice string `json:"unitPrice"`
}

type OrderCreated struct {
	EventType   string      `json:"eventType"`
	OrderID     string      `json:"orderId"`
	UserID      string      `json:"userId"`
	TotalAmount string      `json:"totalAmount"`
	Status      string      `json:"status"`
	Items       []OrderItem `json:"items"`
	Timestamp   time.Time   `json:"timestamp"`
}

type OrderStatusChanged struct {
	EventType string    `json:"eventType"`
	OrderID   string    `json:"orderId"`
	NewStatus string    `json:"newStatus"`
	Timestamp time.Time `json:"timestamp"`
}

func NewOrderCreated(o *order.Order, at time.Time) OrderCreated {
	ev := OrderCreated{
		EventType:   "OrderCreated",
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount.StringFixed(2),
		Status:      string(o.Status),
		Timestamp:   at,
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.StringFixed(2),
		})
	}
	return ev
}

func NewOrderStatusChanged(orderID string, status order.Status, at time.Time) OrderStatusChanged {
	return OrderStatusChanged{
		EventType: "OrderStatusChanged",
		OrderID:   orderID,
		NewStatus: string(status),
		Timestamp: at,
	}
}
