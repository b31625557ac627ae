package models

import "time"

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is published on the order events topic after an order changes.
type OrderEvent struct {
	EventType      string       `json:"event_type"`
	OrderID        string       `json:"order_id"`
	UserID         *string      `json:"user_id,omitempty"`
	Status         OrderStatus  `json:"status"`
	PreviousStatus OrderStatus  `json:"previous_status,omitempty"`
	TotalPrice     float64      `json:"total_price"`
	Currency       CurrencyCode `json:"currency"`
	ItemCount      int          `json:"item_count"`
	Timestamp      time.Time    `json:"timestamp"`
}
