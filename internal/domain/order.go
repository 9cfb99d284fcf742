package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is the snapshot taken at checkout. Only Status changes afterwards.
type Order struct {
	ID                string          `json:"id"`
	Items             []CartItem      `json:"items"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Discount          decimal.Decimal `json:"discount"`
	Total             decimal.Decimal `json:"total"`
	CustomerInfo      CustomerInfo    `json:"customer_info"`
	Status            OrderStatus     `json:"status"`
	CreatedAt         time.Time       `json:"created_at"`
	EstimatedDelivery time.Time       `json:"estimated_delivery"`
}

// StatusAt derives the order status at now from its creation time.
func (o Order) StatusAt(now time.Time) OrderStatus {
	return StatusAt(o.CreatedAt, now)
}

// Clone returns a deep copy of the order.
func (o Order) Clone() Order {
	out := o
	out.Items = make([]CartItem, len(o.Items))
	for i, item := range o.Items {
		out.Items[i] = item.Clone()
	}
	return out
}
