package http

import (
	"math"
	"time"

	"github.com/fjod/acai_cart/internal/cart"
	"github.com/fjod/acai_cart/internal/domain"
)

type AddItemRequestDTO struct {
	ProductID     string   `json:"product_id" validate:"required"`
	VariationID   string   `json:"variation_id,omitempty"`
	ComplementIDs []string `json:"complement_ids,omitempty" validate:"omitempty,dive,required"`
}

// Quantity is a pointer so a missing field is told apart from 0, which
// removes the line.
type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type LocationRequestDTO struct {
	State string `json:"state" validate:"required"`
	City  string `json:"city" validate:"required"`
}

type CreateOrderRequestDTO struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	State         string `json:"state"`
	PaymentMethod string `json:"payment_method"`
}

func (r CreateOrderRequestDTO) customerInfo() domain.CustomerInfo {
	return domain.CustomerInfo{
		Name:          r.Name,
		Phone:         r.Phone,
		Address:       r.Address,
		City:          r.City,
		State:         r.State,
		PaymentMethod: domain.PaymentMethod(r.PaymentMethod),
	}
}

type CartLineDTO struct {
	Key string `json:"key"`
	domain.CartItem
}

type CartResponseDTO struct {
	Items      []CartLineDTO    `json:"items"`
	Total      string           `json:"total"`
	ItemsCount int              `json:"items_count"`
	IsOpen     bool             `json:"is_open"`
	Location   *domain.Location `json:"location,omitempty"`
}

func newCartResponse(c *cart.Store, location *domain.Location) CartResponseDTO {
	items := c.Items()
	lines := make([]CartLineDTO, len(items))
	for i, item := range items {
		lines[i] = CartLineDTO{Key: item.Key(), CartItem: item}
	}
	return CartResponseDTO{
		Items:      lines,
		Total:      c.Total().StringFixed(2),
		ItemsCount: c.ItemsCount(),
		IsOpen:     c.IsOpen(),
		Location:   location,
	}
}

type TimelineStepDTO struct {
	Status   domain.OrderStatus `json:"status"`
	AtMinute int                `json:"at_minute"`
	Reached  bool               `json:"reached"`
}

type OrderResponseDTO struct {
	domain.Order
	ElapsedMinutes   int               `json:"elapsed_minutes"`
	RemainingMinutes int               `json:"remaining_minutes"`
	Timeline         []TimelineStepDTO `json:"timeline"`
}

func newOrderResponse(o domain.Order, now time.Time) OrderResponseDTO {
	elapsed := now.Sub(o.CreatedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := domain.DeliveryWindow - elapsed
	if remaining < 0 {
		remaining = 0
	}

	timeline := make([]TimelineStepDTO, len(domain.Timeline))
	for i, step := range domain.Timeline {
		timeline[i] = TimelineStepDTO{
			Status:   step.Status,
			AtMinute: int(step.After / time.Minute),
			Reached:  elapsed >= step.After,
		}
	}

	return OrderResponseDTO{
		Order:            o,
		ElapsedMinutes:   int(elapsed / time.Minute),
		RemainingMinutes: int(math.Ceil(remaining.Minutes())),
		Timeline:         timeline,
	}
}
