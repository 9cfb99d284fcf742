package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fjod/acai_cart/internal/cart"
	"github.com/fjod/acai_cart/internal/domain"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// pixDiscount is the share of the subtotal charged when paying with PIX.
var pixDiscount = decimal.RequireFromString("0.95")

// Builder turns the cart of a session into an immutable Order.
type Builder struct {
	validate *validatorv10.Validate
	nowFunc  func() time.Time
	newID    func() string
}

func NewBuilder() *Builder {
	return &Builder{
		validate: validatorv10.New(validatorv10.WithRequiredStructEnabled()),
		nowFunc:  time.Now,
		newID:    uuid.NewString,
	}
}

// CreateOrder snapshots the cart into a new order in the received status.
// It is rejected with ErrIncompleteCustomerInfo or ErrEmptyCart, in which
// case the cart is not modified. On success the cart is emptied and closed.
func (b *Builder) CreateOrder(_ context.Context, c *cart.Store, info domain.CustomerInfo) (*domain.Order, error) {
	info = normalize(info)
	if err := b.validateCustomer(info); err != nil {
		return nil, err
	}

	var order *domain.Order
	err := c.Checkout(func(items []domain.CartItem, subtotal decimal.Decimal) error {
		if len(items) == 0 {
			return ErrEmptyCart
		}

		now := b.nowFunc()
		total := Total(subtotal, info.PaymentMethod)
		order = &domain.Order{
			ID:                b.newID(),
			Items:             items,
			Subtotal:          subtotal,
			Discount:          subtotal.Sub(total),
			Total:             total,
			CustomerInfo:      info,
			Status:            domain.OrderStatusReceived,
			CreatedAt:         now,
			EstimatedDelivery: now.Add(domain.DeliveryWindow),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// Total applies the payment method discount to the subtotal. PIX pays 95%
// rounded to cents; other methods pay the subtotal.
func Total(subtotal decimal.Decimal, method domain.PaymentMethod) decimal.Decimal {
	if method == domain.PaymentMethodPix {
		return subtotal.Mul(pixDiscount).Round(2)
	}
	return subtotal
}

func (b *Builder) validateCustomer(info domain.CustomerInfo) error {
	err := b.validate.Struct(info)
	if err == nil {
		return nil
	}

	var ve validatorv10.ValidationErrors
	if !errors.As(err, &ve) {
		return &ValidationError{Fields: map[string]string{"customer_info": err.Error()}}
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	return &ValidationError{Fields: fields}
}

func normalize(info domain.CustomerInfo) domain.CustomerInfo {
	info.Name = strings.TrimSpace(info.Name)
	info.Phone = strings.TrimSpace(info.Phone)
	info.Address = strings.TrimSpace(info.Address)
	info.City = strings.TrimSpace(info.City)
	info.State = strings.TrimSpace(info.State)
	return info
}
