package domain

type PaymentMethod string

const (
	PaymentMethodPix  PaymentMethod = "pix"
	PaymentMethodCard PaymentMethod = "card"
)

func (m PaymentMethod) String() string {
	return string(m)
}

// CustomerInfo holds delivery and payment details captured at checkout.
type CustomerInfo struct {
	Name          string        `json:"name" validate:"required"`
	Phone         string        `json:"phone" validate:"required"`
	Address       string        `json:"address" validate:"required"`
	City          string        `json:"city"`
	State         string        `json:"state"`
	PaymentMethod PaymentMethod `json:"payment_method" validate:"required,oneof=pix card"`
}

// Location is the delivery region the customer picked on arrival.
type Location struct {
	State string `json:"state" validate:"required"`
	City  string `json:"city" validate:"required"`
}
