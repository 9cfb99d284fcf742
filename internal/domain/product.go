package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Product is a read-only catalog entry. Variations and Complements are the
// options a customer may pick when adding it to the cart.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
	Featured    bool            `json:"featured,omitempty"`
	Variations  []Variation     `json:"variations,omitempty"`
	Complements []Complement    `json:"complements,omitempty"`
}

// Variation modifies the base price of a product (e.g. cup size). The delta
// may be negative.
type Variation struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	PriceDelta decimal.Decimal `json:"price_delta"`
}

// Complement is an optional add-on with a non-negative price.
type Complement struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	PriceDelta decimal.Decimal `json:"price_delta"`
	Required   bool            `json:"required,omitempty"`
}

// Validate applies the price guards for catalog ingestion.
func (p Product) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: empty product id", ErrInvalidProduct)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: product %s price %s", ErrInvalidPrice, p.ID, p.Price)
	}
	for _, v := range p.Variations {
		if p.Price.Add(v.PriceDelta).IsNegative() {
			return fmt.Errorf("%w: variation %s takes product %s below zero", ErrInvalidPrice, v.ID, p.ID)
		}
	}
	for _, c := range p.Complements {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c Complement) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: empty complement id", ErrInvalidProduct)
	}
	if c.PriceDelta.IsNegative() {
		return fmt.Errorf("%w: complement %s price %s", ErrInvalidPrice, c.ID, c.PriceDelta)
	}
	return nil
}

// FindVariation returns the variation with the given id, if the product offers it.
func (p Product) FindVariation(id string) (*Variation, bool) {
	for i := range p.Variations {
		if p.Variations[i].ID == id {
			v := p.Variations[i]
			return &v, true
		}
	}
	return nil, false
}

// FindComplement returns the complement with the given id, if the product offers it.
func (p Product) FindComplement(id string) (Complement, bool) {
	for _, c := range p.Complements {
		if c.ID == id {
			return c, true
		}
	}
	return Complement{}, false
}
