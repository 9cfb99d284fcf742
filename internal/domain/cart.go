package domain

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	defaultVariationKey = "default"
	noComplementsKey    = "none"
	keySeparator        = "|"
)

// keyEscaper escapes the key separators inside ids so that distinct
// (product, variation, complements) tuples never share a key.
var keyEscaper = strings.NewReplacer(`\`, `\\`, "|", `\|`, ",", `\,`)

// CartItem is one line of the cart: a product with an optional variation and
// a set of complements. TotalPrice is always derived from the unit price and
// the quantity, see Recompute.
type CartItem struct {
	Product             Product         `json:"product"`
	Quantity            int             `json:"quantity"`
	SelectedVariation   *Variation      `json:"selected_variation,omitempty"`
	SelectedComplements []Complement    `json:"selected_complements,omitempty"`
	TotalPrice          decimal.Decimal `json:"total_price"`
}

// UnitPrice is the price of one unit including variation and complement deltas.
func UnitPrice(p Product, v *Variation, complements []Complement) decimal.Decimal {
	price := p.Price
	if v != nil {
		price = price.Add(v.PriceDelta)
	}
	for _, c := range complements {
		price = price.Add(c.PriceDelta)
	}
	return price
}

// LineKey builds the merge identity of a line:
// "<product id>|<variation id or default>|<sorted complement ids or none>",
// with complement ids joined by "," and `\`, "|", "," escaped inside ids.
func LineKey(productID string, v *Variation, complements []Complement) string {
	variationID := defaultVariationKey
	if v != nil {
		variationID = keyEscaper.Replace(v.ID)
	}

	complementIDs := noComplementsKey
	if len(complements) > 0 {
		ids := make([]string, len(complements))
		for i, c := range complements {
			ids[i] = keyEscaper.Replace(c.ID)
		}
		sort.Strings(ids)
		complementIDs = strings.Join(ids, ",")
	}

	return keyEscaper.Replace(productID) + keySeparator + variationID + keySeparator + complementIDs
}

func (i CartItem) UnitPrice() decimal.Decimal {
	return UnitPrice(i.Product, i.SelectedVariation, i.SelectedComplements)
}

func (i CartItem) Key() string {
	return LineKey(i.Product.ID, i.SelectedVariation, i.SelectedComplements)
}

// Recompute sets TotalPrice to UnitPrice × Quantity.
func (i *CartItem) Recompute() {
	i.TotalPrice = i.UnitPrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Clone returns a deep copy so the result shares no slices or pointers with i.
func (i CartItem) Clone() CartItem {
	out := i
	out.Product = i.Product.clone()
	if i.SelectedVariation != nil {
		v := *i.SelectedVariation
		out.SelectedVariation = &v
	}
	if i.SelectedComplements != nil {
		out.SelectedComplements = append([]Complement(nil), i.SelectedComplements...)
	}
	return out
}

func (p Product) clone() Product {
	out := p
	if p.Variations != nil {
		out.Variations = append([]Variation(nil), p.Variations...)
	}
	if p.Complements != nil {
		out.Complements = append([]Complement(nil), p.Complements...)
	}
	return out
}

// UniqueComplements drops repeated complement ids, keeping the first occurrence.
func UniqueComplements(complements []Complement) []Complement {
	if len(complements) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(complements))
	out := make([]Complement, 0, len(complements))
	for _, c := range complements {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}
