package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineKey(t *testing.T) {
	v := &Variation{ID: "500ml"}
	complements := []Complement{{ID: "granola"}, {ID: "banana"}}

	assert.Equal(t, "p1|default|none", LineKey("p1", nil, nil))
	assert.Equal(t, "p1|500ml|none", LineKey("p1", v, []Complement{}))
	assert.Equal(t, "p1|500ml|banana,granola", LineKey("p1", v, complements))
	assert.Equal(t,
		LineKey("p1", v, complements),
		LineKey("p1", v, []Complement{{ID: "banana"}, {ID: "granola"}}),
		"complement order must not matter")
}

func TestLineKey_SeparatorsInIDsDoNotCollide(t *testing.T) {
	assert.NotEqual(t,
		LineKey("a-b", &Variation{ID: "c"}, nil),
		LineKey("a", &Variation{ID: "b-c"}, nil))
	assert.NotEqual(t,
		LineKey("a|b", nil, nil),
		LineKey("a", &Variation{ID: "b"}, nil))
	assert.NotEqual(t,
		LineKey("p", nil, []Complement{{ID: "x,y"}}),
		LineKey("p", nil, []Complement{{ID: "x"}, {ID: "y"}}))
	assert.Equal(t, `a\|b|default|none`, LineKey("a|b", nil, nil))
}

func TestUnitPrice(t *testing.T) {
	p := Product{ID: "p1", Price: decimal.RequireFromString("10.00")}
	v := &Variation{ID: "big", PriceDelta: decimal.RequireFromString("2.00")}
	c := []Complement{{ID: "leite-ninho", PriceDelta: decimal.RequireFromString("1.50")}}

	assert.True(t, decimal.RequireFromString("13.50").Equal(UnitPrice(p, v, c)))
	assert.True(t, decimal.RequireFromString("10").Equal(UnitPrice(p, nil, nil)))

	small := &Variation{ID: "small", PriceDelta: decimal.RequireFromString("-3.00")}
	assert.True(t, decimal.RequireFromString("7").Equal(UnitPrice(p, small, nil)))
}

func TestCartItem_Recompute(t *testing.T) {
	item := CartItem{
		Product:  Product{ID: "p1", Price: decimal.RequireFromString("10.00")},
		Quantity: 3,
		SelectedComplements: []Complement{
			{ID: "granola", PriceDelta: decimal.RequireFromString("1.25")},
		},
	}
	item.Recompute()

	assert.True(t, decimal.RequireFromString("33.75").Equal(item.TotalPrice), item.TotalPrice.String())
}

func TestCartItem_CloneIsDeep(t *testing.T) {
	item := CartItem{
		Product:             Product{ID: "p1", Variations: []Variation{{ID: "a"}}},
		Quantity:            1,
		SelectedVariation:   &Variation{ID: "a"},
		SelectedComplements: []Complement{{ID: "c"}},
	}
	clone := item.Clone()

	clone.SelectedVariation.ID = "b"
	clone.SelectedComplements[0].ID = "d"
	clone.Product.Variations[0].ID = "z"

	assert.Equal(t, "a", item.SelectedVariation.ID)
	assert.Equal(t, "c", item.SelectedComplements[0].ID)
	assert.Equal(t, "a", item.Product.Variations[0].ID)
}

func TestUniqueComplements(t *testing.T) {
	in := []Complement{{ID: "a", Name: "first"}, {ID: "b"}, {ID: "a", Name: "second"}}
	out := UniqueComplements(in)

	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Name)
	assert.Nil(t, UniqueComplements(nil))
}

func TestProduct_Validate(t *testing.T) {
	ok := Product{
		ID:          "p1",
		Price:       decimal.RequireFromString("5"),
		Variations:  []Variation{{ID: "small", PriceDelta: decimal.RequireFromString("-5")}},
		Complements: []Complement{{ID: "c", PriceDelta: decimal.Zero}},
	}
	require.NoError(t, ok.Validate())

	negative := Product{ID: "p2", Price: decimal.RequireFromString("-0.01")}
	assert.ErrorIs(t, negative.Validate(), ErrInvalidPrice)

	belowZero := Product{
		ID:         "p3",
		Price:      decimal.RequireFromString("5"),
		Variations: []Variation{{ID: "v", PriceDelta: decimal.RequireFromString("-6")}},
	}
	assert.ErrorIs(t, belowZero.Validate(), ErrInvalidPrice)

	badComplement := Product{
		ID:          "p4",
		Complements: []Complement{{ID: "c", PriceDelta: decimal.RequireFromString("-1")}},
	}
	assert.ErrorIs(t, badComplement.Validate(), ErrInvalidPrice)

	assert.ErrorIs(t, Product{}.Validate(), ErrInvalidProduct)
}
