package models

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestProductInput_Validation(t *testing.T) {
	v := NewValidator()
	qty := -1

	cases := []struct {
		name  string
		input ProductInput
		field string
	}{
		{"ok", ProductInput{Name: "Widget", Price: price("9.99")}, ""},
		{"zero price", ProductInput{Name: "Widget", Price: price("0")}, ""},
		{"missing name", ProductInput{Price: price("1")}, "name"},
		{"missing price", ProductInput{Name: "Widget"}, "price"},
		{"negative price", ProductInput{Name: "Widget", Price: price("-0.5")}, "price"},
		{"negative quantity", ProductInput{Name: "Widget", Price: price("1"), Quantity: &qty}, "quantity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Struct(tc.input)
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs, 1)
			assert.Equal(t, tc.field, verrs[0].Field())
		})
	}
}

func TestProductInput_NormalizeAndApply(t *testing.T) {
	in := ProductInput{Name: "  Widget ", Description: " d ", Price: price("9.999")}
	in.Normalize()
	assert.Equal(t, "Widget", in.Name)
	assert.Equal(t, "d", in.Description)

	p := &Product{ID: 4, Quantity: 8}
	in.ApplyTo(p)
	assert.Equal(t, uint(4), p.ID)
	assert.Equal(t, "10", p.Price.String())
	assert.Equal(t, 0, p.Quantity, "a missing quantity resets to 0")

	qty := 3
	in.Quantity = &qty
	in.ApplyTo(p)
	assert.Equal(t, 3, p.Quantity)
}

func TestProduct_JSON(t *testing.T) {
	raw, err := json.Marshal(Product{ID: 1, Name: "Widget", Price: decimal.RequireFromString("9.99"), Quantity: 5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"Widget","description":"","price":9.99,"quantity":5}`, string(raw))

	var in ProductInput
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"name":"Widget","price":19.99}`), &in))
	assert.True(t, in.Price.Equal(decimal.RequireFromString("19.99")))
	assert.Nil(t, in.Quantity)
}

func TestNewProductEvent(t *testing.T) {
	p := &Product{ID: 2}
	a := NewProductEvent(ProductCreated, 2, p)
	b := NewProductEvent(ProductDeleted, 2, nil)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "product.created", a.Type)
	assert.Same(t, p, a.Product)
	assert.Nil(t, b.Product)
	assert.False(t, a.OccurredAt.IsZero())
}
