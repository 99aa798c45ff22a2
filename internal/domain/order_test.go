package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOrderItems(t *testing.T) {
	tests := []struct {
		name    string
		items   []OrderRequestItem
		wantErr bool
	}{
		{"nil list", nil, true},
		{"empty list", []OrderRequestItem{}, true},
		{"missing product id", []OrderRequestItem{{Quantity: 1}}, true},
		{"zero quantity", []OrderRequestItem{{ProductID: "p1", Quantity: 0}}, true},
		{"negative quantity", []OrderRequestItem{{ProductID: "p1", Quantity: -2}}, true},
		{"valid single", []OrderRequestItem{{ProductID: "p1", Quantity: 1}}, false},
		{"valid multiple", []OrderRequestItem{{ProductID: "p1", Quantity: 2}, {ProductID: "p2", Quantity: 1}}, false},
		{"one bad entry fails the lot", []OrderRequestItem{{ProductID: "p1", Quantity: 2}, {ProductID: "", Quantity: 1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOrderItems(tt.items)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestTotalsMatch(t *testing.T) {
	d := func(s string) decimal.Decimal {
		v, err := decimal.NewFromString(s)
		require.NoError(t, err)
		return v
	}

	assert.True(t, TotalsMatch(d("50.00"), d("50.00")))
	assert.True(t, TotalsMatch(d("50.00"), d("50.01")))
	assert.True(t, TotalsMatch(d("50.01"), d("50.00")))
	assert.False(t, TotalsMatch(d("50.00"), d("50.02")))
	assert.False(t, TotalsMatch(d("49.00"), d("50.00")))
}

func TestDeriveStatus(t *testing.T) {
	p := &Product{Stock: StockIn, Status: StockOut}
	p.DeriveStatus()
	assert.Equal(t, StockIn, p.Status)

	p.Stock = StockOut
	p.DeriveStatus()
	assert.Equal(t, StockOut, p.Status)

	// unknown stock values normalize to out_of_stock
	p.Stock = "weird"
	p.DeriveStatus()
	assert.Equal(t, StockOut, p.Status)
}

func TestValidateProduct(t *testing.T) {
	valid := func() *Product {
		return &Product{
			Name:        "Mug",
			Description: "A mug",
			Price:       decimal.NewFromFloat(9.99),
			Stock:       StockIn,
		}
	}

	require.NoError(t, ValidateProduct(valid()))

	p := valid()
	p.Name = "  "
	assert.ErrorIs(t, ValidateProduct(p), ErrInvalidInput)

	p = valid()
	p.Price = decimal.NewFromFloat(-1)
	assert.ErrorIs(t, ValidateProduct(p), ErrInvalidInput)

	p = valid()
	p.Stock = "maybe"
	assert.ErrorIs(t, ValidateProduct(p), ErrInvalidInput)
}
