package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money fields are serialized as JSON numbers to match the public API
	// contract (price: 25.0, not "25.0").
	decimal.MarshalJSONWithoutQuotes = true
}

type StockStatus string

const (
	StockIn  StockStatus = "in_stock"
	StockOut StockStatus = "out_of_stock"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
	Stock       StockStatus     `json:"stock"`
	// Status is always re-derived from Stock before a product is persisted;
	// the two never disagree in stored data.
	Status    StockStatus `json:"status"`
	CreatedBy string      `json:"createdBy"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// DeriveStatus applies the write-time rule keeping Status in lockstep
// with Stock. Repositories call it on every save.
func (p *Product) DeriveStatus() {
	if p.Stock == StockIn {
		p.Status = StockIn
	} else {
		p.Status = StockOut
	}
}

// ValidateProduct checks a product before persistence. Image presence is
// enforced by the upload path, not here, so updates can keep the old image.
func ValidateProduct(p *Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product name is required: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(p.Description) == "" {
		return fmt.Errorf("product description is required: %w", ErrInvalidInput)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("product price cannot be negative: %w", ErrInvalidInput)
	}
	switch p.Stock {
	case StockIn, StockOut:
	default:
		return fmt.Errorf("invalid stock status %q: %w", p.Stock, ErrInvalidInput)
	}
	return nil
}
