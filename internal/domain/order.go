package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// TotalTolerance is the largest accepted gap between the client-declared
// total and the server-computed one.
var TotalTolerance = decimal.NewFromFloat(0.01)

type Address struct {
	FullName   string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// OrderItem is a snapshot taken at order time; UnitPrice does not track
// later catalog price changes. Product carries the expanded catalog record
// when the order is returned by the API.
type OrderItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Product   *Product        `json:"product,omitempty"`
}

type Order struct {
	ID              string          `json:"id"`
	AccountID       string          `json:"accountId"`
	Items           []OrderItem     `json:"items"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus"`
	PaymentIntentID string          `json:"paymentIntentId"`
	ShippingAddress Address         `json:"shippingAddress"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderRequestItem is one {productId, quantity} pair from a checkout
// submission, before any server-side validation.
type OrderRequestItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// ValidateOrderItems rejects a cart submission whose structure is wrong:
// missing, empty, or containing an entry without a product reference and a
// positive quantity.
func ValidateOrderItems(items []OrderRequestItem) error {
	if items == nil {
		return fmt.Errorf("products list is required: %w", ErrInvalidInput)
	}
	if len(items) == 0 {
		return fmt.Errorf("products list cannot be empty: %w", ErrInvalidInput)
	}
	for _, it := range items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return fmt.Errorf("each product must have a productId and a positive quantity: %w", ErrInvalidInput)
		}
	}
	return nil
}

// TotalsMatch reports whether a declared total agrees with the computed
// one within TotalTolerance.
func TotalsMatch(declared, computed decimal.Decimal) bool {
	return declared.Sub(computed).Abs().LessThanOrEqual(TotalTolerance)
}
