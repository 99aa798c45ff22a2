package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderPlacedEvent is published after an order commits. Item snapshots are
// flattened so consumers do not need catalog access.
type OrderPlacedEvent struct {
	OrderID     string           `json:"orderId"`
	AccountID   string           `json:"accountId"`
	TotalAmount decimal.Decimal  `json:"totalAmount"`
	Items       []OrderEventItem `json:"items"`
	PlacedAt    time.Time        `json:"placedAt"`
}

type OrderEventItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}
