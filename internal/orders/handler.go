package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rmachado/storefront/internal/api"
	"github.com/rmachado/storefront/internal/auth"
	"github.com/rmachado/storefront/internal/domain"
)

// OrderStore is the persistence surface of the placement workflow.
type OrderStore interface {
	Place(ctx context.Context, accountID string, items []domain.OrderRequestItem,
		addr domain.Address, declaredTotal decimal.Decimal, paymentIntentID string) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.Order, error)
}

// EventPublisher pushes order events to downstream consumers. May be nil
// when no broker is configured.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Handler struct {
	store     OrderStore
	publisher EventPublisher
	logger    *slog.Logger
	dev       bool
}

func NewHandler(store OrderStore, publisher EventPublisher, logger *slog.Logger, dev bool) *Handler {
	return &Handler{
		store:     store,
		publisher: publisher,
		logger:    logger,
		dev:       dev,
	}
}

type createOrderRequest struct {
	Products        []domain.OrderRequestItem `json:"products"`
	ShippingAddress domain.Address            `json:"shippingAddress"`
	TotalAmount     decimal.Decimal           `json:"totalAmount"`
	PaymentIntentID string                    `json:"paymentIntentId"`
}

// HandleCreate places an order for the authenticated account. The cart is
// validated structurally, then re-priced and stock-checked server-side
// inside a single transaction; the client-declared total must agree with
// the computed one within the tolerance.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	acct, ok := auth.AccountFrom(r.Context())
	if !ok {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("authentication required: %w", domain.ErrUnauthenticated))
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("invalid request body: %w", domain.ErrInvalidInput))
		return
	}

	if err := domain.ValidateOrderItems(req.Products); err != nil {
		api.Fail(w, h.logger, h.dev, err)
		return
	}

	order, err := h.store.Place(r.Context(), acct.ID, req.Products, req.ShippingAddress,
		req.TotalAmount, req.PaymentIntentID)
	if err != nil {
		api.Fail(w, h.logger, h.dev, err)
		return
	}

	if h.publisher != nil {
		event := domain.OrderPlacedEvent{
			OrderID:     order.ID,
			AccountID:   order.AccountID,
			TotalAmount: order.TotalAmount,
			PlacedAt:    time.Now().UTC(),
		}
		for _, li := range order.Items {
			name := ""
			if li.Product != nil {
				name = li.Product.Name
			}
			event.Items = append(event.Items, domain.OrderEventItem{
				ProductID: li.ProductID,
				Name:      name,
				Quantity:  li.Quantity,
				UnitPrice: li.UnitPrice,
			})
		}
		if err := h.publisher.Publish(r.Context(), order.ID, event); err != nil {
			h.logger.Error("failed to publish order placed event", "error", err, "order_id", order.ID)
		}
	}

	h.logger.Info("order placed", "order_id", order.ID, "account_id", order.AccountID,
		"total", order.TotalAmount, "items", len(order.Items))
	api.OK(w, h.logger, http.StatusCreated, map[string]any{"order": order})
}

// HandleMyOrders lists the authenticated account's orders, newest first.
func (h *Handler) HandleMyOrders(w http.ResponseWriter, r *http.Request) {
	acct, ok := auth.AccountFrom(r.Context())
	if !ok {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("authentication required: %w", domain.ErrUnauthenticated))
		return
	}

	orders, err := h.store.ListByAccount(r.Context(), acct.ID)
	if err != nil {
		api.Fail(w, h.logger, h.dev, err)
		return
	}

	api.OK(w, h.logger, http.StatusOK, map[string]any{"orders": orders})
}

// HandleGet returns a single order, owner only.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	acct, ok := auth.AccountFrom(r.Context())
	if !ok {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("authentication required: %w", domain.ErrUnauthenticated))
		return
	}

	order, err := h.store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		api.Fail(w, h.logger, h.dev, err)
		return
	}
	if order == nil {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("order not found: %w", domain.ErrNotFound))
		return
	}

	if order.AccountID != acct.ID {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("not authorized to access this order: %w", domain.ErrForbidden))
		return
	}

	api.OK(w, h.logger, http.StatusOK, map[string]any{"order": order})
}
