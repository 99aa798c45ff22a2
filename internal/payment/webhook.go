package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/rmachado/storefront/internal/api"
	"github.com/rmachado/storefront/internal/domain"
)

const maxWebhookBytes = 64 << 10

// OrderReconciler marks the order holding a payment-intent reference
// completed. Must be idempotent: webhook events can be redelivered.
type OrderReconciler interface {
	CompleteByIntent(ctx context.Context, paymentIntentID string) (*domain.Order, error)
}

type WebhookHandler struct {
	orders        OrderReconciler
	signingSecret string
	logger        *slog.Logger
	dev           bool
}

func NewWebhookHandler(orders OrderReconciler, signingSecret string, logger *slog.Logger, dev bool) *WebhookHandler {
	return &WebhookHandler{
		orders:        orders,
		signingSecret: signingSecret,
		logger:        logger,
		dev:           dev,
	}
}

// HandleWebhook verifies the provider signature over the raw body and, on
// a payment-succeeded event, reconciles the referenced order. Unknown
// event types are acknowledged without action.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("failed to read webhook body: %w", domain.ErrInvalidInput))
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.signingSecret)
	if err != nil {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("webhook signature verification failed: %w", domain.ErrInvalidSignature))
		return
	}

	if event.Type == "payment_intent.succeeded" {
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			api.Fail(w, h.logger, h.dev, fmt.Errorf("malformed payment intent payload: %w", domain.ErrInvalidInput))
			return
		}

		order, err := h.orders.CompleteByIntent(r.Context(), intent.ID)
		if err != nil {
			api.Fail(w, h.logger, h.dev, err)
			return
		}
		if order == nil {
			h.logger.Warn("webhook for unknown payment intent", "payment_intent_id", intent.ID)
		} else {
			h.logger.Info("order reconciled from webhook", "order_id", order.ID, "payment_intent_id", intent.ID)
		}
	}

	api.OK(w, h.logger, http.StatusOK, map[string]any{"received": true})
}
