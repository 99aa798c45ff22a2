// Package notifier turns order.placed events into confirmation messages.
// Delivery is simulated; a real mailer would slot in behind Sender.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rmachado/storefront/internal/domain"
)

// Sender delivers a rendered confirmation to an account.
type Sender interface {
	Send(ctx context.Context, accountID, subject, body string) error
}

// LogSender writes confirmations to the log instead of delivering them.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, accountID, subject, body string) error {
	s.Logger.Info("confirmation sent", "account_id", accountID, "subject", subject, "body", body)
	return nil
}

type Handler struct {
	sender Sender
	logger *slog.Logger
}

func NewHandler(sender Sender, logger *slog.Logger) *Handler {
	return &Handler{
		sender: sender,
		logger: logger,
	}
}

// Handle consumes one order.placed payload and sends the confirmation.
func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order placed event: %w", err)
	}
	if event.OrderID == "" {
		return fmt.Errorf("order placed event without order id")
	}

	subject := "Order confirmation: " + event.OrderID
	body := fmt.Sprintf("Your order %s for %s has been placed with %d item(s).",
		event.OrderID, event.TotalAmount, len(event.Items))

	if err := h.sender.Send(ctx, event.AccountID, subject, body); err != nil {
		return fmt.Errorf("send confirmation for order %s: %w", event.OrderID, err)
	}

	h.logger.Info("order confirmation processed", "order_id", event.OrderID, "account_id", event.AccountID)
	return nil
}
