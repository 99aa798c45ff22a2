package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/rmachado/storefront/internal/api"
	"github.com/rmachado/storefront/internal/auth"
	"github.com/rmachado/storefront/internal/domain"
)

// IntentCreator is the provider capability the checkout route consumes.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amount decimal.Decimal, accountID string) (string, error)
}

type Handler struct {
	intents IntentCreator
	logger  *slog.Logger
	dev     bool
}

func NewHandler(intents IntentCreator, logger *slog.Logger, dev bool) *Handler {
	return &Handler{
		intents: intents,
		logger:  logger,
		dev:     dev,
	}
}

// createIntentRequest accepts both {"amount": 12.5} and the nested
// {"amount": {"amount": 12.5}} shape some clients send.
type createIntentRequest struct {
	Amount json.RawMessage `json:"amount"`
}

func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	var amount decimal.Decimal
	if err := json.Unmarshal(raw, &amount); err == nil {
		return amount, nil
	}

	var nested struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		return nested.Amount, nil
	}

	return decimal.Zero, fmt.Errorf("invalid amount: %w", domain.ErrInvalidInput)
}

// HandleCreateIntent requests a provider payment intent for the declared
// amount and returns its client secret.
func (h *Handler) HandleCreateIntent(w http.ResponseWriter, r *http.Request) {
	acct, ok := auth.AccountFrom(r.Context())
	if !ok {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("authentication required: %w", domain.ErrUnauthenticated))
		return
	}

	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("invalid request body: %w", domain.ErrInvalidInput))
		return
	}
	if req.Amount == nil {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("invalid amount: %w", domain.ErrInvalidInput))
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		api.Fail(w, h.logger, h.dev, err)
		return
	}
	if !amount.IsPositive() {
		api.Fail(w, h.logger, h.dev, fmt.Errorf("invalid amount: %w", domain.ErrInvalidInput))
		return
	}

	clientSecret, err := h.intents.CreateIntent(r.Context(), amount, acct.ID)
	if err != nil {
		api.Fail(w, h.logger, h.dev, err)
		return
	}

	h.logger.Info("payment intent created", "account_id", acct.ID, "amount", amount)
	api.OK(w, h.logger, http.StatusOK, map[string]any{"clientSecret": clientSecret})
}
