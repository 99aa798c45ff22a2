// Package payment is the thin bridge to the card-payment provider: it
// creates payment intents and reconciles provider webhook events against
// stored orders.
package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// StripeIntents creates provider-side payment intents in a fixed currency.
type StripeIntents struct {
	api      *client.API
	currency string
}

func NewStripeIntents(secretKey, currency string) *StripeIntents {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeIntents{api: api, currency: currency}
}

// CreateIntent requests an intent for the amount in minor units, tagged
// with the requesting account, and returns the client-usable secret.
func (s *StripeIntents) CreateIntent(ctx context.Context, amount decimal.Decimal, accountID string) (string, error) {
	minorUnits := amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minorUnits),
		Currency: stripe.String(s.currency),
	}
	params.Context = ctx
	params.AddMetadata("accountId", accountID)

	intent, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	return intent.ClientSecret, nil
}
