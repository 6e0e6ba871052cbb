package payment

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/crescendo-labs/music-school-api/pkg/config"
)

// Intent is the client-usable handle returned by the gateway.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
}

// StripeGateway creates payment intents against the Stripe API.
type StripeGateway struct {
	api      *client.API
	currency string
}

// NewStripeGateway builds a gateway from configuration.
func NewStripeGateway(cfg config.StripeConfig) *StripeGateway {
	api := client.New(cfg.SecretKey, nil)
	currency := cfg.Currency
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &StripeGateway{api: api, currency: currency}
}

// CreateIntent asks Stripe for a payment intent of the given amount in minor units.
func (g *StripeGateway) CreateIntent(ctx context.Context, amount int64) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params:             stripe.Params{Context: ctx},
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(g.currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Amount: pi.Amount}, nil
}
