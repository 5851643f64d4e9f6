package services

import (
	"context"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"
)

// StripeGateway is the slice of the Stripe API the donation flow depends on.
type StripeGateway interface {
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error)
	ConstructEvent(payload []byte, signatureHeader string) (stripe.Event, error)
}

type stripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway uses a per-instance client rather than the package-level
// stripe.Key so tests and the server never share credentials.
func NewStripeGateway(secretKey, webhookSecret string) StripeGateway {
	return &stripeGateway{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
	}
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	params.Context = ctx
	return g.api.CheckoutSessions.New(params)
}

func (g *stripeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	return g.api.CheckoutSessions.Get(sessionID, params)
}

// ConstructEvent verifies the signature over the raw body with Stripe's
// default tolerance. Events from a newer API version are still accepted.
func (g *stripeGateway) ConstructEvent(payload []byte, signatureHeader string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}
