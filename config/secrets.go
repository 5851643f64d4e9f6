package config

import (
	"context"
	"encoding/json"
	"fmt"
)

// SecretGetter fetches a named secret's string value.
type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

type stripeSecrets struct {
	SecretKey      string `json:"STRIPE_SECRET_KEY"`
	WebhookSecret  string `json:"STRIPE_WEBHOOK_SECRET"`
	PublishableKey string `json:"STRIPE_PUBLISHABLE_KEY"`
}

// ApplySecrets fills any unset Stripe keys from the JSON secret named by
// STRIPE_SECRETS_ID. Values already present in the environment win.
func ApplySecrets(ctx context.Context, cfg *Config, getter SecretGetter) error {
	if cfg.Stripe.SecretsID == "" || getter == nil {
		return nil
	}

	raw, err := getter.GetSecret(ctx, cfg.Stripe.SecretsID)
	if err != nil {
		return fmt.Errorf("failed to load stripe secrets: %w", err)
	}

	var s stripeSecrets
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return fmt.Errorf("stripe secret %s is not valid JSON: %w", cfg.Stripe.SecretsID, err)
	}

	if cfg.Stripe.SecretKey == "" {
		cfg.Stripe.SecretKey = s.SecretKey
	}
	if cfg.Stripe.WebhookSecret == "" {
		cfg.Stripe.WebhookSecret = s.WebhookSecret
	}
	if cfg.Stripe.PublishableKey == "" {
		cfg.Stripe.PublishableKey = s.PublishableKey
	}
	return nil
}
