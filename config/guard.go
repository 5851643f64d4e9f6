package config

import (
	"strings"

	"go.uber.org/zap"
)

// Variables the browser needs (publishable key) and variables that must
// never leave the server.
var (
	RequiredClientVars = []string{"STRIPE_PUBLISHABLE_KEY"}
	RequiredServerVars = []string{"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET"}
)

const (
	WarnDomainUnset     = "PUBLIC_DOMAIN not set - using request headers for URL detection"
	WarnTestPublishable = "Using test Stripe publishable key in production"
	WarnTestSecret      = "Using test Stripe secret key in production"
)

// EnvStatus is the outcome of validating the environment.
type EnvStatus struct {
	IsValid  bool     `json:"isValid"`
	Missing  []string `json:"missing"`
	Warnings []string `json:"warnings"`
}

// Validate checks the configuration for missing secrets and risky settings.
// It never fails; callers decide what to do with the result.
func Validate(cfg *Config) EnvStatus {
	values := map[string]string{
		"STRIPE_PUBLISHABLE_KEY": cfg.Stripe.PublishableKey,
		"STRIPE_SECRET_KEY":      cfg.Stripe.SecretKey,
		"STRIPE_WEBHOOK_SECRET":  cfg.Stripe.WebhookSecret,
	}

	missing := []string{}
	for _, name := range append(append([]string{}, RequiredClientVars...), RequiredServerVars...) {
		if strings.TrimSpace(values[name]) == "" {
			missing = append(missing, name)
		}
	}

	warnings := []string{}
	if cfg.PublicDomain == "" {
		warnings = append(warnings, WarnDomainUnset)
	}
	if cfg.IsProduction() {
		if strings.Contains(cfg.Stripe.PublishableKey, "pk_test") {
			warnings = append(warnings, WarnTestPublishable)
		}
		if strings.Contains(cfg.Stripe.SecretKey, "sk_test") {
			warnings = append(warnings, WarnTestSecret)
		}
	}

	return EnvStatus{
		IsValid:  len(missing) == 0,
		Missing:  missing,
		Warnings: warnings,
	}
}

// Guard holds the environment status computed once at startup.
type Guard struct {
	status EnvStatus
}

func NewGuard(cfg *Config) *Guard {
	return &Guard{status: Validate(cfg)}
}

// Status returns a copy of the cached status.
func (g *Guard) Status() EnvStatus {
	return EnvStatus{
		IsValid:  g.status.IsValid,
		Missing:  append([]string{}, g.status.Missing...),
		Warnings: append([]string{}, g.status.Warnings...),
	}
}

// LogStatus writes the cached status to the logger.
func (g *Guard) LogStatus(logger *zap.Logger) {
	if !g.status.IsValid {
		logger.Error("Missing required environment variables", zap.Strings("missing", g.status.Missing))
	} else {
		logger.Info("All required environment variables are set")
	}
	if len(g.status.Warnings) > 0 {
		logger.Warn("Environment warnings", zap.Strings("warnings", g.status.Warnings))
	}
}
