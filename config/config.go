package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// TotalBricks is the fixed size of the monument, shared with the front end.
const TotalBricks int64 = 134500

const (
	StoreRedis    = "redis"
	StoreDynamoDB = "dynamodb"
)

type Config struct {
	Port           string `envconfig:"PORT" default:"8080"`
	Environment    string `envconfig:"APP_ENV" default:"development"`
	PublicDomain   string `envconfig:"PUBLIC_DOMAIN"`
	DebugEndpoints bool   `envconfig:"DEBUG_ENDPOINTS" default:"false"`

	Stripe    StripeConfig
	Store     StoreConfig
	AWS       AWSConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

type StripeConfig struct {
	SecretKey         string   `envconfig:"STRIPE_SECRET_KEY"`
	PublishableKey    string   `envconfig:"STRIPE_PUBLISHABLE_KEY"`
	WebhookSecret     string   `envconfig:"STRIPE_WEBHOOK_SECRET"`
	Currency          string   `envconfig:"CHECKOUT_CURRENCY" default:"lkr"`
	ShippingCountries []string `envconfig:"SHIPPING_COUNTRIES" default:"LK"`
	SecretsID         string   `envconfig:"STRIPE_SECRETS_ID"`
}

type StoreConfig struct {
	Backend       string `envconfig:"COUNTER_STORE" default:"redis"`
	RedisURL      string `envconfig:"REDIS_URL"`
	RedisToken    string `envconfig:"REDIS_TOKEN"`
	DynamoDBTable string `envconfig:"DYNAMODB_TABLE"`
}

type AWSConfig struct {
	DonationTopicARN  string `envconfig:"DONATION_SNS_TOPIC_ARN"`
	CloudWatchEnabled bool   `envconfig:"CLOUDWATCH_ENABLED" default:"false"`
}

type CORSConfig struct {
	AllowOrigins []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000"`
	MaxAge       time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type RateLimitConfig struct {
	PerMinute int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"100"`
	Burst     int           `envconfig:"RATE_LIMIT_BURST" default:"50"`
	TTL       time.Duration `envconfig:"RATE_LIMIT_TTL" default:"5m"`
}

// legacyAliases maps the variable names used by the previous Next.js
// deployment onto the current ones. The Upstash REST variables are not
// aliased: REDIS_URL must be a redis:// or rediss:// URL.
var legacyAliases = map[string]string{
	"NEXT_PUBLIC_STRIPE_PUBLISHABLE_KEY": "STRIPE_PUBLISHABLE_KEY",
	"NEXT_PUBLIC_DOMAIN":                 "PUBLIC_DOMAIN",
}

// LoadConfig reads an optional .env file and the process environment.
// Missing secrets are not an error here; the Guard reports them and the
// operations that need them fail with a configuration error.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	for legacy, current := range legacyAliases {
		if os.Getenv(current) == "" {
			if v := os.Getenv(legacy); v != "" {
				_ = os.Setenv(current, v)
			}
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	cfg.normalize()

	switch cfg.Store.Backend {
	case StoreRedis, StoreDynamoDB:
	default:
		return nil, fmt.Errorf("unknown COUNTER_STORE %q", cfg.Store.Backend)
	}

	return &cfg, nil
}

func (c *Config) normalize() {
	c.PublicDomain = strings.TrimSuffix(strings.TrimSpace(c.PublicDomain), "/")
	c.Stripe.Currency = strings.ToLower(strings.TrimSpace(c.Stripe.Currency))
	if c.Stripe.Currency == "" {
		c.Stripe.Currency = "lkr"
	}
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = StoreRedis
	}
	for i, country := range c.Stripe.ShippingCountries {
		c.Stripe.ShippingCountries[i] = strings.ToUpper(strings.TrimSpace(country))
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// StoreConfigured reports whether the selected counter store backend has
// everything it needs to connect.
func (c *Config) StoreConfigured() bool {
	switch c.Store.Backend {
	case StoreDynamoDB:
		return c.Store.DynamoDBTable != ""
	default:
		return c.Store.RedisURL != ""
	}
}

// NewTestConfig returns a fully populated configuration for tests.
func NewTestConfig() *Config {
	return &Config{
		Port:        "8889",
		Environment: "test",
		Stripe: StripeConfig{
			SecretKey:         "sk_test_123",
			PublishableKey:    "pk_test_123",
			WebhookSecret:     "whsec_test_123",
			Currency:          "lkr",
			ShippingCountries: []string{"LK"},
		},
		Store: StoreConfig{
			Backend:  StoreRedis,
			RedisURL: "redis://localhost:6379",
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"http://localhost:3000"},
			MaxAge:       time.Hour,
		},
		RateLimit: RateLimitConfig{
			PerMinute: 100,
			Burst:     50,
			TTL:       5 * time.Minute,
		},
	}
}
