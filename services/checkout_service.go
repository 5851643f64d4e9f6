package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pawaaan9/ictb-donations/config"
	apperrors "github.com/pawaaan9/ictb-donations/errors"
	"github.com/pawaaan9/ictb-donations/logger"
	"github.com/pawaaan9/ictb-donations/models"
	aws_pkg "github.com/pawaaan9/ictb-donations/pkg/aws"

	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

const (
	DonationType = "chaithya_bricks"

	MetadataTotalBricks  = "totalBricks"
	MetadataBrickCount   = "brickCount"
	MetadataDonationType = "donationType"

	donorMessageField = "donor_message"
	donorMessageLabel = "Optional Message for the Sacred Chaithya"
)

// CheckoutService creates hosted checkout sessions and reads them back for
// the success page.
type CheckoutService interface {
	CreatePaymentSession(ctx context.Context, req *models.CreateSessionRequest, baseURL string) (string, error)
	VerifyPayment(ctx context.Context, sessionID string) (*models.PaymentVerification, error)
}

type checkoutServiceImpl struct {
	gateway StripeGateway
	cfg     config.StripeConfig
	metrics *aws_pkg.MetricsClient
	logger  *zap.Logger
}

func NewCheckoutService(gateway StripeGateway, cfg config.StripeConfig, metrics *aws_pkg.MetricsClient, logger *zap.Logger) CheckoutService {
	return &checkoutServiceImpl{
		gateway: gateway,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *checkoutServiceImpl) CreatePaymentSession(ctx context.Context, req *models.CreateSessionRequest, baseURL string) (string, error) {
	if req == nil || len(req.Items) == 0 {
		return "", apperrors.InvalidRequest("Invalid or empty cart items")
	}
	for _, item := range req.Items {
		if item.Price <= 0 || math.IsNaN(item.Price) || math.IsInf(item.Price, 0) {
			return "", apperrors.InvalidRequest("Invalid or empty cart items")
		}
	}
	if s.cfg.SecretKey == "" {
		return "", apperrors.Configuration("Server configuration error: Stripe key missing")
	}

	params := s.buildSessionParams(req, baseURL)
	session, err := s.gateway.CreateCheckoutSession(ctx, params)
	if err != nil {
		return "", apperrors.Upstream("Failed to create payment session", err)
	}

	logger.For(ctx, s.logger).Info("checkout session created",
		zap.String("session_id", session.ID),
		zap.Int("bricks", len(req.Items)),
	)
	if err := s.metrics.RecordCount(ctx, aws_pkg.MetricCheckoutSessionsCreated, nil); err != nil {
		s.logger.Warn("failed to record checkout metric", zap.Error(err))
	}
	return session.ID, nil
}

// UnitAmount converts a major-unit price to minor units, rounding half away
// from zero.
func UnitAmount(price float64) int64 {
	return int64(math.Round(price * 100))
}

func (s *checkoutServiceImpl) buildSessionParams(req *models.CreateSessionRequest, baseURL string) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(s.currency()),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String("Sacred Brick - " + item.Section),
					Description: stripe.String(fmt.Sprintf("Sponsoring a brick in the %s section of the Sacred Chaithya", item.Section)),
				},
				UnitAmount: stripe.Int64(UnitAmount(item.Price)),
			},
			Quantity: stripe.Int64(1),
		})
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		LineItems:                lineItems,
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:               stripe.String(baseURL + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:                stripe.String(baseURL),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(s.shippingCountries()),
		},
		CustomFields: []*stripe.CheckoutSessionCustomFieldParams{
			{
				Key: stripe.String(donorMessageField),
				Label: &stripe.CheckoutSessionCustomFieldLabelParams{
					Type:   stripe.String("custom"),
					Custom: stripe.String(donorMessageLabel),
				},
				Type:     stripe.String("text"),
				Optional: stripe.Bool(true),
			},
		},
	}
	params.Metadata = sessionMetadata(req.Metadata, len(req.Items))
	return params
}

// sessionMetadata flattens caller metadata to strings and adds the derived
// keys, which always win over caller-supplied values.
func sessionMetadata(caller map[string]any, bricks int) map[string]string {
	md := make(map[string]string, len(caller)+3)
	for k, v := range caller {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			md[k] = val
		default:
			b, err := json.Marshal(val)
			if err != nil {
				continue
			}
			md[k] = string(b)
		}
	}
	count := strconv.Itoa(bricks)
	md[MetadataTotalBricks] = count
	md[MetadataBrickCount] = count
	md[MetadataDonationType] = DonationType
	return md
}

func (s *checkoutServiceImpl) currency() string {
	if s.cfg.Currency == "" {
		return "lkr"
	}
	return strings.ToLower(s.cfg.Currency)
}

func (s *checkoutServiceImpl) shippingCountries() []string {
	if len(s.cfg.ShippingCountries) == 0 {
		return []string{"LK"}
	}
	return s.cfg.ShippingCountries
}

func (s *checkoutServiceImpl) VerifyPayment(ctx context.Context, sessionID string) (*models.PaymentVerification, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperrors.InvalidRequest("Session ID is required")
	}
	if s.cfg.SecretKey == "" {
		return nil, apperrors.Configuration("Server configuration error: Stripe key missing")
	}

	session, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Upstream("Failed to verify payment session", err)
	}

	v := &models.PaymentVerification{
		SessionID:     session.ID,
		PaymentStatus: models.NormalizePaymentStatus(string(session.PaymentStatus)),
		AmountTotal:   session.AmountTotal,
		Currency:      string(session.Currency),
		Metadata:      session.Metadata,
		Created:       session.Created,
	}
	if v.Metadata == nil {
		v.Metadata = map[string]string{}
	}
	if session.CustomerDetails != nil {
		v.CustomerEmail = session.CustomerDetails.Email
	}
	return v, nil
}
