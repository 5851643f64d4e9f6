package services

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pawaaan9/ictb-donations/config"
	apperrors "github.com/pawaaan9/ictb-donations/errors"
	"github.com/pawaaan9/ictb-donations/logger"
	"github.com/pawaaan9/ictb-donations/models"
	aws_pkg "github.com/pawaaan9/ictb-donations/pkg/aws"
	"github.com/pawaaan9/ictb-donations/repository"

	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

const (
	EventCheckoutSessionCompleted   = "checkout.session.completed"
	EventPaymentIntentSucceeded     = "payment_intent.succeeded"
	EventPaymentIntentPaymentFailed = "payment_intent.payment_failed"
)

// WebhookResult describes what a delivery did. It is for logs and tests and
// never reaches Stripe.
type WebhookResult struct {
	EventID   string
	EventType string
	Applied   bool
	Duplicate bool
}

// WebhookService authenticates Stripe deliveries and applies completed
// checkouts to the brick counter exactly once per session.
type WebhookService interface {
	// CheckConfiguration fails when the Stripe secrets are not set.
	CheckConfiguration(ctx context.Context) error
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (*WebhookResult, error)
}

type webhookServiceImpl struct {
	gateway     StripeGateway
	repo        repository.BrickRepository
	cfg         config.StripeConfig
	snsClient   aws_pkg.SNSPublisher
	snsTopicArn string
	metrics     *aws_pkg.MetricsClient
	logger      *zap.Logger
}

func NewWebhookService(
	gateway StripeGateway,
	repo repository.BrickRepository,
	cfg config.StripeConfig,
	snsClient aws_pkg.SNSPublisher,
	snsTopicArn string,
	metrics *aws_pkg.MetricsClient,
	logger *zap.Logger,
) WebhookService {
	return &webhookServiceImpl{
		gateway:     gateway,
		repo:        repo,
		cfg:         cfg,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		metrics:     metrics,
		logger:      logger,
	}
}

func (s *webhookServiceImpl) CheckConfiguration(ctx context.Context) error {
	if s.cfg.SecretKey == "" {
		logger.For(ctx, s.logger).Error("STRIPE_SECRET_KEY is not defined")
		return apperrors.Configuration("Server configuration error: Stripe key missing")
	}
	if s.cfg.WebhookSecret == "" {
		logger.For(ctx, s.logger).Error("STRIPE_WEBHOOK_SECRET is not defined")
		return apperrors.Configuration("Server configuration error: Webhook secret missing")
	}
	return nil
}

func (s *webhookServiceImpl) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (*WebhookResult, error) {
	log := logger.For(ctx, s.logger)

	if err := s.CheckConfiguration(ctx); err != nil {
		return nil, err
	}
	if signatureHeader == "" {
		s.recordMetric(ctx, aws_pkg.MetricWebhookRejected)
		return nil, apperrors.InvalidSignature("Webhook signature missing", nil)
	}

	event, err := s.gateway.ConstructEvent(payload, signatureHeader)
	if err != nil {
		log.Warn("webhook signature verification failed", zap.Error(err))
		s.recordMetric(ctx, aws_pkg.MetricWebhookRejected)
		return nil, apperrors.InvalidSignature("Webhook signature verification failed", err)
	}

	result := &WebhookResult{EventID: event.ID, EventType: string(event.Type)}
	log = log.With(zap.String("event_id", event.ID), zap.String("event_type", result.EventType))

	switch result.EventType {
	case EventCheckoutSessionCompleted:
		s.handleCheckoutCompleted(ctx, log, event, result)
	case EventPaymentIntentSucceeded:
		log.Info("payment intent succeeded", zap.String("payment_intent", objectID(event)))
	case EventPaymentIntentPaymentFailed:
		log.Info("payment failed", zap.String("payment_intent", objectID(event)))
	default:
		log.Info("unhandled event type")
	}
	return result, nil
}

func (s *webhookServiceImpl) handleCheckoutCompleted(ctx context.Context, log *zap.Logger, event stripe.Event, result *WebhookResult) {
	var session stripe.CheckoutSession
	if event.Data == nil || json.Unmarshal(event.Data.Raw, &session) != nil {
		log.Warn("could not decode checkout session, skipping")
		return
	}
	log = log.With(zap.String("session_id", session.ID))

	bricks := BrickCountFromMetadata(session.Metadata)
	if bricks == 0 {
		log.Warn("brickCount is missing or zero, not updating counter", zap.Any("metadata", session.Metadata))
		return
	}

	created, err := s.repo.ApplyPurchase(ctx, session.ID, bricks)
	if err != nil {
		// Stripe is still acknowledged; a failed write is an under-count, not a retry.
		log.Error("failed to apply purchase", zap.Int64("bricks", bricks), zap.Error(err))
		s.recordMetric(ctx, aws_pkg.MetricCounterStoreErrors)
		return
	}
	if !created {
		result.Duplicate = true
		log.Info("replayed checkout session, counter unchanged", zap.Int64("bricks", bricks))
		s.recordMetric(ctx, aws_pkg.MetricWebhookDuplicates)
		return
	}

	result.Applied = true
	log.Info("bricks sponsored",
		zap.Int64("bricks", bricks),
		zap.Int64("amount_total", session.AmountTotal),
		zap.String("currency", string(session.Currency)),
	)
	if err := s.metrics.RecordValue(ctx, aws_pkg.MetricBricksSponsored, float64(bricks), nil); err != nil {
		log.Warn("failed to record sponsored metric", zap.Error(err))
	}
	s.publishDonation(ctx, log, &session, bricks)
}

// BrickCountFromMetadata reads brickCount as a base-10 integer. Anything
// absent, malformed or non-positive counts as zero.
func BrickCountFromMetadata(md map[string]string) int64 {
	raw, ok := md[MetadataBrickCount]
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func (s *webhookServiceImpl) publishDonation(ctx context.Context, log *zap.Logger, session *stripe.CheckoutSession, bricks int64) {
	if s.snsClient == nil || s.snsTopicArn == "" {
		return
	}
	msg, err := json.Marshal(models.DonationEvent{
		Type:        models.DonationEventBricksSponsored,
		SessionID:   session.ID,
		Bricks:      bricks,
		AmountTotal: session.AmountTotal,
		Currency:    string(session.Currency),
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		log.Warn("failed to encode donation event", zap.Error(err))
		return
	}
	if err := s.snsClient.Publish(ctx, s.snsTopicArn, msg); err != nil {
		log.Warn("failed to publish donation event", zap.Error(err))
	}
}

func (s *webhookServiceImpl) recordMetric(ctx context.Context, name string) {
	if err := s.metrics.RecordCount(ctx, name, nil); err != nil {
		s.logger.Warn("failed to record metric", zap.String("metric", name), zap.Error(err))
	}
}

func objectID(event stripe.Event) string {
	if event.Data == nil {
		return ""
	}
	var obj struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(event.Data.Raw, &obj)
	return obj.ID
}
