package controllers

import (
	"net/http"

	apperrors "github.com/pawaaan9/ictb-donations/errors"
	"github.com/pawaaan9/ictb-donations/logger"
	"github.com/pawaaan9/ictb-donations/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Stripe caps event payloads well below this.
const maxWebhookBodyBytes = 65536

type WebhookController struct {
	webhooks services.WebhookService
	bricks   services.BrickService
	logger   *zap.Logger
}

func NewWebhookController(webhooks services.WebhookService, bricks services.BrickService, logger *zap.Logger) *WebhookController {
	return &WebhookController{webhooks: webhooks, bricks: bricks, logger: logger}
}

// HandleStripeWebhook handles POST /webhook. The body is read raw because the
// signature covers the exact bytes Stripe sent. Missing secrets are reported
// before the body is looked at.
func (wc *WebhookController) HandleStripeWebhook(c *gin.Context) {
	if err := wc.webhooks.CheckConfiguration(c.Request.Context()); err != nil {
		respondError(c, wc.logger, "Webhook processing failed", err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
	payload, err := c.GetRawData()
	if err != nil {
		respondError(c, wc.logger, "Webhook processing failed", apperrors.New(apperrors.KindInvalidRequest, "Invalid webhook body", err))
		return
	}

	result, err := wc.webhooks.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		respondError(c, wc.logger, "Webhook processing failed", err)
		return
	}

	logger.For(c.Request.Context(), wc.logger).Debug("webhook acknowledged",
		zap.String("event_id", result.EventID),
		zap.String("event_type", result.EventType),
		zap.Bool("applied", result.Applied),
		zap.Bool("duplicate", result.Duplicate),
	)
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// ListPurchases handles GET /webhook.
func (wc *WebhookController) ListPurchases(c *gin.Context) {
	listing, err := wc.bricks.ListPurchases(c.Request.Context())
	if err != nil {
		respondError(c, wc.logger, "Failed to fetch purchases", err)
		return
	}
	c.JSON(http.StatusOK, listing)
}
