package routes

import (
	"context"

	"github.com/pawaaan9/ictb-donations/config"
	"github.com/pawaaan9/ictb-donations/controllers"
	"github.com/pawaaan9/ictb-donations/middleware"

	"github.com/gin-gonic/gin"
)

type Controllers struct {
	Payment *controllers.PaymentController
	Webhook *controllers.WebhookController
	Bricks  *controllers.BricksController
	Health  *controllers.HealthController
}

// RegisterRoutes mounts every donation endpoint. ctx bounds the rate
// limiter's background sweep.
func RegisterRoutes(ctx context.Context, r *gin.Engine, cfg *config.Config, h Controllers) {
	// Checkout creation is the only route that costs money upstream.
	r.POST("/create-payment-session", middleware.RateLimitMiddleware(ctx, cfg.RateLimit), h.Payment.CreatePaymentSession)
	r.POST("/verify-payment", h.Payment.VerifyPayment)

	// Called by Stripe, authenticated by signature only.
	r.POST("/webhook", h.Webhook.HandleStripeWebhook)
	r.GET("/webhook", h.Webhook.ListPurchases)

	r.GET("/bricks", h.Bricks.GetBricks)
	r.GET("/health", h.Health.Health)
	if cfg.DebugEndpoints {
		r.GET("/debug-urls", h.Health.DebugURLs)
	}
}
