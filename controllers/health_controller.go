package controllers

import (
	"net/http"
	"time"

	"github.com/pawaaan9/ictb-donations/config"
	"github.com/pawaaan9/ictb-donations/services"

	"github.com/gin-gonic/gin"
)

type HealthController struct {
	cfg   *config.Config
	guard *config.Guard
}

func NewHealthController(cfg *config.Config, guard *config.Guard) *HealthController {
	return &HealthController{cfg: cfg, guard: guard}
}

// Health handles GET /health. It reports which secrets are present, never
// their values.
func (hc *HealthController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":               "ok",
		"timestamp":            time.Now().UTC().Format(time.RFC3339Nano),
		"environment":          hc.cfg.Environment,
		"environmentVariables": hc.guard.Status(),
		"hasKeys": gin.H{
			"stripePublishable": hc.cfg.Stripe.PublishableKey != "",
			"stripeSecret":      hc.cfg.Stripe.SecretKey != "",
			"webhookSecret":     hc.cfg.Stripe.WebhookSecret != "",
			"domain":            hc.cfg.PublicDomain != "",
		},
	})
}

// DebugURLs handles GET /debug-urls, showing how redirect URLs would be built
// for this request.
func (hc *HealthController) DebugURLs(c *gin.Context) {
	base := services.ResolveBaseURL(hc.cfg.PublicDomain, services.RequestHeaders(c.Request))
	domain := hc.cfg.PublicDomain
	if domain == "" {
		domain = "not set"
	}

	c.JSON(http.StatusOK, gin.H{
		"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
		"environment": hc.cfg.Environment,
		"baseUrl":     base,
		"headers": gin.H{
			"host":                 c.Request.Host,
			"x-forwarded-proto":    c.GetHeader("X-Forwarded-Proto"),
			"x-forwarded-protocol": c.GetHeader("X-Forwarded-Protocol"),
			"x-forwarded-host":     c.GetHeader("X-Forwarded-Host"),
		},
		"environmentVariables": gin.H{
			"PUBLIC_DOMAIN": domain,
		},
		"generatedUrls": gin.H{
			"success": base.URL + "/success?session_id={CHECKOUT_SESSION_ID}",
			"cancel":  base.URL,
		},
	})
}
