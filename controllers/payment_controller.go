package controllers

import (
	"net/http"

	"github.com/pawaaan9/ictb-donations/config"
	apperrors "github.com/pawaaan9/ictb-donations/errors"
	"github.com/pawaaan9/ictb-donations/models"
	"github.com/pawaaan9/ictb-donations/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentController serves checkout creation and the success page lookup.
type PaymentController struct {
	checkout services.CheckoutService
	cfg      *config.Config
	logger   *zap.Logger
}

func NewPaymentController(checkout services.CheckoutService, cfg *config.Config, logger *zap.Logger) *PaymentController {
	return &PaymentController{checkout: checkout, cfg: cfg, logger: logger}
}

// CreatePaymentSession handles POST /create-payment-session.
func (pc *PaymentController) CreatePaymentSession(c *gin.Context) {
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, pc.logger, "Failed to create payment session", apperrors.New(apperrors.KindInvalidRequest, "Invalid or empty cart items", err))
		return
	}

	base := services.ResolveBaseURL(pc.cfg.PublicDomain, services.RequestHeaders(c.Request))
	sessionID, err := pc.checkout.CreatePaymentSession(c.Request.Context(), &req, base.URL)
	if err != nil {
		respondError(c, pc.logger, "Failed to create payment session", err)
		return
	}

	c.JSON(http.StatusOK, models.CreateSessionResponse{SessionID: sessionID})
}

// VerifyPayment handles POST /verify-payment.
func (pc *PaymentController) VerifyPayment(c *gin.Context) {
	var req models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, pc.logger, "Failed to verify payment session", apperrors.New(apperrors.KindInvalidRequest, "Session ID is required", err))
		return
	}

	verification, err := pc.checkout.VerifyPayment(c.Request.Context(), req.SessionID)
	if err != nil {
		respondError(c, pc.logger, "Failed to verify payment session", err)
		return
	}

	c.JSON(http.StatusOK, verification)
}
