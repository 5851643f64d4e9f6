package controllers

import (
	apperrors "github.com/pawaaan9/ictb-donations/errors"
	"github.com/pawaaan9/ictb-donations/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError logs err with its cause and answers with the kind's status and
// a message that never carries upstream detail.
func respondError(c *gin.Context, log *zap.Logger, fallback string, err error) {
	status := apperrors.StatusFor(apperrors.KindOf(err))
	message := fallback
	if appErr, ok := apperrors.As(err); ok && appErr.Kind != apperrors.KindUpstream {
		message = appErr.Message
	}

	l := logger.For(c.Request.Context(), log).With(
		zap.String("kind", string(apperrors.KindOf(err))),
		zap.Error(err),
	)
	if status >= 500 {
		l.Error(fallback)
	} else {
		l.Warn(fallback)
	}

	_ = c.Error(err)
	c.JSON(status, gin.H{"error": message})
}
