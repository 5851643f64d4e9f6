package controllers

import (
	"net/http"

	"github.com/pawaaan9/ictb-donations/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BricksController struct {
	bricks services.BrickService
	logger *zap.Logger
}

func NewBricksController(bricks services.BrickService, logger *zap.Logger) *BricksController {
	return &BricksController{bricks: bricks, logger: logger}
}

// GetBricks handles GET /bricks.
func (bc *BricksController) GetBricks(c *gin.Context) {
	stats, err := bc.bricks.GetBrickStats(c.Request.Context())
	if err != nil {
		respondError(c, bc.logger, "Failed to fetch brick data", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
