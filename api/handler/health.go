package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/siteintel/models"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Health returns a handler for GET /api/v1/health. It is deliberately
// outside the auth group so monitoring probes always work.
func Health(startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:        "ok",
			Version:       Version,
			UptimeSeconds: int64(time.Since(startTime).Seconds()),
		})
	}
}
