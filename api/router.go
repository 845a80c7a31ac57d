package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/siteintel/api/handler"
	"github.com/use-agent/siteintel/api/middleware"
	"github.com/use-agent/siteintel/config"
	"github.com/use-agent/siteintel/pipeline"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(p *pipeline.Pipeline, results *pipeline.ResultStore, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/analyze", handler.Analyze(p))
	protected.GET("/analysis/:id", handler.GetAnalysis(results))

	return r
}
