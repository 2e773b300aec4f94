package router

import (
	"log/slog"
	"net/http"
	"time"

	"notigate/internal/common"
	"notigate/internal/config"
	"notigate/internal/domain/notification"
	"notigate/internal/middleware"

	"github.com/gin-gonic/gin"
)

// New creates and configures the Gin router with all middleware and routes.
func New(
	cfg *config.Config,
	rateLimiter *middleware.RateLimiter,
	notificationHandler *notification.Handler,
) *gin.Engine {
	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()

	// Global middleware stack (order matters)
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())

	// CORS headers only make sense when origins are configured; this API
	// is service-to-service by default.
	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(middleware.CORSOptions{
			Origins:          cfg.CORS.AllowedOrigins,
			Methods:          cfg.CORS.AllowedMethods,
			Headers:          cfg.CORS.AllowedHeaders,
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           time.Duration(cfg.CORS.MaxAgeSec) * time.Second,
		}))
	}

	r.Use(rateLimiter.Middleware())
	r.Use(gin.Logger())

	// Public routes
	r.GET("/health", healthCheck)

	// Protected API routes (API key required)
	api := r.Group("/api/v1")
	if len(cfg.Auth.APIKeys) > 0 {
		api.Use(middleware.Auth(cfg.Auth.APIKeys))
	} else {
		slog.Warn("api key auth disabled, no auth.api_keys configured")
	}
	notificationHandler.RegisterRoutes(api)

	return r
}

// healthCheck handles GET /health
func healthCheck(c *gin.Context) {
	common.Success(c, http.StatusOK, gin.H{
		"status":  "ok",
		"service": "notigate",
	})
}
