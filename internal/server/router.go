package server

import (
	"github.com/gin-gonic/gin"

	"github.com/healthcost-ai/backend/internal/auth"
	"github.com/healthcost-ai/backend/internal/config"
	"github.com/healthcost-ai/backend/internal/database"
)

// NewRouter builds the API router with all middleware and routes
func NewRouter(h *Handler, authSvc *auth.Service, cfg *config.Config, db *database.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CORS(cfg.AllowedOrigins))
	router.Use(Metrics(db))
	router.Use(RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	// Public
	router.GET("/", h.Root)
	router.GET("/risk-factors", h.RiskFactors)
	router.POST("/auth/register", h.Register)
	router.POST("/auth/login", h.Login)
	router.POST("/billing/webhook", h.StripeWebhook)

	// Bearer token required
	protected := router.Group("/")
	protected.Use(RequireAuth(authSvc))
	protected.POST("/predict", h.Predict)
	protected.GET("/health-metrics", h.HealthMetrics)
	protected.GET("/predictions/history", h.History)
	protected.GET("/analytics/trends", h.AnalyticsTrends)
	protected.GET("/model/performance", h.ModelPerformance)
	protected.POST("/feedback", h.Feedback)
	protected.POST("/billing/checkout", h.CreateCheckout)

	return router
}
