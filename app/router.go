package app

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/yx-elite/social-media-content-generator/app/logging"
	"github.com/yx-elite/social-media-content-generator/auth"
)

// NewRouter builds the shared HTTP router for both local and Lambda execution.
func NewRouter(s *Server, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.Middleware(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", logging.RequestIDHeader},
		ExposeHeaders: []string{logging.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))

	router.GET("/health", Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/webhooks/identity", s.IdentityWebhook)
	router.POST("/webhooks/payments", s.StripeWebhook)

	protected := router.Group("/")
	protected.Use(auth.Middleware(s.verifier, auth.MiddlewareConfig{
		AuthorizedParties: s.cfg.Identity.AuthorizedParties,
	}))
	protected.GET("/me", s.Me)
	protected.GET("/points", s.GetPoints)
	protected.POST("/points/debit", s.DebitPoints)
	protected.POST("/generation", s.Generate)
	protected.GET("/generation-history", s.History)
	protected.POST("/checkout-session", s.CreateCheckoutSession)
	protected.POST("/portal-session", s.CreatePortalSession)
	protected.GET("/subscription/:userId", s.GetSubscription)

	return router
}
