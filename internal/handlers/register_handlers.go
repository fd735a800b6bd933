package handlers

import (
	"time"

	portssvc "github.com/poslink/loyalty-relay/internal/core/ports/services"
	"github.com/poslink/loyalty-relay/internal/middleware"
	"github.com/poslink/loyalty-relay/internal/platform/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	home := newHomeHandler(services.Queue)
	r.GET("/health", home.getHealth)

	registerWebhookRoutes(r, cfg, services)
	registerLoyaltyRoutes(r, services)
	registerAdminRoutes(r, cfg, services)
}

// registerWebhookRoutes wires the POS-facing ingestion surface, rate limited
// per client IP.
func registerWebhookRoutes(r *gin.Engine, cfg *config.Config, services *portssvc.ServiceContainer) {
	rate, err := limiter.NewRateFromFormatted(cfg.WebhookRateLimit)
	if err != nil {
		rate, _ = limiter.NewRateFromFormatted("300-M")
	}
	ipLimiter := limiter.New(memory.NewStore(), rate)

	webhookH := newWebhookHandler(services.Queue, services.POS)

	webhooks := r.Group("/webhooks", middleware.RateLimit(ipLimiter))
	webhooks.POST("/transaction", webhookH.handleTransactionEvent)
	webhooks.POST("/void", webhookH.handleVoidEvent)
}

// registerLoyaltyRoutes wires the browser-facing lookup surface under
// /api/v1/loyalty with permissive CORS for in-store tooling.
func registerLoyaltyRoutes(r *gin.Engine, services *portssvc.ServiceContainer) {
	corsConfig := cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		MaxAge:          12 * time.Hour,
	}

	loyaltyH := newLoyaltyHandler(services.Loyalty, services.Resolver, services.Processor)

	v1 := r.Group("/api/v1/loyalty", cors.New(corsConfig))
	v1.GET("/member/lookup", loyaltyH.lookupMember)
	v1.GET("/member/:memberID/vouchers", loyaltyH.listVouchers)
	v1.POST("/redeem-voucher", loyaltyH.redeemVoucher)
	v1.POST("/calculate-points", loyaltyH.calculatePoints)
}

// registerAdminRoutes wires the operator surface behind the static API key.
func registerAdminRoutes(r *gin.Engine, cfg *config.Config, services *portssvc.ServiceContainer) {
	adminH := newAdminHandler(services.Queue)

	admin := r.Group("/admin", middleware.AdminAPIKeyAuth(cfg.AdminAPIKey))
	admin.GET("/queue/stats", adminH.getQueueStats)
	admin.GET("/queue/job/:jobID", adminH.getJobStatus)
	admin.POST("/sync/historical", adminH.triggerHistoricalSync)
}
