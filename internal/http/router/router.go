package router

import (
	"github.com/gin-gonic/gin"

	"github.com/skhokho/linkup-backend/internal/config"
	"github.com/skhokho/linkup-backend/internal/http/handlers"
	"github.com/skhokho/linkup-backend/internal/http/middleware"
	"github.com/skhokho/linkup-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	walletHandler *handlers.WalletHandler,
	catalogHandler *handlers.CatalogHandler,
	jobHandler *handlers.JobHandler,
	disputeHandler *handlers.DisputeHandler,
	reviewHandler *handlers.ReviewHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	seedHandler *handlers.SeedHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	if seedHandler != nil && cfg.Env == "development" {
		api.POST("/seed", seedHandler.Seed)
		api.GET("/seed", seedHandler.Seed)
	}

	authGroup := api.Group("/auth")
	authRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	authGroup.Use(authRateLimit)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	// Публичные маршруты
	api.GET("/ws", wsHandler.Handle)
	api.GET("/services", catalogHandler.ListServices)
	api.GET("/users/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.ListUserReviews)
	api.GET("/users/:id/rating", middleware.UUIDValidator("id"), reviewHandler.GetUserRating)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/profile", authHandler.GetMe)

		// Кошелёк
		protected.GET("/wallet", walletHandler.GetWallet)
		protected.POST("/wallet/deposit", walletHandler.Deposit)
		protected.POST("/wallet/withdraw", walletHandler.Withdraw)
		protected.POST("/wallet/transfer", walletHandler.Transfer)
		protected.POST("/wallet/reputation/convert", walletHandler.ConvertReputation)
		protected.GET("/wallet/transactions", walletHandler.ListTransactions)
		protected.GET("/wallet/reconcile", walletHandler.Reconcile)

		// Каталог услуг
		protected.POST("/services", catalogHandler.CreateService)
		protected.GET("/services/my", catalogHandler.ListMyServices)
		protected.GET("/services/:id", middleware.UUIDValidator("id"), catalogHandler.GetService)
		protected.DELETE("/services/:id", middleware.UUIDValidator("id"), catalogHandler.DeactivateService)
		protected.POST("/services/:id/hire", middleware.UUIDValidator("id"), jobHandler.Hire)

		// Работы
		protected.GET("/jobs/my", jobHandler.ListMyJobs)
		protected.GET("/jobs/:id", middleware.UUIDValidator("id"), jobHandler.GetJob)
		protected.POST("/jobs/:id/complete", middleware.UUIDValidator("id"), jobHandler.Complete)
		protected.POST("/jobs/:id/messages", middleware.UUIDValidator("id"), jobHandler.SendMessage)
		protected.GET("/jobs/:id/messages", middleware.UUIDValidator("id"), jobHandler.ListMessages)

		// Споры
		protected.POST("/jobs/:id/dispute", middleware.UUIDValidator("id"), disputeHandler.Raise)
		protected.GET("/jobs/:id/dispute", middleware.UUIDValidator("id"), disputeHandler.GetJobDispute)
		protected.GET("/disputes", disputeHandler.ListMyDisputes)
		protected.GET("/disputes/:id", middleware.UUIDValidator("id"), disputeHandler.GetDispute)

		// Отзывы
		protected.POST("/jobs/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.Rate)
		protected.GET("/jobs/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.ListJobReviews)

		// Арбитраж
		protected.GET("/admin/disputes", disputeHandler.ListOpenDisputes)
		protected.POST("/admin/disputes/:id/resolve", middleware.UUIDValidator("id"), disputeHandler.Resolve)
		protected.POST("/admin/jobs/:id/release", middleware.UUIDValidator("id"), disputeHandler.ForceRelease)
		protected.POST("/admin/jobs/:id/refund", middleware.UUIDValidator("id"), disputeHandler.ForceRefund)
	}

	return r
}
