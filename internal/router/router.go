// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tubetrade/dealdesk/internal/config"
	"github.com/tubetrade/dealdesk/internal/handlers"
	"github.com/tubetrade/dealdesk/internal/middleware"
	"github.com/tubetrade/dealdesk/internal/services"
)

// Dependencies are the external collaborators. A nil Locker falls back to the
// in-process locker; a nil FeeGateway disables online fee payment.
type Dependencies struct {
	Locker     services.DealLocker
	FeeGateway services.FeeGateway
	Mailer     services.Mailer
}

type Services struct {
	Auth          *services.AuthService
	Ads           *services.AdService
	Chats         *services.ChatService
	Notifications *services.NotificationService
	Workflow      *services.DealWorkflow
	Deals         *services.DealService
	AdminDeals    *services.AdminDealService
	Fees          *services.FeeService
}

func BuildServices(db *gorm.DB, cfg *config.Config, deps Dependencies) *Services {
	locker := deps.Locker
	if locker == nil {
		locker = services.NewLocalDealLocker()
	}
	mailer := deps.Mailer
	if mailer == nil {
		mailer = services.NewSMTPMailer(cfg.Email)
	}

	chatService := services.NewChatService(db)
	notificationService := services.NewNotificationService(db, chatService, mailer, cfg)
	workflow := services.NewDealWorkflow(db, locker, notificationService, cfg.Redis.LockWait)

	return &Services{
		Auth:          services.NewAuthService(db, cfg),
		Ads:           services.NewAdService(db),
		Chats:         chatService,
		Notifications: notificationService,
		Workflow:      workflow,
		Deals:         services.NewDealService(db, workflow),
		AdminDeals:    services.NewAdminDealService(db, workflow, notificationService),
		Fees:          services.NewFeeService(db, workflow, deps.FeeGateway, cfg.Payment.Currency),
	}
}

func Initialize(db *gorm.DB, cfg *config.Config, svc *Services) *gin.Engine {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(svc.Auth)
	adHandler := handlers.NewAdHandler(svc.Ads)
	chatHandler := handlers.NewChatHandler(svc.Chats)
	dealHandler := handlers.NewDealHandler(svc.Deals, svc.Fees)
	adminHandler := handlers.NewAdminHandler(svc.AdminDeals)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
	if cfg.Server.AuditLog {
		r.Use(middleware.AuditLogMiddleware(db))
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		dbStatus := "ok"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = http.StatusServiceUnavailable
			dbStatus = "unavailable"
		}
		c.JSON(status, gin.H{
			"status":   http.StatusText(status),
			"database": dbStatus,
		})
	})

	api := r.Group("/api")
	{
		// Authentication routes
		auth := api.Group("/auth")
		{
			limited := auth.Group("")
			limited.Use(middleware.AuthRateLimit(cfg.Server.AuthRateLimitRPM, cfg.Server.AuthRateLimitBurst))
			limited.POST("/register", authHandler.Register)
			limited.POST("/login", authHandler.Login)

			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		// Ad listings
		ads := api.Group("/ads")
		{
			ads.GET("", adHandler.ListAds)
			ads.GET("/mine", middleware.AuthRequired(), adHandler.ListMyAds)
			ads.GET("/:id", adHandler.GetAd)
			ads.POST("", middleware.AuthRequired(), adHandler.CreateAd)
		}

		// Buyer/seller chats
		chats := api.Group("/chats")
		chats.Use(middleware.AuthRequired())
		{
			chats.POST("", chatHandler.OpenChat)
			chats.GET("", chatHandler.ListChats)
			chats.GET("/:id/messages", chatHandler.ListMessages)
			chats.POST("/:id/messages", chatHandler.SendMessage)
		}

		// Deals
		deals := api.Group("/deals")
		deals.Use(middleware.AuthRequired())
		{
			deals.POST("", dealHandler.CreateDeal)
			deals.GET("", dealHandler.GetDeals)
			deals.POST("/agree", dealHandler.AgreeToDeal)
			deals.GET("/:id", dealHandler.GetDeal)
			deals.POST("/:id/dispute", dealHandler.RaiseDispute)
			deals.POST("/:id/fee/intent", dealHandler.CreateFeeIntent)
			deals.POST("/:id/fee/confirm", dealHandler.ConfirmFee)
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			adminDeals := admin.Group("/deals")
			{
				adminDeals.GET("", adminHandler.ListDeals)
				adminDeals.GET("/:dealId", adminHandler.GetDeal)
				adminDeals.GET("/:dealId/history", adminHandler.GetHistory)
				adminDeals.POST("/:dealId/fee-paid", adminHandler.MarkFeePaid)
				adminDeals.POST("/:dealId/agent-email-sent", adminHandler.MarkAgentEmailSent)
				adminDeals.POST("/:dealId/rights-given", adminHandler.ConfirmRightsGiven)
				adminDeals.POST("/:dealId/timer-completed", adminHandler.MarkTimerCompleted)
				adminDeals.POST("/:dealId/confirm-primary-owner", adminHandler.ConfirmPrimaryOwnerMade)
				adminDeals.POST("/:dealId/complete", adminHandler.CompleteDeal)
				adminDeals.POST("/:dealId/cancel", adminHandler.CancelDeal)
			}

			admin.POST("/notifications/retry", adminHandler.RetryNotifications)
		}
	}

	return r
}
