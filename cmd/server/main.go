// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tubetrade/dealdesk/internal/config"
	"github.com/tubetrade/dealdesk/internal/database"
	"github.com/tubetrade/dealdesk/internal/i18n"
	"github.com/tubetrade/dealdesk/internal/router"
	"github.com/tubetrade/dealdesk/internal/services"
	"github.com/tubetrade/dealdesk/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	utils.SetupLogger(cfg.Environment, cfg.LogLevel)
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	if err := database.SeedInitialData(db, cfg.Admin); err != nil {
		log.Fatal("Failed to seed initial data:", err)
	}

	// Initialize i18n
	if err := i18n.Initialize(cfg.I18n.LocalesPath, cfg.I18n.DefaultLocale); err != nil {
		log.Fatal("Failed to initialize i18n:", err)
	}

	// External collaborators
	deps := router.Dependencies{
		Mailer: services.NewSMTPMailer(cfg.Email),
	}
	if cfg.Redis.Enabled {
		client, err := services.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis:", err)
		}
		defer client.Close()
		deps.Locker = services.NewRedisDealLocker(client, cfg.Redis.LockTTL)
	}
	if cfg.Payment.FeePaymentsEnabled {
		deps.FeeGateway = services.NewStripeFeeGateway(cfg.Payment.StripeSecretKey)
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	svc := router.BuildServices(db, cfg, deps)
	r := router.Initialize(db, cfg, svc)

	// Deliver queued deal notifications in the background
	dispatchCtx, stopDispatcher := context.WithCancel(context.Background())
	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		services.NewDispatcher(svc.Notifications, cfg.Notification.PollInterval).Run(dispatchCtx)
	}()

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := srv.Shutdown(ctx); err != nil {
		log.Println("Server forced to shutdown:", err)
	}

	stopDispatcher()
	<-dispatcherDone

	log.Println("Server exited")
}
