package main

import (
	"context"
	"embed"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/joy095/spaces/billing"
	"github.com/joy095/spaces/clients"
	"github.com/joy095/spaces/config"
	"github.com/joy095/spaces/config/db"
	redisclient "github.com/joy095/spaces/config/redis"
	"github.com/joy095/spaces/logger"
	"github.com/joy095/spaces/middlewares/cors"
	logger_middleware "github.com/joy095/spaces/middlewares/logger"
	"github.com/joy095/spaces/models/tax_models"
	"github.com/joy095/spaces/routes"
	"github.com/joy095/spaces/utils/mail"
)

//go:embed templates/email/*
var embeddedEmailTemplates embed.FS

func init() {
	logger.InitLoggers()
	config.LoadEnv()
}

func main() {
	cfg := config.Load()

	if err := db.Connect(cfg.DatabaseURL); err != nil {
		logger.ErrorLogger.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Migrate(migrateCtx, db.DB); err != nil {
		cancelMigrate()
		logger.ErrorLogger.Fatalf("Database migration failed: %v", err)
	}
	cancelMigrate()

	if err := mail.InitTemplates(embeddedEmailTemplates); err != nil {
		logger.ErrorLogger.Fatalf("Failed to load email templates: %v", err)
	}
	logger.InfoLogger.Info("Application: Email templates initialized.")

	planPrices, err := billing.ParsePlanPrices(cfg.PlanPrices)
	if err != nil {
		logger.ErrorLogger.Fatalf("Invalid SUBSCRIPTION_PLAN_PRICES: %v", err)
	}

	var rdb *redis.Client
	if client, err := redisclient.GetRedisClient(context.Background()); err != nil {
		logger.WarnLogger.Warnf("Redis unavailable, tax cache and rate limits disabled: %v", err)
	} else {
		rdb = client
		defer redisclient.CloseRedis()
	}

	deps := &routes.Deps{
		Config:     cfg,
		DB:         db.DB,
		Taxes:      tax_models.NewSnapshotCache(db.DB, rdb, time.Duration(cfg.TaxCacheTTLSeconds)*time.Second),
		Mailer:     mail.NewSMTPSender(cfg.SMTP),
		PlanPrices: planPrices,
	}

	if cfg.Razorpay.KeyID != "" && cfg.Razorpay.KeySecret != "" {
		deps.Gateway = clients.NewRazorpayClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	} else {
		logger.WarnLogger.Warn("Razorpay credentials not set; order creation disabled, payments verified by signature only")
	}

	if cfg.RabbitMQURL != "" {
		publisher, err := clients.NewAMQPPublisher(cfg.RabbitMQURL, clients.EventsExchange)
		if err != nil {
			logger.WarnLogger.Warnf("RabbitMQ unavailable, notifications disabled: %v", err)
		} else {
			deps.Events = publisher
			defer publisher.Close()
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.CorsMiddleware())
	r.Use(logger_middleware.GinLogger())

	routes.RegisterPaymentRoutes(r, deps)
	routes.RegisterBookingRoutes(r, deps)
	routes.RegisterBusinessRoutes(r, deps)
	routes.RegisterTaxConfigRoutes(r, deps)

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok from spaces service"})
	}
	r.GET("/health", health)
	r.HEAD("/health", health)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.InfoLogger.Infof("Server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorLogger.Fatalf("Server failed to listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.InfoLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorLogger.Errorf("Server forced to shutdown: %v", err)
	}
	logger.InfoLogger.Info("Server exited gracefully.")
}
