package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thriftshop/storefront/config"
	"github.com/thriftshop/storefront/internal/app/controller"
	"github.com/thriftshop/storefront/internal/app/repository"
	"github.com/thriftshop/storefront/internal/app/service"
	"github.com/thriftshop/storefront/internal/db"
	"github.com/thriftshop/storefront/internal/middleware"
	"github.com/thriftshop/storefront/internal/router"
	"github.com/thriftshop/storefront/internal/scheduler"
	"github.com/thriftshop/storefront/internal/storage"
	"github.com/thriftshop/storefront/internal/websocket"
	"github.com/thriftshop/storefront/pkg/logger"
	"github.com/thriftshop/storefront/pkg/mailer"
	"github.com/thriftshop/storefront/pkg/payment/razorpay"
	"github.com/thriftshop/storefront/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel, logFormat := "info", "json"
	if cfg.Server.Environment == "development" {
		logLevel, logFormat = "debug", "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting storefront API server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Token blacklist: Redis when configured, process memory otherwise
	var blacklist middleware.TokenBlacklist
	if cfg.Redis.Enabled() {
		client, err := redis.Connect(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", err)
		}
		defer client.Close()
		blacklist = redis.NewBlacklist(client)
	} else {
		logger.Warn("Redis not configured, revoked tokens are kept in memory", nil)
		blacklist = middleware.NewMemoryBlacklist()
	}

	gateway, err := razorpay.NewClient(razorpay.Config{
		KeyID:     cfg.Payment.Razorpay.KeyID,
		KeySecret: cfg.Payment.Razorpay.KeySecret,
		BaseURL:   cfg.Payment.Razorpay.BaseURL,
		Currency:  cfg.Payment.Razorpay.Currency,
	})
	if err != nil {
		logger.Fatal("Failed to configure payment gateway", err)
	}

	var mail mailer.Mailer = mailer.LogMailer{}
	if cfg.Mail.SendGridAPIKey != "" {
		sg, err := mailer.NewSendGrid(cfg.Mail.SendGridAPIKey, cfg.Mail.FromAddress, cfg.Mail.FromName)
		if err != nil {
			logger.Fatal("Failed to configure mailer", err)
		}
		mail = sg
	} else {
		logger.Warn("SENDGRID_API_KEY not set, mail is logged instead of sent", nil)
	}

	s3Storage, err := storage.NewS3Storage(ctx, &cfg.S3)
	if err != nil {
		logger.Fatal("Failed to configure S3 storage", err)
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	// Initialize repositories
	database := db.GetDB()
	userRepo := repository.NewUserRepository(database)
	productRepo := repository.NewProductRepository(database)
	cartRepo := repository.NewCartRepository(database)
	orderRepo := repository.NewOrderRepository(database)

	// Initialize services
	authService := service.NewAuthService(userRepo, blacklist, cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	productService := service.NewProductService(productRepo, repository.NewTaxonomyRepository(database))
	cartService := service.NewCartService(cartRepo, productRepo, hub)
	wishlistService := service.NewWishlistService(repository.NewWishlistRepository(database), productRepo)
	shippingService := service.NewShippingService(repository.NewShippingRepository(database), productRepo)
	orderService := service.NewOrderService(orderRepo, cartRepo, productRepo, userRepo, shippingService, gateway, mail, hub)
	abandonedCartService := service.NewAbandonedCartService(cartRepo, userRepo, mail, cfg.Mail.StorefrontURL, gateway.Currency())

	if cfg.Scheduler.Enabled {
		reminders := scheduler.NewAbandonedCartScheduler(abandonedCartService, cfg.Scheduler.AbandonedCartSpec)
		if err := reminders.Start(); err != nil {
			logger.Fatal("Failed to start abandoned cart scheduler", err)
		}
		defer reminders.Stop()
	}

	// Setup router
	r := router.NewRouter(
		controller.NewAuthController(authService),
		controller.NewProductController(productService),
		controller.NewCartController(cartService),
		controller.NewWishlistController(wishlistService),
		controller.NewOrderController(orderService),
		controller.NewShippingController(shippingService),
		controller.NewUploadController(s3Storage),
		controller.NewEventsController(hub, cfg.CORS.AllowedOrigins),
		middleware.NewAuthMiddleware(cfg.JWT.Secret, blacklist),
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
