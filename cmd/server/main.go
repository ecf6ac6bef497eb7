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

	"github.com/copytrade-hub/internal/config"
	"github.com/copytrade-hub/internal/copytrading"
	"github.com/copytrade-hub/internal/handler"
	"github.com/copytrade-hub/internal/middleware"
	"github.com/copytrade-hub/internal/models"
	"github.com/copytrade-hub/internal/repository"
	"github.com/copytrade-hub/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Build info (injected at build time via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize file logging
	if err := middleware.InitLogger("logs"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis
	rdb := initRedis(cfg)

	// Auto migrate database
	if err := autoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	tradeRepo := repository.NewTradeRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	copyTradeRepo := repository.NewCopyTradeRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Initialize the copy-trade propagation engine
	engineLog := middleware.Logger()
	writer := copytrading.NewWriter(copyTradeRepo, notificationRepo, subscriptionRepo, engineLog)
	riskGate := copytrading.NewRiskGate(copyTradeRepo, writer, engineLog)
	evaluator := copytrading.Evaluator{SkipNegativeValue: cfg.Fanout.SkipNegativeValue}
	coordinator := copytrading.NewCoordinator(
		subscriptionRepo,
		riskGate,
		writer,
		evaluator,
		cfg.Fanout.Concurrency,
		cfg.Fanout.SubscriberTimeout,
		engineLog,
	)
	dispatcher := copytrading.NewDispatcher(engineLog)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.JWT)
	tradeService := service.NewTradeService(
		tradeRepo,
		userRepo,
		copyTradeRepo,
		coordinator,
		writer,
		dispatcher,
	)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, userRepo, notificationRepo)
	notificationService := service.NewNotificationService(notificationRepo, rdb)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	tradeHandler := handler.NewTradeHandler(tradeService)
	traderHandler := handler.NewTraderHandler(tradeService)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	// Create Gin router
	router := gin.Default()

	// Add request logging middleware (logs all requests with error details)
	router.Use(middleware.RequestLoggerMiddleware())

	// Add CORS middleware
	router.Use(corsMiddleware())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"version":    Version,
			"commit":     Commit,
			"build_time": BuildTime,
			"time":       time.Now().Unix(),
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Auth routes (public)
		authHandler.RegisterRoutes(v1)

		authMiddleware := middleware.AuthMiddleware(authService)

		// Trade and copy-trade ledger routes (protected)
		tradeHandler.RegisterRoutes(v1, authMiddleware)

		// Trader directory (public) and profile routes (protected)
		traderHandler.RegisterRoutes(v1, authMiddleware)

		// Subscription routes (protected)
		subscriptionHandler.RegisterRoutes(v1, authMiddleware)

		// Notification routes (protected)
		notificationHandler.RegisterRoutes(v1, authMiddleware)
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 10 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Drain in-flight fan-outs before closing connections
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Printf("Dispatcher shutdown interrupted: %v", err)
	}

	// Close Redis connection
	if err := rdb.Close(); err != nil {
		log.Printf("Error closing Redis connection: %v", err)
	}

	log.Println("Server exited properly")
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.Server.Mode == "release" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	// TranslateError lets unique-violation errors surface as
	// gorm.ErrDuplicatedKey, which the copy-trade ledger relies on for
	// idempotent fan-out.
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Trade{},
		&models.Subscription{},
		&models.CopySettings{},
		&models.CopyTrade{},
		&models.Notification{},
	)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
