package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/wicaksana/pos-order-service/config"
	"github.com/wicaksana/pos-order-service/internal/auth"
	"github.com/wicaksana/pos-order-service/internal/events"
	ledgerH "github.com/wicaksana/pos-order-service/internal/ledger/handler"
	ledgerRepoPkg "github.com/wicaksana/pos-order-service/internal/ledger/repository"
	ledgerUCPkg "github.com/wicaksana/pos-order-service/internal/ledger/usecase"
	masterRepoPkg "github.com/wicaksana/pos-order-service/internal/masterdata/repository"
	purchaseH "github.com/wicaksana/pos-order-service/internal/purchase/handler"
	purchaseRepoPkg "github.com/wicaksana/pos-order-service/internal/purchase/repository"
	purchaseUCPkg "github.com/wicaksana/pos-order-service/internal/purchase/usecase"
	saleH "github.com/wicaksana/pos-order-service/internal/sale/handler"
	saleRepoPkg "github.com/wicaksana/pos-order-service/internal/sale/repository"
	saleUCPkg "github.com/wicaksana/pos-order-service/internal/sale/usecase"
	"github.com/wicaksana/pos-order-service/internal/sequence"
	"github.com/wicaksana/pos-order-service/pkg/broker"
	"github.com/wicaksana/pos-order-service/pkg/cache"
	"github.com/wicaksana/pos-order-service/pkg/database/postgres"
	"github.com/wicaksana/pos-order-service/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     false,
		DisableStacktrace: false,
	}
	if cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5. Initialize Kafka Producer
	producer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	})
	defer producer.Close()
	appLogger.Info("Connected to Kafka Producer",
		zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	publisher := events.NewKafkaPublisher(producer, appLogger)

	// 6. Initialize Repositories
	ledgerRepo := ledgerRepoPkg.NewPGRepository(db)
	masterRepo := masterRepoPkg.NewPGRepository(db)
	saleRepo := saleRepoPkg.NewPGRepository(db)
	purchaseRepo := purchaseRepoPkg.NewPGRepository(db)

	// 7. Initialize UseCases
	checker := auth.SetChecker{}
	ledgerUC := ledgerUCPkg.NewLedgerUseCase(ledgerRepo, redisClient, appLogger)
	saleAllocator := sequence.NewAllocator(saleRepo, appLogger)
	purchaseAllocator := sequence.NewAllocator(purchaseRepo, appLogger)
	saleUC := saleUCPkg.NewSaleUseCase(saleRepo, masterRepo, ledgerUC, saleAllocator, checker, publisher, appLogger)
	purchaseUC := purchaseUCPkg.NewPurchaseUseCase(purchaseRepo, masterRepo, ledgerUC, purchaseAllocator, checker, publisher, appLogger)

	// 8. Initialize Handlers
	saleHandler := saleH.NewSaleHandler(saleUC, appLogger)
	purchaseHandler := purchaseH.NewPurchaseHandler(purchaseUC, appLogger)
	ledgerHandler := ledgerH.NewLedgerHandler(ledgerUC, appLogger)

	// 9. Start HTTP Server
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	api := app.Group("/api/v1", auth.Middleware(cfg.JWT.SecretKey))
	saleHandler.Register(api)
	purchaseHandler.Register(api)
	ledgerHandler.Register(api)

	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	appLogger.Info("Starting HTTP server", zap.String("port", port))

	go func() {
		if err := app.Listen(port); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("shutdown error", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
