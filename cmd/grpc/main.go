package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-production-service/config"
	"github.com/fekuna/omnipos-production-service/internal/auth"
	"github.com/fekuna/omnipos-production-service/internal/production"
	"github.com/fekuna/omnipos-production-service/internal/stock"
	"github.com/fekuna/omnipos-production-service/internal/store/pgtx"
	"github.com/fekuna/omnipos-production-service/migrations"
	"github.com/fekuna/omnipos-production-service/pkg/broker"
	"github.com/fekuna/omnipos-production-service/pkg/cache"
	"github.com/fekuna/omnipos-production-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-production-service/pkg/httpserver"
	"github.com/fekuna/omnipos-production-service/pkg/logger"
	"github.com/fekuna/omnipos-production-service/pkg/search"

	auditH "github.com/fekuna/omnipos-production-service/internal/audit/handler"
	auditRepoPkg "github.com/fekuna/omnipos-production-service/internal/audit/repository"
	auditUCPkg "github.com/fekuna/omnipos-production-service/internal/audit/usecase"

	stockH "github.com/fekuna/omnipos-production-service/internal/stock/handler"
	stockListenerPkg "github.com/fekuna/omnipos-production-service/internal/stock/listener"
	stockRepoPkg "github.com/fekuna/omnipos-production-service/internal/stock/repository"
	stockUCPkg "github.com/fekuna/omnipos-production-service/internal/stock/usecase"

	recipeH "github.com/fekuna/omnipos-production-service/internal/recipe/handler"
	recipeRepoPkg "github.com/fekuna/omnipos-production-service/internal/recipe/repository"
	recipeUCPkg "github.com/fekuna/omnipos-production-service/internal/recipe/usecase"

	prodH "github.com/fekuna/omnipos-production-service/internal/production/handler"
	prodUCPkg "github.com/fekuna/omnipos-production-service/internal/production/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
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

	if cfg.Postgres.AutoMigrate {
		if err := postgres.Migrate(db, migrations.FS, migrations.Dir); err != nil {
			appLogger.Fatal("Could not apply migrations", zap.Error(err))
		}
		appLogger.Info("Database migrations applied")
	}

	// 4. Initialize Repositories
	auditRepo := auditRepoPkg.NewPGRepository(db)
	stockRepo := stockRepoPkg.NewPGRepository(db)
	recipeRepo := recipeRepoPkg.NewPGRepository(db)
	txManager := pgtx.NewTxManager(db)

	// 5. Initialize Redis
	// Redis only backs the snapshot cache and the advisory production lock, so the
	// service keeps running without it.
	var snapshotCache stock.SnapshotCache
	var locker production.Locker
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Redis (cache and lock disabled)", zap.Error(err))
	} else {
		defer redisClient.Close()
		snapshotCache = redisClient
		locker = redisClient
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 5.5 Initialize Kafka
	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.PurchaseTopic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer kafkaConsumer.Close()
	appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.PurchaseTopic))

	kafkaProducer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.ProductionTopic,
	})
	defer kafkaProducer.Close()

	// 5.8 Initialize Elasticsearch
	var indexer auditUCPkg.Indexer
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch (ledger search disabled)", zap.Error(err))
	} else {
		indexer = esClient
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		for index, mapping := range auditUCPkg.Indexes() {
			if err := esClient.EnsureIndex(ctx, index, mapping); err != nil {
				appLogger.Warn("Could not create index", zap.String("index", index), zap.Error(err))
			}
		}
		cancel()
	}

	// 6. Initialize UseCases
	auditUC := auditUCPkg.NewAuditUseCase(auditRepo, indexer, appLogger)
	stockUC := stockUCPkg.NewStockUseCase(stockRepo, txManager, auditUC, snapshotCache,
		time.Duration(cfg.Production.CacheTTLSeconds)*time.Second, appLogger)
	recipeUC := recipeUCPkg.NewRecipeUseCase(recipeRepo, txManager, stockUC, appLogger)
	prodUC := prodUCPkg.NewProductionUseCase(stockUC, recipeUC, auditUC, txManager, prodUCPkg.Options{
		MaxConflictRetries: cfg.Production.MaxConflictRetries,
		LockTTL:            time.Duration(cfg.Production.LockTTLSeconds) * time.Second,
		Locker:             locker,
		Publisher:          production.NewEventPublisher(kafkaProducer),
	}, appLogger)

	// 6.5 Initialize Listeners
	purchaseListener := stockListenerPkg.NewPurchaseListener(kafkaConsumer, stockUC, appLogger)

	// Start Listener
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go purchaseListener.Start(ctx)

	// 7. Initialize Handlers
	auditHandler := auditH.NewAuditHandler(auditUC, appLogger)
	stockHandler := stockH.NewStockHandler(stockUC, appLogger)
	recipeHandler := recipeH.NewRecipeHandler(recipeUC, appLogger)
	prodHandler := prodH.NewProductionHandler(prodUC, appLogger)

	// 8. Start gRPC Server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(auth.ContextInterceptor()),
	)

	// Register Services
	auditH.Register(grpcServer, auditHandler)
	stockH.Register(grpcServer, stockHandler)
	recipeH.Register(grpcServer, recipeHandler)
	prodH.Register(grpcServer, prodHandler)

	// Register Reflection
	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server", zap.String("port", port))

	// 9. Start HTTP Server (health, metrics)
	httpServer := httpserver.New(cfg.Server.HTTPAddr, cfg.Metrics.Enabled, db.PingContext)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("http server stopped", zap.Error(err))
		}
	}()
	appLogger.Info("Starting HTTP server", zap.String("addr", cfg.Server.HTTPAddr))

	// Graceful Shutdown
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn("http server shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}
