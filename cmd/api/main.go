// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/fungusmycelium/gestion-be/internal/adapters/ai"
	"github.com/fungusmycelium/gestion-be/internal/adapters/db"
	redis_a "github.com/fungusmycelium/gestion-be/internal/adapters/redis_adapter"
	"github.com/fungusmycelium/gestion-be/internal/adapters/storage"
	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/ports"
	"github.com/fungusmycelium/gestion-be/internal/core/services"
	"github.com/fungusmycelium/gestion-be/internal/handlers"
	"github.com/fungusmycelium/gestion-be/internal/handlers/middleware"
	"github.com/fungusmycelium/gestion-be/internal/pkg/config"
	"github.com/fungusmycelium/gestion-be/internal/pkg/logger"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	slogger := logger.SetupLogger("debug", "json")

	slogger.Info("starting gestion backend",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
	)

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx := context.Background()

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	if !cfg.IsProduction() {
		if err := runMigrations(ctx, cfg, slogger); err != nil {
			slogger.Error("failed to run migrations", slog.String("error", err.Error()))
			// Keep going in development; the schema may already be current.
		}
	}

	server := setupHTTPServer(cfg, deps, slogger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies
type dependencies struct {
	database       *db.Database
	redisClient    *redis.Client
	cache          ports.CacheRepository
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector

	salesHandler     *handlers.OrderHandler
	purchasesHandler *handlers.OrderHandler
	customerHandler  *handlers.CustomerHandler
	inventoryHandler *handlers.InventoryHandler
	dashboardHandler *handlers.DashboardHandler
	analysisHandler  *handlers.AnalysisHandler
	exportHandler    *handlers.ExportHandler
	importHandler    *handlers.ImportHandler
	healthHandler    *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.database != nil {
		d.database.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, slogger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	slogger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name))

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, slogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	slogger.Info("connecting to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port))

	redisClient := redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		PoolTimeout:     cfg.Redis.PoolTimeout,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	deps.redisClient = redisClient
	deps.cache = redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger)

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)

	// Object storage is optional; exports still stream without it.
	var store storage.ExportStore
	s3Store, err := storage.NewS3Store(ctx, &storage.S3Config{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.S3Endpoint,
		UsePathStyle:    cfg.AWS.UsePathStyle,
	}, slogger)
	if err != nil {
		slogger.Warn("object storage unavailable, export archiving disabled",
			slog.String("error", err.Error()))
	} else {
		store = s3Store
	}

	// AI projection backend. Nil means deterministic projections only.
	var projectionBackend ports.ProjectionService
	if openAI := ai.NewOpenAIProjection(&ai.Config{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     cfg.OpenAI.Timeout,
	}, slogger); openAI != nil {
		projectionBackend = openAI
	}

	// Repositories
	counterpartyRepo := db.NewCounterpartyRepository(database, slogger)
	documentRepo := db.NewDocumentRepository(database, slogger)
	inventoryRepo := db.NewInventoryRepository(database, slogger)
	finalizer := db.NewDocumentFinalizer(database, slogger)

	// Services
	documentService := services.NewDocumentService(documentRepo, slogger)
	catalogService := services.NewCatalogService(inventoryRepo, slogger)
	projector := services.NewProjector(projectionBackend, slogger)

	// Handlers
	deps.salesHandler = handlers.NewOrderHandler(domain.KindSale, documentService, finalizer, deps.cache, slogger)
	deps.purchasesHandler = handlers.NewOrderHandler(domain.KindPurchase, documentService, finalizer, deps.cache, slogger)
	deps.customerHandler = handlers.NewCustomerHandler(counterpartyRepo, slogger)
	deps.inventoryHandler = handlers.NewInventoryHandler(catalogService, slogger)
	deps.dashboardHandler = handlers.NewDashboardHandler(documentRepo, inventoryRepo, projector, deps.cache, slogger)
	deps.analysisHandler = handlers.NewAnalysisHandler(documentRepo, inventoryRepo, projector, deps.cache, slogger)
	deps.exportHandler = handlers.NewExportHandler(documentRepo, inventoryRepo, store, slogger)

	maxFileSize := int64(cfg.FileProcessing.PDFMaxSizeMB) * 1024 * 1024
	deps.importHandler = handlers.NewImportHandler(deps.asynqClient, database, slogger, maxFileSize, cfg.FileProcessing.TempDir)

	deps.healthHandler = handlers.NewHealthHandler(database, redisClient, deps.asynqInspector, cfg, slogger)

	slogger.Info("all dependencies initialized successfully")
	return deps, nil
}

func setupHTTPServer(cfg *config.Config, deps *dependencies, slogger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	registerRoutes(mux, deps, cfg)

	middlewares := []func(http.Handler) http.Handler{
		middleware.RequestID(cfg.Security.RequestIDHeader),
		middleware.Logger(slogger),
		middleware.Recovery(slogger),
	}
	if cfg.Security.RateLimitRequests > 0 {
		middlewares = append(middlewares, middleware.RateLimit(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration))
	}
	if len(cfg.Security.AllowedOrigins) > 0 {
		middlewares = append(middlewares, middleware.CORS(cfg.Security.AllowedOrigins))
	}

	handler := middleware.Chain(mux, middlewares...)
	if cfg.Security.SecureHeaders {
		handler = middleware.SecureHeaders(handler)
	}

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(slogger.Handler(), slog.LevelError),
	}
}

func registerRoutes(mux *http.ServeMux, deps *dependencies, cfg *config.Config) {
	apiV1 := "/api/v1"

	if cfg.Server.EnableHealthCheck {
		mux.HandleFunc("GET /health", deps.healthHandler.Health)
		mux.HandleFunc("GET /ready", deps.healthHandler.Readiness)
	}

	// Sales
	mux.HandleFunc("POST "+apiV1+"/sales", deps.salesHandler.Create)
	mux.HandleFunc("GET "+apiV1+"/sales", deps.salesHandler.List)
	mux.HandleFunc("GET "+apiV1+"/sales/{id}", deps.salesHandler.Get)
	mux.HandleFunc("DELETE "+apiV1+"/sales/{id}", deps.salesHandler.Delete)

	// Purchases
	mux.HandleFunc("POST "+apiV1+"/purchases", deps.purchasesHandler.Create)
	mux.HandleFunc("GET "+apiV1+"/purchases", deps.purchasesHandler.List)
	mux.HandleFunc("GET "+apiV1+"/purchases/{id}", deps.purchasesHandler.Get)
	mux.HandleFunc("DELETE "+apiV1+"/purchases/{id}", deps.purchasesHandler.Delete)

	// Counterparties
	mux.HandleFunc("GET "+apiV1+"/customers", deps.customerHandler.List)
	mux.HandleFunc("GET "+apiV1+"/customers/{id}", deps.customerHandler.Get)
	mux.HandleFunc("POST "+apiV1+"/customers", deps.customerHandler.Upsert)
	mux.HandleFunc("PUT "+apiV1+"/customers/{id}", deps.customerHandler.Upsert)
	mux.HandleFunc("DELETE "+apiV1+"/customers/{id}", deps.customerHandler.Delete)
	mux.HandleFunc("GET "+apiV1+"/customers/validate-rut", deps.customerHandler.ValidateRUT)

	// Inventory
	mux.HandleFunc("GET "+apiV1+"/inventory", deps.inventoryHandler.List)
	mux.HandleFunc("GET "+apiV1+"/inventory/{id}", deps.inventoryHandler.Get)
	mux.HandleFunc("POST "+apiV1+"/inventory", deps.inventoryHandler.Create)
	mux.HandleFunc("PUT "+apiV1+"/inventory/{id}", deps.inventoryHandler.Update)
	mux.HandleFunc("POST "+apiV1+"/inventory/{id}/adjust", deps.inventoryHandler.AdjustStock)
	mux.HandleFunc("DELETE "+apiV1+"/inventory/{id}", deps.inventoryHandler.Delete)

	// Dashboard and analysis
	mux.HandleFunc("GET "+apiV1+"/dashboard", deps.dashboardHandler.GetDashboard)
	mux.HandleFunc("GET "+apiV1+"/dashboard/projection", deps.dashboardHandler.GetProjection)
	mux.HandleFunc("GET "+apiV1+"/analysis", deps.analysisHandler.GetAnalysis)

	// Exports
	mux.HandleFunc("GET "+apiV1+"/export/sales.xlsx", deps.exportHandler.ExportSales)
	mux.HandleFunc("GET "+apiV1+"/export/inventory.xlsx", deps.exportHandler.ExportInventory)

	// Imports
	mux.HandleFunc("POST "+apiV1+"/import/invoice", deps.importHandler.ImportInvoice)
	mux.HandleFunc("GET "+apiV1+"/import/status/{jobId}", deps.importHandler.ImportStatus)
}

func runMigrations(ctx context.Context, cfg *config.Config, slogger *slog.Logger) error {
	slogger.Info("running database migrations")

	return db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		SourcePath:  cfg.Database.MigrationPath,
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}, slogger, 3)
}
