package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	accountingapp "github.com/barbertime/backend/internal/application/accounting"
	accountinginfra "github.com/barbertime/backend/internal/infrastructure/accounting"
	"github.com/barbertime/backend/internal/infrastructure/auth"
	"github.com/barbertime/backend/internal/infrastructure/cache"
	"github.com/barbertime/backend/internal/infrastructure/config"
	"github.com/barbertime/backend/internal/infrastructure/logger"
	"github.com/barbertime/backend/internal/infrastructure/persistence"
	"github.com/barbertime/backend/internal/infrastructure/scheduler"
	"github.com/barbertime/backend/internal/interfaces/http/handler"
	"github.com/barbertime/backend/internal/interfaces/http/middleware"
	"github.com/barbertime/backend/internal/interfaces/http/router"
)

//	@title			Barbertime Backend API
//	@version		1.0
//	@description	Salon management backend with external accounting integrations (Fiken, Tripletex, Unimicro, DNB Regnskap)

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Barbertime Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	settingsRepo := persistence.NewGormProviderSettingsRepository(db.DB)
	mappingRepo := persistence.NewGormEntityMappingRepository(db.DB)
	syncLogRepo := persistence.NewGormSyncLogRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)

	// Unsynced counts cache: Redis with in-memory fallback for development
	countsCache, err := cache.NewCountsCacheFactory(cfg.Redis, cache.WithLogger(log)).CreateCache()
	if err != nil {
		log.Fatal("Failed to initialize counts cache", zap.Error(err))
	}

	// OAuth token manager, shared by the provider clients
	tokenManager := accountinginfra.NewTokenManager(settingsRepo, syncLogRepo, log)

	// Provider clients
	registry := accountinginfra.NewRegistry()
	registry.Register(accountinginfra.NewFikenClient(settingsRepo, tokenManager))
	registry.Register(accountinginfra.NewTripletexClient(settingsRepo, log))
	registry.Register(accountinginfra.NewUnimicroClient(settingsRepo, tokenManager))
	registry.Register(accountinginfra.NewDNBClient(settingsRepo, tokenManager))

	// Application services
	syncService := accountingapp.NewSyncService(
		registry, settingsRepo, mappingRepo, syncLogRepo, countsCache,
		customerRepo, orderRepo,
		accountingapp.SyncConfig{
			MaxConcurrency: cfg.Sync.MaxConcurrency,
			RequestTimeout: cfg.Sync.RequestTimeout,
		},
		log,
	)
	settingsService := accountingapp.NewSettingsService(
		registry, settingsRepo, mappingRepo, syncLogRepo, countsCache,
		customerRepo, orderRepo, log,
	)

	// Background sync scheduler for tenants with auto-sync enabled
	if cfg.Sync.AutoSyncEnabled {
		schedulerConfig := scheduler.DefaultAccountingSyncSchedulerConfig()
		schedulerConfig.Interval = cfg.Sync.Interval
		syncScheduler, err := scheduler.NewAccountingSyncScheduler(schedulerConfig, settingsRepo, syncService, log)
		if err != nil {
			log.Fatal("Failed to create sync scheduler", zap.Error(err))
		}
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := syncScheduler.Stop(stopCtx); err != nil {
				log.Error("Error stopping sync scheduler", zap.Error(err))
			}
		}()
		log.Info("Accounting sync scheduler started",
			zap.Duration("interval", schedulerConfig.Interval),
		)
	}

	// JWT verification for tokens minted by the identity service
	jwtService := auth.NewJWTService(cfg.JWT)

	// HTTP handlers
	accountingHandler := handler.NewAccountingHandler(settingsService, syncService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack: request ID, panic recovery, request logging,
	// security headers, CORS.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// API routes behind JWT authentication
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	r.Register(accountingHandler)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	r.Setup()

	// Simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
