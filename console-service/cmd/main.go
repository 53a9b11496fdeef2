package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eaglebank/console/console-service/internal/command"
	"github.com/eaglebank/console/console-service/internal/config"
	"github.com/eaglebank/console/console-service/internal/handler"
	"github.com/eaglebank/console/console-service/internal/migrations"
	"github.com/eaglebank/console/console-service/internal/query"
	"github.com/eaglebank/console/console-service/internal/repository"
	"github.com/eaglebank/console/console-service/internal/service"
	"github.com/eaglebank/console/shared/events"
	"github.com/eaglebank/console/shared/logging"
	"github.com/eaglebank/console/shared/middleware"
	redisClient "github.com/eaglebank/console/shared/redis"
	"github.com/eaglebank/console/shared/utils"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	middleware.MustInitJWTSecret()

	// Database connection (source of truth)
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}

	if cfg.RunMigrations {
		if err := migrations.Up(context.Background(), db); err != nil {
			logger.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	// Redis connection (profile read model + audit stream)
	redis, err := redisClient.NewClient(redisClient.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redis.Close()

	hasher, err := utils.NewHasher(cfg.Hasher)
	if err != nil {
		logger.Fatal("invalid hasher", zap.Error(err))
	}

	// --- CQRS wiring ---
	publisher := events.NewPublisher(redis.Client, cfg.AuditStreamLen)
	auditor := events.NewAuditor(publisher, logger)

	store := repository.NewPostgresAccountStore(db)
	readRepo := repository.NewAccountReadRepository(store, redis.Client, cfg.ProfileCacheTTL, logger)
	auditRepo := repository.NewAuditRepository(db)

	commandSvc := command.NewAccountCommandService(store, readRepo, hasher, auditor)
	querySvc := query.NewAccountQueryService(store, readRepo, hasher, auditor)
	accountHandler := handler.NewAccountHandler(service.New(commandSvc, querySvc), logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(logger, accountHandler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Audit subscriber persists every audit event emitted above.
	recorder := command.NewAuditRecorder(auditRepo, logger)
	go func() {
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    "console-service-group",
			Consumer: cfg.ConsumerName,
			Stream:   events.AuditStream,
			Handler:  recorder.HandleAuditEvent,
			Logger:   logger,
		})
		if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("audit subscriber stopped", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("shutting down")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("console service starting", zap.String("port", cfg.Port), zap.String("hasher", cfg.Hasher))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

// newRouter mounts the console routes. Every account route verifies the
// bearer token itself; the gateway only forwards it.
func newRouter(logger *zap.Logger, accounts *handler.AccountHandler) *gin.Engine {
	router := gin.New()
	router.Use(middleware.LoggingMiddleware(logger)...)
	router.Use(middleware.MetricsMiddleware())

	router.GET("/health", handler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1/console/users", middleware.AuthMiddleware())
	accounts.Register(v1)
	return router
}
