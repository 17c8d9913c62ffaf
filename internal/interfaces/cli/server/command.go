package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	applicense "github.com/keygate-io/keygate/internal/application/license"
	"github.com/keygate-io/keygate/internal/application/verification"
	"github.com/keygate-io/keygate/internal/domain/shared/events"
	"github.com/keygate-io/keygate/internal/infrastructure/auth"
	"github.com/keygate-io/keygate/internal/infrastructure/config"
	"github.com/keygate-io/keygate/internal/infrastructure/crypto"
	"github.com/keygate-io/keygate/internal/infrastructure/database"
	"github.com/keygate-io/keygate/internal/infrastructure/geoip"
	"github.com/keygate-io/keygate/internal/infrastructure/migration"
	"github.com/keygate-io/keygate/internal/infrastructure/notification"
	"github.com/keygate-io/keygate/internal/infrastructure/persistence/seeds"
	"github.com/keygate-io/keygate/internal/infrastructure/ratelimit"
	"github.com/keygate-io/keygate/internal/infrastructure/repository"
	"github.com/keygate-io/keygate/internal/infrastructure/token"
	httpRouter "github.com/keygate-io/keygate/internal/interfaces/http"
	"github.com/keygate-io/keygate/internal/interfaces/http/handlers"
	"github.com/keygate-io/keygate/internal/interfaces/http/middleware"
	"github.com/keygate-io/keygate/internal/shared/goroutine"
	"github.com/keygate-io/keygate/internal/shared/logger"
)

var (
	env                string
	skipMigrationCheck bool
)

// NewCommand creates the server command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Long:  `Start the Keygate HTTP server with the configured verification pipeline and dev API.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().BoolVar(&skipMigrationCheck, "skip-migration-check", false, "Skip migration status check on startup")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(mapEnvToGinMode(env))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode == "debug"); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	logger.Info("starting server", "environment", env)

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	if err := checkMigrations(); err != nil {
		return err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		// Degraded mode: the rate limiter fails open and the geo cache
		// falls through to live lookups.
		log.Warnw("redis unavailable", "addr", cfg.Redis.GetAddr(), "error", err)
	}
	cancelPing()

	secretBox, err := crypto.NewSecretBox(&cfg.Crypto)
	if err != nil {
		return fmt.Errorf("failed to initialize secret box: %w", err)
	}
	tokens := token.NewConfirmationService(cfg.Token.Secret, cfg.Token.TTLMinutes)
	geoResolver := geoip.NewHTTPResolver(&cfg.GeoIP, redisClient, log)
	hasher := auth.NewBcryptKeyHasher(cfg.Auth.BcryptCost)

	dispatcher := events.NewInMemoryEventDispatcher(100)
	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start event dispatcher: %w", err)
	}
	defer func() {
		if err := dispatcher.Stop(); err != nil {
			log.Errorw("failed to stop event dispatcher", "error", err)
		}
	}()

	sinks := []events.EventHandler{
		notification.NewLogSink(log),
		notification.NewWebhookSink(cfg.Notify.WebhookURL, log),
		notification.NewEmailSink(cfg.Notify.Email, log),
	}
	for _, sink := range sinks {
		if err := dispatcher.Subscribe(verification.EventTypeVerification, sink); err != nil {
			return fmt.Errorf("failed to subscribe notification sink: %w", err)
		}
	}

	db := database.Get()
	licenseRepo := repository.NewLicenseRepository(db, log)
	productRepo := repository.NewProductRepository(db, log)
	blacklistRepo := repository.NewBlacklistRepository(db, log)
	apiKeyRepo := repository.NewAPIKeyRepository(db, log)
	statsRepo := repository.NewStatsRepository(db, log)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	err = seeds.SeedAPIKeys(seedCtx, apiKeyRepo, hasher, log)
	cancelSeed()
	if err != nil {
		return fmt.Errorf("failed to seed API keys: %w", err)
	}

	verifyService := verification.NewService(
		licenseRepo,
		productRepo,
		blacklistRepo,
		secretBox,
		tokens,
		geoResolver,
		statsRepo,
		dispatcher,
		log,
	)
	licenseService := applicense.NewService(licenseRepo, productRepo, secretBox, log)

	var rateLimitMW gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.NewRedisRateLimiter(redisClient, cfg.RateLimit.RequestsPerMin)
		rateLimitMW = middleware.RateLimit(limiter, log)
	}

	router := httpRouter.NewRouter(httpRouter.RouterParams{
		Logger:           log,
		VerifyHandler:    handlers.NewVerifyHandler(verifyService, log),
		LicenseHandler:   handlers.NewLicenseHandler(licenseService, log),
		ProductHandler:   handlers.NewProductHandler(productRepo, log),
		BlacklistHandler: handlers.NewBlacklistHandler(blacklistRepo, log),
		StatsHandler:     handlers.NewStatsHandler(statsRepo, log),
		HealthHandler:    handlers.NewHealthHandler(db),
		RateLimit:        rateLimitMW,
		DevAuth:          middleware.DevKeyAuth(apiKeyRepo, hasher, log),
	})
	router.SetupRoutes(cfg)

	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      router.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	goroutine.SafeGo(log, "http-server", func() {
		logger.Info("server starting",
			"address", cfg.Server.GetAddr(),
			"mode", cfg.Server.Mode)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", "error", err)
		}
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	logger.Info("server exited gracefully")
	return nil
}

func checkMigrations() error {
	if skipMigrationCheck {
		logger.Info("skipping migration check")
		return nil
	}

	scriptsPath, err := filepath.Abs("./migrations")
	if err != nil {
		logger.Warn("failed to resolve migrations path", "error", err)
		return nil
	}

	migrator := migration.NewGooseMigrator(scriptsPath)
	version, err := migrator.Version(database.Get())
	if err != nil {
		logger.Warn("failed to check migration status", "error", err)
		return nil
	}

	logger.Info("current migration version", "version", version)
	return nil
}

func mapEnvToGinMode(environment string) string {
	switch environment {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}
