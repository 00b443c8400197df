package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "exchangedesk/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"exchangedesk/internal/auth"
	"exchangedesk/internal/backup"
	"exchangedesk/internal/cache"
	"exchangedesk/internal/config"
	"exchangedesk/internal/handler"
	"exchangedesk/internal/logger"
	"exchangedesk/internal/router"
	"exchangedesk/internal/seed"
	"exchangedesk/internal/service"
	"exchangedesk/internal/store"
)

const version = "1.0.0"

// @title Exchange Desk Admin API
// @version 1.0
// @description Admin backend of a currency-exchange desk: two-factor login, currencies, rates, users and office settings.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zapLogger, cleanup, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer cleanup()

	for _, key := range cfg.InsecureDefaults() {
		zapLogger.Warn("using development default, set it before deploying", zap.String("key", key))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seedFile, err := seed.Open(cfg.SeedFile)
	if err != nil {
		zapLogger.Fatal("load seed", zap.Error(err))
	}

	// Optional off-site snapshots
	storeOpts := []store.Option{store.WithLogger(zapLogger)}
	var snapshots *backup.Snapshotter
	if cfg.Backup.Enabled() {
		uploader, err := backup.NewS3Uploader(ctx, cfg.Backup)
		if err != nil {
			zapLogger.Fatal("backup init", zap.Error(err))
		}
		snapshots = backup.NewSnapshotter(uploader, cfg.Backup.Prefix, zapLogger)
		storeOpts = append(storeOpts, store.WithSnapshotHook(snapshots.Hook()))
		zapLogger.Info("s3 snapshots enabled", zap.String("bucket", cfg.Backup.Bucket))
	}

	dataStore := store.New(cfg.DataFile, storeOpts...)
	if err := dataStore.Initialize(ctx, seedFile.Document(time.Now().UTC())); err != nil {
		zapLogger.Fatal("data store init", zap.String("path", cfg.DataFile), zap.Error(err))
	}

	passwords := seedFile.Passwords()
	for email, password := range cfg.BootstrapPasswords {
		passwords[email] = password
	}

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.SessionTTL)
	totpService := auth.NewTOTPService(cfg.MFAIssuer)
	pendingStore := newPendingStore(ctx, cfg, zapLogger)

	// Initialize services
	credentialService := service.NewCredentialService(dataStore, passwords, zapLogger)
	sessionService := service.NewSessionService(dataStore, jwtService, zapLogger)
	authService := service.NewAuthService(dataStore, credentialService, sessionService, totpService, pendingStore, service.MFAConfig{
		SharedSecret: cfg.MFASecret,
		AllowShared:  cfg.MFAAllowShared,
		PendingTTL:   cfg.MFAPendingTTL,
	}, zapLogger)
	currencyService := service.NewCurrencyService(dataStore)
	rateService := service.NewRateService(dataStore)
	userService := service.NewUserService(dataStore, credentialService, zapLogger)
	siteService := service.NewSiteService(dataStore)

	if _, err := credentialService.BootstrapDefaults(ctx); err != nil {
		zapLogger.Fatal("bootstrap passwords", zap.Error(err))
	}
	if _, err := sessionService.PruneExpired(ctx); err != nil {
		zapLogger.Fatal("prune sessions", zap.Error(err))
	}

	e := echo.New()
	e.HideBanner = true

	// Register routes
	router.Register(
		e,
		cfg,
		zapLogger,
		sessionService,
		handler.NewHealthHandler(dataStore, version),
		handler.NewAuthHandler(authService, zapLogger),
		handler.NewCurrencyHandler(currencyService),
		handler.NewRateHandler(rateService),
		handler.NewUserHandler(userService),
		handler.NewSiteHandler(siteService, currencyService, rateService),
	)

	swaggerHost := cfg.SwaggerHost
	if swaggerHost == "" {
		swaggerHost = "localhost:" + cfg.ServerPort
	}
	zapLogger.Info("swagger documentation available", zap.String("url", "http://"+swaggerHost+"/swagger/index.html"))

	go func() {
		addr := ":" + cfg.ServerPort
		zapLogger.Info("server listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server shutdown", zap.Error(err))
	}
	if snapshots != nil {
		snapshots.Wait()
	}
}

// newPendingStore uses Redis when it is configured and reachable, and an
// in-process store otherwise.
func newPendingStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) auth.PendingStore {
	if cfg.RedisAddr == "" {
		return auth.NewMemoryPendingStore()
	}
	client := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := client.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, keeping pending logins in memory",
			zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = client.Close()
		return auth.NewMemoryPendingStore()
	}
	return auth.NewCachePendingStore(client)
}
