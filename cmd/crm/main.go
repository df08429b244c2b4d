package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldline/crm-bff-go/internal/config"
	"github.com/fieldline/crm-bff-go/internal/handler"
	"github.com/fieldline/crm-bff-go/internal/infra/cache"
	"github.com/fieldline/crm-bff-go/internal/infra/observability"
	"github.com/fieldline/crm-bff-go/internal/infra/resilience"
	"github.com/fieldline/crm-bff-go/internal/infra/supabase"
	"github.com/fieldline/crm-bff-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Duration("jwt_refresh_ttl", cfg.JWTRefreshTTL),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required: all persistence lives in the managed backend")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "crm-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	// One shared cache: keys are structured, so every service carves out
	// its own namespace and org scope.
	appCache := cache.New[any](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")

	// --- Backend client ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cb,
		resilienceCfg,
		logger,
	)

	// --- Services ---
	authSvc := service.NewAuthService(store, store, appCache, metrics, logger,
		cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, cfg.BootstrapTimeout)
	orgsSvc := service.NewOrganizationsService(store, appCache, metrics, logger, cfg.InvitationTTL)
	peopleSvc := service.NewPeopleService(store, appCache, metrics, logger)
	dealsSvc := service.NewDealsService(store, appCache, metrics, logger)
	campaignsSvc := service.NewCampaignsService(store, store, appCache, metrics, logger)
	interactionsSvc := service.NewInteractionsService(store, appCache, metrics, logger)
	librarySvc := service.NewLibraryService(store, appCache, metrics, logger)
	dashboardSvc := service.NewDashboardService(store, appCache, metrics, logger)
	quickAddSvc := service.NewQuickAddService(appCache, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Auth:         authSvc,
		Orgs:         orgsSvc,
		People:       peopleSvc,
		Deals:        dealsSvc,
		Campaigns:    campaignsSvc,
		Interactions: interactionsSvc,
		Library:      librarySvc,
		Dashboard:    dashboardSvc,
		QuickAdd:     quickAddSvc,
	}, metrics, logger, cfg.CORSAllowedOrigins)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
