package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thundertext/thunder-api/internal/config"
	"github.com/thundertext/thunder-api/internal/domain"
	"github.com/thundertext/thunder-api/internal/handler"
	"github.com/thundertext/thunder-api/internal/infra/cache"
	"github.com/thundertext/thunder-api/internal/infra/client"
	"github.com/thundertext/thunder-api/internal/infra/observability"
	"github.com/thundertext/thunder-api/internal/infra/resilience"
	"github.com/thundertext/thunder-api/internal/infra/supabase"
	"github.com/thundertext/thunder-api/internal/service"

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
		zap.Duration("shop_cache_ttl", cfg.ShopCacheTTL),
		zap.Duration("refresh_interval", cfg.RefreshInterval),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "thunder-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	shopCache := cache.New[*domain.Shop](cfg.ShopCacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	supabaseCB := resilience.NewCircuitBreaker("supabase")
	openaiCB := resilience.NewCircuitBreaker("openai")
	imagesCB := resilience.NewCircuitBreaker("images")
	bulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		supabaseCB,
		resilienceCfg,
		logger,
	)
	shopifyClient := client.NewShopifyClient(httpClient, cfg.ShopifyAPIKey, cfg.ShopifyAPISecret, cfg.CredentialTTL)
	textGen := client.NewOpenAIClient(httpClient, cfg.OpenAIBaseURL, cfg.OpenAIKey, cfg.TextModel, openaiCB, resilienceCfg)
	imageGen := client.NewImageClient(httpClient, cfg.ImageAPIBaseURL, cfg.ImageAPIKey, cfg.ImageModel, imagesCB, resilienceCfg)

	// --- Services ---
	keeper := service.NewCredentialKeeper(shopifyClient, cfg.RefreshInterval, cfg.SessionIdleMax, logger)
	keeper.Start()
	defer keeper.Stop()

	sessionSvc := service.NewSessionService(
		store, shopifyClient, keeper, shopCache,
		cfg.ShopifyAPIKey, cfg.ShopifyAPISecret, cfg.AppURL,
		metrics, logger,
	)
	usageSvc := service.NewUsageService(store, metrics, logger)
	interviewSvc := service.NewInterviewService(store, logger)
	profileSvc := service.NewProfileService(store, store, textGen, usageSvc, metrics, logger)
	generationSvc := service.NewGenerationService(imageGen, textGen, profileSvc, usageSvc, bulkhead, metrics, logger)
	sampleSvc := service.NewSampleService(store, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Session:    sessionSvc,
		Interview:  interviewSvc,
		Profile:    profileSvc,
		Generation: generationSvc,
		Usage:      usageSvc,
		Samples:    sampleSvc,
	}, cfg.ShopifyAPISecret, metrics, logger)

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
