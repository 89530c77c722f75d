package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"easyfinance/internal/api"
	"easyfinance/internal/cache"
	"easyfinance/internal/cli"
	apphttp "easyfinance/internal/http"
	applog "easyfinance/internal/log"
	"easyfinance/internal/session"
)

func main() {
	cli.LoadEnvFile()
	bootLogger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(bootLogger)
	logger := cli.SetupLogger(cfg.LogLevel)

	store := cli.InitSessionStore(context.Background(), logger, cfg)

	cacheManager := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	if c, ok := store.(cache.Cleaner); ok {
		cacheManager.Register(c)
	}
	cacheManager.StartCleanup(cfg.SessionCleanupInterval)

	// Backend calls are bounded only by the request context.
	backend, err := api.New(cfg.APIBaseURL, nil)
	if err != nil {
		logger.Error("Failed to create backend client", "error", err, "url", cfg.APIBaseURL)
		os.Exit(1)
	}

	sessions := session.NewManager(store, cfg.SessionTTL, cfg.CookieSecure)
	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		BackendURL:         cfg.APIBaseURL,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		Logger:             logger,
		CacheManager:       cacheManager,
	}, backend, sessions)
	if err != nil {
		logger.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := store.Close(); err != nil {
			logger.Error("Failed to close session store", "error", err)
		}
	})

	go func() {
		logger.Info("Starting easyFinance server",
			"port", cfg.Port,
			"backend", backend.BaseURL(),
			"session_backend", cfg.SessionBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
