package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notigate/internal/config"
	"notigate/internal/domain/notification"
	"notigate/internal/infra/claimstore"
	"notigate/internal/infra/dispatch"
	"notigate/internal/infra/eventsink"
	"notigate/internal/logger"
	"notigate/internal/middleware"
	"notigate/internal/router"
)

func main() {
	// Bootstrap logger until configuration is loaded
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Configured logger
	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(log)

	slog.Info("configuration loaded", "port", cfg.Server.Port, "mode", cfg.Server.Mode)

	// Context for background loops, cancelled on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ==========================================
	// Dependency Injection (Manual Wiring)
	// ==========================================

	// Claim store
	var claims notification.ClaimStore
	switch cfg.Store.Backend {
	case "redis":
		rs, err := claimstore.NewRedis(cfg.Store.Redis.Address, cfg.Store.Redis.Password, cfg.Store.Redis.DB)
		if err != nil {
			slog.Error("failed to initialize redis claim store", "error", err)
			os.Exit(1)
		}
		defer rs.Close()
		claims = rs
		slog.Info("redis claim store initialized", "address", cfg.Store.Redis.Address)
	default:
		ms := claimstore.NewMemory()
		go ms.Run(ctx, time.Duration(cfg.Store.SweepIntervalSec)*time.Second)
		claims = ms
		slog.Info("memory claim store initialized", "sweep_interval_sec", cfg.Store.SweepIntervalSec)
	}

	// Delivery delegate and suppression sink
	delegate := dispatch.NewLog()
	sink := eventsink.NewLog()

	// Rate-limit gate wrapping the delegate
	gate := notification.NewGate(delegate, claims, cfg.PolicySource(), sink)

	// Handler
	notificationHandler := notification.NewHandler(gate)

	// HTTP rate limiter with idle-bucket eviction
	rateLimiter := middleware.NewRateLimiter(
		cfg.RateLimit.RequestsPerSecond,
		cfg.RateLimit.Burst,
	)
	go rateLimiter.Run(ctx)

	// Router
	r := router.New(cfg, rateLimiter, notificationHandler)

	// ==========================================
	// HTTP Server with Graceful Shutdown
	// ==========================================

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	cancel()

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}
