// Package main is the entry point for the pharmaledger API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pharmaledger/internal/app"
	"pharmaledger/internal/domain/auth"
	v1 "pharmaledger/internal/infrastructure/http/v1"
	"pharmaledger/pkg/logger"
)

func main() {
	if err := app.LoadDotEnv(".env"); err != nil {
		fmt.Printf("failed to read .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := app.NewLogger(cfg)
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting pharmaledger server", "env", cfg.Env, "storage", cfg.StorageBackend)

	backend, err := app.OpenBackend(ctx, cfg, app.OpenOptions{Migrate: true})
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer backend.Close()

	// --- JWT ---
	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:         cfg.JWTSecret,
		Issuer:         cfg.JWTIssuer,
		AccessTokenTTL: auth.DefaultJWTConfig(cfg.JWTSecret).AccessTokenTTL,
	})
	if err != nil {
		log.Fatalw("failed to create jwt service", "error", err)
	}

	// --- Router ---
	routerCfg := backend.RouterConfig(jwtService)
	routerCfg.Logger = log
	routerCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	routerCfg.Debug = cfg.Development()

	router, err := v1.NewRouter(routerCfg)
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting",
			"port", cfg.Port,
			"idempotency", routerCfg.Idempotency != nil,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
