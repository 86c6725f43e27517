package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"portfolio-backtest/internal/api"
	"portfolio-backtest/internal/backtest"
	"portfolio-backtest/internal/data"
	"portfolio-backtest/internal/logger"
	"portfolio-backtest/internal/trace"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	defer func() { _ = log.Sync() }()

	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	dataDir := data.GetDefaultDataDir()
	if info, err := os.Stat(dataDir); err != nil || !info.IsDir() {
		log.Warnw("data directory not found", "data_dir", dataDir, "error", err)
	} else {
		log.Infow("serving datasets", "data_dir", dataDir)
	}

	if err := trace.Init(); err != nil {
		log.Warnw("tracing disabled", "error", err)
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	cache := data.NewRunCache[*backtest.Result](0)
	stopCleanup := make(chan struct{})
	cache.StartCleanup(5*time.Minute, stopCleanup)

	router := api.NewRouter(api.RouterOptions{
		DataDir: dataDir,
		Cache:   cache,
		Logger:  log,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infow("starting API server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	log.Infow("shutting down")
	close(stopCleanup)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server shutdown", "error", err)
	}
	if err := trace.Shutdown(shutdownCtx); err != nil {
		log.Errorw("trace shutdown", "error", err)
	}
}
