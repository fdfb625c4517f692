package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"donation-service/internal/api"
	"donation-service/internal/config"
	"donation-service/internal/middleware"
	"donation-service/internal/repository"
	"donation-service/internal/service"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	middleware.Logger = logger

	// repository layer - all entity stores live in one sqlite database
	db, err := repository.NewDatabase(cfg.DBPath)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}

	// service layer - aggregation and relation resolution over the stores
	donations := service.NewDonationService(db, db, logger)

	ctx := context.Background()

	monitor := service.NewActivityMonitor(ctx, db, logger, cfg.MonitorInterval)
	monitor.Start()
	defer monitor.Stop()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewApiServer(donations).Router(),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		logger.Info("Server started", "port", cfg.Port, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "error", err)
	}
	logger.Info("Server stopped")
}
