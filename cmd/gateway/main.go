package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"resource-gateway/internal/app"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		slog.Warn("no .env file loaded")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	service, err := app.InitializeService(logger)
	if err != nil {
		logger.Error("failed to initialize service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	go func() {
		if err := service.Start(); err != nil {
			logger.Error("server stopped", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := service.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
