package app

import (
	"context"
	"log/slog"

	"resource-gateway/internal/config"
	"resource-gateway/internal/transport/echo"
	"resource-gateway/internal/worker"
)

// Service is the assembled resource gateway application.
type Service struct {
	config  *config.Config
	server  *echo.Server
	cleanup *worker.Pool
	logger  *slog.Logger
}

// Start starts the HTTP server.
func (s *Service) Start() error {
	s.logger.Info("starting resource gateway", slog.String("port", s.config.Server.Port))
	return s.server.Start()
}

// Shutdown stops the server, then drains background cleanup work.
func (s *Service) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	s.cleanup.Stop()
	return err
}
