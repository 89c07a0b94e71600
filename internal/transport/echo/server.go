package echo

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"resource-gateway/internal/config"
	"resource-gateway/internal/gateway"
)

// Server wraps the Echo server with its dependencies.
type Server struct {
	echo      *echo.Echo
	config    *config.Config
	gateway   *gateway.Gateway
	jwtSecret string
}

// NewServer creates an Echo server with middleware and routes.
func NewServer(cfg *config.Config, gw *gateway.Gateway) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	rateLimiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      10,
				Burst:     30,
				ExpiresIn: 3 * time.Minute,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, nil)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, nil)
		},
	}

	e.Use(middleware.RateLimiterWithConfig(rateLimiterConfig))
	e.Use(middleware.CORS())
	e.Use(metricsMiddleware())

	server := &Server{
		echo:      e,
		config:    cfg,
		gateway:   gw,
		jwtSecret: cfg.Auth.JWTSecret,
	}

	server.registerRoutes()
	return server
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.echo.Start(":" + s.config.Server.Port)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
