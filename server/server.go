// Package server exposes the router over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/czapol/multi-agent-playground/ai"
	"github.com/czapol/multi-agent-playground/internal/profile"
	"github.com/czapol/multi-agent-playground/internal/version"
	apiv1 "github.com/czapol/multi-agent-playground/server/router/api/v1"
)

type Server struct {
	Profile *profile.Profile
	Service *ai.Service

	echoServer *echo.Echo
	listener   net.Listener
}

func NewServer(_ context.Context, profile *profile.Profile, svc *ai.Service) (*Server, error) {
	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	echoServer.Use(requestLogger())

	s := &Server{
		Profile:    profile,
		Service:    svc,
		echoServer: echoServer,
	}

	echoServer.GET("/healthz", s.healthz)
	echoServer.GET("/metrics", echo.WrapHandler(svc.Metrics.Handler()))

	apiV1Service := apiv1.NewAPIV1Service(profile, svc)
	apiV1Service.RegisterRoutes(echoServer)

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Start listens on the configured address and serves in the background.
// Listen errors are returned; serve errors are logged.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", address)
	}
	s.listener = listener

	go func() {
		if err := s.echoServer.Server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to serve http", "error", err)
		}
	}()
	slog.Info("http server started", "address", listener.Addr().String())
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")

	// Shutdown echo server.
	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	slog.Info("server stopped properly")
}

func (s *Server) healthz(c echo.Context) error {
	docs, err := s.Service.Store.CountDocuments(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "document index unavailable").SetInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   version.String(),
		"release":   version.IsRelease(version.Version),
		"sessions":  s.Service.Sessions.Len(),
		"documents": docs,
	})
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency_ms", v.Latency.Milliseconds()}
			if v.Error != nil {
				slog.Warn("http request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Debug("http request", attrs...)
			return nil
		},
	})
}
