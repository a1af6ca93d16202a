package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/finchbot/finch/internal/profile"
	"github.com/finchbot/finch/plugin/ai"
	apiv1 "github.com/finchbot/finch/server/router/api/v1"
	"github.com/finchbot/finch/server/runner/embedding"
	"github.com/finchbot/finch/store"
)

// Server wires the HTTP surface, the retrieval services, and the
// embedding backfill runner into one process.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer      *echo.Echo
	embedder        ai.EmbeddingService
	embeddingRunner *embedding.Runner
}

func NewServer(ctx context.Context, p *profile.Profile, st *store.Store) (*Server, error) {
	e := echo.New()
	e.Debug = p.IsDev()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(requestIDMiddleware())

	s := &Server{
		Profile:    p,
		Store:      st,
		echoServer: e,
	}

	if p.IsAIEnabled() {
		cfg := ai.NewEmbeddingConfigFromProfile(p)
		if err := cfg.Validate(); err != nil {
			return nil, errors.Wrap(err, "invalid embedding configuration")
		}
		embedder, err := ai.NewEmbeddingService(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create embedding service")
		}
		s.embedder = embedder
		s.embeddingRunner = embedding.NewRunner(st, embedder)

		// A failed probe leaves the provider unready; semantic search
		// reports configuration_error until a later probe succeeds.
		if err := embedder.Probe(ctx); err != nil {
			slog.Warn("embedding provider probe failed, semantic search unavailable", "error", err)
		}
	} else {
		s.embedder = ai.NewDisabledEmbeddingService()
	}

	apiService, err := apiv1.NewAPIV1Service(p, st, s.embedder)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create api service")
	}
	apiService.RegisterRoutes(e)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":         "ok",
			"version":        p.Version,
			"embedder_ready": s.embedder.Ready(),
		})
	})

	return s, nil
}

// Start launches the backfill runner and begins serving HTTP. It blocks
// until the listener fails or the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	if s.embeddingRunner != nil {
		go s.embeddingRunner.Run(ctx)
	}

	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("finch server starting", "address", address, "version", s.Profile.Version)
	if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down http server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("finch server stopped")
}

// requestIDMiddleware tags every request with a generated id for log
// correlation.
func requestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)
			c.Set("request_id", requestID)

			start := time.Now()
			err := next(c)
			slog.Debug("http request",
				"request_id", requestID,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return err
		}
	}
}
