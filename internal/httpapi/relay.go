package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/docrelay/docrelay/internal/delivery"
	"github.com/docrelay/docrelay/internal/event"
	"github.com/docrelay/docrelay/internal/globaltime"
	"github.com/docrelay/docrelay/internal/pipeline"
	"github.com/docrelay/docrelay/internal/registry"
)

const defaultRelayPort = 8000

// RelayServer is the translation relay's HTTP surface: the manual trigger,
// the health endpoint and the operator reconnect action.
type RelayServer struct {
	pipeline *pipeline.Service
	registry *registry.Registry
	logger   zerolog.Logger
	opts     Options
}

func NewRelayServer(pl *pipeline.Service, reg *registry.Registry, logger zerolog.Logger, opts Options) *RelayServer {
	return &RelayServer{
		pipeline: pl,
		registry: reg,
		logger:   logger,
		opts:     opts.withDefaults(defaultRelayPort),
	}
}

func (s *RelayServer) Start(ctx context.Context) error {
	e := newEcho(s.logger)
	s.routes(e)
	return serve(ctx, e, s.opts, s.logger, "translation relay server")
}

func (s *RelayServer) routes(e *echo.Echo) {
	e.GET("/", s.handleHealth)
	e.POST("/translate/:document_id", s.handleTranslate)
	e.POST("/retry-connections", retryConnectionsHandler(s.registry))
}

// handleHealth reports per-dependency connection state. It answers 200 even
// fully degraded so orchestrators do not restart a process that is alive and
// reconnectable.
func (s *RelayServer) handleHealth(c echo.Context) error {
	statuses := s.registry.Status()
	dependencies := make(map[string]registry.ConnectionStatus, len(statuses))
	for name, status := range statuses {
		dependencies[name] = status
	}
	return c.JSON(http.StatusOK, map[string]any{
		"service":      "translation-relay",
		"time":         globaltime.UTC(),
		"dependencies": dependencies,
	})
}

// handleTranslate is the manual trigger. It blocks the caller for the full
// translate+deliver sequence, which is fine for an administrative endpoint.
func (s *RelayServer) handleTranslate(c echo.Context) error {
	docID := event.DocumentID(strings.TrimSpace(c.Param("document_id")))

	title := strings.TrimSpace(c.QueryParam("title"))
	if title == "" {
		title = strings.TrimSpace(c.FormValue("title"))
	}
	if title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Title is required"})
	}

	translated, outcome := s.pipeline.Process(c.Request().Context(), docID, title)
	if outcome.Channel == delivery.ChannelNone {
		s.logger.Error().Str("document_id", string(docID)).Msg("manual translation could not be delivered")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"translation": translated,
		"delivered":   outcome.Succeeded,
		"channel":     string(outcome.Channel),
	})
}
