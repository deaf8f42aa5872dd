package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/docrelay/docrelay/internal/registry"
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func (o Options) withDefaults(defaultPort int) Options {
	if strings.TrimSpace(o.Host) == "" {
		o.Host = "0.0.0.0"
	}
	if o.Port <= 0 {
		o.Port = defaultPort
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = 10 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 30 * time.Second
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 10 * time.Second
	}
	return o
}

func newEcho(logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		message := "Internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if text, ok := he.Message.(string); ok && strings.TrimSpace(text) != "" {
				message = text
			} else if text := http.StatusText(status); text != "" {
				message = text
			}
		}
		_ = c.JSON(status, map[string]string{"error": message})
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			evt := logger.Info()
			if v.Error != nil {
				evt = logger.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	return e
}

// retryConnectionsHandler re-probes every dependency and reports the result
// per component. Both relays mount it so an operator can restore a late
// dependency without a process restart.
func retryConnectionsHandler(reg *registry.Registry) echo.HandlerFunc {
	return func(c echo.Context) error {
		results := reg.ProbeAll(c.Request().Context())

		response := make(map[string]string, len(results))
		for component, ok := range results {
			if ok {
				response[component] = "connected"
			} else {
				response[component] = "failed"
			}
		}
		return c.JSON(http.StatusOK, response)
	}
}

// serve runs e until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, e *echo.Echo, opts Options, logger zerolog.Logger, name string) error {
	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	logger.Info().Str("addr", addr).Msg(name + " started")
	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	logger.Info().Msg(name + " stopped")
	return nil
}
