package app

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/docrelay/docrelay/internal/bus"
	"github.com/docrelay/docrelay/internal/cli"
	"github.com/docrelay/docrelay/internal/delivery"
	"github.com/docrelay/docrelay/internal/httpapi"
	"github.com/docrelay/docrelay/internal/langdetect"
	"github.com/docrelay/docrelay/internal/pipeline"
	"github.com/docrelay/docrelay/internal/registry"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	host := fs.String("host", "0.0.0.0", "Host interface to bind")
	port := fs.Int("port", 8000, "HTTP port")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	cfg, logger, code := bootstrap(fs, envLoader, args)
	if code >= 0 {
		return code
	}

	if *port <= 0 || *port > 65535 {
		fmt.Fprintln(os.Stderr, "--port must be between 1 and 65535")
		return 2
	}

	ctx, cancel := signalContext()
	defer cancel()

	deps := buildRelayDeps(cfg, logger)
	defer deps.broker.Close()

	// Startup probes run independently; a dead dependency degrades the
	// service instead of aborting it.
	deps.registry.ProbeAll(ctx)

	publisher := bus.NewPublisher(deps.broker, cfg.TranslationResultsTopic)
	router := delivery.NewRouter(deps.docClient, publisher, deps.registry, logger)

	svc := pipeline.New(deps.adapter, router, cfg.TargetLanguage, logger)
	if cfg.SkipTargetLanguage {
		svc.SkipTargetLanguageTitles(langdetect.DetectISO6391)
	}

	if cfg.HasKafka() {
		consumer := bus.NewConsumer(deps.broker, cfg.DocumentEventsTopic, logger)
		go func() {
			if err := consumer.Run(ctx, svc.HandleEvent); err != nil && ctx.Err() == nil {
				deps.registry.MarkDisconnected(registry.ComponentKafka, err.Error())
				logger.Error().Err(err).Msg("event ingestion loop exited")
			}
		}()
	} else {
		logger.Warn().Msg("kafka is not configured, event ingestion loop disabled")
	}

	srv := httpapi.NewRelayServer(svc, deps.registry, logger, httpapi.Options{
		Host:            *host,
		Port:            *port,
		ReadTimeout:     *readTimeout,
		WriteTimeout:    *writeTimeout,
		ShutdownTimeout: *shutdownTimeout,
	})

	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Str("host", *host).Int("port", *port).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}

	return 0
}
