package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/docrelay/docrelay/internal/bus"
	"github.com/docrelay/docrelay/internal/cli"
	"github.com/docrelay/docrelay/internal/config"
	"github.com/docrelay/docrelay/internal/docclient"
	"github.com/docrelay/docrelay/internal/logging"
	"github.com/docrelay/docrelay/internal/registry"
	"github.com/docrelay/docrelay/internal/store"
	"github.com/docrelay/docrelay/internal/translator"
)

// bootstrap parses the shared flag set, loads the env file and builds the
// config and logger every command starts from.
func bootstrap(fs *flag.FlagSet, envLoader *cli.EnvLoader, args []string) (*config.Config, zerolog.Logger, int) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, zerolog.Nop(), 0
		}
		return nil, zerolog.Nop(), 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, zerolog.Nop(), 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return nil, zerolog.Nop(), 1
	}

	return cfg, logger, -1
}

// signalContext returns a context cancelled by SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		signal.Stop(sigCh)
		cancel()
	}()

	return ctx, cancel
}

// relayDeps is everything the translation relay wires together. Clients are
// constructed even when their configuration is missing; the registry then
// carries a descriptive always-failing probe instead of the process crashing.
type relayDeps struct {
	registry  *registry.Registry
	broker    *bus.Broker
	docClient *docclient.Client
	adapter   *translator.Adapter
}

func buildRelayDeps(cfg *config.Config, logger zerolog.Logger) *relayDeps {
	reg := registry.New(logger)

	broker := bus.NewBroker(cfg.KafkaBrokers(), cfg.KafkaClientID, cfg.KafkaGroupID, logger)
	if cfg.HasKafka() {
		reg.Register(registry.ComponentKafka, broker.Probe)
	} else {
		reg.NotConfigured(registry.ComponentKafka, "KAFKA_BOOTSTRAP_SERVERS")
	}

	docClient := docclient.New(cfg.DocumentServiceURL, cfg.DocumentServiceAPIKey, cfg.DocumentServiceTimeout, logger)
	if cfg.HasDocumentService() {
		reg.Register(registry.ComponentDocumentService, docClient.Probe)
	} else {
		reg.NotConfigured(registry.ComponentDocumentService, "DOCUMENT_SERVICE_URL")
	}

	provider := translator.NewOpenAIProvider(cfg.TranslationAPIKey, cfg.TranslationModel)
	if cfg.HasTranslator() {
		reg.Register(registry.ComponentTranslator, provider.Probe)
	} else {
		reg.NotConfigured(registry.ComponentTranslator, "TRANSLATION_API_KEY")
	}

	return &relayDeps{
		registry:  reg,
		broker:    broker,
		docClient: docClient,
		adapter:   translator.NewAdapter(provider, logger),
	}
}

func buildStoreDeps(cfg *config.Config, logger zerolog.Logger) (*store.Client, *registry.Registry) {
	reg := registry.New(logger)

	storeClient := store.New(store.Options{
		EndpointURL: cfg.StoreEndpointURL,
		AccessKey:   cfg.StoreAccessKey,
		SecretKey:   cfg.StoreSecretKey,
		Bucket:      cfg.StoreBucketName,
		UseSSL:      cfg.StoreUseSSL,
	}, logger)
	if cfg.HasObjectStore() {
		reg.Register(registry.ComponentObjectStore, storeClient.Probe)
	} else {
		reg.NotConfigured(registry.ComponentObjectStore, "MINIO_ENDPOINT_URL/MINIO_ACCESS_KEY/MINIO_SECRET_KEY/MINIO_BUCKET_NAME")
	}

	return storeClient, reg
}
