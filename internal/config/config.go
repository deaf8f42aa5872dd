package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/docrelay/docrelay/internal/language"
)

// Config carries every external dependency setting. None of the dependency
// values are required: a missing value marks that dependency disconnected
// instead of failing startup, so the process stays reachable for health
// checks and manual reconnects.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	KafkaBootstrapServers   string `envconfig:"KAFKA_BOOTSTRAP_SERVERS" default:""`
	KafkaGroupID            string `envconfig:"KAFKA_GROUP_ID" default:"translation-service"`
	KafkaClientID           string `envconfig:"KAFKA_CLIENT_ID" default:"docrelay"`
	DocumentEventsTopic     string `envconfig:"KAFKA_DOCUMENT_EVENTS_TOPIC" default:"document_events"`
	TranslationResultsTopic string `envconfig:"KAFKA_TRANSLATION_RESULTS_TOPIC" default:"document-translation-results"`

	DocumentServiceURL     string        `envconfig:"DOCUMENT_SERVICE_URL" default:""`
	DocumentServiceAPIKey  string        `envconfig:"DOCUMENT_SERVICE_API_KEY" default:""`
	DocumentServiceTimeout time.Duration `envconfig:"DOCUMENT_SERVICE_TIMEOUT" default:"5s"`

	TranslationAPIKey  string `envconfig:"TRANSLATION_API_KEY" default:""`
	TranslationModel   string `envconfig:"TRANSLATION_MODEL" default:"gpt-4o-mini"`
	TargetLanguage     string `envconfig:"TARGET_LANGUAGE" default:"es"`
	SkipTargetLanguage bool   `envconfig:"SKIP_TARGET_LANGUAGE_TITLES" default:"false"`

	StoreEndpointURL string `envconfig:"MINIO_ENDPOINT_URL" default:""`
	StoreAccessKey   string `envconfig:"MINIO_ACCESS_KEY" default:""`
	StoreSecretKey   string `envconfig:"MINIO_SECRET_KEY" default:""`
	StoreBucketName  string `envconfig:"MINIO_BUCKET_NAME" default:""`
	StoreUseSSL      bool   `envconfig:"MINIO_USE_SSL" default:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if language.NormalizeCode(c.TargetLanguage) == "" {
		return fmt.Errorf("TARGET_LANGUAGE %q is not a valid language tag", c.TargetLanguage)
	}
	if c.DocumentServiceTimeout <= 0 {
		return fmt.Errorf("DOCUMENT_SERVICE_TIMEOUT must be > 0")
	}
	if strings.TrimSpace(c.KafkaGroupID) == "" {
		return fmt.Errorf("KAFKA_GROUP_ID is required")
	}
	if strings.TrimSpace(c.DocumentEventsTopic) == "" {
		return fmt.Errorf("KAFKA_DOCUMENT_EVENTS_TOPIC is required")
	}
	if strings.TrimSpace(c.TranslationResultsTopic) == "" {
		return fmt.Errorf("KAFKA_TRANSLATION_RESULTS_TOPIC is required")
	}
	return nil
}

// KafkaBrokers splits the bootstrap server list into broker addresses.
func (c *Config) KafkaBrokers() []string {
	parts := strings.Split(c.KafkaBootstrapServers, ",")
	brokers := make([]string, 0, len(parts))
	for _, part := range parts {
		broker := strings.TrimSpace(part)
		if broker == "" {
			continue
		}
		brokers = append(brokers, broker)
	}
	return brokers
}

func (c *Config) HasKafka() bool {
	return len(c.KafkaBrokers()) > 0
}

func (c *Config) HasDocumentService() bool {
	return strings.TrimSpace(c.DocumentServiceURL) != ""
}

func (c *Config) HasTranslator() bool {
	return strings.TrimSpace(c.TranslationAPIKey) != ""
}

func (c *Config) HasObjectStore() bool {
	return strings.TrimSpace(c.StoreEndpointURL) != "" &&
		strings.TrimSpace(c.StoreAccessKey) != "" &&
		strings.TrimSpace(c.StoreSecretKey) != "" &&
		strings.TrimSpace(c.StoreBucketName) != ""
}
