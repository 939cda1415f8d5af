package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Per-binary configuration loaded from the environment. Required fields
// make the process fail fast at startup instead of at first use.

type Storefront struct {
	Port             string `envconfig:"PORT" default:"8081"`
	PostgresURL      string `envconfig:"POSTGRES_URL" required:"true"`
	RedisAddr        string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	KafkaBrokers     string `envconfig:"KAFKA_BROKERS" default:""`
	GatewayBaseURL   string `envconfig:"PAYMENT_GATEWAY_URL" required:"true"`
	GatewayKeyID     string `envconfig:"PAYMENT_GATEWAY_KEY_ID" required:"true"`
	GatewayKeySecret string `envconfig:"PAYMENT_GATEWAY_KEY_SECRET" required:"true"`
	CatalogURL       string `envconfig:"CATALOG_SERVICE_URL" required:"true"`
	OTLPEndpoint     string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:""`
}

type Catalog struct {
	Port         string `envconfig:"PORT" default:"8082"`
	PostgresURL  string `envconfig:"POSTGRES_URL" required:"true"`
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:""`
}

type Gateway struct {
	Port          string `envconfig:"PORT" default:"8080"`
	StorefrontURL string `envconfig:"STOREFRONT_SERVICE_URL" required:"true"`
	CatalogURL    string `envconfig:"CATALOG_SERVICE_URL" required:"true"`
	OTLPEndpoint  string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:""`
}

type Worker struct {
	KafkaBrokers  string `envconfig:"KAFKA_BROKERS" required:"true"`
	EmailURL      string `envconfig:"EMAIL_SERVICE_URL" required:"true"`
	StorefrontURL string `envconfig:"STOREFRONT_SERVICE_URL" required:"true"`
	OTLPEndpoint  string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:""`
}

type Email struct {
	Port         string `envconfig:"PORT" default:"8083"`
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:""`
}

func Load(cfg any) error {
	return envconfig.Process("", cfg)
}

// Brokers splits a comma separated broker list, returning nil when unset so
// callers can treat kafka as optional.
func Brokers(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
