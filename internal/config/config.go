package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// PedidosYa
	PedidosYaAPIKey        string `envconfig:"PEDIDOSYA_API_KEY"`
	PedidosYaAPISecret     string `envconfig:"PEDIDOSYA_API_SECRET"`
	PedidosYaEnvironment   string `envconfig:"PEDIDOSYA_ENVIRONMENT" default:"test"`
	PedidosYaServiceMode   string `envconfig:"PEDIDOSYA_SERVICE_MODE" default:"EXPRESS"`
	PedidosYaBaseURL       string `envconfig:"PEDIDOSYA_BASE_URL"`
	PedidosYaWebhookURL    string `envconfig:"PEDIDOSYA_WEBHOOK_URL"`
	PedidosYaWebhookSecret string `envconfig:"PEDIDOSYA_WEBHOOK_SECRET"`
	PedidosYaEnabled       bool   `envconfig:"PEDIDOSYA_ENABLED" default:"true"`
	PedidosYaUseMock       bool   `envconfig:"PEDIDOSYA_USE_MOCK" default:"false"`

	// Storage. Empty DSN selects the in-memory shipment store.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"courier-bridge"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("pedidosya.enabled", c.PedidosYaEnabled),
		attribute.String("pedidosya.environment", c.PedidosYaEnvironment),
	}
}
