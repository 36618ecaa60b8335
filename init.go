package main

import (
	"context"
	"fmt"
	"io"

	"github.com/tournevent/courier/internal/config"
	"github.com/tournevent/courier/internal/server"
	"github.com/tournevent/courier/internal/shipments"
	"github.com/tournevent/courier/internal/storage/memshipment"
	"github.com/tournevent/courier/internal/storage/pgshipment"
	"github.com/tournevent/courier/internal/telemetry"
	"github.com/tournevent/courier/pkg/courier"
	"github.com/tournevent/courier/pkg/courier/pedidosya"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// App holds the wired application components.
type App struct {
	Config   *config.Config
	Logger   *otelzap.Logger
	Registry *courier.Registry
	Server   *server.Server

	storage        *pgshipment.Storage
	tracerShutdown func(context.Context) error
}

// initApp loads configuration and wires the application graph.
func initApp(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: logger}

	var tracer trace.Tracer
	if cfg.OTELEnabled {
		t, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
		if err != nil {
			logger.Warn("Failed to initialize tracer", zap.Error(err))
		} else {
			tracer = t
			app.tracerShutdown = shutdown
		}
	}

	app.Registry = initCarrierRegistry(cfg, logger, tracer)

	repo, storage, err := initShipmentStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.storage = storage

	metrics := telemetry.NewMetrics()
	svc := shipments.New(app.Registry, repo, logger, metrics)
	app.Server = server.New(server.Config{Port: cfg.Port}, app.Registry, svc, logger, metrics)

	return app, nil
}

// Close releases application resources.
func (a *App) Close(ctx context.Context) {
	if a.storage != nil {
		a.storage.Close()
	}
	if a.tracerShutdown != nil {
		_ = a.tracerShutdown(ctx)
	}
	_ = a.Logger.Sync()
}

func initCarrierRegistry(cfg *config.Config, logger *otelzap.Logger, tracer trace.Tracer) *courier.Registry {
	registry := courier.NewRegistry()

	if cfg.PedidosYaEnabled {
		carrierCfg := courier.CarrierConfig{
			Name:          "pedidosya",
			Environment:   courier.Environment(cfg.PedidosYaEnvironment),
			APIKey:        cfg.PedidosYaAPIKey,
			APISecret:     cfg.PedidosYaAPISecret,
			ServiceMode:   courier.ServiceMode(cfg.PedidosYaServiceMode),
			WebhookURL:    cfg.PedidosYaWebhookURL,
			WebhookSecret: cfg.PedidosYaWebhookSecret,
		}
		client := pedidosya.New(pedidosya.Config{
			APIKey:      carrierCfg.APIKey,
			APISecret:   carrierCfg.APISecret,
			Environment: carrierCfg.Environment,
			ServiceMode: carrierCfg.ServiceMode,
			BaseURL:     cfg.PedidosYaBaseURL,
			UseMock:     cfg.PedidosYaUseMock,
		}, logger, tracer)
		registry.Register(carrierCfg, client)
	}

	return registry
}

func initShipmentStore(ctx context.Context, cfg *config.Config, logger *otelzap.Logger) (courier.ShipmentRepository, *pgshipment.Storage, error) {
	if cfg.DatabaseURL == "" {
		logger.Info("No DATABASE_URL configured, using in-memory shipment store")
		return memshipment.New(), nil, nil
	}

	storage, err := pgshipment.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := storage.InitSchema(ctx); err != nil {
		storage.Close()
		return nil, nil, fmt.Errorf("initializing schema: %w", err)
	}
	return storage, storage, nil
}

// SyncWebhook pushes every configured carrier's webhook registration.
func (a *App) SyncWebhook(ctx context.Context, out io.Writer) error {
	for _, name := range a.Registry.Names() {
		cfg, err := a.Registry.Config(name)
		if err != nil {
			return err
		}
		client, err := a.Registry.Get(name)
		if err != nil {
			return err
		}

		err = client.ConfigureWebhook(ctx, courier.WebhookRegistration{
			URL:    cfg.WebhookURL,
			Secret: cfg.WebhookSecret,
			IsTest: cfg.IsTest(),
		})
		if err != nil {
			return fmt.Errorf("configuring webhook for %s: %w", name, err)
		}
		fmt.Fprintf(out, "%s: webhook registered at %s\n", name, cfg.WebhookURL)
	}
	return nil
}

// ShowWebhook prints every configured carrier's current registration.
func (a *App) ShowWebhook(ctx context.Context, out io.Writer) error {
	for _, name := range a.Registry.Names() {
		cfg, err := a.Registry.Config(name)
		if err != nil {
			return err
		}
		client, err := a.Registry.Get(name)
		if err != nil {
			return err
		}

		reg, err := client.FetchWebhookConfig(ctx, cfg.IsTest())
		if err != nil {
			return fmt.Errorf("fetching webhook config for %s: %w", name, err)
		}
		if reg == nil {
			fmt.Fprintf(out, "%s: no webhook registered\n", name)
			continue
		}
		fmt.Fprintf(out, "%s: url=%s isTest=%t\n", name, reg.URL, reg.IsTest)
	}
	return nil
}
