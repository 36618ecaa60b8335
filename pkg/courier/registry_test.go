package courier_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/courier/pkg/courier"
	"github.com/tournevent/courier/pkg/courier/pedidosya"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func mockCarrier() courier.Courier {
	logger := otelzap.New(zap.NewNop())
	return pedidosya.New(pedidosya.Config{UseMock: true}, logger, nil)
}

func TestRegistry_Register(t *testing.T) {
	registry := courier.NewRegistry()

	registry.Register(courier.CarrierConfig{Name: "pedidosya"}, mockCarrier())

	got, err := registry.Get("pedidosya")
	require.NoError(t, err)
	assert.Equal(t, "pedidosya", got.Name())
}

func TestRegistry_Register_Override(t *testing.T) {
	registry := courier.NewRegistry()

	registry.Register(courier.CarrierConfig{Name: "pedidosya"}, mockCarrier())
	assert.Equal(t, 1, registry.Count())

	registry.Register(courier.CarrierConfig{Name: "pedidosya"}, mockCarrier())
	assert.Equal(t, 1, registry.Count())
}

func TestRegistry_Get_NotFound(t *testing.T) {
	registry := courier.NewRegistry()

	_, err := registry.Get("nonexistent")
	assert.True(t, errors.Is(err, courier.ErrCarrierNotFound))
}

func TestRegistry_Config(t *testing.T) {
	registry := courier.NewRegistry()
	registry.Register(courier.CarrierConfig{
		Name:        "pedidosya",
		Environment: courier.EnvTest,
		ServiceMode: courier.ModeExpress,
	}, mockCarrier())

	cfg, err := registry.Config("pedidosya")
	require.NoError(t, err)
	assert.True(t, cfg.IsTest())
	assert.Equal(t, courier.ModeExpress, cfg.ServiceMode)

	_, err = registry.Config("nonexistent")
	assert.True(t, errors.Is(err, courier.ErrCarrierNotFound))
}

func TestRegistry_Names(t *testing.T) {
	registry := courier.NewRegistry()

	registry.Register(courier.CarrierConfig{Name: "pedidosya"}, mockCarrier())

	names := registry.Names()
	assert.Len(t, names, 1)
	assert.Contains(t, names, "pedidosya")
}

func TestRegistry_Authorize(t *testing.T) {
	registry := courier.NewRegistry()
	registry.Register(courier.CarrierConfig{
		Name:          "pedidosya",
		WebhookSecret: "s3cret",
	}, mockCarrier())

	cfg, ok := registry.Authorize("s3cret")
	require.True(t, ok)
	assert.Equal(t, "pedidosya", cfg.Name)

	_, ok = registry.Authorize("wrong")
	assert.False(t, ok)

	_, ok = registry.Authorize("")
	assert.False(t, ok)
}

func TestRegistry_Authorize_EmptyConfiguredSecret(t *testing.T) {
	registry := courier.NewRegistry()
	registry.Register(courier.CarrierConfig{Name: "pedidosya"}, mockCarrier())

	// A carrier without a configured secret never matches.
	_, ok := registry.Authorize("")
	assert.False(t, ok)
	_, ok = registry.Authorize("anything")
	assert.False(t, ok)
}
