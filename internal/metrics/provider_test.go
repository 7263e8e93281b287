package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		provider, err := NewProvider("gatekeeper")
		require.NoError(t, err)

		assert.NotNil(t, provider.meterProvider)
		assert.NotNil(t, provider.exporter)
		assert.NotNil(t, provider.registry)
		assert.NotNil(t, provider.MeterProvider())
		assert.NotNil(t, provider.Handler())
		assert.Equal(t, "gatekeeper", provider.Namespace())
	})

	t.Run("Success_RuntimeCollectors", func(t *testing.T) {
		provider, err := NewProvider("collectors_test")
		require.NoError(t, err)

		output := scrape(t, provider)
		assert.Contains(t, output, "go_goroutines")
	})

	t.Run("Success_NamespacedInstruments", func(t *testing.T) {
		provider, err := NewProvider("ns_test")
		require.NoError(t, err)

		business, err := provider.BusinessMetrics()
		require.NoError(t, err)
		business.RecordOperation(context.Background(), "identity", "login", "success")

		gate, err := provider.GateMetrics()
		require.NoError(t, err)
		require.NotNil(t, gate)

		assertMetricLine(t, scrape(t, provider), "ns_test_operations_total", `operation="login"`, "1")
	})

	t.Run("Success_EmptyNamespace", func(t *testing.T) {
		provider, err := NewProvider("")
		require.NoError(t, err)
		assert.NotNil(t, provider)
	})
}

func TestProvider_Shutdown(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		provider, err := NewProvider("gatekeeper")
		require.NoError(t, err)
		assert.NoError(t, provider.Shutdown(context.Background()))
	})

	t.Run("Success_ZeroValue", func(t *testing.T) {
		assert.NoError(t, (&Provider{}).Shutdown(context.Background()))
	})
}
