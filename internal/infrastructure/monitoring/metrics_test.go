package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/alchemorsel/kitchen/internal/infrastructure/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKitchenMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewKitchenMetrics(reg)
	require.NoError(t, err)

	m.RecordResolution("confirm", "exact")
	m.RecordResolution("confirm", "exact")
	m.RecordResolution("create_new", "none")
	m.ObserveTier("fuzzy", 3*time.Millisecond)
	m.RecordFeasibility("feasible")
	m.RecordCook("cooked")
	m.RecordCook("insufficient_stock")
	m.RecordDeductions(3)
	m.RecordDeductions(2)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.resolutionsTotal.WithLabelValues("confirm", "exact")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.resolutionsTotal.WithLabelValues("create_new", "none")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.feasibilityTotal.WithLabelValues("feasible")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cooksTotal.WithLabelValues("insufficient_stock")))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.deductionsTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(m.tierDuration))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "kitchen_ingredient_resolutions_total")
	assert.Contains(t, names, "kitchen_stock_deductions_per_cook")
}

func TestNewKitchenMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewKitchenMetrics(reg)
	require.NoError(t, err)

	_, err = NewKitchenMetrics(reg)

	assert.Error(t, err)
}

func TestNewTracingProvider_Disabled(t *testing.T) {
	cfg := &config.Config{Monitoring: config.MonitoringConfig{EnableTracing: false}}

	tp, err := NewTracingProvider(context.Background(), cfg, zap.NewNop())

	require.NoError(t, err)
	assert.False(t, tp.Enabled())
	assert.NoError(t, tp.Shutdown(context.Background()))
	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func TestNewTracingProvider_Enabled(t *testing.T) {
	cfg := &config.Config{
		App: config.AppConfig{Name: "kitchen", Version: "test", Environment: "test"},
		Monitoring: config.MonitoringConfig{
			EnableTracing: true,
			OTLPEndpoint:  "127.0.0.1:4318",
			SamplingRate:  1,
		},
	}

	tp, err := NewTracingProvider(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, tp.Enabled())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = tp.Shutdown(ctx)
}
