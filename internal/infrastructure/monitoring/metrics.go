// Package monitoring exports the kitchen's business metrics and traces
package monitoring

import (
	"fmt"
	"time"

	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "kitchen"

// KitchenMetrics implements outbound.MetricsRecorder on Prometheus
type KitchenMetrics struct {
	resolutionsTotal  *prometheus.CounterVec
	tierDuration      *prometheus.HistogramVec
	feasibilityTotal  *prometheus.CounterVec
	cooksTotal        *prometheus.CounterVec
	deductionsTotal   prometheus.Counter
	deductionsPerCook prometheus.Histogram
}

var _ outbound.MetricsRecorder = (*KitchenMetrics)(nil)

// NewKitchenMetrics creates the collectors and registers them on reg
func NewKitchenMetrics(reg prometheus.Registerer) (*KitchenMetrics, error) {
	m := &KitchenMetrics{
		resolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingredient_resolutions_total",
				Help:      "Ingredient resolutions by action and deciding tier",
			},
			[]string{"action", "tier"},
		),
		tierDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolver_tier_duration_seconds",
				Help:      "Time spent in each resolver tier",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"tier"},
		),
		feasibilityTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "feasibility_checks_total",
				Help:      "Recipe feasibility checks by outcome",
			},
			[]string{"outcome"},
		),
		cooksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cooks_total",
				Help:      "Cook attempts by outcome",
			},
			[]string{"outcome"},
		),
		deductionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stock_deductions_total",
				Help:      "Pantry stock rows deducted by successful cooks",
			},
		),
		deductionsPerCook: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stock_deductions_per_cook",
				Help:      "Stock rows deducted per successful cook",
				Buckets:   prometheus.LinearBuckets(1, 2, 10),
			},
		),
	}

	collectors := []prometheus.Collector{
		m.resolutionsTotal,
		m.tierDuration,
		m.feasibilityTotal,
		m.cooksTotal,
		m.deductionsTotal,
		m.deductionsPerCook,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register kitchen metric: %w", err)
		}
	}
	return m, nil
}

// RecordResolution counts a resolver decision
func (m *KitchenMetrics) RecordResolution(action, tier string) {
	m.resolutionsTotal.WithLabelValues(action, tier).Inc()
}

// ObserveTier records how long a tier took
func (m *KitchenMetrics) ObserveTier(tier string, duration time.Duration) {
	m.tierDuration.WithLabelValues(tier).Observe(duration.Seconds())
}

// RecordFeasibility counts a feasibility check
func (m *KitchenMetrics) RecordFeasibility(outcome string) {
	m.feasibilityTotal.WithLabelValues(outcome).Inc()
}

// RecordCook counts a cook attempt
func (m *KitchenMetrics) RecordCook(outcome string) {
	m.cooksTotal.WithLabelValues(outcome).Inc()
}

// RecordDeductions records the stock rows a cook consumed
func (m *KitchenMetrics) RecordDeductions(count int) {
	m.deductionsTotal.Add(float64(count))
	m.deductionsPerCook.Observe(float64(count))
}
