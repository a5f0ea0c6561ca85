// Package healthcheck metrics integration
// Provides Prometheus metrics for health check monitoring
package healthcheck

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HealthMetrics exports check outcomes and breaker states
type HealthMetrics struct {
	checksTotal   *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
	healthStatus  *prometheus.GaugeVec
	circuitState  *prometheus.GaugeVec
}

// NewHealthMetrics registers the health metrics on reg under namespace
func NewHealthMetrics(reg prometheus.Registerer, namespace string) (*HealthMetrics, error) {
	hm := &HealthMetrics{
		checksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "healthcheck",
				Name:      "checks_total",
				Help:      "Total number of health checks performed",
			},
			[]string{"check_name", "status"},
		),
		checkDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "healthcheck",
				Name:      "check_duration_seconds",
				Help:      "Duration of health checks in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"check_name"},
		),
		healthStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "healthcheck",
				Name:      "status",
				Help:      "Current health status (0=unhealthy, 1=degraded, 2=healthy)",
			},
			[]string{"check_name"},
		),
		circuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "healthcheck",
				Name:      "circuit_breaker_state",
				Help:      "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"circuit_name"},
		),
	}

	for _, c := range []prometheus.Collector{hm.checksTotal, hm.checkDuration, hm.healthStatus, hm.circuitState} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register health metric: %w", err)
		}
	}
	return hm, nil
}

// RecordCheck records one check execution
func (hm *HealthMetrics) RecordCheck(checkName string, status Status, duration time.Duration) {
	hm.checksTotal.WithLabelValues(checkName, string(status)).Inc()
	hm.checkDuration.WithLabelValues(checkName).Observe(duration.Seconds())
	hm.healthStatus.WithLabelValues(checkName).Set(statusToFloat(status))
}

// RecordCircuitState records a breaker transition; it fits
// CircuitBreakerConfig.OnStateChange
func (hm *HealthMetrics) RecordCircuitState(name string, _, to CircuitBreakerState) {
	hm.circuitState.WithLabelValues(name).Set(float64(to))
}

func statusToFloat(status Status) float64 {
	switch status {
	case StatusHealthy:
		return 2
	case StatusDegraded:
		return 1
	case StatusUnhealthy:
		return 0
	default:
		return -1
	}
}
