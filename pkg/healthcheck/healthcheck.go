// Package healthcheck provides health and readiness check functionality
// Following the Health Check API pattern for cloud-native applications
package healthcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// Check represents a health check
type Check struct {
	Name        string        `json:"name"`
	Status      Status        `json:"status"`
	Message     string        `json:"message,omitempty"`
	LastChecked time.Time     `json:"last_checked"`
	Duration    time.Duration `json:"duration_ms"`
	Metadata    interface{}   `json:"metadata,omitempty"`
}

// Response represents the health check response
type Response struct {
	Status        Status        `json:"status"`
	Version       string        `json:"version"`
	Timestamp     time.Time     `json:"timestamp"`
	Checks        []Check       `json:"checks"`
	TotalDuration time.Duration `json:"total_duration_ms"`
}

// Checker defines the interface for health checks
type Checker interface {
	Check(ctx context.Context) Check
}

// HealthCheck manages health checks
type HealthCheck struct {
	version      string
	checkers     map[string]Checker
	breakers     map[string]*CircuitBreaker
	metrics      *HealthMetrics
	logger       *zap.Logger
	mu           sync.RWMutex
	cache        *Response
	cacheTTL     time.Duration
	checkTimeout time.Duration
	shuttingDown atomic.Bool
}

// New creates a new health check instance
func New(version string, logger *zap.Logger) *HealthCheck {
	return &HealthCheck{
		version:      version,
		checkers:     make(map[string]Checker),
		breakers:     make(map[string]*CircuitBreaker),
		logger:       logger.Named("healthcheck"),
		cacheTTL:     5 * time.Second,
		checkTimeout: 10 * time.Second,
	}
}

// Register registers a health checker
func (h *HealthCheck) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
	h.cache = nil
}

// RegisterWithCircuitBreaker registers a checker that stops probing a
// dependency after repeated unhealthy results until config.Timeout passes
func (h *HealthCheck) RegisterWithCircuitBreaker(name string, checker Checker, config CircuitBreakerConfig) {
	h.mu.Lock()
	if h.metrics != nil && config.OnStateChange == nil {
		config.OnStateChange = h.metrics.RecordCircuitState
	}
	breaker := NewCircuitBreaker(name, config)
	h.breakers[name] = breaker
	h.mu.Unlock()

	h.Register(name, &breakerChecker{name: name, checker: checker, breaker: breaker})
}

// SetCacheTTL sets the cache TTL for health check responses
func (h *HealthCheck) SetCacheTTL(ttl time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cacheTTL = ttl
}

// SetMetrics enables Prometheus export of every check result
func (h *HealthCheck) SetMetrics(metrics *HealthMetrics) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.metrics = metrics
}

// PrepareShutdown fails readiness so load balancers drain traffic before
// the server stops
func (h *HealthCheck) PrepareShutdown() {
	h.shuttingDown.Store(true)
	h.logger.Info("Health check entering shutdown mode")
}

// IsShuttingDown reports whether PrepareShutdown has been called
func (h *HealthCheck) IsShuttingDown() bool {
	return h.shuttingDown.Load()
}

// Handler returns the HTTP handler for health checks
func (h *HealthCheck) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := h.Check(r.Context())

		statusCode := http.StatusOK
		if response.Status == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		writeJSON(w, statusCode, response)
	}
}

// LivenessHandler returns the HTTP handler for liveness checks
func (h *HealthCheck) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// if the handler responds, the process is alive
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "alive",
			"timestamp": time.Now(),
		})
	}
}

// ReadinessHandler returns the HTTP handler for readiness checks. Degraded
// dependencies still count as ready.
func (h *HealthCheck) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.IsShuttingDown() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "not_ready",
				"reason": "Shutting down",
			})
			return
		}

		response := h.Check(r.Context())
		if response.Status == StatusUnhealthy {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "not_ready",
				"reason": "Health checks failed",
				"checks": response.Checks,
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "ready",
			"timestamp": time.Now(),
		})
	}
}

// Check performs all health checks
func (h *HealthCheck) Check(ctx context.Context) Response {
	h.mu.RLock()
	if h.cache != nil && time.Since(h.cache.Timestamp) < h.cacheTTL {
		cached := *h.cache
		h.mu.RUnlock()
		return cached
	}
	checkers := make(map[string]Checker, len(h.checkers))
	for name, c := range h.checkers {
		checkers[name] = c
	}
	metrics := h.metrics
	h.mu.RUnlock()

	start := time.Now()
	response := Response{
		Version:   h.version,
		Timestamp: start,
		Status:    StatusHealthy,
		Checks:    []Check{},
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.checkTimeout)
	defer cancel()

	var wg sync.WaitGroup
	checksChan := make(chan Check, len(checkers))
	for name, checker := range checkers {
		wg.Add(1)
		go func(n string, c Checker) {
			defer wg.Done()
			check := c.Check(checkCtx)
			check.Name = n
			checksChan <- check
		}(name, checker)
	}
	wg.Wait()
	close(checksChan)

	for check := range checksChan {
		response.Checks = append(response.Checks, check)
		if metrics != nil {
			metrics.RecordCheck(check.Name, check.Status, check.Duration)
		}

		if check.Status == StatusUnhealthy {
			response.Status = StatusUnhealthy
		} else if check.Status == StatusDegraded && response.Status == StatusHealthy {
			response.Status = StatusDegraded
		}
	}

	response.TotalDuration = time.Since(start)
	if response.Status != StatusHealthy {
		h.logger.Warn("Health check not healthy",
			zap.String("status", string(response.Status)),
			zap.Duration("duration", response.TotalDuration))
	}

	h.mu.Lock()
	h.cache = &response
	h.mu.Unlock()

	return response
}

// CircuitBreakerStates returns the state of every breaker-wrapped checker
func (h *HealthCheck) CircuitBreakerStates() map[string]CircuitBreakerState {
	h.mu.RLock()
	defer h.mu.RUnlock()

	states := make(map[string]CircuitBreakerState, len(h.breakers))
	for name, b := range h.breakers {
		states[name] = b.State()
	}
	return states
}

// breakerChecker skips the wrapped checker while its breaker is open
type breakerChecker struct {
	name    string
	checker Checker
	breaker *CircuitBreaker
}

func (c *breakerChecker) Check(ctx context.Context) Check {
	var check Check
	err := c.breaker.Execute(func() error {
		check = c.checker.Check(ctx)
		if check.Status == StatusUnhealthy {
			return fmt.Errorf("health check failed: %s", check.Message)
		}
		return nil
	})
	if err != nil && check.Status == "" {
		check = Check{
			Name:        c.name,
			Status:      StatusUnhealthy,
			Message:     err.Error(),
			LastChecked: time.Now(),
		}
	}

	metadata, ok := check.Metadata.(map[string]interface{})
	if !ok {
		metadata = map[string]interface{}{}
		if check.Metadata != nil {
			metadata["detail"] = check.Metadata
		}
	}
	metadata["circuit_breaker_state"] = c.breaker.State().String()
	check.Metadata = metadata
	return check
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// MarshalJSON customizes JSON marshaling for duration
func (c Check) MarshalJSON() ([]byte, error) {
	type Alias Check
	return json.Marshal(&struct {
		Duration float64 `json:"duration_ms"`
		*Alias
	}{
		Duration: float64(c.Duration.Milliseconds()),
		Alias:    (*Alias)(&c),
	})
}

// MarshalJSON customizes JSON marshaling for response
func (r Response) MarshalJSON() ([]byte, error) {
	type Alias Response
	return json.Marshal(&struct {
		TotalDuration float64 `json:"total_duration_ms"`
		*Alias
	}{
		TotalDuration: float64(r.TotalDuration.Milliseconds()),
		Alias:         (*Alias)(&r),
	})
}
