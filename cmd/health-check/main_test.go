package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alchemorsel/kitchen/pkg/healthcheck"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRun(t *testing.T) {
	newServer := func(status healthcheck.Status) *httptest.Server {
		hc := healthcheck.New("1.2.3", zap.NewNop())
		hc.Register("embedder", healthcheck.NewCustomChecker("embedder",
			func(ctx context.Context) (healthcheck.Status, string, interface{}) {
				return status, "probe", nil
			}))
		return httptest.NewServer(hc.Handler())
	}

	cases := []struct {
		name     string
		status   healthcheck.Status
		expect   string
		wantCode int
	}{
		{"Healthy", healthcheck.StatusHealthy, "healthy", exitCodeSuccess},
		{"DegradedWhenHealthyRequired", healthcheck.StatusDegraded, "healthy", exitCodeFailure},
		{"DegradedAccepted", healthcheck.StatusDegraded, "degraded", exitCodeSuccess},
		{"Unhealthy", healthcheck.StatusUnhealthy, "degraded", exitCodeFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := newServer(tc.status)
			defer server.Close()
			var out bytes.Buffer

			code := run(Config{
				URL:            server.URL,
				Timeout:        time.Second,
				Verbose:        true,
				ExpectedStatus: tc.expect,
			}, &out)

			assert.Equal(t, tc.wantCode, code)
			assert.Contains(t, out.String(), "Version: 1.2.3")
			assert.Contains(t, out.String(), "embedder: "+string(tc.status))
		})
	}

	t.Run("Unreachable_ShouldReturnError", func(t *testing.T) {
		var out bytes.Buffer

		code := run(Config{URL: "http://127.0.0.1:1/health", Timeout: 100 * time.Millisecond}, &out)

		assert.Equal(t, exitCodeError, code)
	})
}
