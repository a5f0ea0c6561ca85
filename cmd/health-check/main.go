// Package main provides a standalone health probe for the kitchen ops server.
// It is meant for container HEALTHCHECK instructions and monitoring scripts.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

// Config holds command-line configuration
type Config struct {
	URL            string
	Timeout        time.Duration
	Verbose        bool
	OutputFormat   string
	ExpectedStatus string
	RetryCount     int
	RetryDelay     time.Duration
}

// probeCheck mirrors one entry of the /health response
type probeCheck struct {
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	Message    string  `json:"message,omitempty"`
	DurationMS float64 `json:"duration_ms"`
}

// probeResponse mirrors the /health response body
type probeResponse struct {
	Status          string       `json:"status"`
	Version         string       `json:"version"`
	Timestamp       time.Time    `json:"timestamp"`
	Checks          []probeCheck `json:"checks"`
	TotalDurationMS float64      `json:"total_duration_ms"`
}

func main() {
	os.Exit(run(parseFlags(), os.Stdout))
}

// parseFlags parses command-line flags
func parseFlags() Config {
	config := Config{}

	flag.StringVar(&config.URL, "url", "", "Health endpoint URL (default http://localhost:9090/health)")
	flag.DurationVar(&config.Timeout, "timeout", 10*time.Second, "Request timeout")
	flag.BoolVar(&config.Verbose, "verbose", false, "Verbose output")
	flag.StringVar(&config.OutputFormat, "format", "text", "Output format: text, json, compact")
	flag.StringVar(&config.ExpectedStatus, "expect", "healthy", "Lowest acceptable status: healthy or degraded")
	flag.IntVar(&config.RetryCount, "retry", 0, "Number of retries on failure")
	flag.DurationVar(&config.RetryDelay, "retry-delay", 1*time.Second, "Delay between retries")
	flag.Parse()

	if config.URL == "" {
		config.URL = os.Getenv("KITCHEN_HEALTH_URL")
	}
	if config.URL == "" {
		config.URL = "http://localhost:9090/health"
	}
	return config
}

// run probes the endpoint and returns the process exit code
func run(config Config, out io.Writer) int {
	client := resty.New().
		SetTimeout(config.Timeout).
		SetRetryCount(config.RetryCount).
		SetRetryWaitTime(config.RetryDelay).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil
		})

	var body probeResponse
	resp, err := client.R().
		SetHeader("Accept", "application/json").
		SetResult(&body).
		SetError(&body).
		Get(config.URL)
	if err != nil {
		fmt.Fprintf(out, "Health check failed after %d attempts: %v\n", config.RetryCount+1, err)
		return exitCodeError
	}
	if body.Status == "" {
		fmt.Fprintf(out, "Unexpected response (HTTP %d): %s\n", resp.StatusCode(), resp.String())
		return exitCodeError
	}

	switch config.OutputFormat {
	case "json":
		data, _ := json.MarshalIndent(body, "", "  ")
		fmt.Fprintln(out, string(data))
	case "compact":
		data, _ := json.Marshal(body)
		fmt.Fprintln(out, string(data))
	default:
		outputText(out, body, config.Verbose)
	}

	return exitCode(body.Status, config.ExpectedStatus)
}

// exitCode maps the reported status onto the expectation. Unhealthy always
// fails; degraded fails only when healthy was required.
func exitCode(status, expected string) int {
	switch status {
	case "healthy":
		return exitCodeSuccess
	case "degraded":
		if expected == "healthy" {
			return exitCodeFailure
		}
		return exitCodeSuccess
	default:
		return exitCodeFailure
	}
}

// outputText outputs the result in text format
func outputText(out io.Writer, r probeResponse, verbose bool) {
	fmt.Fprintf(out, "Status: %s\n", r.Status)
	fmt.Fprintf(out, "Version: %s\n", r.Version)
	fmt.Fprintf(out, "Timestamp: %s\n", r.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(out, "Duration: %.0fms\n", r.TotalDurationMS)

	if verbose && len(r.Checks) > 0 {
		fmt.Fprintln(out, "\nChecks:")
		for _, check := range r.Checks {
			fmt.Fprintf(out, "  %s: %s", check.Name, check.Status)
			if check.Message != "" {
				fmt.Fprintf(out, " (%s)", check.Message)
			}
			fmt.Fprintf(out, " [%.0fms]\n", check.DurationMS)
		}
	}
}
