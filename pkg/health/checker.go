/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package health

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	wserrors "github.com/wisecow/wisecow/pkg/errors"
)

// Overall report status values.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
	StatusDown     = "down"
)

// Result is the outcome of probing one endpoint.
type Result struct {
	URL        string        `json:"url" yaml:"url"`
	Healthy    bool          `json:"healthy" yaml:"healthy"`
	StatusCode int           `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Attempts   int           `json:"attempts" yaml:"attempts"`
	Latency    time.Duration `json:"latency_ns" yaml:"latency_ns"`
	Message    string        `json:"message" yaml:"message"`
}

// Report aggregates endpoint results.
type Report struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Status    string    `json:"status" yaml:"status"`
	Healthy   int       `json:"healthy_count" yaml:"healthy_count"`
	Total     int       `json:"total_count" yaml:"total_count"`
	Results   []Result  `json:"results" yaml:"results"`
}

// ExitCode implements the automation contract: 0 when every endpoint is
// healthy, 1 when issues were detected.
func (r *Report) ExitCode() int {
	if r.Status == StatusHealthy {
		return 0
	}
	return 1
}

// Checker probes application endpoints over HTTP with retries.
type Checker struct {
	config *Config
	client *http.Client
}

// NewChecker creates a Checker for the given configuration.
// A nil config gets defaults (which fail validation without endpoints).
func NewChecker(cfg *Config) *Checker {
	if cfg == nil {
		cfg = NewConfig()
	}
	return &Checker{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Check probes every configured endpoint and returns the aggregate report.
// Endpoint failures are reflected in the report, not returned as errors.
func (c *Checker) Check(ctx context.Context) *Report {
	report := &Report{
		Timestamp: time.Now().UTC(),
		Total:     len(c.config.Endpoints),
	}

	for _, ep := range c.config.Endpoints {
		res := c.checkEndpoint(ctx, ep)
		if res.Healthy {
			report.Healthy++
		}
		report.Results = append(report.Results, res)

		slog.Info("endpoint checked",
			"url", res.URL,
			"healthy", res.Healthy,
			"status", res.StatusCode,
			"attempts", res.Attempts,
		)
	}

	switch {
	case report.Healthy == report.Total:
		report.Status = StatusHealthy
	case report.Healthy > 0:
		report.Status = StatusDegraded
	default:
		report.Status = StatusDown
	}

	return report
}

// checkEndpoint probes one endpoint, retrying transport errors and
// unexpected status codes up to the configured attempt count.
func (c *Checker) checkEndpoint(ctx context.Context, ep Endpoint) Result {
	expected := ep.ExpectedStatus
	if expected == 0 {
		expected = http.StatusOK
	}

	res := Result{URL: ep.URL}
	start := time.Now()

	var lastErr error
	for attempt := 1; attempt <= c.config.RetryAttempts; attempt++ {
		res.Attempts = attempt

		status, err := c.probe(ctx, ep.URL)
		if err == nil && status == expected {
			res.Healthy = true
			res.StatusCode = status
			res.Latency = time.Since(start)
			res.Message = "endpoint is up"
			return res
		}

		if err != nil {
			lastErr = err
		} else {
			res.StatusCode = status
			lastErr = wserrors.NewWithContext(wserrors.ErrCodeUnavailable,
				"unexpected status code",
				map[string]any{"expected": expected, "actual": status})
		}

		if attempt < c.config.RetryAttempts {
			select {
			case <-ctx.Done():
				res.Latency = time.Since(start)
				res.Message = fmt.Sprintf("endpoint is down: %v", ctx.Err())
				return res
			case <-time.After(c.config.RetryDelay):
			}
		}
	}

	res.Latency = time.Since(start)
	res.Message = fmt.Sprintf("endpoint is down: %v", lastErr)
	return res
}

func (c *Checker) probe(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, wserrors.Wrap(wserrors.ErrCodeInvalidConfig, "invalid endpoint URL", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, wserrors.Wrap(wserrors.ErrCodeUnavailable, "request failed", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused across retries.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	return resp.StatusCode, nil
}
