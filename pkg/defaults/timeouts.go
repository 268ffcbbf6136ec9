/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package defaults

import "time"

// Listener timeouts for the TCP serving loop.
const (
	// ServerIdleReadTimeout is how long the handler waits for a client to
	// finish its request line(s) before giving up on the connection.
	ServerIdleReadTimeout = 10 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	ServerWriteTimeout = 30 * time.Second

	// ServerShutdownTimeout is the grace period for in-flight handlers
	// after the listener stops accepting.
	ServerShutdownTimeout = 15 * time.Second
)

// Generator timeouts for the external content pipeline.
const (
	// GeneratorTimeout bounds one aphorism-source plus renderer invocation.
	// Exceeding it is a request-level failure, not a process fault.
	GeneratorTimeout = 5 * time.Second
)

// Admin endpoint timeouts for the health/metrics HTTP server.
const (
	// AdminReadTimeout is the maximum duration for reading probe requests.
	AdminReadTimeout = 5 * time.Second

	// AdminWriteTimeout is the maximum duration for writing probe responses.
	AdminWriteTimeout = 10 * time.Second

	// AdminIdleTimeout is the maximum duration to wait for the next probe.
	AdminIdleTimeout = 60 * time.Second
)

// Health checker timeouts for outbound endpoint probes.
const (
	// CheckTimeout is the per-request timeout for one endpoint probe.
	CheckTimeout = 5 * time.Second

	// CheckRetryDelay is the pause between probe attempts.
	CheckRetryDelay = 2 * time.Second

	// CheckRetryAttempts is the number of attempts per endpoint.
	CheckRetryAttempts = 3
)

// Kubernetes timeouts for rollout status operations.
const (
	// K8sRolloutTimeout is the default wait for the deployment to be ready.
	K8sRolloutTimeout = 2 * time.Minute
)
