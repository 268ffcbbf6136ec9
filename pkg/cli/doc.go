/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package cli implements the command-line interface for the wisecow tool.
//
// # Commands
//
// serve - Run the wisdom server:
//
//	wisecow serve [--port 4499] [--admin-port 8483] [--fortune PATH] [--cowsay PATH]
//
// Answers every TCP connection with a random aphorism framed by a cow and
// exposes liveness, readiness, and Prometheus metrics on the admin port.
//
// check - Probe application endpoints:
//
//	wisecow check --url http://localhost:4499/ [--retries 3] [--format json]
//
// Probes HTTP endpoints with retries and reports per-endpoint health.
// Exits non-zero when any endpoint is down.
//
// monitor - Snapshot system health:
//
//	wisecow monitor [--cpu-threshold 80] [--disk-path /] [--format yaml]
//
// Samples CPU, memory, disk, and process count, flags threshold
// violations, and lists the top resource consumers.
//
// status - Report Deployment rollout status:
//
//	wisecow status --deployment wisecow [--wait] [--image REF]
//
// Reports Kubernetes Deployment readiness, optionally waiting for the
// rollout and verifying the running container image.
//
// # Global Flags
//
//	--output, -o   Output file path (default: stdout)
//	--format, -t   Output format: yaml, json, text (default: yaml)
//	--help, -h     Show command help
//	--version, -v  Show version information
//
// # Exit Codes
//
//	0  Success
//	1  General error, unhealthy endpoints, or thresholds exceeded
//	2  Serving port could not be bound (serve)
//	3  Other serve startup failure
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/wisecow/wisecow/pkg/cli.version=1.0.0'"
package cli
