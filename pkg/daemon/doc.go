/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package daemon supervises the wisecow process: it wires the content
// generator into the TCP serving loop, runs the admin endpoint for probes
// and metrics, installs signal handling for graceful shutdown, and reports
// readiness to systemd when present.
//
// Exit code contract: 0 on clean shutdown, 2 when the serving port cannot
// be bound, 3 for any other unrecoverable startup failure.
package daemon
