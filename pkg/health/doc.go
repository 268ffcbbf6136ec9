/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package health probes application HTTP endpoints for uptime and expected
// status codes, with bounded retries, and produces an aggregate report with
// an exit-code contract for automation (0 healthy, 1 issues detected).
package health
