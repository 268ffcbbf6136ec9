/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package logging provides structured logging utilities for wisecow components.
//
// It wraps the standard library slog package with service-specific defaults:
// JSON output to stderr, module and version context on every record,
// LOG_LEVEL environment configuration, and source location tracking for
// debug logs.
//
// Setting the default logger (recommended):
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("wisecowd", version)
//
//	    slog.Info("listening", "port", 4499)
//	    slog.Error("accept failed", "error", err)
//	}
//
// If LOG_LEVEL is not set, the level defaults to INFO.
package logging
