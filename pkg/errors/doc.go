/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package errors provides structured error types with classification codes
// for the wisecow service.
//
// The error taxonomy maps directly to containment scope: BIND_FAILED is fatal
// to the process, CONNECTION_IO is contained to one connection, and the
// GENERATOR_* codes are contained to one request and trigger the fallback
// response rather than a dropped connection.
package errors
