/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package serializer provides report output in JSON, YAML, and aligned text
// formats for the wisecow CLI tools, plus a JSON helper for HTTP responses.
package serializer
