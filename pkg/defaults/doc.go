/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package defaults centralizes timeout and retry constants used across the
// wisecow components so that operational tuning happens in one place.
package defaults
