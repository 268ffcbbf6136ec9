/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package k8s provides the Kubernetes-facing operational helpers for the
// wisecow deployment: client bootstrap, watch-based rollout readiness, and
// container image verification against an expected reference.
package k8s
