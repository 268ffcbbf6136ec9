/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package wisdom generates rendered aphorisms by invoking an external
// aphorism source (fortune) and piping its output through an external
// ASCII-art renderer (cowsay).
//
// Each Generate call is independent: the aphorism source is randomized and
// the renderer variant (plain vs dead) is chosen per invocation, so repeated
// calls return different content. Randomness is injectable so tests can pin
// outcomes.
//
// The pipeline runs under a single bounded timeout. Timeouts and subprocess
// failures are reported as structured errors (GENERATOR_TIMEOUT,
// GENERATOR_EXEC) for the connection handler's fallback policy; they never
// propagate past the request that triggered them.
package wisdom
