/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package wisdom

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"os/exec"
	"sync"
	"time"

	"github.com/wisecow/wisecow/pkg/defaults"
	wserrors "github.com/wisecow/wisecow/pkg/errors"
)

// Fallback is the fixed response body used when content generation fails.
// Every accepted connection still gets a reply, even with the pipeline down.
const Fallback = "The cow has nothing wise to say right now. Please come back later.\n"

// Variant selects the renderer's visual style.
type Variant int

const (
	// VariantPlain is the default speech-bubble rendering.
	VariantPlain Variant = iota
	// VariantDead is the alternate rendering, selected via the renderer's -d flag.
	VariantDead
)

// deadFlag is the renderer argument for the alternate variant.
const deadFlag = "-d"

// Generator produces rendered aphorisms by piping an external aphorism
// source through an external ASCII-art renderer. It holds no mutable state
// beyond the variant source and is safe for concurrent use.
type Generator struct {
	fortunePath string
	cowsayPath  string
	timeout     time.Duration
	variantFn   func() Variant
}

// Option configures a Generator.
type Option func(*Generator)

// WithFortune overrides the aphorism source executable path.
func WithFortune(path string) Option {
	return func(g *Generator) {
		if path != "" {
			g.fortunePath = path
		}
	}
}

// WithCowsay overrides the renderer executable path.
func WithCowsay(path string) Option {
	return func(g *Generator) {
		if path != "" {
			g.cowsayPath = path
		}
	}
}

// WithTimeout bounds one full pipeline invocation.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithVariantFunc injects the variant selection source. Tests use this to
// pin the otherwise random plain/dead choice.
func WithVariantFunc(fn func() Variant) Option {
	return func(g *Generator) {
		if fn != nil {
			g.variantFn = fn
		}
	}
}

// New creates a Generator with sensible defaults: fortune and cowsay
// resolved from PATH, a bounded pipeline timeout, and an evenly distributed
// random variant choice.
func New(opts ...Option) *Generator {
	g := &Generator{
		fortunePath: "fortune",
		cowsayPath:  "cowsay",
		timeout:     defaults.GeneratorTimeout,
		variantFn:   randomVariant,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// randomVariant picks plain or dead with even probability using the
// process-wide generator, which is safe for concurrent handlers.
func randomVariant() Variant {
	if rand.IntN(2) == 1 {
		return VariantDead
	}
	return VariantPlain
}

// NewSeededVariantFunc returns a deterministic variant source for a fixed
// seed. The returned func is safe for concurrent use.
func NewSeededVariantFunc(seed uint64) func() Variant {
	var mu sync.Mutex
	r := rand.New(rand.NewPCG(seed, 0))
	return func() Variant {
		mu.Lock()
		defer mu.Unlock()
		if r.IntN(2) == 1 {
			return VariantDead
		}
		return VariantPlain
	}
}

// Generate runs the aphorism source, feeds its output through the renderer,
// and returns the rendered bytes. The whole pipeline runs under one bounded
// timeout; subprocess handles and pipes are released on every exit path.
func (g *Generator) Generate(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	aphorism, err := g.runFortune(ctx)
	if err != nil {
		return nil, err
	}

	return g.runCowsay(ctx, aphorism, g.variantFn())
}

func (g *Generator) runFortune(ctx context.Context) ([]byte, error) {
	cmd := exec.CommandContext(ctx, g.fortunePath)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, classifyExecError(ctx, "aphorism source failed", err, stderr.Bytes())
	}

	text := bytes.TrimSpace(stdout.Bytes())
	if len(text) == 0 {
		return nil, wserrors.New(wserrors.ErrCodeGeneratorExec, "aphorism source produced no output")
	}

	return text, nil
}

func (g *Generator) runCowsay(ctx context.Context, aphorism []byte, variant Variant) ([]byte, error) {
	var args []string
	if variant == VariantDead {
		args = append(args, deadFlag)
	}

	cmd := exec.CommandContext(ctx, g.cowsayPath, args...)
	cmd.WaitDelay = time.Second
	cmd.Stdin = bytes.NewReader(aphorism)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, classifyExecError(ctx, "renderer failed", err, stderr.Bytes())
	}

	rendered := stdout.Bytes()
	if len(bytes.TrimSpace(rendered)) == 0 {
		return nil, wserrors.New(wserrors.ErrCodeGeneratorExec, "renderer produced no output")
	}

	return rendered, nil
}

// classifyExecError maps subprocess failures to the generator error taxonomy.
// A deadline on the pipeline context wins over whatever the killed process
// reported.
func classifyExecError(ctx context.Context, message string, err error, stderr []byte) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return wserrors.Wrap(wserrors.ErrCodeGeneratorTimeout, message, ctx.Err())
	}
	if len(stderr) > 0 {
		return wserrors.WrapWithContext(wserrors.ErrCodeGeneratorExec, message, err,
			map[string]any{"stderr": string(bytes.TrimSpace(stderr))})
	}
	return wserrors.Wrap(wserrors.ErrCodeGeneratorExec, message, err)
}
