/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package server

import (
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wserrors "github.com/wisecow/wisecow/pkg/errors"
)

// generatorFunc adapts a func to the ContentGenerator interface.
type generatorFunc func(ctx context.Context) ([]byte, error)

func (f generatorFunc) Generate(ctx context.Context) ([]byte, error) { return f(ctx) }

func staticGenerator(body string) generatorFunc {
	return func(context.Context) ([]byte, error) { return []byte(body), nil }
}

func testConfig() *Config {
	cfg := NewConfig()
	cfg.Port = 0 // ephemeral
	cfg.IdleReadTimeout = 2 * time.Second
	cfg.ShutdownTimeout = 2 * time.Second
	return cfg
}

// startServer runs s.Start in the background and waits for the listener to
// be bound. Returns the dialable address.
func startServer(t *testing.T, s *Server) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if addr := s.Addr(); addr != nil {
			return addr.String()
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("listener never bound")
	return ""
}

// request opens a raw TCP connection, sends a minimal request, and returns
// everything the server wrote before closing.
func request(t *testing.T, addr string) string {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	_, err = conn.Write([]byte("GET / HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	resp, err := io.ReadAll(conn)
	require.NoError(t, err)
	return string(resp)
}

func TestServeBasicRequest(t *testing.T) {
	s := New(testConfig(), staticGenerator("moo wisdom\n"))
	addr := startServer(t, s)

	resp := request(t, addr)

	assert.True(t, strings.HasPrefix(resp, "HTTP/1.1 200 OK\r\n"), "got %q", resp)
	assert.Contains(t, resp, "Content-Type: text/plain")
	assert.Contains(t, resp, "moo wisdom")
	assert.True(t, s.Ready())
}

func TestResponsesDiffer(t *testing.T) {
	var mu sync.Mutex
	n := 0
	gen := generatorFunc(func(context.Context) ([]byte, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		if n%2 == 0 {
			return []byte("first shape\n"), nil
		}
		return []byte("second shape\n"), nil
	})

	s := New(testConfig(), gen)
	addr := startServer(t, s)

	shapes := map[string]bool{}
	for i := 0; i < 4; i++ {
		resp := request(t, addr)
		switch {
		case strings.Contains(resp, "first shape"):
			shapes["first"] = true
		case strings.Contains(resp, "second shape"):
			shapes["second"] = true
		default:
			t.Fatalf("response outside known shapes: %q", resp)
		}
	}
	assert.Len(t, shapes, 2)
}

func TestConcurrentConnectionsNotSerialized(t *testing.T) {
	const latency = 300 * time.Millisecond
	gen := generatorFunc(func(ctx context.Context) ([]byte, error) {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return []byte("slow wisdom\n"), nil
	})

	s := New(testConfig(), gen)
	addr := startServer(t, s)

	const n = 4
	start := time.Now()
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = request(t, addr)
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	for _, resp := range results {
		assert.Contains(t, resp, "slow wisdom")
	}
	// Serial handling would take n*latency. Allow generous slack for CI.
	assert.Less(t, elapsed, time.Duration(n)*latency,
		"parallel requests took %v, looks serialized", elapsed)
}

func TestFallbackOnGeneratorFailure(t *testing.T) {
	gen := generatorFunc(func(context.Context) ([]byte, error) {
		return nil, wserrors.New(wserrors.ErrCodeGeneratorExec, "renderer missing")
	})

	cfg := testConfig()
	s := New(cfg, gen)
	addr := startServer(t, s)

	resp := request(t, addr)
	assert.True(t, strings.HasPrefix(resp, "HTTP/1.1 200 OK\r\n"))
	assert.Contains(t, resp, cfg.FallbackBody)

	// Loop still accepting after the failure.
	resp = request(t, addr)
	assert.Contains(t, resp, cfg.FallbackBody)
}

func TestIdleClientClosedWithoutResponse(t *testing.T) {
	cfg := testConfig()
	cfg.IdleReadTimeout = 200 * time.Millisecond

	s := New(cfg, staticGenerator("unused\n"))
	addr := startServer(t, s)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	// Send nothing. The server must close without writing.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	buf := make([]byte, 1)
	_, err = conn.Read(buf)
	assert.Equal(t, io.EOF, err)

	// The listener must not be hung by the idle client.
	resp := request(t, addr)
	assert.Contains(t, resp, "unused")
}

func TestPartialRequestStillServed(t *testing.T) {
	cfg := testConfig()
	cfg.IdleReadTimeout = 200 * time.Millisecond

	s := New(cfg, staticGenerator("patience rewarded\n"))
	addr := startServer(t, s)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	// A request line but never the terminating blank line.
	_, err = conn.Write([]byte("GET / HTTP/1.1\r\n"))
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	resp, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Contains(t, string(resp), "patience rewarded")
}

func TestBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig()
	cfg.Address = "127.0.0.1"
	cfg.Port = ln.Addr().(*net.TCPAddr).Port

	s := New(cfg, staticGenerator("unused\n"))
	err = s.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, wserrors.ErrCodeBindFailed, wserrors.CodeOf(err))
}

func TestAcceptThrottle(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 1
	cfg.RateLimitBurst = 1

	s := New(cfg, staticGenerator("allowed\n"))
	addr := startServer(t, s)

	first := request(t, addr)
	second := request(t, addr)

	responses := first + "\n---\n" + second
	assert.Contains(t, responses, "allowed")
	assert.Contains(t, responses, "503 Service Unavailable")
}

func TestShutdownStopsAccepting(t *testing.T) {
	s := New(testConfig(), staticGenerator("bye\n"))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && s.Addr() == nil {
		time.Sleep(10 * time.Millisecond)
	}
	addr := s.Addr()
	require.NotNil(t, addr)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.False(t, s.Ready())

	_, err := net.DialTimeout("tcp", addr.String(), 500*time.Millisecond)
	assert.Error(t, err)
}

func TestShutdownWaitsForInFlightHandler(t *testing.T) {
	entered := make(chan struct{})
	gen := generatorFunc(func(ctx context.Context) ([]byte, error) {
		close(entered)
		select {
		case <-time.After(500 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return []byte("late wisdom\n"), nil
	})

	s := New(testConfig(), gen)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && s.Addr() == nil {
		time.Sleep(10 * time.Millisecond)
	}
	addr := s.Addr()
	require.NotNil(t, addr)

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	_, err = conn.Write([]byte("GET / HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	// Termination arrives while the generator is mid-flight. The grace
	// period must let the handler finish and deliver the response.
	<-entered
	cancel()

	resp, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Contains(t, string(resp), "late wisdom")

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestShutdownBeforeStart(t *testing.T) {
	s := New(testConfig(), staticGenerator("unused\n"))

	// Never started: no listener, no handler context. Must not panic.
	assert.NoError(t, s.Shutdown())
}

func TestNoHandlerTrackingOutsideServing(t *testing.T) {
	s := New(testConfig(), staticGenerator("unused\n"))

	assert.False(t, s.addHandler(), "never-started server must not track handlers")

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && s.Addr() == nil {
		time.Sleep(10 * time.Millisecond)
	}
	require.NotNil(t, s.Addr())

	require.True(t, s.addHandler(), "serving server must track handlers")
	s.handlers.Done()

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	assert.False(t, s.addHandler(), "stopped server must not track handlers")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "negative port",
			mutate:  func(c *Config) { c.Port = -1 },
			wantErr: true,
		},
		{
			name:    "port too large",
			mutate:  func(c *Config) { c.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "zero idle timeout",
			mutate:  func(c *Config) { c.IdleReadTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "zero write timeout",
			mutate:  func(c *Config) { c.WriteTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "zero shutdown timeout",
			mutate:  func(c *Config) { c.ShutdownTimeout = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, wserrors.ErrCodeInvalidConfig, wserrors.CodeOf(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "45")

	cfg := NewConfig()
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, 45*time.Second, cfg.ShutdownTimeout)
}
