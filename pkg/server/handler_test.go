/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package server

import (
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainRequest(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantSawData bool
		wantErr     bool
	}{
		{
			name:        "crlf terminated request",
			input:       "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n",
			wantSawData: true,
			wantErr:     false,
		},
		{
			name:        "bare lf terminator",
			input:       "hello\n\n",
			wantSawData: true,
			wantErr:     false,
		},
		{
			name:        "empty request line only",
			input:       "\r\n",
			wantSawData: true,
			wantErr:     false,
		},
		{
			name:        "no terminator times out with data",
			input:       "GET / HTTP/1.1\r\n",
			wantSawData: true,
			wantErr:     true,
		},
		{
			name:        "silence times out without data",
			input:       "",
			wantSawData: false,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, srv := net.Pipe()
			defer client.Close()
			defer srv.Close()

			go func() {
				if tt.input != "" {
					_, _ = client.Write([]byte(tt.input))
				}
			}()

			sawData, err := drainRequest(srv, 150*time.Millisecond)
			assert.Equal(t, tt.wantSawData, sawData)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDrainRequestHonorsSizeCap(t *testing.T) {
	client, srv := net.Pipe()
	defer client.Close()
	defer srv.Close()

	go func() {
		// A single endless line, no terminator. Past the cap the reader
		// sees EOF and the request counts as consumed.
		chunk := []byte(strings.Repeat("x", 1024))
		for i := 0; i < 2*maxRequestBytes/len(chunk); i++ {
			if _, err := client.Write(chunk); err != nil {
				return
			}
		}
	}()

	sawData, err := drainRequest(srv, 2*time.Second)
	assert.True(t, sawData)
	assert.NoError(t, err)
}

func TestWriteResponseFraming(t *testing.T) {
	client, srv := net.Pipe()
	defer client.Close()

	body := []byte("  ^__^\n (oo)\n")

	done := make(chan error, 1)
	go func() {
		defer srv.Close()
		done <- writeResponse(srv, body, time.Second)
	}()

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	raw, err := io.ReadAll(client)
	require.NoError(t, err)
	require.NoError(t, <-done)

	resp := string(raw)
	assert.True(t, strings.HasPrefix(resp, "HTTP/1.1 200 OK\r\n"))
	assert.Contains(t, resp, fmt.Sprintf("Content-Length: %d\r\n", len(body)))
	assert.Contains(t, resp, "Connection: close\r\n")

	_, after, found := strings.Cut(resp, "\r\n\r\n")
	require.True(t, found, "missing header terminator")
	assert.Equal(t, string(body), after)
}

func TestIsTimeout(t *testing.T) {
	client, srv := net.Pipe()
	defer client.Close()
	defer srv.Close()

	require.NoError(t, srv.SetReadDeadline(time.Now().Add(10*time.Millisecond)))
	_, err := srv.Read(make([]byte, 1))
	require.Error(t, err)
	assert.True(t, isTimeout(err))
	assert.False(t, isTimeout(io.EOF))
}
