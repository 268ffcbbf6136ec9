/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/
package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"

	wserrors "github.com/wisecow/wisecow/pkg/errors"
)

// maxRequestBytes bounds how much of a request the handler will consume
// before responding anyway.
const maxRequestBytes = 64 * 1024

// handleConnection processes one accepted connection: drain the request,
// generate content, write the response, close. Errors here are local to the
// connection and never reach the accept loop.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	start := time.Now()
	connID := uuid.New().String()

	connectionsInFlight.Inc()
	defer connectionsInFlight.Dec()

	defer func() {
		if r := recover(); r != nil {
			panicRecoveries.Inc()
			slog.Error("panic recovered in handler",
				"connID", connID,
				"panic", fmt.Sprintf("%v", r),
			)
		}
		if err := conn.Close(); err != nil {
			slog.Debug("connection close failed", "connID", connID, "error", err)
		}
	}()

	slog.Debug("connection accepted",
		"connID", connID,
		"remote", conn.RemoteAddr().String(),
	)

	sawData, err := drainRequest(conn, s.config.IdleReadTimeout)
	if err != nil && !sawData {
		// Nothing arrived before the deadline (or the peer reset before
		// sending anything). The one case where a silent close is allowed.
		outcome := outcomeReadError
		if isTimeout(err) {
			outcome = outcomeIdleTimeout
		}
		connectionsTotal.WithLabelValues(outcome).Inc()
		slog.Debug("connection dropped before request",
			"connID", connID,
			"outcome", outcome,
			"error", err,
		)
		return
	}

	body, genErr := s.generator.Generate(ctx)
	outcome := outcomeOK
	if genErr != nil {
		outcome = outcomeFallback
		reason := string(wserrors.CodeOf(genErr))
		generatorFailures.WithLabelValues(reason).Inc()
		slog.Warn("content generation failed, serving fallback",
			"connID", connID,
			"reason", reason,
			"error", genErr,
		)
		body = []byte(s.config.FallbackBody)
	}

	if err := writeResponse(conn, body, s.config.WriteTimeout); err != nil {
		outcome = outcomeWriteError
		ioErr := wserrors.Wrap(wserrors.ErrCodeConnectionIO, "response write failed", err)
		slog.Warn("write failed", "connID", connID, "error", ioErr)
	}

	connectionsTotal.WithLabelValues(outcome).Inc()
	responseDuration.Observe(time.Since(start).Seconds())

	slog.Debug("connection served",
		"connID", connID,
		"outcome", outcome,
		"duration", time.Since(start).String(),
	)
}

// drainRequest reads and discards request lines until the terminating blank
// line, a size cap, or the idle read deadline. Returns whether any bytes
// arrived. Request content never influences the response.
func drainRequest(conn net.Conn, idleTimeout time.Duration) (bool, error) {
	if err := conn.SetReadDeadline(time.Now().Add(idleTimeout)); err != nil {
		return false, err
	}

	r := bufio.NewReader(io.LimitReader(conn, maxRequestBytes))
	sawData := false

	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			sawData = true
		}
		if err != nil {
			// EOF also covers the size cap; a client that sent that much
			// gets its response anyway.
			if err == io.EOF && sawData {
				return true, nil
			}
			return sawData, err
		}
		if line == "\n" || line == "\r\n" {
			return true, nil
		}
	}
}

// writeResponse frames body as a minimal successful HTTP response so
// browsers and probes see a text reply instead of a transport error.
// Requests are never parsed, so the reply is identical for every client.
func writeResponse(conn net.Conn, body []byte, writeTimeout time.Duration) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}

	header := fmt.Sprintf(
		"HTTP/1.1 200 OK\r\nContent-Type: text/plain; charset=us-ascii\r\nContent-Length: %d\r\nConnection: close\r\n\r\n",
		len(body))

	if _, err := conn.Write([]byte(header)); err != nil {
		return err
	}
	_, err := conn.Write(body)
	return err
}

// refuseBusy answers a throttled connection with a short busy reply instead
// of a bare reset, then closes it.
func (s *Server) refuseBusy(conn net.Conn) {
	defer conn.Close()

	const body = "The cow is overwhelmed. Try again shortly.\n"
	if err := conn.SetWriteDeadline(time.Now().Add(time.Second)); err != nil {
		return
	}
	fmt.Fprintf(conn,
		"HTTP/1.1 503 Service Unavailable\r\nContent-Type: text/plain; charset=us-ascii\r\nContent-Length: %d\r\nConnection: close\r\n\r\n%s",
		len(body), body)
}

// isTimeout reports whether err is a network deadline expiry.
func isTimeout(err error) bool {
	nerr, ok := err.(net.Error)
	return ok && nerr.Timeout()
}
