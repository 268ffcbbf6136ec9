/*
Copyright © 2025 Wisecow Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package server implements the wisecow TCP serving loop.
//
// The server binds one listening socket, accepts connections indefinitely,
// and hands each to an independent handler goroutine. A handler drains the
// client's request lines up to a blank line (or an idle read deadline),
// invokes the content generator exactly once, writes the result back with
// minimal HTTP-shaped framing, and closes the connection.
//
// Failure containment follows the connection boundary: only a bind failure
// ends the process; connection I/O errors are logged and swallowed, and
// generator failures turn into a fixed fallback response so every accepted
// connection that sent anything receives a reply.
//
// The wire protocol is deliberately not HTTP: requests are consumed without
// parsing, and the response is identical for every client. For that reason
// the loop is built on net.Listen rather than net/http, which would impose
// request framing the protocol does not have.
package server
