// © Copyright 2025-2026, Planemetric - https://planemetric.dev
// SPDX-License-Identifier: Apache-2.0

package geomrpc

import "context"

// CallContext provides request-scoped information to method handlers.
//
// Each dispatched request gets a private LogSink whose threshold is the
// client-requested log level; Calc is bound to that sink, so every line a
// handler's computation emits is filtered, decorated, and buffered here,
// then forwarded to the client as log batches ahead of the result.
type CallContext struct {
	// Ctx is the request-scoped context, carrying cancellation and deadlines.
	Ctx context.Context
	// RequestID is the client-supplied identifier for this request, echoed in
	// all response metadata.
	RequestID string
	// ServerID is the server identifier set via [Server.SetServerID].
	ServerID string
	// Method is the name of the method being invoked.
	Method string
	// Calc is the request-private calculator. Handlers run all geometry
	// through it so log forwarding works.
	Calc *Calculator
	lines []LogLine
}

// drainLogs returns and clears all buffered log lines.
func (c *CallContext) drainLogs() []LogLine {
	lines := c.lines
	c.lines = nil
	return lines
}
