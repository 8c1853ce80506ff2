// Copyright 2025-2026, Planemetric - https://planemetric.dev
// SPDX-License-Identifier: Apache-2.0

// Package geomrpc implements a small geometry-formula service with a
// configurable, level-filtered logging callback mechanism, exposed through
// three surfaces that share one implementation:
//
//   - The native surface: [Calculator] computes circle, rectangle, and
//     triangle areas (plus batch circle areas) and reports invalid input
//     as ordinary Go errors. Every operation emits its formatted log line
//     at all four severities; the [LogSink] it was built with decides,
//     per line and at emission time, whether the registered callback sees
//     it.
//
//   - The boundary surface: [Boundary] mirrors the calculator behind a
//     contract that never lets a fault escape. Operations take an
//     [ErrorCode] output parameter and return a -1 sentinel on failure;
//     invalid input becomes [CodeNegativeInput], anything unexpected
//     becomes [CodeOther]. Its callback registration uses the boundary's
//     own level enumeration and re-encodes into the internal one at the
//     adapter edge.
//
//   - The wire surface: [Server] exposes the same methods over Arrow IPC
//     for cross-language hosts, on stdin/stdout ([Server.RunStdio]) or
//     HTTP ([HttpServer], POST /geom/{method}). Parameters and results
//     travel as RecordBatch messages; log lines that survive the
//     client-requested threshold precede the result as zero-row batches
//     with custom metadata, and handler faults cross as error batches
//     carrying the boundary error code.
//
// # Logging model
//
// A [LogSink] holds exactly one threshold and one (callback, userdata)
// registration. Registration wraps the callback in an effective callback
// that converts the severity to its lowercase token, drops lines below
// the threshold as read at call time, and prepends "[<token>] " before
// delivery. Replacing either the threshold or the callback is total and
// immediate; the sink itself performs no locking, so reconfiguring a sink
// shared across goroutines requires external synchronization.
//
// # Observability
//
// [Server.SetDispatchHook] installs a [DispatchHook] around each wire
// dispatch; the geomrpc/otel submodule provides an OpenTelemetry
// implementation with tracing and metrics.
package geomrpc
