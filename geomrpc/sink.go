// © Copyright 2025-2026, Planemetric - https://planemetric.dev
// SPDX-License-Identifier: Apache-2.0

package geomrpc

// LogSink is the single point of truth for which log lines are delivered
// and to whom. It holds exactly one threshold and one registered callback
// at any instant; replacing either is total and immediate.
//
// A LogSink performs no internal locking. Calling SetThreshold or
// SetCallback concurrently with emissions from another goroutine is a data
// race; callers that reconfigure a shared sink while operations are in
// flight must provide their own synchronization. Each wire request gets a
// private sink, so the transport never shares one across goroutines.
type LogSink struct {
	threshold Severity
	effective func(level Severity, message string)
}

// NewLogSink returns a sink with the most permissive threshold
// (SeverityDebug) and a no-op callback.
func NewLogSink() *LogSink {
	s := &LogSink{threshold: SeverityDebug}
	s.SetCallback(nil, nil)
	return s
}

// SetThreshold replaces the minimum severity forwarded to the registered
// callback. The new value takes effect for the next emission, including
// emissions from callbacks registered before the change: filtering reads
// the threshold at call time, never at registration time.
func (s *LogSink) SetThreshold(level Severity) {
	s.threshold = level
}

// Threshold returns the current minimum forwarded severity.
func (s *LogSink) Threshold() Severity {
	return s.threshold
}

// SetCallback replaces the registered (callback, userdata) pair. The
// previous registration is discarded entirely; there is no chaining.
//
// The supplied callback is wrapped in an effective callback that converts
// the severity to its token, silently drops lines below the current
// threshold, and prepends "[<token>] " to the message before invoking cb
// with the stored userdata. The sink holds userdata only as an opaque
// handle; its lifetime belongs to the caller.
//
// A nil cb installs a true no-op.
func (s *LogSink) SetCallback(cb LogCallback, userdata any) {
	if cb == nil {
		s.effective = func(Severity, string) {}
		return
	}
	s.effective = func(level Severity, message string) {
		token := level.String()
		if level < s.threshold {
			return
		}
		cb(level, "["+token+"] "+message, userdata)
	}
}

// Emit hands one line to the effective callback. Emit itself never
// filters; the threshold decision lives inside the effective callback.
func (s *LogSink) Emit(level Severity, message string) {
	s.effective(level, message)
}
