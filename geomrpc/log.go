// © Copyright 2025-2026, Planemetric - https://planemetric.dev
// SPDX-License-Identifier: Apache-2.0

package geomrpc

// Severity represents the importance of a log line emitted by the
// geometry operations. Severities are totally ordered:
// SeverityDebug < SeverityInfo < SeverityWarn < SeverityError.
type Severity int

const (
	// SeverityDebug is the least severe level, used for verbose diagnostics.
	SeverityDebug Severity = iota
	// SeverityInfo indicates a normal informational message.
	SeverityInfo
	// SeverityWarn indicates a condition that may require attention.
	SeverityWarn
	// SeverityError is the most severe level.
	SeverityError
)

// String returns the lowercase wire token for a severity.
// Out-of-range values map to "unknown".
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseSeverity maps a lowercase token back to its Severity. The second
// return value is false for unrecognized tokens.
func ParseSeverity(token string) (Severity, bool) {
	switch token {
	case "debug":
		return SeverityDebug, true
	case "info":
		return SeverityInfo, true
	case "warn":
		return SeverityWarn, true
	case "error":
		return SeverityError, true
	default:
		return SeverityDebug, false
	}
}

// LogCallback receives log lines that survived threshold filtering.
// The message arrives already decorated with a "[<level>] " prefix, and
// userdata is the opaque value supplied at registration, returned to the
// caller untouched.
type LogCallback func(level Severity, message string, userdata any)

// LogLine is a captured log emission: the severity and the decorated
// message. The wire transport buffers these per request and forwards them
// to the client as log batches.
type LogLine struct {
	Level   Severity
	Message string
}
