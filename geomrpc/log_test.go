// © Copyright 2025-2026, Planemetric - https://planemetric.dev
// SPDX-License-Identifier: Apache-2.0

package geomrpc

import "testing"

func TestSeverityString(t *testing.T) {
	cases := []struct {
		level Severity
		want  string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarn, "warn"},
		{SeverityError, "error"},
		{Severity(-1), "unknown"},
		{Severity(42), "unknown"},
	}
	for _, c := range cases {
		if got := c.level.String(); got != c.want {
			t.Errorf("Severity(%d).String() = %q, want %q", c.level, got, c.want)
		}
	}
}

func TestSeverityOrdering(t *testing.T) {
	if !(SeverityDebug < SeverityInfo && SeverityInfo < SeverityWarn && SeverityWarn < SeverityError) {
		t.Fatalf("severity order broken: debug=%d info=%d warn=%d error=%d",
			SeverityDebug, SeverityInfo, SeverityWarn, SeverityError)
	}
}

func TestParseSeverity(t *testing.T) {
	for _, level := range []Severity{SeverityDebug, SeverityInfo, SeverityWarn, SeverityError} {
		got, ok := ParseSeverity(level.String())
		if !ok || got != level {
			t.Errorf("ParseSeverity(%q) = %v, %v; want %v, true", level.String(), got, ok, level)
		}
	}

	for _, token := range []string{"", "DEBUG", "trace", "unknown", "warning"} {
		if _, ok := ParseSeverity(token); ok {
			t.Errorf("ParseSeverity(%q) accepted unexpected token", token)
		}
	}
}
