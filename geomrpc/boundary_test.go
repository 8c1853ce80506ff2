// © Copyright 2025-2026, Planemetric - https://planemetric.dev
// SPDX-License-Identifier: Apache-2.0

package geomrpc

import (
	"math"
	"testing"
)

func TestBoundaryCircleArea(t *testing.T) {
	b := NewBoundary(nil)

	var code ErrorCode
	got := b.CircleArea(2, &code)
	if code != CodeSuccess {
		t.Fatalf("code = %v, want CodeSuccess", code)
	}
	if math.Abs(got-Pi*4) > 1e-12 {
		t.Errorf("CircleArea(2) = %v, want %v", got, Pi*4)
	}

	got = b.CircleArea(-2, &code)
	if code != CodeNegativeInput {
		t.Errorf("code = %v, want CodeNegativeInput", code)
	}
	if got != FailedArea {
		t.Errorf("failed CircleArea = %v, want %v", got, FailedArea)
	}
}

func TestBoundaryNilErrcode(t *testing.T) {
	b := NewBoundary(nil)

	// A nil errcode pointer is allowed on both paths.
	if got := b.RectangleArea(3, 4, nil); got != 12 {
		t.Errorf("RectangleArea(3, 4, nil) = %v, want 12", got)
	}
	if got := b.RectangleArea(-3, 4, nil); got != FailedArea {
		t.Errorf("failed RectangleArea = %v, want %v", got, FailedArea)
	}
	b.CalculateAreas([]float64{1}, make([]float64, 1), nil)
	b.CalculateAreas([]float64{-1}, make([]float64, 1), nil)
}

func TestBoundaryTriangleArea(t *testing.T) {
	b := NewBoundary(nil)

	var code ErrorCode
	if got := b.TriangleArea(4, 3, &code); got != 6 || code != CodeSuccess {
		t.Errorf("TriangleArea(4, 3) = %v code=%v, want 6 CodeSuccess", got, code)
	}
	if got := b.TriangleArea(4, -3, &code); got != FailedArea || code != CodeNegativeInput {
		t.Errorf("TriangleArea(4, -3) = %v code=%v, want %v CodeNegativeInput", got, code, FailedArea)
	}
}

func TestBoundaryCalculateAreas(t *testing.T) {
	b := NewBoundary(nil)

	var code ErrorCode
	out := make([]float64, 3)
	b.CalculateAreas([]float64{1, 2, 3}, out, &code)
	if code != CodeSuccess {
		t.Fatalf("code = %v, want CodeSuccess", code)
	}
	want := []float64{Pi, Pi * 4, Pi * 9}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-6 {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

// On failure the output buffer is left exactly as the caller provided it.
func TestBoundaryCalculateAreasUntouchedBufferOnFailure(t *testing.T) {
	b := NewBoundary(nil)

	sentinel := []float64{-99, -99, -99}
	out := make([]float64, len(sentinel))
	copy(out, sentinel)

	var code ErrorCode
	b.CalculateAreas([]float64{1, -2, 3}, out, &code)
	if code != CodeNegativeInput {
		t.Fatalf("code = %v, want CodeNegativeInput", code)
	}
	for i := range out {
		if out[i] != sentinel[i] {
			t.Errorf("out[%d] = %v, buffer was modified on failure", i, out[i])
		}
	}
}

func TestBoundaryCalculateAreasEmptyInput(t *testing.T) {
	b := NewBoundary(nil)

	out := []float64{-99}
	var code ErrorCode
	b.CalculateAreas(nil, out, &code)
	if code != CodeSuccess {
		t.Fatalf("code = %v, want CodeSuccess", code)
	}
	if out[0] != -99 {
		t.Errorf("out[0] = %v, empty input must not write to the buffer", out[0])
	}
}

func TestBoundaryCalculateAreasShortBuffer(t *testing.T) {
	b := NewBoundary(nil)

	out := []float64{-99}
	var code ErrorCode
	b.CalculateAreas([]float64{1, 2, 3}, out, &code)
	if code != CodeOther {
		t.Fatalf("code = %v, want CodeOther", code)
	}
	if out[0] != -99 {
		t.Errorf("out[0] = %v, short buffer must be left untouched", out[0])
	}
}

// Boundary callbacks receive the boundary enumeration; the mapping is
// order-preserving and the message is decorated exactly as on the native
// surface.
func TestBoundaryCallbackLevelReencoding(t *testing.T) {
	b := NewBoundary(nil)

	var levels []BoundaryLevel
	var messages []string
	b.SetCallback(func(level BoundaryLevel, message string, _ any) {
		levels = append(levels, level)
		messages = append(messages, message)
	}, nil)

	var code ErrorCode
	if got := b.CircleArea(1, &code); got != Pi || code != CodeSuccess {
		t.Fatalf("CircleArea(1) = %v code=%v", got, code)
	}

	want := []BoundaryLevel{BoundaryDebug, BoundaryInfo, BoundaryWarn, BoundaryError}
	if len(levels) != len(want) {
		t.Fatalf("delivered %d lines, want %d", len(levels), len(want))
	}
	for i := range want {
		if levels[i] != want[i] {
			t.Errorf("line %d level = %v, want %v", i, levels[i], want[i])
		}
	}
	if got, want := messages[0], "[debug] [Geometry] circleArea: radius=1.000000, area=3.141593"; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
}

func TestBoundarySetLogLevel(t *testing.T) {
	b := NewBoundary(nil)

	var count int
	b.SetCallback(func(BoundaryLevel, string, any) { count++ }, nil)
	b.SetLogLevel(BoundaryWarn)

	var code ErrorCode
	b.CircleArea(1, &code)

	if count != 2 {
		t.Errorf("delivered %d lines at BoundaryWarn, want 2 (warn and error)", count)
	}
}

func TestBoundaryNilCallback(t *testing.T) {
	b := NewBoundary(nil)
	b.SetCallback(func(BoundaryLevel, string, any) { t.Error("stale callback fired") }, nil)
	b.SetCallback(nil, nil)

	var code ErrorCode
	if got := b.CircleArea(1, &code); got != Pi || code != CodeSuccess {
		t.Errorf("CircleArea(1) = %v code=%v", got, code)
	}
}

func TestErrorCodeString(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want string
	}{
		{CodeSuccess, "success"},
		{CodeNegativeInput, "negative_input"},
		{CodeOther, "other"},
		{ErrorCode(7), "unknown"},
	}
	for _, c := range cases {
		if got := c.code.String(); got != c.want {
			t.Errorf("ErrorCode(%d).String() = %q, want %q", c.code, got, c.want)
		}
	}
}
