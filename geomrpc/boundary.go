// © Copyright 2025-2026, Planemetric - https://planemetric.dev
// SPDX-License-Identifier: Apache-2.0

package geomrpc

import "fmt"

// FailedArea is the sentinel returned by Boundary area operations on
// failure. It is only meaningful together with a non-success error code:
// callers must check the code, not the sign of the return value.
const FailedArea = -1

// BoundaryLevel is the boundary surface's severity enumeration. It is
// structurally identical to Severity (same positions, same order) but kept
// as a distinct type so the two surfaces cannot be mixed accidentally;
// conversion happens only at the adapter edge.
type BoundaryLevel int32

const (
	BoundaryDebug BoundaryLevel = iota
	BoundaryInfo
	BoundaryWarn
	BoundaryError
)

// severityFromBoundary converts a boundary level to the internal
// enumeration. Total and order-preserving.
func severityFromBoundary(level BoundaryLevel) Severity {
	return Severity(level)
}

// boundaryFromSeverity converts an internal severity to the boundary
// enumeration. Total and order-preserving.
func boundaryFromSeverity(level Severity) BoundaryLevel {
	return BoundaryLevel(level)
}

// BoundaryCallback is the callback shape of the boundary surface:
// boundary-level severity, decorated message, opaque userdata.
type BoundaryCallback func(level BoundaryLevel, message string, userdata any)

// Boundary mirrors the Calculator behind a contract that never lets a
// fault escape. Every area operation takes an error-code output parameter
// (nil allowed) and returns FailedArea instead of an error; internal
// faults are caught at this single translation point and re-encoded as
// CodeNegativeInput or CodeOther.
type Boundary struct {
	calc *Calculator
}

// NewBoundary wraps calc with the error-code surface. A nil calc gets a
// fresh calculator with its own sink.
func NewBoundary(calc *Calculator) *Boundary {
	if calc == nil {
		calc = NewCalculator(nil)
	}
	return &Boundary{calc: calc}
}

// Calculator returns the wrapped native-surface calculator.
func (b *Boundary) Calculator() *Calculator {
	return b.calc
}

// SetLogLevel sets the sink threshold from a boundary-level value.
func (b *Boundary) SetLogLevel(level BoundaryLevel) {
	b.calc.sink.SetThreshold(severityFromBoundary(level))
}

// SetCallback registers a boundary-style callback. The callback is
// wrapped in an adapter that re-encodes the internal severity into the
// boundary enumeration before delivery; decoration and filtering still
// happen in the sink, exactly as on the native surface.
func (b *Boundary) SetCallback(cb BoundaryCallback, userdata any) {
	if cb == nil {
		b.calc.sink.SetCallback(nil, nil)
		return
	}
	b.calc.sink.SetCallback(func(level Severity, message string, ud any) {
		cb(boundaryFromSeverity(level), message, ud)
	}, userdata)
}

// setCode writes code through errcode when the pointer is non-nil.
func setCode(errcode *ErrorCode, code ErrorCode) {
	if errcode != nil {
		*errcode = code
	}
}

// guardArea runs op, converting a panic into an error so nothing unwinds
// past the boundary.
func guardArea(op func() (float64, error)) (area float64, err error) {
	defer func() {
		if rv := recover(); rv != nil {
			err = fmt.Errorf("internal fault: %v", rv)
		}
	}()
	return op()
}

// area is the shared translation point for single-result operations.
func (b *Boundary) area(errcode *ErrorCode, op func() (float64, error)) float64 {
	v, err := guardArea(op)
	if err != nil {
		setCode(errcode, ErrorCodeFor(err))
		return FailedArea
	}
	setCode(errcode, CodeSuccess)
	return v
}

// CircleArea mirrors Calculator.CircleArea. On failure it returns
// FailedArea and sets errcode to CodeNegativeInput or CodeOther.
func (b *Boundary) CircleArea(radius float64, errcode *ErrorCode) float64 {
	return b.area(errcode, func() (float64, error) { return b.calc.CircleArea(radius) })
}

// RectangleArea mirrors Calculator.RectangleArea.
func (b *Boundary) RectangleArea(width, height float64, errcode *ErrorCode) float64 {
	return b.area(errcode, func() (float64, error) { return b.calc.RectangleArea(width, height) })
}

// TriangleArea mirrors Calculator.TriangleArea.
func (b *Boundary) TriangleArea(base, height float64, errcode *ErrorCode) float64 {
	return b.area(errcode, func() (float64, error) { return b.calc.TriangleArea(base, height) })
}

// CalculateAreas mirrors Calculator.CalculateAreas, writing results into
// the caller-supplied out buffer, which must be at least len(radii) long.
// On any failure out is left untouched and errcode reports the fault; a
// too-short buffer counts as an internal fault (CodeOther). On success all
// len(radii) entries are written in input order.
func (b *Boundary) CalculateAreas(radii []float64, out []float64, errcode *ErrorCode) {
	areas, err := func() (result []float64, err error) {
		defer func() {
			if rv := recover(); rv != nil {
				err = fmt.Errorf("internal fault: %v", rv)
			}
		}()
		return b.calc.CalculateAreas(radii)
	}()
	if err != nil {
		setCode(errcode, ErrorCodeFor(err))
		return
	}
	if len(out) < len(areas) {
		setCode(errcode, CodeOther)
		return
	}
	copy(out, areas)
	setCode(errcode, CodeSuccess)
}
