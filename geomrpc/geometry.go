// © Copyright 2025-2026, Planemetric - https://planemetric.dev
// SPDX-License-Identifier: Apache-2.0

package geomrpc

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Pi matches the constant used by reference implementations of the
// geometry protocol (IEEE-754 double nearest to π).
const Pi = 3.14159265358979323846

// Calculator implements the native surface of the geometry formulas.
// Every operation validates its input, computes, and then emits the same
// formatted line at all four severities in ascending order; which of those
// lines reach the registered callback is decided entirely by the sink's
// threshold, never by the operation.
type Calculator struct {
	sink *LogSink
}

// NewCalculator returns a calculator that logs through sink. A nil sink
// is replaced with a fresh one so the zero configuration stays a no-op.
func NewCalculator(sink *LogSink) *Calculator {
	if sink == nil {
		sink = NewLogSink()
	}
	return &Calculator{sink: sink}
}

// Sink returns the sink this calculator emits through.
func (c *Calculator) Sink() *LogSink {
	return c.sink
}

// logAll emits one line per severity, identical message, ascending order.
func (c *Calculator) logAll(message string) {
	c.sink.Emit(SeverityDebug, message)
	c.sink.Emit(SeverityInfo, message)
	c.sink.Emit(SeverityWarn, message)
	c.sink.Emit(SeverityError, message)
}

// CircleArea returns π·radius². A negative radius fails with
// *InvalidInputError.
func (c *Calculator) CircleArea(radius float64) (float64, error) {
	if radius < 0 {
		return 0, &InvalidInputError{Message: "circleArea: radius cannot be negative"}
	}
	area := Pi * radius * radius
	c.logAll(fmt.Sprintf("[Geometry] circleArea: radius=%.6f, area=%.6f", radius, area))
	return area, nil
}

// RectangleArea returns width·height. A negative width or height fails
// with *InvalidInputError.
func (c *Calculator) RectangleArea(width, height float64) (float64, error) {
	if width < 0 || height < 0 {
		return 0, &InvalidInputError{Message: "rectangleArea: width/height cannot be negative"}
	}
	area := width * height
	c.logAll(fmt.Sprintf("[Geometry] rectangleArea: width=%.6f, height=%.6f, area=%.6f", width, height, area))
	return area, nil
}

// TriangleArea returns 0.5·base·height. A negative base or height fails
// with *InvalidInputError.
//
// The log line reuses the rectangleArea template, substituting base for
// width. That wording is a known quirk of the reference implementation and
// is preserved byte-for-byte so existing log consumers keep matching.
func (c *Calculator) TriangleArea(base, height float64) (float64, error) {
	if base < 0 || height < 0 {
		return 0, &InvalidInputError{Message: "triangleArea: base/height cannot be negative"}
	}
	area := 0.5 * base * height
	c.logAll(fmt.Sprintf("[Geometry] rectangleArea: width=%.6f, height=%.6f, area=%.6f", base, height, area))
	return area, nil
}

// CalculateAreas computes circle areas for every radius in input order.
// The first negative radius fails the whole call with *InvalidInputError;
// no partial result is returned. On success every element has passed
// through CircleArea (emitting its own four-level burst) and one combined
// line listing all areas is emitted at all four severities.
func (c *Calculator) CalculateAreas(radii []float64) ([]float64, error) {
	areas := make([]float64, 0, len(radii))
	for _, r := range radii {
		if r < 0 {
			return nil, &InvalidInputError{Message: "calculateAreas: negative radius in input"}
		}
		area, err := c.CircleArea(r)
		if err != nil {
			return nil, err
		}
		areas = append(areas, area)
	}

	parts := make([]string, len(areas))
	for i, a := range areas {
		parts[i] = strconv.FormatFloat(a, 'f', 6, 64)
	}
	c.logAll("[Geometry] calculateAreas: areas=[" + strings.Join(parts, ", ") + "]")
	return areas, nil
}

// CircleAreaCounter wraps CircleArea with a shared call counter. It exists
// to demonstrate the concurrency hazard of unsynchronized shared state:
// with Synchronized true the increment runs under a mutex scoped strictly
// to the counter (not the computation or the logging) and Count equals the
// number of completed calls; with Synchronized false concurrent calls may
// lose increments. The divergence is deliberate.
type CircleAreaCounter struct {
	calc         *Calculator
	synchronized bool

	mu    sync.Mutex
	count int
}

// NewCircleAreaCounter returns a counter over calc's CircleArea.
func NewCircleAreaCounter(calc *Calculator, synchronized bool) *CircleAreaCounter {
	return &CircleAreaCounter{calc: calc, synchronized: synchronized}
}

// Area behaves exactly like Calculator.CircleArea and additionally counts
// the completed call.
func (c *CircleAreaCounter) Area(radius float64) (float64, error) {
	area, err := c.calc.CircleArea(radius)
	if err != nil {
		return 0, err
	}
	if c.synchronized {
		c.mu.Lock()
		c.count++
		c.mu.Unlock()
	} else {
		c.count++
	}
	return area, nil
}

// Count returns the number of completed calls observed so far. For the
// unsynchronized variant the value is only reliable once all callers have
// finished, and may still undercount calls that raced.
func (c *CircleAreaCounter) Count() int {
	if c.synchronized {
		c.mu.Lock()
		defer c.mu.Unlock()
	}
	return c.count
}
