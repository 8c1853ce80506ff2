// © Copyright 2025-2026, Planemetric - https://planemetric.dev
// SPDX-License-Identifier: Apache-2.0

package geomrpc

import (
	"bytes"
	"testing"
)

func BenchmarkCircleArea(b *testing.B) {
	calc := NewCalculator(nil)
	for i := 0; i < b.N; i++ {
		if _, err := calc.CircleArea(2.5); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCircleAreaWithCallback(b *testing.B) {
	sink := NewLogSink()
	var n int
	sink.SetCallback(func(Severity, string, any) { n++ }, nil)
	calc := NewCalculator(sink)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := calc.CircleArea(2.5); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCalculateAreas(b *testing.B) {
	calc := NewCalculator(nil)
	radii := make([]float64, 100)
	for i := range radii {
		radii[i] = float64(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := calc.CalculateAreas(radii); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkServeCircleArea(b *testing.B) {
	server := NewServer()

	request := circleAreaRequest(b, 2.5, map[string]string{MetaLogLevel: "error"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var out bytes.Buffer
		server.Serve(bytes.NewReader(request), &out)
	}
}
