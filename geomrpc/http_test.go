// © Copyright 2025-2026, Planemetric - https://planemetric.dev
// SPDX-License-Identifier: Apache-2.0

package geomrpc

import (
	"bytes"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
)

func postArrow(t *testing.T, handler http.Handler, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHttpCircleArea(t *testing.T) {
	h := NewHttpServer(NewServer())

	rec := postArrow(t, h, "/geom/circle_area", circleAreaRequest(t, 2, nil), arrowContentType)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != arrowContentType {
		t.Errorf("response content type = %q, want %q", ct, arrowContentType)
	}

	resp := decodeResponse(t, rec.Body.Bytes())
	defer resp.release()

	if resp.result == nil {
		t.Fatalf("no result batch (error: %s %s)", resp.errorCode, resp.errorMsg)
	}
	got := resp.result.Column(0).(*array.Float64).Value(0)
	if want := Pi * 4; math.Abs(got-want) > 1e-12 {
		t.Errorf("circle_area over HTTP = %v, want %v", got, want)
	}
	if len(resp.logs) != 4 {
		t.Errorf("forwarded %d log lines, want 4", len(resp.logs))
	}
}

func TestHttpNegativeInputIsBadRequest(t *testing.T) {
	h := NewHttpServer(NewServer())

	rec := postArrow(t, h, "/geom/circle_area", circleAreaRequest(t, -1, nil), arrowContentType)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeResponse(t, rec.Body.Bytes())
	defer resp.release()

	if want := strconv.Itoa(int(CodeNegativeInput)); resp.errorCode != want {
		t.Errorf("error code = %q, want %q", resp.errorCode, want)
	}
}

func TestHttpUnsupportedContentType(t *testing.T) {
	h := NewHttpServer(NewServer())

	rec := postArrow(t, h, "/geom/circle_area", circleAreaRequest(t, 1, nil), "application/json")

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", rec.Code)
	}
}

func TestHttpUnknownMethod(t *testing.T) {
	h := NewHttpServer(NewServer())

	body := encodeRequest(t, "sphere_volume", arrow.NewSchema(nil, nil), nil, nil)
	rec := postArrow(t, h, "/geom/sphere_volume", body, arrowContentType)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHttpMalformedBody(t *testing.T) {
	h := NewHttpServer(NewServer())

	rec := postArrow(t, h, "/geom/circle_area", []byte("not an arrow stream"), arrowContentType)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHttpDescribe(t *testing.T) {
	h := NewHttpServer(NewServer())

	body := encodeRequest(t, "__describe__", arrow.NewSchema(nil, nil), nil, nil)
	rec := postArrow(t, h, "/geom/__describe__", body, arrowContentType)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	reader, err := ipc.NewReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("opening describe response: %v", err)
	}
	defer reader.Release()

	if !reader.Next() {
		t.Fatalf("no describe batch: %v", reader.Err())
	}
	if got := reader.RecordBatch().NumRows(); got != 4 {
		t.Errorf("describe has %d rows, want 4", got)
	}
}

func TestHttpPages(t *testing.T) {
	server := NewServer()
	server.SetServiceName("geometry_service")
	h := NewHttpServer(server)

	cases := []struct {
		path     string
		status   int
		contains string
	}{
		{"/geom", http.StatusOK, "geometry_service"},
		{"/geom/describe", http.StatusOK, "circle_area"},
		{"/nope", http.StatusNotFound, "geom-rpc"},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, c.path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != c.status {
			t.Errorf("GET %s status = %d, want %d", c.path, rec.Code, c.status)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("GET %s content type = %q, want text/html", c.path, ct)
		}
		if !strings.Contains(rec.Body.String(), c.contains) {
			t.Errorf("GET %s body does not mention %q", c.path, c.contains)
		}
	}
}

func TestHttpDispatchHookSeesTransportMetadata(t *testing.T) {
	server := NewServer()
	hook := &dispatchRecorder{}
	server.SetDispatchHook(hook)
	h := NewHttpServer(server)

	req := httptest.NewRequest(http.MethodPost, "/geom/circle_area", bytes.NewReader(circleAreaRequest(t, 1, nil)))
	req.Header.Set("Content-Type", arrowContentType)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(hook.starts) != 1 {
		t.Fatalf("hook called %d times, want 1", len(hook.starts))
	}
	meta := hook.starts[0].TransportMetadata
	if meta["traceparent"] == "" {
		t.Error("traceparent header not propagated to dispatch hook")
	}
	if meta["remote_addr"] == "" {
		t.Error("remote_addr not propagated to dispatch hook")
	}
}
