package geomrpc

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
)

const arrowContentType = "application/vnd.apache.arrow.stream"

// HttpServer serves geometry requests over HTTP. Every method is unary, so
// the surface is a single route: POST /geom/{method} with Arrow IPC stream
// bodies in both directions. The same log-forwarding and error-code
// contract as the stdio transport applies.
type HttpServer struct {
	server *Server
	prefix string
	mux    *http.ServeMux

	landingHTML  []byte
	describeHTML []byte
	notFoundHTML []byte
}

// NewHttpServer creates a new HTTP server wrapping an RPC server. Besides
// the Arrow endpoint it serves a human-facing landing page at the prefix,
// an HTML API reference at {prefix}/describe, and a 404 page elsewhere.
func NewHttpServer(server *Server) *HttpServer {
	h := &HttpServer{
		server: server,
		prefix: "/geom",
	}

	protocolName := server.ServiceName()
	if protocolName == "" {
		protocolName = "GeomRpcServer"
	}
	h.landingHTML = buildLandingHTML(h.prefix, protocolName, server.serverID)
	h.describeHTML = buildDescribeHTML(server, protocolName)
	h.notFoundHTML = buildNotFoundHTML(h.prefix, protocolName)

	h.mux = http.NewServeMux()
	h.mux.HandleFunc(fmt.Sprintf("GET %s", h.prefix), h.handleLandingPage)
	h.mux.HandleFunc(fmt.Sprintf("GET %s/describe", h.prefix), h.handleDescribePage)
	h.mux.HandleFunc(fmt.Sprintf("POST %s/{method}", h.prefix), h.handleUnary)
	h.mux.HandleFunc("/", h.handleNotFound)
	return h
}

// ServeHTTP implements http.Handler.
func (h *HttpServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// handleUnary dispatches one method call.
func (h *HttpServer) handleUnary(w http.ResponseWriter, r *http.Request) {
	method := r.PathValue("method")

	if ct := r.Header.Get("Content-Type"); ct != arrowContentType {
		h.writeHttpError(w, http.StatusUnsupportedMediaType,
			&ProtocolError{Message: fmt.Sprintf("unsupported content type: %s", ct)}, nil)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeHttpError(w, http.StatusBadRequest, err, nil)
		return
	}

	req, err := ReadRequest(bytes.NewReader(body))
	if err != nil {
		h.writeHttpError(w, http.StatusBadRequest, err, nil)
		return
	}
	defer req.Batch.Release()

	if method == "__describe__" {
		h.handleDescribe(w)
		return
	}

	info, ok := h.server.methods[method]
	if !ok {
		h.writeHttpError(w, http.StatusNotFound,
			&ProtocolError{Message: fmt.Sprintf("unknown method: %q", method)}, nil)
		return
	}

	// The URL method wins over batch metadata; keep them consistent for hooks.
	req.Method = method

	dispatchInfo := DispatchInfo{
		Method:            method,
		ServerID:          h.server.serverID,
		RequestID:         req.RequestID,
		TransportMetadata: httpMetadata(r, req),
	}

	var hookToken HookToken
	var hookActive bool
	stats := &CallStatistics{}
	ctx := r.Context()

	if h.server.dispatchHook != nil {
		hookCtx, token := h.server.dispatchHook.OnDispatchStart(ctx, dispatchInfo)
		if hookCtx != nil {
			ctx = hookCtx
		}
		hookToken = token
		hookActive = true
	}

	var buf bytes.Buffer
	handlerErr, _ := h.server.serveUnary(ctx, &buf, req, info, stats)

	if hookActive {
		h.server.dispatchHook.OnDispatchEnd(ctx, hookToken, dispatchInfo, stats, handlerErr)
	}

	statusCode := http.StatusOK
	if handlerErr != nil {
		statusCode = http.StatusInternalServerError
		if ErrorCodeFor(handlerErr) == CodeNegativeInput {
			statusCode = http.StatusBadRequest
		}
	}
	h.writeArrow(w, statusCode, buf.Bytes())
}

// handleDescribe handles the __describe__ introspection endpoint.
func (h *HttpServer) handleDescribe(w http.ResponseWriter) {
	batch, meta := h.server.buildDescribeBatch()
	defer batch.Release()

	batchWithMeta := array.NewRecordBatchWithMetadata(
		describeSchema, batch.Columns(), batch.NumRows(), meta)
	defer batchWithMeta.Release()

	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(describeSchema))
	_ = writer.Write(batchWithMeta)
	_ = writer.Close()

	h.writeArrow(w, http.StatusOK, buf.Bytes())
}

// httpMetadata merges transport headers into the request metadata map for
// hooks (trace propagation reads traceparent from here).
func httpMetadata(r *http.Request, req *Request) map[string]string {
	meta := make(map[string]string, len(req.Metadata)+2)
	for k, v := range req.Metadata {
		meta[k] = v
	}
	if v := r.Header.Get("traceparent"); v != "" {
		meta["traceparent"] = v
	}
	if v := r.Header.Get("tracestate"); v != "" {
		meta["tracestate"] = v
	}
	if r.RemoteAddr != "" {
		meta["remote_addr"] = r.RemoteAddr
	}
	if ua := r.UserAgent(); ua != "" {
		meta["user_agent"] = ua
	}
	return meta
}

func (h *HttpServer) writeHttpError(w http.ResponseWriter, statusCode int, err error, schema *arrow.Schema) {
	if schema == nil {
		schema = arrow.NewSchema(nil, nil)
	}
	var buf bytes.Buffer
	_ = WriteErrorResponse(&buf, schema, err, h.server.serverID, "")
	h.writeArrow(w, statusCode, buf.Bytes())
}

func (h *HttpServer) writeArrow(w http.ResponseWriter, statusCode int, data []byte) {
	w.Header().Set("Content-Type", arrowContentType)
	w.WriteHeader(statusCode)
	_, _ = w.Write(data)
}
