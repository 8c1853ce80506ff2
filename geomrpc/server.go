// © Copyright 2025-2026, Planemetric - https://planemetric.dev
// SPDX-License-Identifier: Apache-2.0

package geomrpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"sort"
	"strings"
	"syscall"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
)

// Handler computes one unary method. The params batch is the request's
// 1-row parameter batch; the returned batch must match the method's result
// schema. Geometry runs through call.Calc so its log lines reach the client.
type Handler func(ctx context.Context, call *CallContext, params arrow.RecordBatch) (arrow.RecordBatch, error)

// methodInfo stores the registration details for one method.
type methodInfo struct {
	Name         string
	Doc          string
	ParamsSchema *arrow.Schema
	ResultSchema *arrow.Schema
	Handler      Handler
}

// Fixed parameter and result schemas for the geometry method set.
var (
	circleAreaParamsSchema = arrow.NewSchema([]arrow.Field{
		{Name: "radius", Type: arrow.PrimitiveTypes.Float64},
	}, nil)
	rectangleAreaParamsSchema = arrow.NewSchema([]arrow.Field{
		{Name: "width", Type: arrow.PrimitiveTypes.Float64},
		{Name: "height", Type: arrow.PrimitiveTypes.Float64},
	}, nil)
	triangleAreaParamsSchema = arrow.NewSchema([]arrow.Field{
		{Name: "base", Type: arrow.PrimitiveTypes.Float64},
		{Name: "height", Type: arrow.PrimitiveTypes.Float64},
	}, nil)
	calculateAreasParamsSchema = arrow.NewSchema([]arrow.Field{
		{Name: "radii", Type: arrow.ListOf(arrow.PrimitiveTypes.Float64)},
	}, nil)

	scalarResultSchema = arrow.NewSchema([]arrow.Field{
		{Name: "result", Type: arrow.PrimitiveTypes.Float64},
	}, nil)
	listResultSchema = arrow.NewSchema([]arrow.Field{
		{Name: "result", Type: arrow.ListOf(arrow.PrimitiveTypes.Float64)},
	}, nil)
)

// Server dispatches incoming requests to the geometry method set.
type Server struct {
	methods      map[string]*methodInfo
	serverID     string
	serviceName  string
	dispatchHook DispatchHook
	compress     bool
	debugErrors  bool
}

// NewServer creates a server with the geometry methods registered.
func NewServer() *Server {
	s := &Server{methods: make(map[string]*methodInfo)}
	s.registerGeometry()
	return s
}

// SetServerID sets a server identifier included in response metadata.
func (s *Server) SetServerID(id string) {
	s.serverID = id
}

// SetServiceName sets a logical service name used by observability hooks.
func (s *Server) SetServiceName(name string) {
	s.serviceName = name
}

// ServiceName returns the logical service name, or empty string if not set.
func (s *Server) ServiceName() string {
	return s.serviceName
}

// SetDispatchHook registers a hook that is called around each dispatch.
func (s *Server) SetDispatchHook(hook DispatchHook) {
	s.dispatchHook = hook
}

// SetCompression enables zstd compression of response IPC streams.
func (s *Server) SetCompression(enabled bool) {
	s.compress = enabled
}

// SetDebugErrors controls whether handler panics cross the wire with a
// stack trace appended to the error message. Off by default; intended for
// development, not production, since stack traces leak implementation
// detail to clients.
func (s *Server) SetDebugErrors(enabled bool) {
	s.debugErrors = enabled
}

// writerOpts returns extra ipc.Writer options for response streams.
func (s *Server) writerOpts() []ipc.Option {
	if s.compress {
		return []ipc.Option{ipc.WithZstd()}
	}
	return nil
}

func (s *Server) registerGeometry() {
	s.methods["circle_area"] = &methodInfo{
		Name:         "circle_area",
		Doc:          "Area of a circle from its radius.",
		ParamsSchema: circleAreaParamsSchema,
		ResultSchema: scalarResultSchema,
		Handler: func(_ context.Context, call *CallContext, params arrow.RecordBatch) (arrow.RecordBatch, error) {
			radius, err := floatParam(params, "radius")
			if err != nil {
				return nil, err
			}
			area, err := call.Calc.CircleArea(radius)
			if err != nil {
				return nil, err
			}
			return newFloatResult(scalarResultSchema, area), nil
		},
	}
	s.methods["rectangle_area"] = &methodInfo{
		Name:         "rectangle_area",
		Doc:          "Area of a rectangle from width and height.",
		ParamsSchema: rectangleAreaParamsSchema,
		ResultSchema: scalarResultSchema,
		Handler: func(_ context.Context, call *CallContext, params arrow.RecordBatch) (arrow.RecordBatch, error) {
			width, err := floatParam(params, "width")
			if err != nil {
				return nil, err
			}
			height, err := floatParam(params, "height")
			if err != nil {
				return nil, err
			}
			area, err := call.Calc.RectangleArea(width, height)
			if err != nil {
				return nil, err
			}
			return newFloatResult(scalarResultSchema, area), nil
		},
	}
	s.methods["triangle_area"] = &methodInfo{
		Name:         "triangle_area",
		Doc:          "Area of a triangle from base and height.",
		ParamsSchema: triangleAreaParamsSchema,
		ResultSchema: scalarResultSchema,
		Handler: func(_ context.Context, call *CallContext, params arrow.RecordBatch) (arrow.RecordBatch, error) {
			base, err := floatParam(params, "base")
			if err != nil {
				return nil, err
			}
			height, err := floatParam(params, "height")
			if err != nil {
				return nil, err
			}
			area, err := call.Calc.TriangleArea(base, height)
			if err != nil {
				return nil, err
			}
			return newFloatResult(scalarResultSchema, area), nil
		},
	}
	s.methods["calculate_areas"] = &methodInfo{
		Name:         "calculate_areas",
		Doc:          "Circle areas for a list of radii, in input order.",
		ParamsSchema: calculateAreasParamsSchema,
		ResultSchema: listResultSchema,
		Handler: func(_ context.Context, call *CallContext, params arrow.RecordBatch) (arrow.RecordBatch, error) {
			radii, err := floatListParam(params, "radii")
			if err != nil {
				return nil, err
			}
			areas, err := call.Calc.CalculateAreas(radii)
			if err != nil {
				return nil, err
			}
			return newFloatListResult(listResultSchema, areas), nil
		},
	}
}

// RunStdio runs the server loop reading from stdin and writing to stdout.
// If stdin or stdout is connected to a terminal, a warning is printed to
// stderr.
func (s *Server) RunStdio() {
	// Ignore SIGPIPE so writes to closed pipes return errors instead of
	// killing the process. Transport errors are already handled by
	// isTransportClosed() in the serve loop.
	signal.Ignore(syscall.SIGPIPE)

	if isTerminal(os.Stdin) || isTerminal(os.Stdout) {
		fmt.Fprintln(os.Stderr,
			"WARNING: This process communicates via Arrow IPC on stdin/stdout "+
				"and is not intended to be run interactively.\n"+
				"It should be launched as a subprocess by a geom_rpc client.")
	}
	s.Serve(os.Stdin, os.Stdout)
}

// isTerminal reports whether f is connected to a terminal.
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// Serve runs the server loop on the given reader/writer pair.
func (s *Server) Serve(r io.Reader, w io.Writer) {
	s.ServeWithContext(context.Background(), r, w)
}

// ServeWithContext runs the server loop on the given reader/writer pair
// with a context.
func (s *Server) ServeWithContext(ctx context.Context, r io.Reader, w io.Writer) {
	for {
		err := s.serveOne(ctx, r, w)
		if err != nil {
			if err == io.EOF {
				return
			}
			if !isTransportClosed(err) {
				slog.Error("serve loop error", "err", err)
			}
			return
		}
	}
}

// serveOne handles one complete request-response cycle.
func (s *Server) serveOne(ctx context.Context, r io.Reader, w io.Writer) error {
	req, err := ReadRequest(r)
	if err != nil {
		if err == io.EOF {
			return io.EOF
		}
		var protoErr *ProtocolError
		if errors.As(err, &protoErr) {
			emptySchema := arrow.NewSchema(nil, nil)
			_ = WriteErrorResponse(w, emptySchema, protoErr, s.serverID, "", s.writerOpts()...)
			return nil // continue serving
		}
		return err // transport error, stop serving
	}
	defer req.Batch.Release()

	// Handle __describe__ introspection
	if req.Method == "__describe__" {
		return s.serveDescribe(w, req)
	}

	info, ok := s.methods[req.Method]
	if !ok {
		errMsg := fmt.Sprintf("unknown method: %q, available methods: %v", req.Method, s.availableMethods())
		emptySchema := arrow.NewSchema(nil, nil)
		_ = WriteErrorResponse(w, emptySchema, &ProtocolError{Message: errMsg},
			s.serverID, req.RequestID, s.writerOpts()...)
		return nil
	}

	dispatchInfo := DispatchInfo{
		Method:            req.Method,
		ServerID:          s.serverID,
		RequestID:         req.RequestID,
		TransportMetadata: req.Metadata,
	}

	var hookToken HookToken
	var hookActive bool
	stats := &CallStatistics{}

	if s.dispatchHook != nil {
		func() {
			defer func() {
				if rv := recover(); rv != nil {
					slog.Error("dispatch hook start panic", "err", rv)
				}
			}()
			var hookCtx context.Context
			hookCtx, hookToken = s.dispatchHook.OnDispatchStart(ctx, dispatchInfo)
			if hookCtx != nil {
				ctx = hookCtx
			}
			hookActive = true
		}()
	}

	handlerErr, transportErr := s.serveUnary(ctx, w, req, info, stats)

	if hookActive {
		func() {
			defer func() {
				if rv := recover(); rv != nil {
					slog.Error("dispatch hook end panic", "err", rv)
				}
			}()
			s.dispatchHook.OnDispatchEnd(ctx, hookToken, dispatchInfo, stats, handlerErr)
		}()
	}

	return transportErr
}

// serveUnary dispatches one method call. Returns handlerErr (application
// error reported to the hook) and transportErr (I/O error for the serve
// loop). Handler faults never propagate: panics are recovered here and
// cross the wire as error batches carrying the boundary error code.
func (s *Server) serveUnary(ctx context.Context, w io.Writer, req *Request, info *methodInfo, stats *CallStatistics) (handlerErr, transportErr error) {
	stats.RecordInput(req.Batch.NumRows(), batchBufferSize(req.Batch))

	threshold := SeverityDebug // default: most permissive
	if req.LogLevel != "" {
		if lvl, ok := ParseSeverity(req.LogLevel); ok {
			threshold = lvl
		}
	}

	// Request-private sink: client threshold, buffering callback.
	sink := NewLogSink()
	sink.SetThreshold(threshold)
	call := &CallContext{
		Ctx:       ctx,
		RequestID: req.RequestID,
		ServerID:  s.serverID,
		Method:    req.Method,
	}
	sink.SetCallback(func(level Severity, message string, _ any) {
		call.lines = append(call.lines, LogLine{Level: level, Message: message})
	}, nil)
	call.Calc = NewCalculator(sink)

	var result arrow.RecordBatch
	var callErr error
	func() {
		defer func() {
			if rv := recover(); rv != nil {
				if s.debugErrors {
					callErr = fmt.Errorf("internal fault: %v\n%s", rv, debug.Stack())
				} else {
					callErr = fmt.Errorf("internal fault: %v", rv)
				}
			}
		}()
		result, callErr = info.Handler(ctx, call, req.Batch)
	}()

	logs := call.drainLogs()
	stats.LogLines = int64(len(logs))

	if callErr != nil {
		writer := ipc.NewWriter(w, append([]ipc.Option{ipc.WithSchema(info.ResultSchema)}, s.writerOpts()...)...)
		for _, line := range logs {
			if err := writeLogBatch(writer, info.ResultSchema, line, s.serverID, req.RequestID); err != nil {
				slog.Error("failed to write log batch", "err", err)
			}
		}
		if err := writeErrorBatch(writer, info.ResultSchema, callErr, s.serverID, req.RequestID); err != nil {
			slog.Error("failed to write error batch", "err", err)
		}
		if err := writer.Close(); err != nil {
			slog.Error("failed to close IPC writer", "err", err)
		}
		return callErr, nil
	}
	defer result.Release()

	stats.RecordOutput(result.NumRows(), batchBufferSize(result))

	return nil, WriteUnaryResponse(w, info.ResultSchema, logs, result,
		s.serverID, req.RequestID, s.writerOpts()...)
}

// isTransportClosed returns true for errors that indicate the transport
// was closed normally.
func isTransportClosed(err error) bool {
	if err == io.EOF {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "EOF")
}

func (s *Server) availableMethods() []string {
	names := make([]string, 0, len(s.methods))
	for name := range s.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
