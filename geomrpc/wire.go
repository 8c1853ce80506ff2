// © Copyright 2025-2026, Planemetric - https://planemetric.dev
// SPDX-License-Identifier: Apache-2.0

package geomrpc

import (
	"fmt"
	"io"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Request represents a parsed RPC request from the wire.
type Request struct {
	Method    string
	Version   string
	RequestID string
	LogLevel  string
	Batch     arrow.RecordBatch
	Metadata  map[string]string
}

// ReadRequest reads one complete IPC stream from the reader and extracts
// the method name, version, and parameter batch.
func ReadRequest(r io.Reader) (*Request, error) {
	reader, err := ipc.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading request IPC stream: %w", err)
	}
	defer reader.Release()

	if !reader.Next() {
		if err := reader.Err(); err != nil {
			return nil, fmt.Errorf("reading request batch: %w", err)
		}
		return nil, io.EOF
	}

	batch := reader.RecordBatch()
	batch.Retain() // keep batch alive after reader is released

	var meta arrow.Metadata
	if rb, ok := batch.(arrow.RecordBatchWithMetadata); ok {
		meta = rb.Metadata()
	}

	method, ok := meta.GetValue(MetaMethod)
	if !ok {
		batch.Release()
		return nil, &ProtocolError{
			Message: "missing 'geom_rpc.method' in request batch custom_metadata",
		}
	}

	version, ok := meta.GetValue(MetaRequestVersion)
	if !ok {
		batch.Release()
		return nil, &ProtocolError{
			Message: "missing 'geom_rpc.request_version' in request batch custom_metadata",
		}
	}
	if version != ProtocolVersion {
		batch.Release()
		return nil, &ProtocolError{
			Message: fmt.Sprintf("unsupported request version %q, expected %q", version, ProtocolVersion),
		}
	}

	if batch.Schema().NumFields() > 0 && batch.NumRows() != 1 {
		batch.Release()
		return nil, &ProtocolError{
			Message: fmt.Sprintf("expected 1 row in request batch, got %d", batch.NumRows()),
		}
	}

	requestID, _ := meta.GetValue(MetaRequestID)
	logLevel, _ := meta.GetValue(MetaLogLevel)

	// Drain remaining batches (read to EOS)
	for reader.Next() {
	}

	metaMap := make(map[string]string)
	for i := range meta.Len() {
		metaMap[meta.Keys()[i]] = meta.Values()[i]
	}

	return &Request{
		Method:    method,
		Version:   version,
		RequestID: requestID,
		LogLevel:  logLevel,
		Batch:     batch,
		Metadata:  metaMap,
	}, nil
}

// emptyBatch creates a zero-row batch with the given schema.
func emptyBatch(schema *arrow.Schema) arrow.RecordBatch {
	mem := memory.NewGoAllocator()
	cols := make([]arrow.Array, schema.NumFields())
	for i, f := range schema.Fields() {
		b := array.NewBuilder(mem, f.Type)
		cols[i] = b.NewArray()
		b.Release()
	}
	batch := array.NewRecordBatch(schema, cols, 0)
	for _, c := range cols {
		c.Release()
	}
	return batch
}

// writeLogBatch writes a zero-row batch carrying one decorated log line in
// its metadata.
func writeLogBatch(w *ipc.Writer, schema *arrow.Schema, line LogLine, serverID, requestID string) error {
	keys := []string{MetaLogLevel, MetaLogMessage}
	vals := []string{line.Level.String(), line.Message}

	if serverID != "" {
		keys = append(keys, MetaServerID)
		vals = append(vals, serverID)
	}
	if requestID != "" {
		keys = append(keys, MetaRequestID)
		vals = append(vals, requestID)
	}

	meta := arrow.NewMetadata(keys, vals)
	batch := emptyBatch(schema)
	defer batch.Release()

	batchWithMeta := array.NewRecordBatchWithMetadata(schema, batch.Columns(), 0, meta)
	defer batchWithMeta.Release()

	return w.Write(batchWithMeta)
}

// writeErrorBatch writes a zero-row batch carrying the boundary error code
// and message. This is the only place a handler fault crosses the wire.
func writeErrorBatch(w *ipc.Writer, schema *arrow.Schema, err error, serverID, requestID string) error {
	code := ErrorCodeFor(err)

	keys := []string{MetaErrorCode, MetaLogLevel, MetaLogMessage}
	vals := []string{strconv.Itoa(int(code)), SeverityError.String(), err.Error()}

	if serverID != "" {
		keys = append(keys, MetaServerID)
		vals = append(vals, serverID)
	}
	if requestID != "" {
		keys = append(keys, MetaRequestID)
		vals = append(vals, requestID)
	}

	meta := arrow.NewMetadata(keys, vals)
	batch := emptyBatch(schema)
	defer batch.Release()

	batchWithMeta := array.NewRecordBatchWithMetadata(schema, batch.Columns(), 0, meta)
	defer batchWithMeta.Release()

	return w.Write(batchWithMeta)
}

// WriteUnaryResponse writes a complete IPC stream containing log batches
// followed by a result batch: schema + log batches + result batch + EOS.
func WriteUnaryResponse(w io.Writer, schema *arrow.Schema, logs []LogLine,
	result arrow.RecordBatch, serverID, requestID string, opts ...ipc.Option) error {

	writer := ipc.NewWriter(w, append([]ipc.Option{ipc.WithSchema(schema)}, opts...)...)
	defer writer.Close()

	for _, line := range logs {
		if err := writeLogBatch(writer, schema, line, serverID, requestID); err != nil {
			return fmt.Errorf("writing log batch: %w", err)
		}
	}

	return writer.Write(result)
}

// WriteErrorResponse writes a complete IPC stream containing just an
// error batch.
func WriteErrorResponse(w io.Writer, schema *arrow.Schema, err error,
	serverID, requestID string, opts ...ipc.Option) error {

	writer := ipc.NewWriter(w, append([]ipc.Option{ipc.WithSchema(schema)}, opts...)...)
	defer writer.Close()

	return writeErrorBatch(writer, schema, err, serverID, requestID)
}

// floatParam reads a float64 column by name from row 0 of a params batch.
func floatParam(batch arrow.RecordBatch, name string) (float64, error) {
	col, err := paramColumn(batch, name)
	if err != nil {
		return 0, err
	}
	f, ok := col.(*array.Float64)
	if !ok {
		return 0, &ProtocolError{Message: fmt.Sprintf("parameter %q: expected float64 column, got %s", name, col.DataType())}
	}
	if f.IsNull(0) {
		return 0, &ProtocolError{Message: fmt.Sprintf("parameter %q: null value", name)}
	}
	return f.Value(0), nil
}

// floatListParam reads a list<float64> column by name from row 0 of a
// params batch.
func floatListParam(batch arrow.RecordBatch, name string) ([]float64, error) {
	col, err := paramColumn(batch, name)
	if err != nil {
		return nil, err
	}
	list, ok := col.(*array.List)
	if !ok {
		return nil, &ProtocolError{Message: fmt.Sprintf("parameter %q: expected list column, got %s", name, col.DataType())}
	}
	values, ok := list.ListValues().(*array.Float64)
	if !ok {
		return nil, &ProtocolError{Message: fmt.Sprintf("parameter %q: expected float64 list values, got %s", name, list.ListValues().DataType())}
	}
	start, end := list.ValueOffsets(0)
	out := make([]float64, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, values.Value(int(i)))
	}
	return out, nil
}

func paramColumn(batch arrow.RecordBatch, name string) (arrow.Array, error) {
	for ci := range batch.NumCols() {
		if batch.ColumnName(int(ci)) == name {
			return batch.Column(int(ci)), nil
		}
	}
	return nil, &ProtocolError{Message: fmt.Sprintf("missing parameter column %q", name)}
}

// newFloatResult builds the 1-row result batch for a scalar area.
func newFloatResult(schema *arrow.Schema, v float64) arrow.RecordBatch {
	mem := memory.NewGoAllocator()
	b := array.NewFloat64Builder(mem)
	defer b.Release()
	b.Append(v)
	arr := b.NewArray()
	defer arr.Release()
	return array.NewRecordBatch(schema, []arrow.Array{arr}, 1)
}

// newFloatListResult builds the 1-row result batch for a list of areas.
func newFloatListResult(schema *arrow.Schema, vs []float64) arrow.RecordBatch {
	mem := memory.NewGoAllocator()
	lb := array.NewListBuilder(mem, arrow.PrimitiveTypes.Float64)
	defer lb.Release()
	lb.Append(true)
	vb := lb.ValueBuilder().(*array.Float64Builder)
	for _, v := range vs {
		vb.Append(v)
	}
	arr := lb.NewArray()
	defer arr.Release()
	return array.NewRecordBatch(schema, []arrow.Array{arr}, 1)
}
