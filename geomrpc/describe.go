// © Copyright 2025-2026, Planemetric - https://planemetric.dev
// SPDX-License-Identifier: Apache-2.0

package geomrpc

import (
	"bytes"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Describe schema: one row per registered method.
var describeSchema = arrow.NewSchema([]arrow.Field{
	{Name: "name", Type: arrow.BinaryTypes.String},
	{Name: "doc", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "params_schema_ipc", Type: arrow.BinaryTypes.Binary},
	{Name: "result_schema_ipc", Type: arrow.BinaryTypes.Binary},
}, nil)

// Describe metadata keys.
const (
	MetaProtocolName    = "geom_rpc.protocol_name"
	MetaDescribeVersion = "geom_rpc.describe_version"
	DescribeVersion     = "1"
)

// serializeSchema serializes an Arrow schema to IPC format bytes.
func serializeSchema(schema *arrow.Schema) []byte {
	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	w.Close()
	return buf.Bytes()
}

// buildDescribeBatch builds the __describe__ response batch and metadata.
func (s *Server) buildDescribeBatch() (arrow.RecordBatch, arrow.Metadata) {
	mem := memory.NewGoAllocator()

	names := s.availableMethods()

	nameBuilder := array.NewStringBuilder(mem)
	defer nameBuilder.Release()

	docBuilder := array.NewStringBuilder(mem)
	defer docBuilder.Release()

	paramsSchemaBuilder := array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)
	defer paramsSchemaBuilder.Release()

	resultSchemaBuilder := array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)
	defer resultSchemaBuilder.Release()

	for _, name := range names {
		info := s.methods[name]

		nameBuilder.Append(name)
		if info.Doc != "" {
			docBuilder.Append(info.Doc)
		} else {
			docBuilder.AppendNull()
		}
		paramsSchemaBuilder.Append(serializeSchema(info.ParamsSchema))
		resultSchemaBuilder.Append(serializeSchema(info.ResultSchema))
	}

	cols := make([]arrow.Array, 4)
	cols[0] = nameBuilder.NewArray()
	cols[1] = docBuilder.NewArray()
	cols[2] = paramsSchemaBuilder.NewArray()
	cols[3] = resultSchemaBuilder.NewArray()
	for _, c := range cols {
		defer c.Release()
	}

	batch := array.NewRecordBatch(describeSchema, cols, int64(len(names)))

	keys := []string{MetaProtocolName, MetaRequestVersion, MetaDescribeVersion}
	vals := []string{"GeomRpcServer", ProtocolVersion, DescribeVersion}
	if s.serverID != "" {
		keys = append(keys, MetaServerID)
		vals = append(vals, s.serverID)
	}

	return batch, arrow.NewMetadata(keys, vals)
}

// serveDescribe handles the __describe__ introspection request.
func (s *Server) serveDescribe(w io.Writer, req *Request) error {
	batch, meta := s.buildDescribeBatch()
	defer batch.Release()

	batchWithMeta := array.NewRecordBatchWithMetadata(
		describeSchema, batch.Columns(), batch.NumRows(), meta)
	defer batchWithMeta.Release()

	writer := ipc.NewWriter(w, append([]ipc.Option{ipc.WithSchema(describeSchema)}, s.writerOpts()...)...)
	defer writer.Close()

	return writer.Write(batchWithMeta)
}
