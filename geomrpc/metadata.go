package geomrpc

// Well-known metadata keys used in the geom_rpc wire protocol.
// These appear as custom_metadata on Arrow IPC RecordBatch messages.
const (
	MetaMethod         = "geom_rpc.method"
	MetaRequestVersion = "geom_rpc.request_version"
	MetaRequestID      = "geom_rpc.request_id"
	MetaLogLevel       = "geom_rpc.log_level"
	MetaLogMessage     = "geom_rpc.log_message"
	MetaErrorCode      = "geom_rpc.error_code"
	MetaServerID       = "geom_rpc.server_id"

	ProtocolVersion = "1"
)
