package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldReportID      = "report_id"
	FieldUserID        = "user_id"
	FieldDivision      = "division"
	FieldMonth         = "month"
	FieldArtifactPath  = "artifact_path"
	FieldAttachment    = "has_attachment"
	FieldLedgerEntries = "ledger_entries"
	FieldState         = "state"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentReport   = "report"
	ComponentRenderer = "renderer"
	ComponentStorage  = "storage"
	ComponentAudit    = "audit"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentUpload   = "upload"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpList      = "list"
	OpRender    = "render"
	OpCleanup   = "cleanup"
	OpNormalize = "normalize"
	OpSync      = "sync"
	OpEmit      = "emit"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)
