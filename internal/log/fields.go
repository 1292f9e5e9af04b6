package log

import "go.uber.org/zap"

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldKind       = "kind"
	FieldTitle      = "title"
	FieldAmount     = "amount"
	FieldCategory   = "category"
	FieldPriority   = "priority"
	FieldCount      = "count"
	FieldBackend    = "backend"
	FieldFile       = "file"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentTracker  = "tracker"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentSheets   = "sheets"
	ComponentBackend  = "backend"
	ComponentShutdown = "shutdown"
	ComponentConsole  = "console"
)

// Operations defines standard operation names
const (
	OpAppend   = "append"
	OpLoad     = "load"
	OpSave     = "save"
	OpPublish  = "publish"
	OpExport   = "export"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// Operation tags an entry with one of the Op constants.
func Operation(op string) zap.Field {
	return zap.String(FieldOperation, op)
}

// Kind tags an entry with a record kind.
func Kind(kind string) zap.Field {
	return zap.String(FieldKind, kind)
}

// Expense returns the fields describing an appended expense.
func Expense(title string, amount float64, category string) []zap.Field {
	return []zap.Field{
		zap.String(FieldKind, "expense"),
		zap.String(FieldTitle, title),
		zap.Float64(FieldAmount, amount),
		zap.String(FieldCategory, category),
	}
}

// Task returns the fields describing an appended task.
func Task(title, priority string) []zap.Field {
	return []zap.Field{
		zap.String(FieldKind, "task"),
		zap.String(FieldTitle, title),
		zap.String(FieldPriority, priority),
	}
}
