package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across tracegraph.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldBuildID   = "build_id"
	FieldComponent = "component"

	// Operations
	FieldOperation = "operation"
	FieldQuery     = "query"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError     = "error"
	FieldErrorType = "error_type"

	// Counts
	FieldCount      = "count"
	FieldTotalCount = "total_count"

	// Source locations
	FieldFile     = "file"
	FieldDocument = "document"
	FieldLine     = "line"

	// Traceability
	FieldItem      = "item"
	FieldTarget    = "target"
	FieldRelation  = "relation"
	FieldAttribute = "attribute"
)

type contextKey string

const (
	buildIDKey   contextKey = "logger_build_id"
	componentKey contextKey = "logger_component"
)

// WithBuildID adds a build ID to the context for logging
func WithBuildID(ctx context.Context, buildID string) context.Context {
	return context.WithValue(ctx, buildIDKey, buildID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Warnw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if buildID, ok := ctx.Value(buildIDKey).(string); ok && buildID != "" {
		fields = append(fields, FieldBuildID, buildID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns a logger with fields extracted from context.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
//
//	type Builder struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func NewBuilder() *Builder {
//	    return &Builder{logger: logger.ComponentLogger("build")}
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// SourceFields returns the fields locating a warning in a source document.
func SourceFields(document string, line int) []interface{} {
	return []interface{}{FieldDocument, document, FieldLine, line}
}
