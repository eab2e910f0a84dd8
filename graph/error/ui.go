package grapherror

import (
	"fmt"

	"github.com/teranos/tracegraph/logger"
)

// defaultMessages provides short descriptions for each category
var defaultMessages = map[Category]string{
	CategoryIngest:  "Declaration skipped",
	CategoryConfig:  "Invalid traceability configuration",
	CategoryResolve: "Traceability self-test failed",
	CategoryQuery:   "Query could not be answered",
	CategoryExport:  "Export failed",
}

// ToUIMessage returns the user message, or the category default
func (e *GraphError) ToUIMessage() string {
	if e.UserMessage != "" {
		return e.UserMessage
	}
	return e.defaultMessageForCategory()
}

func (e *GraphError) defaultMessageForCategory() string {
	if msg, ok := defaultMessages[e.Category]; ok {
		return msg
	}
	return "An error occurred"
}

// ToMeta formats the error for the JSON build report
func (e *GraphError) ToMeta() map[string]string {
	meta := map[string]string{
		"error":       e.Error(),
		"category":    string(e.Category),
		"description": e.ToUIMessage(),
		"timestamp":   e.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
	}

	if e.Subcategory != "" {
		meta["subcategory"] = e.Subcategory
	}
	if e.Document != "" {
		meta["document"] = e.Document
		meta["line"] = fmt.Sprintf("%d", e.Line)
	}

	if len(e.Context) > 0 {
		meta["context"] = fmt.Sprintf("%v", e.Context)
	}

	return meta
}

// ToLogFields converts error to structured log fields
// This is useful for passing to logger.Warnw()
func (e *GraphError) ToLogFields() []interface{} {
	fields := []interface{}{
		"error_category", e.Category,
		"error_message", e.Error(),
	}

	if e.UserMessage != "" {
		fields = append(fields, "user_message", e.UserMessage)
	}
	if e.Subcategory != "" {
		fields = append(fields, "error_subcategory", e.Subcategory)
	}
	if e.Document != "" {
		fields = append(fields, logger.SourceFields(e.Document, e.Line)...)
	}

	for k, v := range e.Context {
		fields = append(fields, k, v)
	}

	return fields
}

// IsCategory checks if the error matches a specific category
func (e *GraphError) IsCategory(cat Category) bool {
	return e.Category == cat
}

// IsSubcategory checks if the error matches a specific subcategory
func (e *GraphError) IsSubcategory(sub string) bool {
	return e.Subcategory == sub
}
