package grapherror

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teranos/tracegraph/errors"
)

// GraphError is a build warning with the source location it was raised for
type GraphError struct {
	Err         error                  // Underlying error
	Category    Category               // Build stage
	Subcategory string                 // Error kind, see subcategoryFor
	UserMessage string                 // Short message for build output
	Document    string                 // Source document, empty when unknown
	Line        int                    // 1-based line in Document, 0 when unknown
	Context     map[string]interface{} // Additional context for debugging
	Timestamp   time.Time              // When the error occurred
}

// Error implements the error interface
func (e *GraphError) Error() string {
	msg := e.UserMessage
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if loc := e.Location(); loc != "" {
		return loc + ": " + msg
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As compatibility
func (e *GraphError) Unwrap() error {
	return e.Err
}

// Location formats document:line, or just the document when the line is unknown
func (e *GraphError) Location() string {
	switch {
	case e.Document == "":
		return ""
	case e.Line <= 0:
		return e.Document
	default:
		return fmt.Sprintf("%s:%d", e.Document, e.Line)
	}
}

// New creates a new GraphError with the specified category and messages.
// The subcategory is derived from the error kind of err.
func New(category Category, err error, userMsg string) *GraphError {
	return &GraphError{
		Err:         err,
		Category:    category,
		Subcategory: subcategoryFor(err),
		UserMessage: userMsg,
		Context:     make(map[string]interface{}),
		Timestamp:   time.Now(),
	}
}

// Newf creates a new GraphError with a formatted error message
func Newf(category Category, userMsg, format string, args ...interface{}) *GraphError {
	return New(category, errors.Newf(format, args...), userMsg)
}

// At records the source location of the error
func (e *GraphError) At(document string, line int) *GraphError {
	e.Document = document
	e.Line = line
	return e
}

// WithSubcategory overrides the derived subcategory
func (e *GraphError) WithSubcategory(sub string) *GraphError {
	e.Subcategory = sub
	return e
}

// WithContext adds a context key-value pair for debugging
func (e *GraphError) WithContext(key string, value interface{}) *GraphError {
	e.Context[key] = value
	return e
}

// WithContextMap adds multiple context key-value pairs
func (e *GraphError) WithContextMap(ctx map[string]interface{}) *GraphError {
	for k, v := range ctx {
		e.Context[k] = v
	}
	return e
}

var kindSubcategories = []struct {
	kind error
	sub  string
}{
	{errors.ErrDuplicate, SubcategoryDuplicate},
	{errors.ErrCircular, SubcategoryCircular},
	{errors.ErrDuplicateRelation, SubcategoryDuplicateRelation},
	{errors.ErrUnknownRelation, SubcategoryUnknownRelation},
	{errors.ErrInvalidAttribute, SubcategoryInvalidAttribute},
	{errors.ErrReentrancy, SubcategoryReentrancy},
	{errors.ErrMissingDocument, SubcategoryMissingDocument},
	{errors.ErrBrokenEdge, SubcategoryBrokenEdge},
	{errors.ErrNoRelations, SubcategoryNoRelations},
	{errors.ErrInvalidQuery, SubcategoryInvalidQuery},
	{errors.ErrSyntax, SubcategorySyntax},
}

func subcategoryFor(err error) string {
	if err == nil {
		return ""
	}
	for _, ks := range kindSubcategories {
		if errors.Is(err, ks.kind) {
			return ks.sub
		}
	}
	return ""
}

// Split expands an aggregate error into one GraphError per violation.
// Locations are not known here; callers attach them with At.
func Split(category Category, err error) []*GraphError {
	if err == nil {
		return nil
	}
	var multi *errors.MultipleErrors
	if !errors.As(err, &multi) {
		return []*GraphError{New(category, err, "")}
	}
	out := make([]*GraphError, 0, multi.Len())
	for _, e := range multi.Errs {
		out = append(out, New(category, e, ""))
	}
	return out
}

// MarshalJSON renders the warning for machine output
func (e *GraphError) MarshalJSON() ([]byte, error) {
	out := struct {
		Category    Category               `json:"category"`
		Subcategory string                 `json:"subcategory,omitempty"`
		Message     string                 `json:"message"`
		Document    string                 `json:"document,omitempty"`
		Line        int                    `json:"line,omitempty"`
		Context     map[string]interface{} `json:"context,omitempty"`
	}{e.Category, e.Subcategory, e.ToUIMessage(), e.Document, e.Line, e.Context}
	if e.Err != nil {
		out.Message = e.Err.Error()
	}
	return json.Marshal(out)
}
