// Package errors provides error handling for tracegraph.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints and details for user-facing warnings
//
// It also defines the error kinds raised by the traceability graph. Kinds are
// sentinel values; add context with Wrapf and check with Is:
//
//	if err := collection.AddItem(item); errors.Is(err, errors.ErrDuplicate) {
//	    // item declared twice
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	"strings"

	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapAll     = crdb.UnwrapAll
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// Error kinds raised by the traceability graph.
var (
	// ErrDuplicate: a fully declared item collides with another full declaration
	ErrDuplicate = New("duplicate item")

	// ErrCircular: an item is related to itself
	ErrCircular = New("circular relation")

	// ErrDuplicateRelation: the same explicit edge is added twice
	ErrDuplicateRelation = New("duplicate relation")

	// ErrUnknownRelation: the relation is not in the registry
	ErrUnknownRelation = New("unknown relation")

	// ErrUnknownAttribute: the attribute was never declared
	ErrUnknownAttribute = New("unknown attribute")

	// ErrInvalidAttribute: empty value, regex mismatch or unusable declaration
	ErrInvalidAttribute = New("invalid attribute")

	// ErrMissingDocument: an item has no source location (usually a placeholder)
	ErrMissingDocument = New("missing document")

	// ErrBrokenEdge: an edge target is missing or its reverse edge is absent
	ErrBrokenEdge = New("broken edge")

	// ErrNoRelations: the relation registry is empty
	ErrNoRelations = New("no relations configured")

	// ErrReentrancy: the collection was mutated from inside its own item callback
	ErrReentrancy = New("reentrant collection mutation")

	// ErrItemCallback: the item callback failed; the item itself was stored
	ErrItemCallback = New("item callback failed")

	// ErrInvalidQuery: a query specification cannot be evaluated
	ErrInvalidQuery = New("invalid query")

	// ErrSyntax: a directive or source document is malformed
	ErrSyntax = New("malformed declaration")

	// ErrNotFound indicates the requested item or edge does not exist
	ErrNotFound = New("not found")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// NewNotFoundf creates a not-found error with a formatted message
func NewNotFoundf(format string, args ...interface{}) error {
	return Wrapf(ErrNotFound, format, args...)
}

// MultipleErrors aggregates every violation found by a collecting operation
// such as a self-test.
type MultipleErrors struct {
	Errs []error
}

// Error joins the messages of all collected errors, one per line.
func (m *MultipleErrors) Error() string {
	msgs := make([]string, 0, len(m.Errs))
	for _, err := range m.Errs {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "\n")
}

// Unwrap exposes the collected errors to errors.Is/As.
func (m *MultipleErrors) Unwrap() []error {
	return m.Errs
}

// Len returns the number of collected errors.
func (m *MultipleErrors) Len() int {
	return len(m.Errs)
}

// Collector accumulates errors; Err returns nil when nothing was added.
type Collector struct {
	errs []error
}

// Add records err if it is non-nil. A *MultipleErrors is flattened.
func (c *Collector) Add(err error) {
	if err == nil {
		return
	}
	var multi *MultipleErrors
	if As(err, &multi) {
		c.errs = append(c.errs, multi.Errs...)
		return
	}
	c.errs = append(c.errs, err)
}

// Err returns a *MultipleErrors holding every added error, or nil.
func (c *Collector) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return &MultipleErrors{Errs: c.errs}
}

// IsKind reports whether err, or any error aggregated inside it, is of the given kind.
func IsKind(err, kind error) bool {
	if err == nil {
		return false
	}
	var multi *MultipleErrors
	if As(err, &multi) {
		for _, e := range multi.Errs {
			if Is(e, kind) {
				return true
			}
		}
		return false
	}
	return Is(err, kind)
}
