// Package query answers read-only questions over a finished graph.Collection:
// item lists, linear and 2-D matrices, trees, attribute matrices and coverage
// classification. An Engine never mutates the collection and may be shared by
// concurrent readers once ingestion is done.
package query

import (
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/graph"
	grapherror "github.com/teranos/tracegraph/graph/error"
	"github.com/teranos/tracegraph/logger"
)

// Options provides optional configuration for an Engine.
type Options struct {
	Logger   *zap.SugaredLogger // Optional logger (default: logger.Logger named graph.query)
	Warnings grapherror.Sink    // Receives broken-link warnings (default: discard)
}

// Engine runs queries against one collection.
type Engine struct {
	c        *graph.Collection
	logger   *zap.SugaredLogger
	warnings grapherror.Sink
}

// New creates an Engine over c.
func New(c *graph.Collection, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = logger.Logger.Named("graph.query")
	}
	if opts.Warnings == nil {
		opts.Warnings = grapherror.Discard
	}
	return &Engine{
		c:        c,
		logger:   opts.Logger,
		warnings: opts.Warnings,
	}
}

// Collection returns the collection the engine reads.
func (e *Engine) Collection() *graph.Collection {
	return e.c
}

func (e *Engine) trace(kind Kind, start time.Time, count int) {
	e.logger.Debugw("query done",
		logger.FieldQuery, string(kind),
		logger.FieldCount, count,
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
}

// Items returns the ids selected by spec. With Top set, only top-level items
// (see IsTopLevel) are kept.
func (e *Engine) Items(spec ListSpec) ([]string, error) {
	start := time.Now()
	ids, err := e.c.Items(spec.Filter, graph.ItemFilter{
		Attributes:     spec.Attributes,
		SortAttributes: spec.SortAttributes,
		Reverse:        spec.Reverse,
	})
	if err != nil {
		return nil, errors.Wrap(err, "item list")
	}
	if spec.Top != "" {
		top, err := graph.CompileFull(spec.Top)
		if err != nil {
			return nil, errors.Wrap(err, "item list top filter")
		}
		kept := ids[:0]
		for _, id := range ids {
			if e.IsTopLevel(id, top, spec.TopRelations) {
				kept = append(kept, id)
			}
		}
		ids = kept
	}
	e.trace(KindList, start, len(ids))
	return ids, nil
}

// IsTopLevel reports whether no target of id along any of relations matches
// top. With no relations every item is top-level.
func (e *Engine) IsTopLevel(id string, top *regexp.Regexp, relations []string) bool {
	item := e.c.Item(id)
	if item == nil {
		return true
	}
	for _, relation := range relations {
		for _, target := range item.Targets(relation) {
			if top.MatchString(target) {
				return false
			}
		}
	}
	return true
}

// Reference returns the declared item id. For unknown and placeholder ids it
// warns and returns a detached fallback item describing the broken link.
func (e *Engine) Reference(id string) *graph.Item {
	return e.ReferenceAt(id, "", 0)
}

// ReferenceAt is Reference with the location of the referring document.
func (e *Engine) ReferenceAt(id, document string, line int) *graph.Item {
	item := e.c.Item(id)
	if item != nil && !item.IsPlaceholder() {
		return item
	}
	e.warnings.Warn(grapherror.New(grapherror.CategoryQuery,
		errors.Newf("reference to %s, which is not defined", id), "").
		WithSubcategory(grapherror.SubcategoryBrokenLink).
		WithContext(logger.FieldItem, id).
		At(document, line))

	fallback := graph.NewItem(id, e.c.Registry())
	fallback.SetCaption(id + " not defined, broken link")
	return fallback
}
