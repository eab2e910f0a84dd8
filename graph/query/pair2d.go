package query

import (
	"time"

	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/graph"
)

// FilterSide selects which axis of a 2-D matrix the attribute filter narrows.
type FilterSide string

const (
	FilterSource FilterSide = "source"
	FilterTarget FilterSide = "target"
)

// ParseFilterSide accepts "source", "target" or "" (source).
func ParseFilterSide(s string) (FilterSide, error) {
	switch FilterSide(s) {
	case "", FilterSource:
		return FilterSource, nil
	case FilterTarget:
		return FilterTarget, nil
	}
	return "", errors.Wrapf(errors.ErrInvalidQuery, "filter side %q, want source or target", s)
}

// Pair2D returns the naturally sorted sources and targets of a 2-D matrix,
// applying attrs only on side.
func (e *Engine) Pair2D(sourceRegex, targetRegex string, attrs map[string]string, side FilterSide) (sources, targets []string, err error) {
	if side == "" {
		side = FilterSource
	}
	var sourceFilter, targetFilter graph.ItemFilter
	switch side {
	case FilterSource:
		sourceFilter.Attributes = attrs
	case FilterTarget:
		targetFilter.Attributes = attrs
	default:
		return nil, nil, errors.Wrapf(errors.ErrInvalidQuery, "filter side %q", side)
	}

	sources, err = e.c.Items(sourceRegex, sourceFilter)
	if err != nil {
		return nil, nil, errors.Wrap(err, "2-D matrix sources")
	}
	targets, err = e.c.Items(targetRegex, targetFilter)
	if err != nil {
		return nil, nil, errors.Wrap(err, "2-D matrix targets")
	}
	return sources, targets, nil
}

// Matrix2DResult holds the axes and Cells[i][j], true when Sources[i] relates
// to Targets[j].
type Matrix2DResult struct {
	Sources []string `json:"sources"`
	Targets []string `json:"targets"`
	Cells   [][]bool `json:"cells"`
}

// Matrix2D pairs the axes of spec and fills the link flags.
func (e *Engine) Matrix2D(spec Matrix2DSpec) (*Matrix2DResult, error) {
	start := time.Now()
	sources, targets, err := e.Pair2D(spec.Source, spec.Target, spec.Attributes, spec.FilterSide)
	if err != nil {
		return nil, err
	}
	if err := requireRelations(e.c, spec.Relations); err != nil {
		return nil, err
	}
	cells := make([][]bool, len(sources))
	for i, source := range sources {
		cells[i] = make([]bool, len(targets))
		for j, target := range targets {
			cells[i][j] = e.c.AreRelated(source, spec.Relations, target)
		}
	}
	e.trace(KindMatrix2D, start, len(sources)*len(targets))
	return &Matrix2DResult{Sources: sources, Targets: targets, Cells: cells}, nil
}
