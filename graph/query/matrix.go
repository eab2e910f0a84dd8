package query

import (
	"time"

	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/graph"
)

// MatrixRow is one source of a linear matrix.
type MatrixRow struct {
	Source        string     `json:"source"`
	Intermediates []string   `json:"intermediates,omitempty"`
	Targets       [][]string `json:"targets"` // one naturally sorted list per column
	Covered       bool       `json:"covered"`
}

// Stats summarizes coverage; Percentage is floored and 0 for an empty total.
type Stats struct {
	Covered    int `json:"covered"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

func newStats(covered, total int) Stats {
	s := Stats{Covered: covered, Total: total}
	if total > 0 {
		s.Percentage = 100 * covered / total
	}
	return s
}

// MatrixResult is the answer of LinearMatrix. Stats count every source, also
// those dropped by OnlyCovered or OnlyUncovered.
type MatrixResult struct {
	Columns []string    `json:"columns"`
	Rows    []MatrixRow `json:"rows"`
	Stats   Stats       `json:"stats"`
}

// IntermediateLink collects, for one source, the covering intermediates in
// order of first encounter and the targets reached per column.
type IntermediateLink struct {
	Intermediates []string
	Targets       [][]string

	seen    map[string]struct{}
	columns []map[string]struct{}
}

func newIntermediateLink(columns int) *IntermediateLink {
	link := &IntermediateLink{
		seen:    make(map[string]struct{}),
		columns: make([]map[string]struct{}, columns),
	}
	for i := range link.columns {
		link.columns[i] = make(map[string]struct{})
	}
	return link
}

func (l *IntermediateLink) attach(intermediate string, targets [][]string) {
	if _, ok := l.seen[intermediate]; !ok {
		l.seen[intermediate] = struct{}{}
		l.Intermediates = append(l.Intermediates, intermediate)
	}
	for i, column := range targets {
		for _, target := range column {
			l.columns[i][target] = struct{}{}
		}
	}
}

func (l *IntermediateLink) finish() {
	l.Targets = make([][]string, len(l.columns))
	for i, set := range l.columns {
		l.Targets[i] = setToSorted(set)
	}
}

// LinearMatrix relates every source to every target column, directly or
// through intermediates when spec.Relations is split.
func (e *Engine) LinearMatrix(spec MatrixSpec) (*MatrixResult, error) {
	start := time.Now()
	if len(spec.Targets) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidQuery, "item matrix needs at least one target column")
	}
	if spec.OnlyCovered && spec.OnlyUncovered {
		return nil, errors.Wrap(errors.ErrInvalidQuery, "item matrix cannot show only covered and only uncovered items")
	}
	if spec.Relations.Split && spec.Intermediate == "" {
		return nil, errors.WithHint(
			errors.Wrapf(errors.ErrInvalidQuery, "relationship spec %q needs an intermediate filter", spec.Relations.String()),
			"set the intermediate regex or drop the '|'")
	}

	sources, err := e.c.Items(spec.Source, graph.ItemFilter{
		Attributes:     spec.SourceAttributes,
		SortAttributes: spec.SortAttributes,
	})
	if err != nil {
		return nil, errors.Wrap(err, "item matrix sources")
	}
	columns := make([][]string, len(spec.Targets))
	for i, target := range spec.Targets {
		columns[i], err = e.c.Items(target, graph.ItemFilter{Attributes: spec.TargetAttributes})
		if err != nil {
			return nil, errors.Wrapf(err, "item matrix target column %d", i+1)
		}
	}

	var rows []MatrixRow
	if spec.Relations.Split {
		links, err := e.IntermediateLinks(sources, spec.Intermediate, spec.Relations, columns, spec.CoveredIntermediates)
		if err != nil {
			return nil, err
		}
		rows = make([]MatrixRow, 0, len(sources))
		for _, source := range sources {
			row := MatrixRow{Source: source, Targets: make([][]string, len(columns))}
			if link, ok := links[source]; ok {
				row.Intermediates = link.Intermediates
				row.Targets = link.Targets
				row.Covered = true
			}
			rows = append(rows, row)
		}
	} else {
		relations, err := directRelations(e.c, spec.Relations)
		if err != nil {
			return nil, err
		}
		rows = make([]MatrixRow, 0, len(sources))
		for _, source := range sources {
			row := MatrixRow{Source: source, Targets: make([][]string, len(columns))}
			for i, column := range columns {
				for _, target := range column {
					if e.c.AreRelated(source, relations, target) {
						row.Targets[i] = append(row.Targets[i], target)
						row.Covered = true
					}
				}
			}
			rows = append(rows, row)
		}
	}

	covered := 0
	for _, row := range rows {
		if row.Covered {
			covered++
		}
	}
	result := &MatrixResult{
		Columns: append([]string(nil), spec.Targets...),
		Stats:   newStats(covered, len(rows)),
	}
	for _, row := range rows {
		if (spec.OnlyCovered && !row.Covered) || (spec.OnlyUncovered && row.Covered) {
			continue
		}
		result.Rows = append(result.Rows, row)
	}
	e.trace(KindMatrix, start, len(result.Rows))
	return result, nil
}

// IntermediateLinks maps each source in sources that reaches a target column
// through an intermediate matching intermediateRegex. With
// coveredIntermediates a source is dropped as soon as one of its
// intermediates reaches no target.
func (e *Engine) IntermediateLinks(sources []string, intermediateRegex string, rs RelationSpec,
	columns [][]string, coveredIntermediates bool) (map[string]*IntermediateLink, error) {
	if !rs.Split {
		return nil, errors.Wrapf(errors.ErrInvalidQuery, "relationship spec %q has no '|'", rs.String())
	}
	toSources, err := reversedLeft(e.c, rs)
	if err != nil {
		return nil, err
	}
	if err := requireRelations(e.c, rs.Right); err != nil {
		return nil, err
	}
	intermediates, err := e.c.Items(intermediateRegex, graph.ItemFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "intermediate filter")
	}

	selected := toSet(sources)
	columnSets := make([]map[string]struct{}, len(columns))
	for i, column := range columns {
		columnSets[i] = toSet(column)
	}

	links := make(map[string]*IntermediateLink)
	excluded := make(map[string]struct{})
	for _, id := range intermediates {
		item := e.c.Item(id)

		var potentialSources []string
		for _, source := range union(item, toSources) {
			if _, ok := selected[source]; !ok {
				continue
			}
			if _, ok := excluded[source]; ok {
				continue
			}
			potentialSources = append(potentialSources, source)
		}
		if len(potentialSources) == 0 {
			continue
		}

		potentialTargets := union(item, rs.Right)
		if len(potentialTargets) == 0 {
			if coveredIntermediates {
				exclude(excluded, potentialSources)
			}
			continue
		}

		perColumn := make([][]string, len(columnSets))
		covering := false
		for i, set := range columnSets {
			for _, target := range potentialTargets {
				if _, ok := set[target]; ok {
					perColumn[i] = append(perColumn[i], target)
					covering = true
				}
			}
		}
		if !covering {
			if coveredIntermediates {
				exclude(excluded, potentialSources)
			}
			continue
		}

		for _, source := range potentialSources {
			link, ok := links[source]
			if !ok {
				link = newIntermediateLink(len(columnSets))
				links[source] = link
			}
			link.attach(id, perColumn)
		}
	}

	for source := range excluded {
		delete(links, source)
	}
	for _, link := range links {
		link.finish()
	}
	return links, nil
}

// union returns the naturally sorted targets of item over relations.
func union(item *graph.Item, relations []string) []string {
	set := make(map[string]struct{})
	for _, relation := range relations {
		for _, target := range item.Targets(relation) {
			set[target] = struct{}{}
		}
	}
	return setToSorted(set)
}

func exclude(excluded map[string]struct{}, ids []string) {
	for _, id := range ids {
		excluded[id] = struct{}{}
	}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func setToSorted(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	graph.SortNatural(ids)
	return ids
}
