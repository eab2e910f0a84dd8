package query

import (
	"regexp"
	"strings"
	"time"

	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/graph"
)

// DefaultLabels are the coverage labels used when PieSpec.LabelSet is empty.
var DefaultLabels = []string{"uncovered", "covered", "executed"}

// CoverageResult is the answer of Coverage.
type CoverageResult struct {
	Labels         []string          `json:"labels"` // ascending priority
	Counts         map[string]int    `json:"counts"`
	Classification map[string]string `json:"classification"`
	Stats          Stats             `json:"stats"`
}

type priorityTable struct {
	labels []string
	rank   map[string]int
}

func (t *priorityTable) add(label string) {
	key := strings.ToLower(label)
	if _, ok := t.rank[key]; ok {
		return
	}
	t.rank[key] = len(t.labels)
	t.labels = append(t.labels, label)
}

// Coverage classifies every item matching IDSet[0] by the strongest evidence
// found downstream: covered when it relates to an IDSet[1] item and, with a
// third id set, by the priority of the evidence attribute on IDSet[2] items
// reached from there.
func (e *Engine) Coverage(spec PieSpec) (*CoverageResult, error) {
	start := time.Now()
	if len(spec.IDSet) < 1 || len(spec.IDSet) > 3 {
		return nil, errors.Wrapf(errors.ErrInvalidQuery, "pie chart needs 1 to 3 id sets, got %d", len(spec.IDSet))
	}
	labels := spec.LabelSet
	if len(labels) == 0 {
		labels = DefaultLabels[:len(spec.IDSet)]
	}
	if len(labels) != len(spec.IDSet) {
		return nil, errors.Wrapf(errors.ErrInvalidQuery, "pie chart has %d id sets but %d labels", len(spec.IDSet), len(labels))
	}
	if spec.Attribute != "" {
		if err := e.c.Registry().Require(spec.Attribute); err != nil {
			return nil, errors.Wrap(err, "pie chart")
		}
	}

	table := &priorityTable{rank: make(map[string]int)}
	for _, label := range labels {
		table.add(strings.ToLower(label))
	}
	for i := len(spec.Priorities) - 1; i >= 0; i-- {
		table.add(spec.Priorities[i])
	}

	patterns := make([]*regexp.Regexp, len(spec.IDSet))
	for i, pattern := range spec.IDSet {
		re, err := graph.CompileFull(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "pie chart id set %d", i+1)
		}
		patterns[i] = re
	}

	sources, err := e.c.Items(spec.IDSet[0], graph.ItemFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "pie chart sources")
	}

	result := &CoverageResult{
		Labels:         table.labels,
		Counts:         make(map[string]int, len(table.labels)),
		Classification: make(map[string]string, len(sources)),
	}
	for _, label := range table.labels {
		result.Counts[label] = 0
	}

	for _, id := range sources {
		best := 0
		item := e.c.Item(id)
		for _, relation := range item.Relations() {
			if len(patterns) < 2 {
				break
			}
			for _, targetID := range item.Targets(relation) {
				target := e.c.Item(targetID)
				if target == nil || target.IsPlaceholder() || !patterns[1].MatchString(targetID) {
					continue
				}
				best = maxRank(best, 1)
				if len(patterns) < 3 {
					continue
				}
				for _, nestedRelation := range target.Relations() {
					for _, nestedID := range target.Targets(nestedRelation) {
						nested := e.c.Item(nestedID)
						if nested == nil || nested.IsPlaceholder() || !patterns[2].MatchString(nestedID) {
							continue
						}
						rank := 2
						if spec.Attribute != "" {
							if r, ok := table.rank[strings.ToLower(nested.Attribute(spec.Attribute))]; ok {
								rank = r
							}
						}
						best = maxRank(best, rank)
					}
				}
			}
		}
		label := table.labels[best]
		result.Classification[id] = label
		result.Counts[label]++
	}

	total := len(sources)
	result.Stats = newStats(total-result.Counts[table.labels[0]], total)
	e.trace(KindPie, start, total)
	return result, nil
}

// maxRank keeps the first seen on equal priority.
func maxRank(current, candidate int) int {
	if candidate > current {
		return candidate
	}
	return current
}
