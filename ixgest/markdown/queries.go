package markdown

import (
	"strings"

	"github.com/teranos/tracegraph/graph"
	"github.com/teranos/tracegraph/graph/query"
	"github.com/teranos/tracegraph/ixgest/types"
)

// buildQuery turns a query directive into its query spec. Attribute options
// become attribute filters.
func buildQuery(c *graph.Collection, d *Directive) (query.Spec, error) {
	attrs, _, err := d.classify(c)
	if err != nil {
		return nil, err
	}
	if len(attrs) == 0 {
		attrs = nil
	}

	switch d.Def.Name {
	case types.List.Name:
		sortAttrs, err := d.Words("sort")
		if err != nil {
			return nil, err
		}
		topRelations, err := d.Words("top_relation_filter")
		if err != nil {
			return nil, err
		}
		return query.ListSpec{
			Filter:         d.Option("filter", ""),
			Attributes:     attrs,
			SortAttributes: sortAttrs,
			Reverse:        d.Flag("reverse"),
			Top:            d.Option("top", ""),
			TopRelations:   topRelations,
		}, nil

	case types.Matrix.Name:
		targets, err := d.Words("target")
		if err != nil {
			return nil, err
		}
		rs, err := query.ParseRelationSpec(d.Option("type", ""))
		if err != nil {
			return nil, err
		}
		sortAttrs, err := d.Words("sort")
		if err != nil {
			return nil, err
		}
		sourceAttrs, err := d.Pairs("source_attributes")
		if err != nil {
			return nil, err
		}
		targetAttrs, err := d.Pairs("target_attributes")
		if err != nil {
			return nil, err
		}
		return query.MatrixSpec{
			Source:               d.Option("source", ""),
			Targets:              targets,
			Intermediate:         d.Option("intermediate", ""),
			Relations:            rs,
			SourceAttributes:     sourceAttrs,
			TargetAttributes:     targetAttrs,
			SortAttributes:       sortAttrs,
			CoveredIntermediates: d.Flag("coveredintermediates"),
			OnlyCovered:          d.Flag("onlycovered"),
			OnlyUncovered:        d.Flag("onlyuncovered"),
		}, nil

	case types.Matrix2D.Name:
		side, err := query.ParseFilterSide(d.Option("filter_side", ""))
		if err != nil {
			return nil, err
		}
		relations, err := d.Words("type")
		if err != nil {
			return nil, err
		}
		return query.Matrix2DSpec{
			Source:     d.Option("source", ""),
			Target:     d.Option("target", ""),
			Attributes: attrs,
			FilterSide: side,
			Relations:  relations,
		}, nil

	case types.Tree.Name:
		topRelations, err := d.Words("top_relation_filter")
		if err != nil {
			return nil, err
		}
		relations, err := d.Words("type")
		if err != nil {
			return nil, err
		}
		return query.TreeSpec{
			Top:          d.Option("top", ""),
			TopRelations: topRelations,
			Relations:    relations,
			Attributes:   attrs,
		}, nil

	case types.PieChart.Name:
		idSet, err := d.Words("id_set")
		if err != nil {
			return nil, err
		}
		priorities, err := d.Words("priorities")
		if err != nil {
			return nil, err
		}
		return query.PieSpec{
			IDSet:      idSet,
			LabelSet:   splitLabels(d.Option("label_set", "")),
			Attribute:  d.Option("attribute", ""),
			Priorities: priorities,
		}, nil

	default: // types.AttributesMatrix
		columns, err := d.Words("attributes")
		if err != nil {
			return nil, err
		}
		sortAttrs, err := d.Words("sort")
		if err != nil {
			return nil, err
		}
		return query.AttributesMatrixSpec{
			Filter:         d.Option("filter", ""),
			Attributes:     attrs,
			Columns:        columns,
			SortAttributes: sortAttrs,
			Reverse:        d.Flag("reverse"),
		}, nil
	}
}

// splitLabels splits a comma separated label list; labels may contain spaces
func splitLabels(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var labels []string
	for _, l := range strings.Split(s, ",") {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}
