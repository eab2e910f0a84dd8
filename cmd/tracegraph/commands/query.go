package commands

import (
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/sym"
	"github.com/teranos/tracegraph/graph/query"
)

// Flag values shared by the query commands
var (
	qAttributes       map[string]string
	qSourceAttributes map[string]string
	qTargetAttributes map[string]string
	qSort             string
	qReverse          bool
	qTop              string
	qTopRelations     string
	qType             string
	qIntermediate     string
	qCovered          bool
	qUncovered        bool
	qCoveredInter     bool
	qFilterSide       string
	qLabels           string
	qAttribute        string
	qPriorities       string
	qColumns          string
	qTitle            string
)

// ItemsCmd lists items
var ItemsCmd = &cobra.Command{
	Use:   "items [regex]",
	Short: sym.Short("items"),
	Long: `List the items whose id fully matches regex (all items without one) and
whose attributes match every --attr filter.

Examples:
  tracegraph items
  tracegraph items 'REQ-.*' --attr asil='[CD]' --sort "asil status"
  tracegraph items 'REQ-.*' --top 'REQ-.*' --top-relations depends_on`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sortAttrs, err := words("--sort", qSort)
		if err != nil {
			return err
		}
		topRelations, err := words("--top-relations", qTopRelations)
		if err != nil {
			return err
		}
		return runQuery(cmd, qTitle, query.ListSpec{
			Filter:         argOr(args, 0),
			Attributes:     qAttributes,
			SortAttributes: sortAttrs,
			Reverse:        qReverse,
			Top:            qTop,
			TopRelations:   topRelations,
		})
	},
}

// MatrixCmd shows a linear or 2-D matrix
var MatrixCmd = &cobra.Command{
	Use:   "matrix <source> <target>...",
	Short: sym.Short("matrix"),
	Long: `Show one row per source item with the target items it relates to, one
column per target regex. --type takes a relationship spec: relations
separated by spaces, or "left | right" to go through --intermediate items.

With --2d a single target regex gives a source x target grid instead.

Examples:
  tracegraph matrix 'REQ-.*' 'TST-.*' --type validated_by
  tracegraph matrix 'REQ-.*' 'TST-.*' --type 'fulfilled_by | validated_by' --intermediate 'DES-.*'
  tracegraph matrix 'REQ-.*' 'TST-.*' --uncovered-only
  tracegraph matrix 'REQ-.*' 'TST-.*' --2d --filter-side source --attr asil=B`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if twoD, _ := cmd.Flags().GetBool("2d"); twoD {
			if len(args) != 2 {
				return errors.Wrap(errors.ErrInvalidQuery, "a 2-D matrix takes exactly one target regex")
			}
			side, err := query.ParseFilterSide(qFilterSide)
			if err != nil {
				return err
			}
			relations, err := words("--type", qType)
			if err != nil {
				return err
			}
			return runQuery(cmd, qTitle, query.Matrix2DSpec{
				Source:     args[0],
				Target:     args[1],
				Attributes: qAttributes,
				FilterSide: side,
				Relations:  relations,
			})
		}

		rs, err := query.ParseRelationSpec(qType)
		if err != nil {
			return err
		}
		sortAttrs, err := words("--sort", qSort)
		if err != nil {
			return err
		}
		return runQuery(cmd, qTitle, query.MatrixSpec{
			Source:               args[0],
			Targets:              args[1:],
			Intermediate:         qIntermediate,
			Relations:            rs,
			SourceAttributes:     qSourceAttributes,
			TargetAttributes:     qTargetAttributes,
			SortAttributes:       sortAttrs,
			CoveredIntermediates: qCoveredInter,
			OnlyCovered:          qCovered,
			OnlyUncovered:        qUncovered,
		})
	},
}

// CoverageCmd classifies items by coverage
var CoverageCmd = &cobra.Command{
	Use:   "coverage <source> [covering] [evidence]",
	Short: sym.Short("coverage"),
	Long: `Classify every source item as uncovered, covered when it relates to a
covering item, or by the --attribute value of the evidence items reached
from there, strongest --priorities value first.

Examples:
  tracegraph coverage 'REQ-.*' 'TST-.*'
  tracegraph coverage 'REQ-.*' 'TST-.*' 'RES-.*' --attribute result --priorities "fail error pass"
  tracegraph coverage 'REQ-.*' 'TST-.*' --labels "open,done"`,
	Args: cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		priorities, err := words("--priorities", qPriorities)
		if err != nil {
			return err
		}
		var labels []string
		if qLabels != "" {
			for _, l := range strings.Split(qLabels, ",") {
				labels = append(labels, strings.TrimSpace(l))
			}
		}
		return runQuery(cmd, qTitle, query.PieSpec{
			IDSet:      args,
			LabelSet:   labels,
			Attribute:  qAttribute,
			Priorities: priorities,
		})
	},
}

// TreeCmd shows an item tree
var TreeCmd = &cobra.Command{
	Use:   "tree <top>",
	Short: sym.Short("tree"),
	Long: `Show every top-level item matching top with the items it relates to as
children. --type limits the relations followed to children.

Examples:
  tracegraph tree 'REQ-.*' --type fulfilled_by
  tracegraph tree 'REQ-.*' --top-relations depends_on --attr asil=B`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		relations, err := words("--type", qType)
		if err != nil {
			return err
		}
		topRelations, err := words("--top-relations", qTopRelations)
		if err != nil {
			return err
		}
		return runQuery(cmd, qTitle, query.TreeSpec{
			Top:          args[0],
			TopRelations: topRelations,
			Relations:    relations,
			Attributes:   qAttributes,
		})
	},
}

// AttributesCmd shows items by attribute values
var AttributesCmd = &cobra.Command{
	Use:   "attributes [regex]",
	Short: sym.Short("attributes"),
	Long: `Show one row per matching item and one column per --columns attribute.

Examples:
  tracegraph attributes 'REQ-.*' --columns "asil status"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		columns, err := words("--columns", qColumns)
		if err != nil {
			return err
		}
		sortAttrs, err := words("--sort", qSort)
		if err != nil {
			return err
		}
		return runQuery(cmd, qTitle, query.AttributesMatrixSpec{
			Filter:         argOr(args, 0),
			Attributes:     qAttributes,
			Columns:        columns,
			SortAttributes: sortAttrs,
			Reverse:        qReverse,
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{ItemsCmd, MatrixCmd, CoverageCmd, TreeCmd, AttributesCmd} {
		cmd.Flags().StringVar(&qTitle, "title", "", "Heading printed above the result")
	}
	for _, cmd := range []*cobra.Command{ItemsCmd, MatrixCmd, TreeCmd, AttributesCmd} {
		cmd.Flags().StringToStringVar(&qAttributes, "attr", nil, "Attribute filter attribute=regex (repeatable)")
	}
	for _, cmd := range []*cobra.Command{ItemsCmd, MatrixCmd, AttributesCmd} {
		cmd.Flags().StringVar(&qSort, "sort", "", "Attributes to sort by, space separated")
	}
	for _, cmd := range []*cobra.Command{ItemsCmd, AttributesCmd} {
		cmd.Flags().BoolVar(&qReverse, "reverse", false, "Reverse the sort order")
	}
	for _, cmd := range []*cobra.Command{ItemsCmd, TreeCmd} {
		cmd.Flags().StringVar(&qTopRelations, "top-relations", "", "Relations that make an item non top-level, space separated")
	}
	ItemsCmd.Flags().StringVar(&qTop, "top", "", "Keep only items without a target matching this regex")

	MatrixCmd.Flags().StringVar(&qType, "type", "", "Relationship spec, e.g. \"validated_by\" or \"fulfilled_by | validated_by\"")
	MatrixCmd.Flags().StringVar(&qIntermediate, "intermediate", "", "Intermediate regex for split relationship specs")
	MatrixCmd.Flags().StringToStringVar(&qSourceAttributes, "source-attr", nil, "Source attribute filter attribute=regex")
	MatrixCmd.Flags().StringToStringVar(&qTargetAttributes, "target-attr", nil, "Target attribute filter attribute=regex")
	MatrixCmd.Flags().BoolVar(&qCovered, "covered-only", false, "Only rows with at least one target")
	MatrixCmd.Flags().BoolVar(&qUncovered, "uncovered-only", false, "Only rows without targets")
	MatrixCmd.Flags().BoolVar(&qCoveredInter, "covered-intermediates", false, "A row is covered only if all its intermediates are")
	MatrixCmd.Flags().Bool("2d", false, "Show a source x target grid")
	MatrixCmd.Flags().StringVar(&qFilterSide, "filter-side", "", "Side the --attr filter applies to with --2d: source or target")

	TreeCmd.Flags().StringVar(&qType, "type", "", "Relations followed to children, space separated")

	CoverageCmd.Flags().StringVar(&qLabels, "labels", "", "Comma separated labels, one per id set")
	CoverageCmd.Flags().StringVar(&qAttribute, "attribute", "", "Evidence attribute ranked by --priorities")
	CoverageCmd.Flags().StringVar(&qPriorities, "priorities", "", "Attribute values, highest priority first, space separated")

	AttributesCmd.Flags().StringVar(&qColumns, "columns", "", "Attribute columns, space separated")
}

// words splits a space separated flag value with shell quoting
func words(flag, value string) ([]string, error) {
	w, err := shellquote.Split(value)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidQuery, "%s %q: %v", flag, value, err)
	}
	return w, nil
}

func argOr(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
