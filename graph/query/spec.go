package query

import (
	"github.com/teranos/tracegraph/errors"
)

// Kind names a query variant. The values double as directive names.
type Kind string

const (
	KindList             Kind = "item-list"
	KindMatrix           Kind = "item-matrix"
	KindMatrix2D         Kind = "item-2d-matrix"
	KindTree             Kind = "item-tree"
	KindPie              Kind = "item-piechart"
	KindAttributesMatrix Kind = "item-attributes-matrix"
)

// Spec is a query captured as plain data.
type Spec interface {
	Kind() Kind
}

// ListSpec selects items by id and attributes.
type ListSpec struct {
	Filter         string            // id regex, empty matches all
	Attributes     map[string]string // attribute id -> value regex
	SortAttributes []string
	Reverse        bool
	Top            string   // keep only items with no Top-matching target
	TopRelations   []string // relations checked for Top, empty keeps every item
}

// MatrixSpec describes a linear traceability matrix.
type MatrixSpec struct {
	Source               string
	Targets              []string // one regex per target column
	Intermediate         string   // intermediate regex, required for split relation specs
	Relations            RelationSpec
	SourceAttributes     map[string]string
	TargetAttributes     map[string]string
	SortAttributes       []string
	CoveredIntermediates bool // a source is covered only if all its intermediates are
	OnlyCovered          bool
	OnlyUncovered        bool
}

// Matrix2DSpec describes a source x target matrix of link flags.
type Matrix2DSpec struct {
	Source     string
	Target     string
	Attributes map[string]string
	FilterSide FilterSide
	Relations  []string // empty means all
}

// TreeSpec describes an item tree.
type TreeSpec struct {
	Top          string
	TopRelations []string // empty keeps every item matching Top
	Relations    []string // relations followed to children, empty means all internal
	Attributes   map[string]string
}

// PieSpec describes a coverage classification.
type PieSpec struct {
	IDSet      []string // 1 to 3 regexes: source, covering, evidence
	LabelSet   []string // one label per IDSet entry, defaults to uncovered/covered/executed
	Attribute  string   // evidence attribute for priorities
	Priorities []string // attribute values, highest priority first
}

// AttributesMatrixSpec describes a table of items by attribute values.
type AttributesMatrixSpec struct {
	Filter         string
	Attributes     map[string]string
	Columns        []string // attribute ids
	SortAttributes []string
	Reverse        bool
}

func (ListSpec) Kind() Kind             { return KindList }
func (MatrixSpec) Kind() Kind           { return KindMatrix }
func (Matrix2DSpec) Kind() Kind         { return KindMatrix2D }
func (TreeSpec) Kind() Kind             { return KindTree }
func (PieSpec) Kind() Kind              { return KindPie }
func (AttributesMatrixSpec) Kind() Kind { return KindAttributesMatrix }

// Result holds the answer of Run; exactly the field matching Kind is set.
type Result struct {
	Kind             Kind                    `json:"kind"`
	Items            []string                `json:"items,omitempty"`
	Matrix           *MatrixResult           `json:"matrix,omitempty"`
	Matrix2D         *Matrix2DResult         `json:"matrix_2d,omitempty"`
	Tree             []*TreeNode             `json:"tree,omitempty"`
	Coverage         *CoverageResult         `json:"coverage,omitempty"`
	AttributesMatrix *AttributesMatrixResult `json:"attributes_matrix,omitempty"`
}

// Run dispatches spec to the matching query.
func (e *Engine) Run(spec Spec) (*Result, error) {
	res := &Result{Kind: spec.Kind()}
	var err error
	switch s := spec.(type) {
	case ListSpec:
		res.Items, err = e.Items(s)
	case MatrixSpec:
		res.Matrix, err = e.LinearMatrix(s)
	case Matrix2DSpec:
		res.Matrix2D, err = e.Matrix2D(s)
	case TreeSpec:
		res.Tree, err = e.Tree(s)
	case PieSpec:
		res.Coverage, err = e.Coverage(s)
	case AttributesMatrixSpec:
		res.AttributesMatrix, err = e.AttributesMatrix(s)
	default:
		return nil, errors.Wrapf(errors.ErrInvalidQuery, "unsupported query %T", spec)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}
