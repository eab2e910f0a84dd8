package types

// Directive kinds recognised in documentation sources.

// DirectiveDef describes a fenced-block directive and the options it takes.
// Attribute ids and relation names are accepted as extra options wherever
// AttributeOptions or RelationOptions is set.
type DirectiveDef struct {
	Name             string
	Label            string
	Query            bool     // renders a query instead of declaring data
	Options          []string // fixed option names
	Flags            []string // options that take no value
	AttributeOptions bool     // attribute ids are valid options
	RelationOptions  bool     // relation names are valid options
}

// Data directives
var (
	Item = DirectiveDef{
		Name:             "item",
		Label:            "Item",
		Options:          []string{"name", "caption"},
		AttributeOptions: true,
		RelationOptions:  true,
	}

	Attribute = DirectiveDef{
		Name:    "item-attribute",
		Label:   "Attribute",
		Options: []string{"name", "regex", "caption"},
	}

	Relationship = DirectiveDef{
		Name:    "item-relationship",
		Label:   "Relationship",
		Options: []string{"forward", "reverse"},
	}

	Link = DirectiveDef{
		Name:    "item-link",
		Label:   "Link",
		Options: []string{"sources", "targets", "source", "target", "type"},
	}

	Relink = DirectiveDef{
		Name:    "item-relink",
		Label:   "Relink",
		Options: []string{"remap", "target", "type"},
	}

	AttributeSort = DirectiveDef{
		Name:    "attribute-sort",
		Label:   "Attribute sort",
		Options: []string{"filter", "sort"},
	}
)

// Query directives; names match query.Kind values
var (
	List = DirectiveDef{
		Name:             "item-list",
		Label:            "Item list",
		Query:            true,
		Options:          []string{"filter", "sort", "top", "top_relation_filter"},
		Flags:            []string{"reverse"},
		AttributeOptions: true,
	}

	Matrix = DirectiveDef{
		Name:    "item-matrix",
		Label:   "Traceability matrix",
		Query:   true,
		Options: []string{"source", "target", "intermediate", "type", "sort", "source_attributes", "target_attributes"},
		Flags:   []string{"coveredintermediates", "onlycovered", "onlyuncovered"},
	}

	Matrix2D = DirectiveDef{
		Name:             "item-2d-matrix",
		Label:            "2-D matrix",
		Query:            true,
		Options:          []string{"source", "target", "type", "filter_side"},
		AttributeOptions: true,
	}

	Tree = DirectiveDef{
		Name:             "item-tree",
		Label:            "Item tree",
		Query:            true,
		Options:          []string{"top", "top_relation_filter", "type"},
		AttributeOptions: true,
	}

	PieChart = DirectiveDef{
		Name:    "item-piechart",
		Label:   "Coverage chart",
		Query:   true,
		Options: []string{"id_set", "label_set", "attribute", "priorities"},
	}

	AttributesMatrix = DirectiveDef{
		Name:             "item-attributes-matrix",
		Label:            "Attributes matrix",
		Query:            true,
		Options:          []string{"filter", "attributes", "sort"},
		Flags:            []string{"reverse"},
		AttributeOptions: true,
	}
)

// All lists every directive in declaration order
var All = []DirectiveDef{
	Item, Attribute, Relationship, Link, Relink, AttributeSort,
	List, Matrix, Matrix2D, Tree, PieChart, AttributesMatrix,
}

// Lookup returns the directive named name
func Lookup(name string) (DirectiveDef, bool) {
	for _, d := range All {
		if d.Name == name {
			return d, true
		}
	}
	return DirectiveDef{}, false
}

// HasOption reports whether name is one of the fixed options or flags
func (d DirectiveDef) HasOption(name string) bool {
	for _, o := range d.Options {
		if o == name {
			return true
		}
	}
	return d.IsFlag(name)
}

// IsFlag reports whether name is a value-less option
func (d DirectiveDef) IsFlag(name string) bool {
	for _, f := range d.Flags {
		if f == name {
			return true
		}
	}
	return false
}
