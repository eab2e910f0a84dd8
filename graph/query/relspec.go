package query

import (
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/graph"
)

// RelationSpec is a parsed relationship specification. Without Split the
// relations in Direct link source to target (empty means all internal
// relations). With Split, Left links source to intermediate and Right links
// intermediate to target.
type RelationSpec struct {
	Direct []string
	Split  bool
	Left   []string
	Right  []string
}

// ParseRelationSpec parses "", "r1 r2" or "r1 r2 | r3 r4". At most one "|"
// is allowed and both sides of a split need at least one relation.
func ParseRelationSpec(s string) (RelationSpec, error) {
	if strings.Count(s, "|") > 1 {
		return RelationSpec{}, errors.Wrapf(errors.ErrInvalidQuery, "relationship spec %q: more than one '|'", s)
	}
	left, right, split := strings.Cut(s, "|")
	if !split {
		direct, err := shellquote.Split(s)
		if err != nil {
			return RelationSpec{}, errors.Wrapf(errors.ErrInvalidQuery, "relationship spec %q: %v", s, err)
		}
		return RelationSpec{Direct: direct}, nil
	}

	l, err := shellquote.Split(left)
	if err != nil {
		return RelationSpec{}, errors.Wrapf(errors.ErrInvalidQuery, "relationship spec %q: %v", s, err)
	}
	r, err := shellquote.Split(right)
	if err != nil {
		return RelationSpec{}, errors.Wrapf(errors.ErrInvalidQuery, "relationship spec %q: %v", s, err)
	}
	if len(l) == 0 || len(r) == 0 {
		return RelationSpec{}, errors.Wrapf(errors.ErrInvalidQuery, "relationship spec %q: empty side of '|'", s)
	}
	return RelationSpec{Split: true, Left: l, Right: r}, nil
}

// String formats the spec back into its textual form.
func (rs RelationSpec) String() string {
	if rs.Split {
		return strings.Join(rs.Left, " ") + " | " + strings.Join(rs.Right, " ")
	}
	return strings.Join(rs.Direct, " ")
}

// directRelations resolves the relations of a non-split spec.
func directRelations(c *graph.Collection, rs RelationSpec) ([]string, error) {
	if len(rs.Direct) == 0 {
		return c.InternalRelations(), nil
	}
	if err := requireRelations(c, rs.Direct); err != nil {
		return nil, err
	}
	return rs.Direct, nil
}

// reversedLeft inverts the left side of a split spec so intermediates can be
// walked towards their sources.
func reversedLeft(c *graph.Collection, rs RelationSpec) ([]string, error) {
	if err := requireRelations(c, rs.Left); err != nil {
		return nil, err
	}
	reversed := make([]string, 0, len(rs.Left))
	for _, relation := range rs.Left {
		reverse, ok := c.ReverseRelation(relation)
		if !ok {
			return nil, errors.Wrapf(errors.ErrInvalidQuery, "relation %s has no reverse and cannot lead to an intermediate", relation)
		}
		reversed = append(reversed, reverse)
	}
	return reversed, nil
}

func requireRelations(c *graph.Collection, relations []string) error {
	for _, relation := range relations {
		if !c.HasRelation(relation) {
			return errors.Wrapf(errors.ErrUnknownRelation, "relationship spec: relation %s", relation)
		}
	}
	return nil
}
