package graph

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"

	"github.com/teranos/tracegraph/errors"
)

// edgeTable maps relation name -> set of target item ids.
type edgeTable map[string]map[string]struct{}

func (t edgeTable) has(relation, target string) bool {
	_, ok := t[relation][target]
	return ok
}

func (t edgeTable) add(relation, target string) {
	set, ok := t[relation]
	if !ok {
		set = make(map[string]struct{})
		t[relation] = set
	}
	set[target] = struct{}{}
}

func (t edgeTable) remove(relation, target string) {
	set, ok := t[relation]
	if !ok {
		return
	}
	delete(set, target)
	if len(set) == 0 {
		delete(t, relation)
	}
}

// Item is one node of the traceability graph. Edges hold target ids, never
// pointers to other items.
type Item struct {
	id          string
	placeholder bool
	name        string
	caption     string
	content     string
	contentHash string
	document    string
	line        int

	attributes     map[string]string
	attributeOrder []string

	explicit edgeTable
	implicit edgeTable

	registry *AttributeRegistry
}

// NewItem creates a declared item. Attribute values are validated against reg.
func NewItem(id string, reg *AttributeRegistry) *Item {
	return &Item{
		id:          id,
		contentHash: "0",
		attributes:  make(map[string]string),
		explicit:    make(edgeTable),
		implicit:    make(edgeTable),
		registry:    reg,
	}
}

// NewPlaceholder creates an item that is referenced but not (yet) declared.
func NewPlaceholder(id string, reg *AttributeRegistry) *Item {
	item := NewItem(id, reg)
	item.placeholder = true
	return item
}

func (it *Item) ID() string          { return it.id }
func (it *Item) IsPlaceholder() bool { return it.placeholder }
func (it *Item) Caption() string     { return it.caption }
func (it *Item) Content() string     { return it.content }
func (it *Item) ContentHash() string { return it.contentHash }
func (it *Item) Document() string    { return it.document }
func (it *Item) Line() int           { return it.line }

// Name returns the display name, which defaults to the id.
func (it *Item) Name() string {
	if it.name == "" {
		return it.id
	}
	return it.name
}

func (it *Item) SetName(name string)       { it.name = name }
func (it *Item) SetCaption(caption string) { it.caption = caption }

// SetLocation records where the item was declared.
func (it *Item) SetLocation(document string, line int) {
	it.document = document
	it.line = line
}

// SetContent stores content and recomputes its MD5 hash; empty content hashes to "0".
func (it *Item) SetContent(content string) {
	it.content = content
	it.contentHash = contentHash(content)
}

func contentHash(content string) string {
	if content == "" {
		return "0"
	}
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// AddAttribute stores value for attribute id. With overwrite false an existing
// value is kept.
func (it *Item) AddAttribute(id, value string, overwrite bool) error {
	id = it.registry.Canonical(id)
	if !it.registry.Exists(id) {
		return errors.Mark(
			errors.Wrapf(errors.ErrUnknownAttribute, "item %s: attribute %s", it.id, id),
			errors.ErrInvalidAttribute)
	}
	if value == "" {
		return errors.Wrapf(errors.ErrInvalidAttribute, "item %s: empty value for attribute %s", it.id, id)
	}
	if !it.registry.Accepts(id, value) {
		def, _ := it.registry.Get(id)
		return errors.WithHintf(
			errors.Wrapf(errors.ErrInvalidAttribute, "item %s: value %q of attribute %s", it.id, value, id),
			"value must match %s", def.ValueRegex)
	}
	if _, exists := it.attributes[id]; exists && !overwrite {
		return nil
	}
	it.attributes[id] = value
	return nil
}

// RemoveAttribute drops attribute id from the item.
func (it *Item) RemoveAttribute(id string) error {
	id = it.registry.Canonical(id)
	if !it.registry.Exists(id) {
		return errors.Mark(
			errors.Wrapf(errors.ErrUnknownAttribute, "item %s: attribute %s", it.id, id),
			errors.ErrInvalidAttribute)
	}
	delete(it.attributes, id)
	return nil
}

// Attribute returns the value of attribute id, or "" when unset.
func (it *Item) Attribute(id string) string {
	return it.attributes[it.registry.Canonical(id)]
}

// HasAttribute reports whether attribute id carries a value.
func (it *Item) HasAttribute(id string) bool {
	_, ok := it.attributes[it.registry.Canonical(id)]
	return ok
}

// Attributes returns the ids of the item's attributes: those named in the
// attribute order first, in that order, then the rest naturally sorted.
func (it *Item) Attributes() []string {
	ids := make([]string, 0, len(it.attributes))
	seen := make(map[string]struct{}, len(it.attributes))
	for _, id := range it.attributeOrder {
		if _, ok := it.attributes[id]; ok {
			if _, dup := seen[id]; !dup {
				ids = append(ids, id)
				seen[id] = struct{}{}
			}
		}
	}
	var rest []string
	for id := range it.attributes {
		if _, ok := seen[id]; !ok {
			rest = append(rest, id)
		}
	}
	SortNatural(rest)
	return append(ids, rest...)
}

// AttributeMap returns a copy of the attribute values.
func (it *Item) AttributeMap() map[string]string {
	m := make(map[string]string, len(it.attributes))
	for k, v := range it.attributes {
		m[k] = v
	}
	return m
}

// SetAttributeOrder fixes the attribute iteration order. It returns false and
// changes nothing when an order was already set.
func (it *Item) SetAttributeOrder(order []string) bool {
	if it.attributeOrder != nil {
		return false
	}
	canonical := make([]string, 0, len(order))
	for _, id := range order {
		canonical = append(canonical, it.registry.Canonical(id))
	}
	it.attributeOrder = canonical
	return true
}

// AttributeOrder returns the fixed attribute order, or nil.
func (it *Item) AttributeOrder() []string {
	return append([]string(nil), it.attributeOrder...)
}

// AddTarget adds an edge to target. An explicit add of an edge that only
// exists implicitly promotes it; an implicit add of an existing edge is a no-op.
func (it *Item) AddTarget(relation, target string, implicit bool) error {
	if err := it.checkTarget(relation, target, implicit); err != nil {
		return err
	}
	if implicit {
		if !it.explicit.has(relation, target) {
			it.implicit.add(relation, target)
		}
		return nil
	}
	it.implicit.remove(relation, target)
	it.explicit.add(relation, target)
	return nil
}

// checkTarget validates an AddTarget call without changing the item.
func (it *Item) checkTarget(relation, target string, implicit bool) error {
	if target == it.id {
		return errors.Wrapf(errors.ErrCircular, "item %s %s itself", it.id, relation)
	}
	if !implicit && it.explicit.has(relation, target) {
		return errors.Wrapf(errors.ErrDuplicateRelation, "%s %s %s", it.id, relation, target)
	}
	return nil
}

// RemoveTarget drops an edge from the requested sides.
func (it *Item) RemoveTarget(relation, target string, explicit, implicit bool) {
	if explicit {
		it.explicit.remove(relation, target)
	}
	if implicit {
		it.implicit.remove(relation, target)
	}
}

// Targets returns explicit and implicit targets of relation in natural order.
func (it *Item) Targets(relation string) []string {
	return it.IterTargets(relation, true, true, true)
}

// IterTargets returns the union of the requested sides; sorted selects
// natural order, otherwise the order is unspecified.
func (it *Item) IterTargets(relation string, explicit, implicit, sorted bool) []string {
	union := make(map[string]struct{})
	if explicit {
		for target := range it.explicit[relation] {
			union[target] = struct{}{}
		}
	}
	if implicit {
		for target := range it.implicit[relation] {
			union[target] = struct{}{}
		}
	}
	if sorted {
		return sortedKeys(union)
	}
	targets := make([]string, 0, len(union))
	for target := range union {
		targets = append(targets, target)
	}
	return targets
}

// Relations returns the relations holding at least one target, naturally sorted.
func (it *Item) Relations() []string {
	names := make(map[string]struct{})
	for relation := range it.explicit {
		names[relation] = struct{}{}
	}
	for relation := range it.implicit {
		names[relation] = struct{}{}
	}
	return sortedKeys(names)
}

// HasRelations reports whether any of relations holds a target.
func (it *Item) HasRelations(relations []string) bool {
	for _, relation := range relations {
		if len(it.explicit[relation]) > 0 || len(it.implicit[relation]) > 0 {
			return true
		}
	}
	return false
}

// IsRelated reports whether target is reached through any of relations.
func (it *Item) IsRelated(relations []string, target string) bool {
	for _, relation := range relations {
		if it.explicit.has(relation, target) || it.implicit.has(relation, target) {
			return true
		}
	}
	return false
}

// IsMatch reports whether the item id matches re (compile with CompileFull).
func (it *Item) IsMatch(re *regexp.Regexp) bool {
	return re.MatchString(it.id)
}

// AttributesMatch reports whether every attribute value matches its regex.
// An item without one of the filtered attributes does not match, even when
// the regex accepts "". An empty filter matches any item.
func (it *Item) AttributesMatch(filter map[string]*regexp.Regexp) bool {
	for id, re := range filter {
		value, ok := it.attributes[it.registry.Canonical(id)]
		if !ok || !re.MatchString(value) {
			return false
		}
	}
	return true
}

// MergeFrom folds other into it: non-empty scalars are copied, edge tables are
// extended, attributes are added without overwriting, and a declared other
// clears the placeholder flag.
func (it *Item) MergeFrom(other *Item) {
	if other.name != "" {
		it.name = other.name
	}
	if other.caption != "" {
		it.caption = other.caption
	}
	if other.content != "" {
		it.content = other.content
		it.contentHash = other.contentHash
	}
	if other.document != "" {
		it.document = other.document
		it.line = other.line
	}
	if it.attributeOrder == nil && other.attributeOrder != nil {
		it.attributeOrder = append([]string(nil), other.attributeOrder...)
	}

	for relation, targets := range other.explicit {
		for target := range targets {
			it.implicit.remove(relation, target)
			it.explicit.add(relation, target)
		}
	}
	for relation, targets := range other.implicit {
		for target := range targets {
			if !it.explicit.has(relation, target) {
				it.implicit.add(relation, target)
			}
		}
	}

	for id, value := range other.attributes {
		if _, ok := it.attributes[id]; !ok {
			it.attributes[id] = value
		}
	}

	if !other.placeholder {
		it.placeholder = false
	}
}

// SelfTest checks the item on its own: it must have a source document, no
// empty attribute values, and no target listed twice within a relation.
func (it *Item) SelfTest() error {
	var c errors.Collector
	if it.document == "" {
		if it.placeholder {
			c.Add(errors.Wrapf(errors.ErrMissingDocument, "item %s is referenced but not defined", it.id))
		} else {
			c.Add(errors.Wrapf(errors.ErrMissingDocument, "item %s has no source document", it.id))
		}
	}
	for _, id := range it.Attributes() {
		if it.attributes[id] == "" {
			c.Add(errors.Wrapf(errors.ErrInvalidAttribute, "item %s: empty value for attribute %s", it.id, id))
		}
	}
	for relation, targets := range it.explicit {
		for target := range targets {
			if it.implicit.has(relation, target) {
				c.Add(errors.Wrapf(errors.ErrDuplicateRelation, "item %s lists %s twice for %s", it.id, target, relation))
			}
		}
	}
	return c.Err()
}
