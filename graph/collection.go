package graph

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/logger"
)

// ExternalPrefix marks relations whose targets live outside the collection.
const ExternalPrefix = "ext_"

// ItemCallback observes every declared item once it is stored, after
// attribute sorting rules are applied and before further relations arrive.
// It must not mutate the collection; such calls fail with ErrReentrancy.
type ItemCallback func(itemID string, c *Collection) error

// Option configures a Collection.
type Option func(*Collection)

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Collection) {
		c.logger = l
	}
}

// WithItemCallback registers the per-item observer.
func WithItemCallback(cb ItemCallback) Option {
	return func(c *Collection) {
		c.callback = cb
	}
}

type sortRule struct {
	pattern string
	re      *regexp.Regexp
	order   []string
}

// Collection owns every item and the relation registry of one build.
// Mutations are single-threaded; once ingestion is done the collection may be
// read concurrently.
type Collection struct {
	registry   *AttributeRegistry
	relations  map[string]string
	items      map[string]*Item
	sortRules  []sortRule
	callback   ItemCallback
	inCallback bool
	logger     *zap.SugaredLogger
}

// NewCollection creates an empty collection validating attributes against reg.
func NewCollection(reg *AttributeRegistry, opts ...Option) *Collection {
	c := &Collection{
		registry:  reg,
		relations: make(map[string]string),
		items:     make(map[string]*Item),
		logger:    logger.Logger.Named("graph.collection"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the attribute registry the collection validates against.
func (c *Collection) Registry() *AttributeRegistry {
	return c.registry
}

func (c *Collection) checkReentrancy(op string) error {
	if c.inCallback {
		return errors.Wrapf(errors.ErrReentrancy, "%s called from item callback", op)
	}
	return nil
}

// AddRelationPair registers forward and, when reverse is non-empty, its
// counterpart. An empty reverse declares an external relation. Registering
// the same pair again is a no-op.
func (c *Collection) AddRelationPair(forward, reverse string) error {
	if err := c.checkReentrancy("AddRelationPair"); err != nil {
		return err
	}
	if forward == "" {
		return errors.New("forward relation must not be empty")
	}
	if existing, ok := c.relations[forward]; ok && existing != reverse {
		return errors.Newf("relation %s already paired with %q, cannot pair with %q", forward, existing, reverse)
	}
	if reverse != "" {
		if existing, ok := c.relations[reverse]; ok && existing != forward {
			return errors.Newf("relation %s already paired with %q, cannot pair with %q", reverse, existing, forward)
		}
	}
	c.relations[forward] = reverse
	if reverse != "" {
		c.relations[reverse] = forward
	}
	return nil
}

// ReverseRelation returns the counterpart of name. ok is false for unknown
// and external relations.
func (c *Collection) ReverseRelation(name string) (reverse string, ok bool) {
	reverse, known := c.relations[name]
	if !known || reverse == "" {
		return "", false
	}
	return reverse, true
}

// HasRelation reports whether name is registered.
func (c *Collection) HasRelation(name string) bool {
	_, ok := c.relations[name]
	return ok
}

// IsExternal reports whether name is an external (unidirectional) relation.
func (c *Collection) IsExternal(name string) bool {
	if strings.HasPrefix(name, ExternalPrefix) {
		return true
	}
	reverse, ok := c.relations[name]
	return ok && reverse == ""
}

// Relations returns every registered relation name in natural order.
func (c *Collection) Relations() []string {
	names := make([]string, 0, len(c.relations))
	for name := range c.relations {
		names = append(names, name)
	}
	SortNatural(names)
	return names
}

// InternalRelations returns the non-external relations in natural order.
func (c *Collection) InternalRelations() []string {
	var names []string
	for _, name := range c.Relations() {
		if !c.IsExternal(name) {
			names = append(names, name)
		}
	}
	return names
}

// AddItem stores item. A declared item replaces a placeholder of the same id
// while keeping its edges; declaring an id twice fails with ErrDuplicate.
// A failing item callback does not undo the add: the item stays stored and
// the callback error is returned marked with ErrItemCallback, which callers
// report as a warning.
func (c *Collection) AddItem(item *Item) error {
	if err := c.checkReentrancy("AddItem"); err != nil {
		return err
	}
	stored, exists := c.items[item.ID()]
	if exists && !stored.IsPlaceholder() && !item.IsPlaceholder() {
		return errors.WithDetailf(
			errors.Wrapf(errors.ErrDuplicate, "item %s", item.ID()),
			"first declared in %s:%d", stored.Document(), stored.Line())
	}

	if !exists {
		c.items[item.ID()] = item
		stored = item
	} else {
		wasPlaceholder := stored.IsPlaceholder()
		stored.MergeFrom(item)
		if wasPlaceholder && !stored.IsPlaceholder() {
			c.logger.Debugw("Placeholder upgraded", logger.FieldItem, stored.ID())
		}
	}

	if stored.IsPlaceholder() {
		return nil
	}
	c.applySortRules(stored)

	if c.callback != nil {
		c.inCallback = true
		err := c.callback(stored.ID(), c)
		c.inCallback = false
		if err != nil {
			return errors.Mark(errors.Wrapf(err, "item callback for %s", stored.ID()), errors.ErrItemCallback)
		}
	}
	return nil
}

func (c *Collection) applySortRules(item *Item) {
	if item.attributeOrder != nil {
		return
	}
	for _, rule := range c.sortRules {
		if rule.re.MatchString(item.ID()) {
			item.SetAttributeOrder(rule.order)
			return
		}
	}
}

// Item returns the item with id, or nil.
func (c *Collection) Item(id string) *Item {
	return c.items[id]
}

// HasItem reports whether id is stored, placeholder or not.
func (c *Collection) HasItem(id string) bool {
	_, ok := c.items[id]
	return ok
}

// Len returns the number of stored items including placeholders.
func (c *Collection) Len() int {
	return len(c.items)
}

// ItemIDs returns every stored id, placeholders included, in natural order.
func (c *Collection) ItemIDs() []string {
	ids := make([]string, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	SortNatural(ids)
	return ids
}

// AddRelation adds the explicit edge source --relation--> target and, when the
// relation has a reverse, the implicit edge back. Missing endpoints become
// placeholders. A rejected edge leaves the collection untouched.
func (c *Collection) AddRelation(source, relation, target string) error {
	if err := c.checkReentrancy("AddRelation"); err != nil {
		return err
	}
	if !c.HasRelation(relation) {
		return errors.WithHint(
			errors.Wrapf(errors.ErrUnknownRelation, "%s %s %s: relation %s", source, relation, target, relation),
			"declare the relation pair before using it")
	}
	if source == target {
		return errors.Wrapf(errors.ErrCircular, "item %s %s itself", source, relation)
	}
	if src, ok := c.items[source]; ok {
		if err := src.checkTarget(relation, target, false); err != nil {
			return err
		}
	}

	src := c.ensureItem(source)
	if err := src.AddTarget(relation, target, false); err != nil {
		return err
	}

	if reverse, ok := c.ReverseRelation(relation); ok {
		tgt := c.ensureItem(target)
		if err := tgt.AddTarget(reverse, source, true); err != nil {
			return err
		}
	}
	return nil
}

// RemoveRelation drops the explicit edge source --relation--> target together
// with its implicit reverse.
func (c *Collection) RemoveRelation(source, relation, target string) error {
	if err := c.checkReentrancy("RemoveRelation"); err != nil {
		return err
	}
	src, ok := c.items[source]
	if !ok || !src.explicit.has(relation, target) {
		return errors.NewNotFoundf("relation %s %s %s", source, relation, target)
	}
	src.RemoveTarget(relation, target, true, false)
	if reverse, ok := c.ReverseRelation(relation); ok {
		if tgt, ok := c.items[target]; ok {
			tgt.RemoveTarget(reverse, source, false, true)
		}
	}
	return nil
}

func (c *Collection) ensureItem(id string) *Item {
	item, ok := c.items[id]
	if !ok {
		item = NewPlaceholder(id, c.registry)
		c.items[id] = item
	}
	return item
}

// AddAttributeSortingRule fixes the attribute order of every item whose id
// matches filter. Items that already have an order are returned as ignored.
// The rule is kept for items declared later; the first matching rule wins.
func (c *Collection) AddAttributeSortingRule(filter string, order []string) (ignored []string, err error) {
	if err := c.checkReentrancy("AddAttributeSortingRule"); err != nil {
		return nil, err
	}
	re, err := CompileFull(filter)
	if err != nil {
		return nil, err
	}
	for _, id := range c.ItemIDs() {
		item := c.items[id]
		if !re.MatchString(id) {
			continue
		}
		if !item.SetAttributeOrder(order) {
			ignored = append(ignored, id)
		}
	}
	c.sortRules = append(c.sortRules, sortRule{pattern: filter, re: re, order: append([]string(nil), order...)})
	return ignored, nil
}

// ItemFilter narrows and orders the result of Items.
type ItemFilter struct {
	// Attributes maps attribute id -> value regex; every entry must match.
	Attributes map[string]string
	// SortAttributes orders by the vector of these attribute values instead of by id.
	SortAttributes []string
	Reverse        bool
}

// Items returns the ids of declared items whose id fully matches regex (empty
// matches all) and whose attributes pass the filter.
func (c *Collection) Items(regex string, f ItemFilter) ([]string, error) {
	re, err := CompileFull(regex)
	if err != nil {
		return nil, err
	}
	attrFilter, err := compileAttributeFilter(c.registry, f.Attributes)
	if err != nil {
		return nil, err
	}

	var ids []string
	for id, item := range c.items {
		if item.IsPlaceholder() || !re.MatchString(id) || !item.AttributesMatch(attrFilter) {
			continue
		}
		ids = append(ids, id)
	}
	SortNatural(ids)

	if len(f.SortAttributes) > 0 {
		keys := make(map[string][]string, len(ids))
		for _, id := range ids {
			item := c.items[id]
			key := make([]string, len(f.SortAttributes))
			for i, attr := range f.SortAttributes {
				key[i] = item.Attribute(attr)
			}
			keys[id] = key
		}
		sort.SliceStable(ids, func(i, j int) bool {
			return compareVectors(keys[ids[i]], keys[ids[j]]) < 0
		})
	}

	if f.Reverse {
		for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
			ids[i], ids[j] = ids[j], ids[i]
		}
	}
	return ids, nil
}

func compareVectors(a, b []string) int {
	for i := range a {
		if c := strings.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

// ExternalTarget groups the sources pointing at one external target.
type ExternalTarget struct {
	TargetID  string
	SourceIDs []string
}

// ExternalTargets aggregates the explicit edges of the external relation
// from items matching sourceRegex, keyed by target in natural order.
func (c *Collection) ExternalTargets(sourceRegex, relation string) ([]ExternalTarget, error) {
	if !c.IsExternal(relation) {
		return nil, errors.Wrapf(errors.ErrInvalidQuery, "relation %s is not external", relation)
	}
	re, err := CompileFull(sourceRegex)
	if err != nil {
		return nil, err
	}
	bySource := make(map[string][]string)
	for id, item := range c.items {
		if !re.MatchString(id) {
			continue
		}
		for target := range item.explicit[relation] {
			bySource[target] = append(bySource[target], id)
		}
	}

	targets := make([]string, 0, len(bySource))
	for target := range bySource {
		targets = append(targets, target)
	}
	SortNatural(targets)

	result := make([]ExternalTarget, 0, len(targets))
	for _, target := range targets {
		sources := bySource[target]
		SortNatural(sources)
		result = append(result, ExternalTarget{TargetID: target, SourceIDs: sources})
	}
	return result, nil
}

// AreRelated reports whether target is one hop away from source through any of
// relations, following explicit and implicit edges. Empty relations means every
// registered relation. Both items must be declared.
func (c *Collection) AreRelated(source string, relations []string, target string) bool {
	src, ok := c.items[source]
	if !ok || src.IsPlaceholder() {
		return false
	}
	tgt, ok := c.items[target]
	if !ok || tgt.IsPlaceholder() {
		return false
	}
	if len(relations) == 0 {
		relations = c.Relations()
	}
	return src.IsRelated(relations, target)
}
