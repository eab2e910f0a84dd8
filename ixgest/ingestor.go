// Package ixgest feeds documentation sources into a graph.Collection. Every
// declaration is applied independently: a rejected declaration becomes a
// warning tagged with its source location and ingestion continues.
package ixgest

import (
	"go.uber.org/zap"

	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/graph"
	grapherror "github.com/teranos/tracegraph/graph/error"
	"github.com/teranos/tracegraph/graph/query"
	"github.com/teranos/tracegraph/logger"
)

// Location is the source position of a declaration
type Location struct {
	Document string `json:"document"`
	Line     int    `json:"line"`
}

// ItemDecl is an item declaration as read from a source document
type ItemDecl struct {
	ID         string
	Name       string
	Caption    string
	Content    string
	Attributes map[string]string   // attribute id -> value
	Relations  map[string][]string // relation -> target ids
}

// Query is a query directive queued for rendering after ingestion
type Query struct {
	Location Location   `json:"location"`
	Title    string     `json:"title,omitempty"`
	Spec     query.Spec `json:"spec"`
}

// Stats counts what an Ingestor applied and skipped
type Stats struct {
	Attributes int `json:"attributes"`
	Relations  int `json:"relations"`
	Items      int `json:"items"`
	Edges      int `json:"edges"`
	SortRules  int `json:"sort_rules"`
	Queries    int `json:"queries"`
	Skipped    int `json:"skipped"`
}

// Ingestor applies declarations to a collection
type Ingestor struct {
	c        *graph.Collection
	warnings grapherror.Sink
	logger   *zap.SugaredLogger
	queries  []Query
	relinks  []relink
	links    []pendingLink
	stats    Stats
}

// LinkSpec selects the items an item-link connects. Ids and regexes add up.
type LinkSpec struct {
	SourceIDs   []string
	SourceRegex string
	Relation    string
	TargetIDs   []string
	TargetRegex string
}

type pendingLink struct {
	loc  Location
	spec LinkSpec
}

type relink struct {
	loc       Location
	from, to  string
	relations []string
}

// New creates an Ingestor for c. A nil sink discards warnings.
func New(c *graph.Collection, warnings grapherror.Sink, l *zap.SugaredLogger) *Ingestor {
	if warnings == nil {
		warnings = grapherror.Discard
	}
	if l == nil {
		l = logger.Logger.Named("ixgest")
	}
	return &Ingestor{c: c, warnings: warnings, logger: l}
}

// Collection returns the collection being built
func (in *Ingestor) Collection() *graph.Collection { return in.c }

// Stats returns the running counters
func (in *Ingestor) Stats() Stats { return in.stats }

// Queries returns the queued query directives in arrival order
func (in *Ingestor) Queries() []Query {
	return append([]Query(nil), in.queries...)
}

// Warn reports err at loc and counts the declaration as skipped
func (in *Ingestor) Warn(loc Location, err error) {
	in.stats.Skipped++
	for _, w := range grapherror.Split(grapherror.CategoryIngest, err) {
		in.warnings.Warn(w.At(loc.Document, loc.Line))
	}
}

// DeclareAttribute registers an attribute definition
func (in *Ingestor) DeclareAttribute(loc Location, def graph.AttributeDefinition) bool {
	def.Document, def.Line = loc.Document, loc.Line
	if err := in.c.Registry().Declare(def); err != nil {
		in.Warn(loc, err)
		return false
	}
	in.stats.Attributes++
	in.logger.Debugw("Attribute declared", logger.FieldAttribute, def.ID, logger.FieldDocument, loc.Document)
	return true
}

// DeclareRelationPair registers forward and its reverse; an empty reverse
// declares an external relation
func (in *Ingestor) DeclareRelationPair(loc Location, forward, reverse string) bool {
	if err := in.c.AddRelationPair(forward, reverse); err != nil {
		in.Warn(loc, err)
		return false
	}
	in.stats.Relations++
	return true
}

// DeclareItem adds an item. Invalid attributes and relations are reported one
// by one; the item itself is kept unless its id is rejected.
func (in *Ingestor) DeclareItem(loc Location, decl ItemDecl) bool {
	if decl.ID == "" {
		in.Warn(loc, errors.Wrap(errors.ErrSyntax, "item without id"))
		return false
	}

	item := graph.NewItem(decl.ID, in.c.Registry())
	item.SetLocation(loc.Document, loc.Line)
	if decl.Name != "" {
		item.SetName(decl.Name)
	}
	item.SetCaption(decl.Caption)
	item.SetContent(decl.Content)
	for _, id := range sortedKeys(decl.Attributes) {
		if err := item.AddAttribute(id, decl.Attributes[id], true); err != nil {
			in.Warn(loc, err)
		}
	}

	if err := in.c.AddItem(item); err != nil {
		in.Warn(loc, err)
		if errors.Is(err, errors.ErrDuplicate) {
			return false
		}
	}
	in.stats.Items++

	for _, relation := range sortedRelations(decl.Relations) {
		for _, target := range decl.Relations[relation] {
			in.AttachRelation(loc, decl.ID, relation, target)
		}
	}
	return true
}

// AttachAttribute sets an attribute on an already declared item
func (in *Ingestor) AttachAttribute(loc Location, itemID, attribute, value string) bool {
	item := in.c.Item(itemID)
	if item == nil || item.IsPlaceholder() {
		in.Warn(loc, errors.NewNotFoundf("item %s", itemID))
		return false
	}
	if err := item.AddAttribute(attribute, value, true); err != nil {
		in.Warn(loc, err)
		return false
	}
	return true
}

// AttachRelation adds source --relation--> target
func (in *Ingestor) AttachRelation(loc Location, source, relation, target string) bool {
	if err := in.c.AddRelation(source, relation, target); err != nil {
		in.Warn(loc, err)
		return false
	}
	in.stats.Edges++
	return true
}

// AddAttributeSortRule fixes the attribute order of items matching filter.
// Items that already carry an order are reported.
func (in *Ingestor) AddAttributeSortRule(loc Location, filter string, order []string) bool {
	ignored, err := in.c.AddAttributeSortingRule(filter, order)
	if err != nil {
		in.Warn(loc, err)
		return false
	}
	in.stats.SortRules++
	for _, id := range ignored {
		in.warnings.Warn(grapherror.Newf(grapherror.CategoryIngest, "Sort rule ignored",
			"item %s already has an attribute order, rule %s ignored", id, filter).
			At(loc.Document, loc.Line).
			WithContext(logger.FieldItem, id))
	}
	return true
}

// LinkItems adds relation from every item matching sourceRegex to every item
// matching targetRegex
func (in *Ingestor) LinkItems(loc Location, sourceRegex, relation, targetRegex string) int {
	sources, err := in.c.Items(sourceRegex, graph.ItemFilter{})
	if err != nil {
		in.Warn(loc, err)
		return 0
	}
	targets, err := in.c.Items(targetRegex, graph.ItemFilter{})
	if err != nil {
		in.Warn(loc, err)
		return 0
	}
	return in.linkAll(loc, sources, relation, targets)
}

// LinkIDs adds relation from every source id to every target id
func (in *Ingestor) LinkIDs(loc Location, sources []string, relation string, targets []string) int {
	return in.linkAll(loc, sources, relation, targets)
}

func (in *Ingestor) linkAll(loc Location, sources []string, relation string, targets []string) int {
	if !in.c.HasRelation(relation) {
		in.Warn(loc, errors.Wrapf(errors.ErrUnknownRelation, "link type %s", relation))
		return 0
	}
	n := 0
	for _, source := range sources {
		for _, target := range targets {
			if source == target {
				continue
			}
			if in.AttachRelation(loc, source, relation, target) {
				n++
			}
		}
	}
	return n
}

// RelinkItems moves every explicit edge pointing at from onto to. Only the
// given relations are moved; empty means every relation.
func (in *Ingestor) RelinkItems(loc Location, from, to string, relations []string) int {
	if from == "" || to == "" {
		in.Warn(loc, errors.Wrap(errors.ErrSyntax, "relink needs both remap and target"))
		return 0
	}
	if len(relations) == 0 {
		relations = in.c.Relations()
	}
	n := 0
	for _, id := range in.c.ItemIDs() {
		item := in.c.Item(id)
		for _, relation := range relations {
			if !contains(item.IterTargets(relation, true, false, false), from) {
				continue
			}
			if err := in.c.RemoveRelation(id, relation, from); err != nil {
				in.Warn(loc, err)
				continue
			}
			if id == to {
				continue
			}
			if in.AttachRelation(loc, id, relation, to) {
				n++
			}
		}
	}
	in.logger.Debugw("Relinked items", "from", from, logger.FieldTarget, to, logger.FieldCount, n)
	return n
}

// QueueLink defers a link until every document is ingested
func (in *Ingestor) QueueLink(loc Location, spec LinkSpec) {
	in.links = append(in.links, pendingLink{loc: loc, spec: spec})
}

// QueueRelink defers a relink until every document is ingested
func (in *Ingestor) QueueRelink(loc Location, from, to string, relations []string) {
	in.relinks = append(in.relinks, relink{loc: loc, from: from, to: to, relations: relations})
}

// Finish applies queued relinks, then queued links
func (in *Ingestor) Finish() {
	for _, r := range in.relinks {
		in.RelinkItems(r.loc, r.from, r.to, r.relations)
	}
	for _, l := range in.links {
		sources, ok := in.resolveLinkSide(l.loc, l.spec.SourceIDs, l.spec.SourceRegex)
		if !ok {
			continue
		}
		targets, ok := in.resolveLinkSide(l.loc, l.spec.TargetIDs, l.spec.TargetRegex)
		if !ok {
			continue
		}
		in.LinkIDs(l.loc, sources, l.spec.Relation, targets)
	}
	in.relinks, in.links = nil, nil
}

func (in *Ingestor) resolveLinkSide(loc Location, ids []string, regex string) ([]string, bool) {
	out := append([]string(nil), ids...)
	if regex == "" {
		return out, true
	}
	matched, err := in.c.Items(regex, graph.ItemFilter{})
	if err != nil {
		in.Warn(loc, err)
		return nil, false
	}
	for _, id := range matched {
		if !contains(out, id) {
			out = append(out, id)
		}
	}
	return out, true
}

// AddQuery queues a query directive
func (in *Ingestor) AddQuery(loc Location, title string, spec query.Spec) {
	in.stats.Queries++
	in.queries = append(in.queries, Query{Location: loc, Title: title, Spec: spec})
}
