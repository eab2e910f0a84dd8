package markdown

import (
	"strings"

	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/graph"
	"github.com/teranos/tracegraph/ixgest"
	"github.com/teranos/tracegraph/ixgest/types"
)

func (p *Processor) apply(loc ixgest.Location, d *Directive) {
	switch d.Def.Name {
	case types.Item.Name:
		p.item(loc, d)
	case types.Attribute.Name:
		p.attribute(loc, d)
	case types.Relationship.Name:
		p.relationship(loc, d)
	case types.Link.Name:
		p.link(loc, d)
	case types.Relink.Name:
		p.relink(loc, d)
	case types.AttributeSort.Name:
		p.attributeSort(loc, d)
	default:
		spec, err := buildQuery(p.ingestor.Collection(), d)
		if err != nil {
			p.ingestor.Warn(loc, err)
			return
		}
		p.ingestor.AddQuery(loc, strings.Join(d.Args, " "), spec)
	}
}

func (p *Processor) item(loc ixgest.Location, d *Directive) {
	id := d.Arg(0)
	if id == "" {
		p.ingestor.Warn(loc, errors.Wrap(errors.ErrSyntax, "item directive without id"))
		return
	}
	attrs, relations, err := d.classify(p.ingestor.Collection())
	if err != nil {
		// unknown options are reported; the item is still declared
		p.ingestor.Warn(loc, err)
	}
	p.ingestor.DeclareItem(loc, ixgest.ItemDecl{
		ID:         id,
		Name:       d.Option("name", ""),
		Caption:    d.Option("caption", strings.Join(d.Args[1:], " ")),
		Content:    d.Content,
		Attributes: attrs,
		Relations:  relations,
	})
}

func (p *Processor) attribute(loc ixgest.Location, d *Directive) {
	if err := requireKnownOptions(d); err != nil {
		p.ingestor.Warn(loc, err)
		return
	}
	p.ingestor.DeclareAttribute(loc, graph.AttributeDefinition{
		ID:         d.Arg(0),
		Name:       d.Option("name", ""),
		ValueRegex: d.Option("regex", ""),
		Caption:    d.Option("caption", d.Content),
	})
}

func (p *Processor) relationship(loc ixgest.Location, d *Directive) {
	if err := requireKnownOptions(d); err != nil {
		p.ingestor.Warn(loc, err)
		return
	}
	forward := d.Option("forward", d.Arg(0))
	reverse := d.Option("reverse", d.Arg(1))
	p.ingestor.DeclareRelationPair(loc, forward, reverse)
}

func (p *Processor) link(loc ixgest.Location, d *Directive) {
	if err := requireKnownOptions(d); err != nil {
		p.ingestor.Warn(loc, err)
		return
	}
	sources, err := d.Words("sources")
	if err != nil {
		p.ingestor.Warn(loc, err)
		return
	}
	targets, err := d.Words("targets")
	if err != nil {
		p.ingestor.Warn(loc, err)
		return
	}
	spec := ixgest.LinkSpec{
		SourceIDs:   sources,
		SourceRegex: d.Option("source", ""),
		Relation:    d.Option("type", ""),
		TargetIDs:   targets,
		TargetRegex: d.Option("target", ""),
	}
	if spec.Relation == "" {
		p.ingestor.Warn(loc, errors.Wrap(errors.ErrSyntax, "item-link without type"))
		return
	}
	if len(spec.SourceIDs) == 0 && spec.SourceRegex == "" || len(spec.TargetIDs) == 0 && spec.TargetRegex == "" {
		p.ingestor.Warn(loc, errors.Wrap(errors.ErrSyntax, "item-link needs sources and targets"))
		return
	}
	p.ingestor.QueueLink(loc, spec)
}

func (p *Processor) relink(loc ixgest.Location, d *Directive) {
	if err := requireKnownOptions(d); err != nil {
		p.ingestor.Warn(loc, err)
		return
	}
	relations, err := d.Words("type")
	if err != nil {
		p.ingestor.Warn(loc, err)
		return
	}
	p.ingestor.QueueRelink(loc, d.Option("remap", ""), d.Option("target", ""), relations)
}

func (p *Processor) attributeSort(loc ixgest.Location, d *Directive) {
	if err := requireKnownOptions(d); err != nil {
		p.ingestor.Warn(loc, err)
		return
	}
	order, err := d.Words("sort")
	if err != nil {
		p.ingestor.Warn(loc, err)
		return
	}
	if len(order) == 0 {
		p.ingestor.Warn(loc, errors.Wrap(errors.ErrSyntax, "attribute-sort without sort"))
		return
	}
	p.ingestor.AddAttributeSortRule(loc, d.Option("filter", ""), order)
}

func requireKnownOptions(d *Directive) error {
	var errs errors.Collector
	for _, key := range d.Keys {
		if !d.Def.HasOption(key) {
			errs.Add(errors.Wrapf(errors.ErrSyntax, "%s: unknown option %s", d.Def.Name, key))
		}
	}
	return errs.Err()
}
