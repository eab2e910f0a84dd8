package graph

import (
	"github.com/teranos/tracegraph/errors"
)

// SelfTest checks the integrity of the collection after ingestion. With a
// non-empty document only items declared in that document are checked. Every
// violation is collected into one *errors.MultipleErrors.
func (c *Collection) SelfTest(document string) error {
	if len(c.relations) == 0 {
		return errors.WithHint(errors.ErrNoRelations, "declare at least one relation pair")
	}

	var collected errors.Collector
	for _, id := range c.ItemIDs() {
		item := c.items[id]
		if document != "" && item.Document() != document {
			continue
		}
		collected.Add(item.SelfTest())

		for _, relation := range item.Relations() {
			if c.IsExternal(relation) {
				continue
			}
			reverse, hasReverse := c.ReverseRelation(relation)
			for _, targetID := range item.Targets(relation) {
				target, ok := c.items[targetID]
				if !ok {
					collected.Add(errors.Wrapf(errors.ErrBrokenEdge,
						"%s %s %s: target does not exist", id, relation, targetID))
					continue
				}
				if hasReverse && !target.IsRelated([]string{reverse}, id) {
					collected.Add(errors.Wrapf(errors.ErrBrokenEdge,
						"%s %s %s: reverse %s edge missing on target", id, relation, targetID, reverse))
				}
			}
		}
	}
	return collected.Err()
}
