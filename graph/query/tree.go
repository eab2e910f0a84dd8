package query

import (
	"time"

	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/graph"
)

// TreeNode is one item of an item tree.
type TreeNode struct {
	ID       string      `json:"id"`
	Relation string      `json:"relation,omitempty"` // relation from the parent
	Children []*TreeNode `json:"children,omitempty"`
}

// Tree builds one tree per top-level item matching spec.Top. An item already
// on the path from the root is not expanded again.
func (e *Engine) Tree(spec TreeSpec) ([]*TreeNode, error) {
	start := time.Now()
	relations := spec.Relations
	if len(relations) == 0 {
		relations = e.c.InternalRelations()
	} else if err := requireRelations(e.c, relations); err != nil {
		return nil, err
	}

	top, err := graph.CompileFull(spec.Top)
	if err != nil {
		return nil, errors.Wrap(err, "item tree top filter")
	}
	roots, err := e.c.Items(spec.Top, graph.ItemFilter{Attributes: spec.Attributes})
	if err != nil {
		return nil, errors.Wrap(err, "item tree")
	}

	var nodes []*TreeNode
	count := 0
	for _, id := range roots {
		if !e.IsTopLevel(id, top, spec.TopRelations) {
			continue
		}
		path := map[string]struct{}{}
		nodes = append(nodes, e.subtree(id, "", relations, path, &count))
	}
	e.trace(KindTree, start, count)
	return nodes, nil
}

func (e *Engine) subtree(id, relation string, relations []string, path map[string]struct{}, count *int) *TreeNode {
	*count++
	node := &TreeNode{ID: id, Relation: relation}
	path[id] = struct{}{}
	defer delete(path, id)

	item := e.c.Item(id)
	for _, rel := range relations {
		for _, child := range item.Targets(rel) {
			if _, onPath := path[child]; onPath {
				continue
			}
			if target := e.c.Item(child); target == nil || target.IsPlaceholder() {
				continue
			}
			node.Children = append(node.Children, e.subtree(child, rel, relations, path, count))
		}
	}
	return node
}
