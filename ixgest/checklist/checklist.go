// Package checklist sets an item attribute from a GFM task list. Every task
// whose text starts with an item id marks that item:
//
//	- [x] REQ-1 reviewed by safety
//	- [ ] REQ-2
//
// The attribute is applied through the collection's item callback, so items
// declared after the checklist was read are marked too.
package checklist

import (
	"bytes"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/graph"
	"github.com/teranos/tracegraph/ixgest"
)

// Config names the attribute and the values written for checked and
// unchecked tasks
type Config struct {
	AttributeName  string
	CheckedValue   string
	UncheckedValue string
}

// Entry is one task naming an item
type Entry struct {
	ID      string `json:"id"`
	Checked bool   `json:"checked"`
	Line    int    `json:"line"`
}

// Checklist holds the parsed entries of one document
type Checklist struct {
	cfg      Config
	document string
	entries  map[string]Entry
	order    []string
	applied  map[string]bool
}

// Load reads and parses the task list at path
func Load(path, document string, cfg Config) (*Checklist, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrMissingDocument, "checklist %s: %v", path, err)
	}
	return Parse(document, source, cfg)
}

// Parse extracts the task entries of source. A later task for the same id
// overrides an earlier one.
func Parse(document string, source []byte, cfg Config) (*Checklist, error) {
	if cfg.AttributeName == "" {
		return nil, errors.Wrap(errors.ErrInvalidAttribute, "checklist without attribute name")
	}
	cl := &Checklist{
		cfg:      cfg,
		document: document,
		entries:  make(map[string]Entry),
		applied:  make(map[string]bool),
	}

	md := goldmark.New(goldmark.WithExtensions(extension.TaskList))
	doc := md.Parser().Parse(text.NewReader(source))
	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || node.Kind() != extast.KindTaskCheckBox {
			return ast.WalkContinue, nil
		}
		box := node.(*extast.TaskCheckBox)
		label, offset := followingText(box, source)
		fields := strings.Fields(label)
		if len(fields) == 0 {
			return ast.WalkContinue, nil
		}
		id := fields[0]
		if _, seen := cl.entries[id]; !seen {
			cl.order = append(cl.order, id)
		}
		cl.entries[id] = Entry{ID: id, Checked: box.IsChecked, Line: bytes.Count(source[:offset], []byte("\n")) + 1}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "checklist %s", document)
	}
	return cl, nil
}

// followingText concatenates the inline text after the checkbox and returns
// the offset of its first segment
func followingText(box ast.Node, source []byte) (string, int) {
	var b strings.Builder
	offset := -1
	for n := box.NextSibling(); n != nil; n = n.NextSibling() {
		_ = ast.Walk(n, func(inner ast.Node, entering bool) (ast.WalkStatus, error) {
			if !entering {
				return ast.WalkContinue, nil
			}
			if t, ok := inner.(*ast.Text); ok {
				if offset < 0 {
					offset = t.Segment.Start
				}
				b.Write(t.Segment.Value(source))
				if t.SoftLineBreak() || t.HardLineBreak() {
					b.WriteByte(' ')
				}
			}
			return ast.WalkContinue, nil
		})
	}
	if offset < 0 {
		offset = 0
	}
	return b.String(), offset
}

// Document returns the checklist's document name
func (cl *Checklist) Document() string { return cl.document }

// Entries returns the entries in document order
func (cl *Checklist) Entries() []Entry {
	out := make([]Entry, 0, len(cl.order))
	for _, id := range cl.order {
		out = append(out, cl.entries[id])
	}
	return out
}

// Lookup returns the entry for id
func (cl *Checklist) Lookup(id string) (Entry, bool) {
	e, ok := cl.entries[id]
	return e, ok
}

// Value returns the attribute value for an entry
func (cl *Checklist) Value(e Entry) string {
	if e.Checked {
		return cl.cfg.CheckedValue
	}
	return cl.cfg.UncheckedValue
}

// Callback returns an item callback that writes the checklist attribute on
// every declared item the list names
func (cl *Checklist) Callback() graph.ItemCallback {
	return func(itemID string, c *graph.Collection) error {
		e, ok := cl.entries[itemID]
		if !ok {
			return nil
		}
		item := c.Item(itemID)
		if item == nil {
			return nil
		}
		cl.applied[itemID] = true
		if err := item.AddAttribute(cl.cfg.AttributeName, cl.Value(e), true); err != nil {
			return errors.WithDetailf(err, "checklist %s:%d", cl.document, e.Line)
		}
		return nil
	}
}

// ReportUnused warns about entries whose item was never declared
func (cl *Checklist) ReportUnused(in *ixgest.Ingestor) int {
	n := 0
	for _, e := range cl.Entries() {
		if cl.applied[e.ID] {
			continue
		}
		in.Warn(ixgest.Location{Document: cl.document, Line: e.Line},
			errors.NewNotFoundf("checklist names undeclared item %s", e.ID))
		n++
	}
	return n
}
