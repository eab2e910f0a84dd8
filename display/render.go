package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/tracegraph/am"
	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/graph"
	"github.com/teranos/tracegraph/graph/query"
)

// Renderer prints query results and items to a terminal
type Renderer struct {
	out    io.Writer
	engine *query.Engine
	cfg    am.TraceabilityConfig
	linker *Linker
}

// NewRenderer creates a Renderer writing to out
func NewRenderer(out io.Writer, engine *query.Engine, cfg am.TraceabilityConfig) (*Renderer, error) {
	linker, err := NewLinker(cfg)
	if err != nil {
		return nil, err
	}
	return &Renderer{out: out, engine: engine, cfg: cfg, linker: linker}, nil
}

// Linker returns the link resolver used for external targets
func (r *Renderer) Linker() *Linker { return r.linker }

// RelationLabel returns the display text of a relation
func (r *Renderer) RelationLabel(relation string) string {
	if s, ok := r.cfg.RelationshipToString[relation]; ok && s != "" {
		return s
	}
	return relation
}

// AttributeLabel returns the display text of an attribute
func (r *Renderer) AttributeLabel(id string) string {
	if s, ok := r.cfg.AttributesToString[id]; ok && s != "" {
		return s
	}
	if def, ok := r.engine.Collection().Registry().Get(id); ok && def.Name != "" {
		return def.Name
	}
	return id
}

// Label returns "ID caption" for an item; unknown ids get a broken-link caption
func (r *Renderer) Label(id string) string {
	item := r.engine.Reference(id)
	if stored := r.engine.Collection().Item(id); stored == nil || stored.IsPlaceholder() {
		return pterm.Red(item.Caption())
	}
	if item.Caption() == "" {
		return item.Name()
	}
	return item.Name() + " " + item.Caption()
}

func (r *Renderer) attributeSummary(item *graph.Item) string {
	ids := item.Attributes()
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, r.AttributeLabel(id)+": "+item.Attribute(id))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Render runs spec and prints its result under title
func (r *Renderer) Render(title string, spec query.Spec) (*query.Result, error) {
	res, err := r.engine.Run(spec)
	if err != nil {
		return nil, err
	}
	return res, r.RenderResult(title, res)
}

// RenderResult prints a query result under title
func (r *Renderer) RenderResult(title string, res *query.Result) error {
	if title != "" {
		fmt.Fprint(r.out, pterm.DefaultSection.Sprint(title))
	}
	switch res.Kind {
	case query.KindList:
		return r.list(res.Items)
	case query.KindMatrix:
		return r.matrix(res.Matrix)
	case query.KindMatrix2D:
		return r.matrix2D(res.Matrix2D)
	case query.KindTree:
		return r.tree(res.Tree)
	case query.KindPie:
		return r.pie(res.Coverage)
	case query.KindAttributesMatrix:
		return r.attributesMatrix(res.AttributesMatrix)
	}
	return errors.Wrapf(errors.ErrInvalidQuery, "cannot render %s", res.Kind)
}

func (r *Renderer) list(ids []string) error {
	if len(ids) == 0 {
		fmt.Fprintln(r.out, pterm.Gray("(no items)"))
		return nil
	}
	items := make([]pterm.BulletListItem, 0, len(ids))
	for _, id := range ids {
		text := r.Label(id)
		if r.cfg.RenderAttributesPerItem {
			if summary := r.attributeSummary(r.engine.Reference(id)); summary != "" {
				text += " " + pterm.Gray(summary)
			}
		}
		items = append(items, pterm.BulletListItem{Level: 0, Text: text})
	}
	s, err := pterm.DefaultBulletList.WithItems(items).Srender()
	if err != nil {
		return errors.Wrap(err, "render list")
	}
	fmt.Fprint(r.out, s)
	return nil
}

func (r *Renderer) table(data pterm.TableData) error {
	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Wrap(err, "render table")
	}
	fmt.Fprintln(r.out, s)
	return nil
}

func (r *Renderer) stats(label string, s query.Stats) {
	fmt.Fprintf(r.out, "%s: %d/%d (%d%%)\n", label, s.Covered, s.Total, s.Percentage)
}

func (r *Renderer) matrix(m *query.MatrixResult) error {
	header := []string{"Source"}
	withIntermediates := false
	for _, row := range m.Rows {
		if len(row.Intermediates) > 0 {
			withIntermediates = true
			break
		}
	}
	if withIntermediates {
		header = append(header, "Via")
	}
	header = append(header, m.Columns...)

	data := pterm.TableData{header}
	for _, row := range m.Rows {
		line := []string{r.Label(row.Source)}
		if withIntermediates {
			line = append(line, strings.Join(row.Intermediates, ", "))
		}
		for _, targets := range row.Targets {
			if len(targets) == 0 {
				line = append(line, pterm.Red("-"))
				continue
			}
			line = append(line, strings.Join(targets, ", "))
		}
		data = append(data, line)
	}
	if err := r.table(data); err != nil {
		return err
	}
	r.stats("Covered", m.Stats)
	return nil
}

func (r *Renderer) matrix2D(m *query.Matrix2DResult) error {
	data := pterm.TableData{append([]string{""}, m.Targets...)}
	for i, source := range m.Sources {
		line := []string{source}
		for _, linked := range m.Cells[i] {
			if linked {
				line = append(line, "x")
			} else {
				line = append(line, "")
			}
		}
		data = append(data, line)
	}
	return r.table(data)
}

func (r *Renderer) treeNode(n *query.TreeNode) pterm.TreeNode {
	text := r.Label(n.ID)
	if n.Relation != "" {
		text = pterm.Gray(r.RelationLabel(n.Relation)+":") + " " + text
	}
	node := pterm.TreeNode{Text: text}
	for _, child := range n.Children {
		node.Children = append(node.Children, r.treeNode(child))
	}
	return node
}

func (r *Renderer) tree(roots []*query.TreeNode) error {
	if len(roots) == 0 {
		fmt.Fprintln(r.out, pterm.Gray("(no items)"))
		return nil
	}
	root := pterm.TreeNode{}
	for _, n := range roots {
		root.Children = append(root.Children, r.treeNode(n))
	}
	s, err := pterm.DefaultTree.WithRoot(root).Srender()
	if err != nil {
		return errors.Wrap(err, "render tree")
	}
	fmt.Fprint(r.out, s)
	return nil
}

func (r *Renderer) pie(c *query.CoverageResult) error {
	// highest priority first, as a reader scans for the best result
	bars := make(pterm.Bars, 0, len(c.Labels))
	for i := len(c.Labels) - 1; i >= 0; i-- {
		label := c.Labels[i]
		bars = append(bars, pterm.Bar{Label: label, Value: c.Counts[label]})
	}
	s, err := pterm.DefaultBarChart.WithBars(bars).WithHorizontal().WithShowValue().Srender()
	if err != nil {
		return errors.Wrap(err, "render chart")
	}
	fmt.Fprint(r.out, s)
	r.stats("Covered", c.Stats)
	return nil
}

func (r *Renderer) attributesMatrix(m *query.AttributesMatrixResult) error {
	header := []string{"Item"}
	for _, col := range m.Columns {
		header = append(header, r.AttributeLabel(col))
	}
	data := pterm.TableData{header}
	for _, row := range m.Rows {
		data = append(data, append([]string{r.Label(row.ID)}, row.Values...))
	}
	return r.table(data)
}

// RenderItem prints one item with its attributes and relations
func (r *Renderer) RenderItem(id string) error {
	c := r.engine.Collection()
	item := c.Item(id)
	if item == nil {
		return errors.NewNotFoundf("item %s", id)
	}

	header := item.Name()
	if item.Caption() != "" {
		header += " " + item.Caption()
	}
	fmt.Fprint(r.out, pterm.DefaultSection.Sprint(header))
	if item.IsPlaceholder() {
		fmt.Fprintln(r.out, pterm.Yellow("placeholder: referenced but never declared"))
	} else {
		fmt.Fprintln(r.out, pterm.Gray(fmt.Sprintf("%s:%d", item.Document(), item.Line())))
	}
	if item.Content() != "" {
		fmt.Fprintln(r.out, item.Content())
	}

	if r.cfg.RenderAttributesPerItem && len(item.Attributes()) > 0 {
		data := pterm.TableData{{"Attribute", "Value"}}
		for _, a := range item.Attributes() {
			data = append(data, []string{r.AttributeLabel(a), item.Attribute(a)})
		}
		if err := r.table(data); err != nil {
			return err
		}
	}

	if !r.cfg.RenderRelationshipPerItem {
		return nil
	}
	for _, relation := range item.Relations() {
		targets := item.Targets(relation)
		rendered := make([]string, 0, len(targets))
		for _, t := range targets {
			rendered = append(rendered, r.target(relation, t))
		}
		label := pterm.Bold.Sprint(r.RelationLabel(relation))
		if r.cfg.CollapseLinks {
			fmt.Fprintf(r.out, "%s: %s\n", label, strings.Join(rendered, ", "))
			continue
		}
		fmt.Fprintln(r.out, label)
		for _, t := range rendered {
			fmt.Fprintf(r.out, "  %s\n", t)
		}
	}
	return nil
}

func (r *Renderer) target(relation, id string) string {
	c := r.engine.Collection()
	if c.IsExternal(relation) {
		if url := r.linker.URL(relation, id); url != "" {
			return id + " " + pterm.Cyan(url)
		}
		return id
	}
	return r.Label(id)
}
