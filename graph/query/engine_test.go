package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teranos/tracegraph/graph"
	grapherror "github.com/teranos/tracegraph/graph/error"
)

// fixture builds a collection from compact declarations.
type fixture struct {
	t *testing.T
	c *graph.Collection
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := graph.NewAttributeRegistry()
	require.NoError(t, reg.Declare(graph.AttributeDefinition{ID: "asil", ValueRegex: "[ABCD]"}))
	require.NoError(t, reg.Declare(graph.AttributeDefinition{ID: "rating", ValueRegex: `\d`}))
	require.NoError(t, reg.Declare(graph.AttributeDefinition{ID: "status", ValueRegex: "[A-Za-z]+"}))

	c := graph.NewCollection(reg, graph.WithLogger(zap.NewNop().Sugar()))
	for _, pair := range [][2]string{
		{"realizes", "realized_by"},
		{"validates", "validated_by"},
		{"depends_on", "impacts"},
		{"ext_ticket", ""},
	} {
		require.NoError(t, c.AddRelationPair(pair[0], pair[1]))
	}
	return &fixture{t: t, c: c}
}

func (f *fixture) item(id string, attrs ...string) *fixture {
	f.t.Helper()
	item := graph.NewItem(id, f.c.Registry())
	item.SetLocation("fixture.md", 1)
	for i := 0; i+1 < len(attrs); i += 2 {
		require.NoError(f.t, item.AddAttribute(attrs[i], attrs[i+1], true))
	}
	require.NoError(f.t, f.c.AddItem(item))
	return f
}

func (f *fixture) link(source, relation, target string) *fixture {
	f.t.Helper()
	require.NoError(f.t, f.c.AddRelation(source, relation, target))
	return f
}

func (f *fixture) engine(opts ...Options) *Engine {
	o := Options{Logger: zap.NewNop().Sugar()}
	if len(opts) > 0 {
		o = opts[0]
	}
	return New(f.c, o)
}

func TestItems(t *testing.T) {
	f := newFixture(t).
		item("R1", "asil", "A").
		item("R2", "asil", "B").
		item("R10", "asil", "A").
		item("C1").
		link("R2", "depends_on", "R1").
		link("R10", "depends_on", "C1")
	e := f.engine()

	ids, err := e.Items(ListSpec{Filter: `R\d+`})
	require.NoError(t, err)
	assert.Equal(t, []string{"R1", "R2", "R10"}, ids)

	ids, err = e.Items(ListSpec{Filter: `R\d+`, Attributes: map[string]string{"asil": "A"}, Reverse: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"R10", "R1"}, ids)

	ids, err = e.Items(ListSpec{Filter: `R\d+`, Top: `R\d+`, TopRelations: []string{"depends_on"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"R1", "R10"}, ids, "R2 depends on another R item")

	ids, err = e.Items(ListSpec{Filter: `R\d+`, Top: `R\d+`})
	require.NoError(t, err)
	assert.Equal(t, []string{"R1", "R2", "R10"}, ids, "no top relations keeps every item")

	_, err = e.Items(ListSpec{Filter: "("})
	assert.Error(t, err)
}

func TestIsTopLevel(t *testing.T) {
	f := newFixture(t).
		item("R1").item("R2").item("D1").
		link("R2", "depends_on", "R1").
		link("R1", "realizes", "D1")
	e := f.engine()
	top, err := graph.CompileFull(`R\d+`)
	require.NoError(t, err)

	assert.True(t, e.IsTopLevel("R1", top, []string{"depends_on"}))
	assert.False(t, e.IsTopLevel("R2", top, []string{"depends_on"}))
	assert.True(t, e.IsTopLevel("R1", top, nil), "no relations to check")
	assert.True(t, e.IsTopLevel("R2", top, nil), "no relations to check")
	assert.True(t, e.IsTopLevel("D1", top, []string{"validates"}))
	assert.True(t, e.IsTopLevel("missing", top, nil))
}

func TestReference(t *testing.T) {
	f := newFixture(t).item("R1").link("R1", "realizes", "D9")
	rec := grapherror.NewRecorder(nil)
	e := f.engine(Options{Logger: zap.NewNop().Sugar(), Warnings: rec})

	assert.Same(t, f.c.Item("R1"), e.Reference("R1"))
	assert.Zero(t, rec.Count(""))

	fallback := e.ReferenceAt("D9", "design.md", 12)
	assert.Equal(t, "D9 not defined, broken link", fallback.Caption())
	assert.True(t, f.c.Item("D9").IsPlaceholder(), "collection untouched")

	missing := e.Reference("X1")
	assert.Equal(t, "X1 not defined, broken link", missing.Caption())
	assert.False(t, f.c.HasItem("X1"))

	warnings := rec.Warnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, grapherror.SubcategoryBrokenLink, warnings[0].Subcategory)
	assert.Equal(t, "design.md:12", warnings[0].Location())
}

func TestRun(t *testing.T) {
	f := newFixture(t).
		item("R1", "asil", "A").item("T1").
		link("T1", "validates", "R1")
	e := f.engine()

	tests := []struct {
		spec  Spec
		check func(t *testing.T, r *Result)
	}{
		{ListSpec{Filter: "R1"}, func(t *testing.T, r *Result) { assert.Equal(t, []string{"R1"}, r.Items) }},
		{MatrixSpec{Source: `R\d`, Targets: []string{`T\d`}}, func(t *testing.T, r *Result) { assert.Equal(t, 1, r.Matrix.Stats.Covered) }},
		{Matrix2DSpec{Source: `R\d`, Target: `T\d`}, func(t *testing.T, r *Result) { assert.Equal(t, [][]bool{{true}}, r.Matrix2D.Cells) }},
		{TreeSpec{Top: `R\d`}, func(t *testing.T, r *Result) { require.Len(t, r.Tree, 1) }},
		{PieSpec{IDSet: []string{`R\d`, `T\d`}}, func(t *testing.T, r *Result) { assert.Equal(t, 100, r.Coverage.Stats.Percentage) }},
		{AttributesMatrixSpec{Columns: []string{"asil"}}, func(t *testing.T, r *Result) { assert.Len(t, r.AttributesMatrix.Rows, 2) }},
	}
	for _, tt := range tests {
		t.Run(string(tt.spec.Kind()), func(t *testing.T) {
			res, err := e.Run(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.spec.Kind(), res.Kind)
			tt.check(t, res)
		})
	}
}
