package markdown

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/graph"
	grapherror "github.com/teranos/tracegraph/graph/error"
	"github.com/teranos/tracegraph/graph/query"
	"github.com/teranos/tracegraph/ixgest"
)

// md turns ''' into code fences so documents can live in raw strings
func md(s string) []byte {
	return []byte(strings.ReplaceAll(s, "'''", "```"))
}

func newTestProcessor(t *testing.T) (*Processor, *ixgest.Ingestor, *grapherror.Recorder) {
	t.Helper()
	c := graph.NewCollection(graph.NewAttributeRegistry(), graph.WithLogger(zap.NewNop().Sugar()))
	rec := grapherror.NewRecorder(nil)
	in := ixgest.New(c, rec, zap.NewNop().Sugar())
	return NewProcessor(in, zap.NewNop().Sugar()), in, rec
}

const requirementsDoc = `# Requirements

'''item-attribute asil
:name: ASIL
:regex: [ABCD]

Automotive safety integrity level.
'''

'''item-relationship validates validated_by
'''

'''item REQ-1 Brake on obstacle
:asil: B

The vehicle shall brake when an obstacle is detected.
'''

Some prose in between.

'''go
fmt.Println("not a directive")
'''

'''item TST-1
:validates: REQ-1
'''

'''item-list Safety requirements
:filter: REQ-.*
:asil: B
:reverse:
'''
`

func TestProcess(t *testing.T) {
	p, in, rec := newTestProcessor(t)

	result := p.Process("docs/req.md", md(requirementsDoc))
	assert.Equal(t, 5, result.Directives)
	assert.Equal(t, 1, result.Queries)
	assert.True(t, result.Success)
	assert.Zero(t, rec.Count(""))

	c := in.Collection()
	def, ok := c.Registry().Get("asil")
	require.True(t, ok)
	assert.Equal(t, "ASIL", def.Name)
	assert.Equal(t, "Automotive safety integrity level.", def.Caption)
	assert.Equal(t, 3, def.Line)

	req := c.Item("REQ-1")
	require.NotNil(t, req)
	assert.Equal(t, "Brake on obstacle", req.Caption())
	assert.Equal(t, "B", req.Attribute("asil"))
	assert.Equal(t, "The vehicle shall brake when an obstacle is detected.", req.Content())
	assert.Equal(t, "docs/req.md", req.Document())
	assert.Equal(t, 13, req.Line())
	assert.Equal(t, []string{"TST-1"}, req.Targets("validated_by"))

	queries := in.Queries()
	require.Len(t, queries, 1)
	assert.Equal(t, "Safety requirements", queries[0].Title)
	assert.Equal(t, 29, queries[0].Location.Line)
	assert.Equal(t, query.ListSpec{
		Filter:     "REQ-.*",
		Attributes: map[string]string{"asil": "B"},
		Reverse:    true,
	}, queries[0].Spec)
}

func TestProcess_Warnings(t *testing.T) {
	p, in, rec := newTestProcessor(t)
	p.Process("setup.md", md(requirementsDoc))
	rec.Reset()

	doc := `'''item REQ-1
'''

'''item REQ-2
:colour: red
'''

'''item
'''

'''item-list
:top_relation: x
'''

'''item-matrix
:type: a | b | c
'''
`
	result := p.Process("bad.md", md(doc))
	assert.False(t, result.Success)
	assert.Equal(t, 5, result.Stats.Skipped)

	warnings := rec.Warnings()
	require.Len(t, warnings, 5)
	assert.Equal(t, grapherror.SubcategoryDuplicate, warnings[0].Subcategory)
	assert.Equal(t, "bad.md:1", warnings[0].Location())
	assert.Equal(t, "bad.md:4", warnings[1].Location(), "unknown option")
	assert.Equal(t, "bad.md:8", warnings[2].Location(), "missing id")
	assert.Equal(t, "bad.md:11", warnings[3].Location())
	assert.Equal(t, "bad.md:15", warnings[4].Location())
	assert.True(t, errors.Is(warnings[4], errors.ErrInvalidQuery))

	assert.NotNil(t, in.Collection().Item("REQ-2"), "item kept despite unknown option")
	assert.Empty(t, in.Queries()[1:])
}

func TestProcess_LinksAppliedOnFinish(t *testing.T) {
	p, in, rec := newTestProcessor(t)
	p.Process("setup.md", md(requirementsDoc))

	doc := `'''item-link
:source: TST-[2-9]
:targets: REQ-2
:type: validates
'''

'''item TST-2
'''

'''item REQ-2
'''

'''item-relink
:remap: REQ-1
:target: REQ-2
:type: validates
'''

'''attribute-sort
:filter: REQ-.*
:sort: asil
'''
`
	p.Process("links.md", md(doc))
	require.Zero(t, rec.Count(""))

	c := in.Collection()
	assert.Equal(t, []string{"TST-1"}, c.Item("REQ-1").Targets("validated_by"), "nothing moved before Finish")

	in.Finish()
	assert.Empty(t, c.Item("REQ-1").Targets("validated_by"))
	assert.Equal(t, []string{"TST-1", "TST-2"}, c.Item("REQ-2").Targets("validated_by"))
	assert.Equal(t, []string{"asil"}, c.Item("REQ-1").AttributeOrder())
}

func TestProcess_QueryDirectives(t *testing.T) {
	p, in, rec := newTestProcessor(t)
	p.Process("setup.md", md(requirementsDoc))

	doc := `'''item-matrix Coverage
:source: REQ-.*
:target: TST-.* "REV-.*"
:type: validated_by
:source_attributes: asil=B
:onlyuncovered:
'''

'''item-2d-matrix
:source: REQ-.*
:target: TST-.*
:filter_side: target
:type: validated_by
'''

'''item-tree
:top: REQ-.*
:type: validated_by
'''

'''item-piechart Test coverage
:id_set: REQ-.* TST-.*
:label_set: not tested, tested
'''

'''item-attributes-matrix
:filter: REQ-.*
:attributes: asil
:sort: asil
'''
`
	p.Process("report.md", md(doc))
	require.Zero(t, rec.Count(""), "%v", rec.Warnings())

	queries := in.Queries()[1:]
	require.Len(t, queries, 5)

	assert.Equal(t, query.MatrixSpec{
		Source:           "REQ-.*",
		Targets:          []string{"TST-.*", "REV-.*"},
		Relations:        query.RelationSpec{Direct: []string{"validated_by"}},
		SourceAttributes: map[string]string{"asil": "B"},
		OnlyUncovered:    true,
	}, queries[0].Spec)
	assert.Equal(t, "Coverage", queries[0].Title)

	assert.Equal(t, query.Matrix2DSpec{
		Source:     "REQ-.*",
		Target:     "TST-.*",
		FilterSide: query.FilterTarget,
		Relations:  []string{"validated_by"},
	}, queries[1].Spec)

	assert.Equal(t, query.TreeSpec{Top: "REQ-.*", Relations: []string{"validated_by"}}, queries[2].Spec)

	assert.Equal(t, query.PieSpec{
		IDSet:    []string{"REQ-.*", "TST-.*"},
		LabelSet: []string{"not tested", "tested"},
	}, queries[3].Spec)

	assert.Equal(t, query.AttributesMatrixSpec{
		Filter:         "REQ-.*",
		Columns:        []string{"asil"},
		SortAttributes: []string{"asil"},
	}, queries[4].Spec)

	// every queued spec runs against the collection
	engine := query.New(in.Collection(), query.Options{Logger: zap.NewNop().Sugar()})
	for _, q := range in.Queries() {
		_, err := engine.Run(q.Spec)
		assert.NoError(t, err, q.Title)
	}
}

func TestProcessFile(t *testing.T) {
	p, in, _ := newTestProcessor(t)
	path := filepath.Join(t.TempDir(), "req.md")
	require.NoError(t, os.WriteFile(path, md(requirementsDoc), 0644))

	result, err := p.ProcessFile(path, "req.md")
	require.NoError(t, err)
	assert.Equal(t, "req.md", result.Document)
	assert.True(t, in.Collection().HasItem("REQ-1"))

	_, err = p.ProcessFile(filepath.Join(t.TempDir(), "missing.md"), "missing.md")
	assert.True(t, errors.Is(err, errors.ErrMissingDocument))
}

func TestLineIndex(t *testing.T) {
	idx := newLineIndex([]byte("ab\ncd\n\nef"))
	assert.Equal(t, 1, idx.lineOf(0))
	assert.Equal(t, 1, idx.lineOf(2))
	assert.Equal(t, 2, idx.lineOf(3))
	assert.Equal(t, 3, idx.lineOf(6))
	assert.Equal(t, 4, idx.lineOf(8))
}
