package checklist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/graph"
	grapherror "github.com/teranos/tracegraph/graph/error"
	"github.com/teranos/tracegraph/ixgest"
)

const mergeChecklist = `# Review checklist

- [x] REQ-1 reviewed by safety
- [ ] REQ-2
- plain bullet, not a task
- [X] ` + "`REQ-3`" + ` in code
- [ ] REQ-9 never declared

1. [ ] REQ-2 rechecked
`

var testConfig = Config{AttributeName: "checked", CheckedValue: "yes", UncheckedValue: "no"}

func TestParse(t *testing.T) {
	cl, err := Parse("checklist.md", []byte(mergeChecklist), testConfig)
	require.NoError(t, err)

	assert.Equal(t, []Entry{
		{ID: "REQ-1", Checked: true, Line: 3},
		{ID: "REQ-2", Checked: false, Line: 9},
		{ID: "REQ-3", Checked: true, Line: 6},
		{ID: "REQ-9", Checked: false, Line: 7},
	}, cl.Entries())

	e, ok := cl.Lookup("REQ-3")
	require.True(t, ok)
	assert.Equal(t, "yes", cl.Value(e))

	_, err = Parse("checklist.md", nil, Config{})
	assert.True(t, errors.Is(err, errors.ErrInvalidAttribute))
}

func TestCallback(t *testing.T) {
	cl, err := Parse("checklist.md", []byte(mergeChecklist), testConfig)
	require.NoError(t, err)

	reg := graph.NewAttributeRegistry()
	require.NoError(t, reg.Declare(graph.AttributeDefinition{ID: "checked", ValueRegex: "yes|no"}))
	c := graph.NewCollection(reg, graph.WithLogger(zap.NewNop().Sugar()), graph.WithItemCallback(cl.Callback()))
	rec := grapherror.NewRecorder(nil)
	in := ixgest.New(c, rec, zap.NewNop().Sugar())

	loc := ixgest.Location{Document: "req.md", Line: 1}
	for _, id := range []string{"REQ-1", "REQ-2", "REQ-3", "REQ-4"} {
		require.True(t, in.DeclareItem(loc, ixgest.ItemDecl{ID: id}))
	}

	assert.Equal(t, "yes", c.Item("REQ-1").Attribute("checked"))
	assert.Equal(t, "no", c.Item("REQ-2").Attribute("checked"))
	assert.Equal(t, "yes", c.Item("REQ-3").Attribute("checked"))
	assert.False(t, c.Item("REQ-4").HasAttribute("checked"))
	assert.Zero(t, rec.Count(""))

	assert.Equal(t, 1, cl.ReportUnused(in))
	require.Equal(t, 1, rec.Count(""))
	assert.Equal(t, "checklist.md:7", rec.Warnings()[0].Location())
}

func TestCallback_InvalidValue(t *testing.T) {
	cl, err := Parse("checklist.md", []byte("- [x] REQ-1\n"), Config{AttributeName: "checked", CheckedValue: "maybe"})
	require.NoError(t, err)

	reg := graph.NewAttributeRegistry()
	require.NoError(t, reg.Declare(graph.AttributeDefinition{ID: "checked", ValueRegex: "yes|no"}))
	c := graph.NewCollection(reg, graph.WithLogger(zap.NewNop().Sugar()), graph.WithItemCallback(cl.Callback()))

	err = c.AddItem(graph.NewItem("REQ-1", reg))
	assert.True(t, errors.Is(err, errors.ErrInvalidAttribute))
	assert.True(t, errors.Is(err, errors.ErrItemCallback))
	assert.True(t, c.HasItem("REQ-1"), "item stays declared")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checklist.md")
	require.NoError(t, os.WriteFile(path, []byte("- [x] REQ-1\n"), 0644))

	cl, err := Load(path, "checklist.md", testConfig)
	require.NoError(t, err)
	assert.Len(t, cl.Entries(), 1)
	assert.Equal(t, "checklist.md", cl.Document())

	_, err = Load(filepath.Join(t.TempDir(), "missing.md"), "missing.md", testConfig)
	assert.True(t, errors.Is(err, errors.ErrMissingDocument))
}
