package yamldoc

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

func newTestProcessor(t *testing.T) (*Processor, *ixgest.Ingestor, *grapherror.Recorder) {
	t.Helper()
	c := graph.NewCollection(graph.NewAttributeRegistry(), graph.WithLogger(zap.NewNop().Sugar()))
	rec := grapherror.NewRecorder(nil)
	in := ixgest.New(c, rec, zap.NewNop().Sugar())
	return NewProcessor(in, zap.NewNop().Sugar()), in, rec
}

const validDoc = `attributes:
  - id: asil
    name: ASIL
    regex: "[ABCD]"
relationships:
  - forward: validates
    reverse: validated_by
  - forward: ext_ticket
items:
  - id: REQ-1
    caption: Brake on obstacle
    content: |
      The vehicle shall brake.
    attributes:
      asil: B
  - id: TST-1
    relations:
      validates: [REQ-1]
      ext_ticket: [BUG-3]
  - id: TST-2
sort_rules:
  - filter: "REQ-.*"
    order: [asil]
links:
  - sources: [TST-2]
    type: validates
    target: "REQ-.*"
`

func TestProcess(t *testing.T) {
	p, in, rec := newTestProcessor(t)

	applied := p.Process("items.yaml", []byte(validDoc))
	assert.Equal(t, 8, applied)
	require.Zero(t, rec.Count(""), "%v", rec.Warnings())

	c := in.Collection()
	assert.True(t, c.IsExternal("ext_ticket"))

	req := c.Item("REQ-1")
	require.NotNil(t, req)
	assert.Equal(t, "Brake on obstacle", req.Caption())
	assert.Equal(t, "The vehicle shall brake.", req.Content())
	assert.Equal(t, "B", req.Attribute("asil"))
	assert.Equal(t, 10, req.Line())
	assert.Equal(t, []string{"asil"}, req.AttributeOrder())

	assert.Equal(t, []string{"TST-1"}, req.Targets("validated_by"))
	assert.Equal(t, []string{"BUG-3"}, c.Item("TST-1").Targets("ext_ticket"))

	in.Finish()
	assert.Equal(t, []string{"TST-1", "TST-2"}, req.Targets("validated_by"))
}

func TestProcess_InvalidEntries(t *testing.T) {
	p, in, rec := newTestProcessor(t)
	p.Process("setup.yaml", []byte(validDoc))
	rec.Reset()

	doc := `attributes:
  - id: level
  - id: bad
    regex: "("
relationships:
  - forward: same
    reverse: same
items:
  - caption: no id
  - id: REQ-9
    attributes:
      asil: ""
relinks:
  - remap: REQ-1
sort_rules:
  - filter: "REQ-.*"
    order: []
`
	applied := p.Process("bad.yaml", []byte(doc))
	assert.Zero(t, applied)

	warnings := rec.Warnings()
	lines := make([]int, 0, len(warnings))
	for _, w := range warnings {
		lines = append(lines, w.Line)
		assert.Equal(t, grapherror.SubcategorySyntax, w.Subcategory, w.Error())
	}
	assert.Equal(t, []int{2, 3, 6, 9, 10, 16, 14}, lines)
	assert.False(t, in.Collection().HasItem("REQ-9"))
}

func TestProcess_NotYAML(t *testing.T) {
	p, _, rec := newTestProcessor(t)

	assert.Zero(t, p.Process("broken.yaml", []byte("items:\n  - id: [\n")))
	require.Equal(t, 1, rec.Count(""))
	assert.True(t, errors.Is(rec.Warnings()[0], errors.ErrSyntax))

	rec.Reset()
	assert.Zero(t, p.Process("unknown.yaml", []byte("widgets:\n  - id: W-1\n")))
	require.Equal(t, 1, rec.Count(""))
	assert.Equal(t, 1, rec.Warnings()[0].Line)

	rec.Reset()
	assert.Zero(t, p.Process("empty.yaml", nil))
	assert.Zero(t, rec.Count(""))
}

func TestProcessFile(t *testing.T) {
	p, in, _ := newTestProcessor(t)
	path := filepath.Join(t.TempDir(), "items.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validDoc), 0644))

	n, err := p.ProcessFile(path, "items.yaml")
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, "items.yaml", in.Collection().Item("REQ-1").Document())

	_, err = p.ProcessFile(filepath.Join(t.TempDir(), "nope.yaml"), "nope.yaml")
	assert.True(t, errors.Is(err, errors.ErrMissingDocument))
}
