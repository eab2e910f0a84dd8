package graph

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportFixture(t *testing.T) *Collection {
	t.Helper()
	c := newTestCollection(t)
	r1 := NewItem("R1", c.Registry())
	r1.SetLocation("req.md", 4)
	r1.SetCaption("Braking <fast>")
	r1.SetContent("hello")
	require.NoError(t, r1.AddAttribute("asil", "A", true))
	require.NoError(t, c.AddItem(r1))
	require.NoError(t, c.AddRelation("R1", "impacts", "D1"))
	return c
}

func TestExport(t *testing.T) {
	c := exportFixture(t)

	var buf bytes.Buffer
	require.NoError(t, c.Export(&buf))

	want := `[
    {},
    {
        "attributes": {
            "asil": "A"
        },
        "caption": "Braking <fast>",
        "content-hash": "5d41402abc4b2a76b9719d911017c592",
        "document": "req.md",
        "id": "R1",
        "line": 4,
        "name": "R1",
        "targets": {
            "impacts": [
                "D1"
            ]
        }
    }
]
`
	assert.Equal(t, want, buf.String())
}

func TestExportIsOrderIndependent(t *testing.T) {
	build := func(ids []string) []byte {
		c := newTestCollection(t)
		for _, id := range ids {
			item := NewItem(id, c.Registry())
			item.SetLocation("doc.md", 1)
			require.NoError(t, c.AddItem(item))
		}
		require.NoError(t, c.AddRelation("R2", "impacts", "R10"))
		require.NoError(t, c.AddRelation("R1", "impacts", "R10"))
		var buf bytes.Buffer
		require.NoError(t, c.Export(&buf))
		return buf.Bytes()
	}

	assert.Equal(t, build([]string{"R1", "R2", "R10"}), build([]string{"R10", "R2", "R1"}))
}

func TestExportFile(t *testing.T) {
	c := exportFixture(t)
	path := filepath.Join(t.TempDir(), "out", "traceability.json")

	require.NoError(t, c.ExportFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, c.Export(&buf))
	assert.Equal(t, buf.Bytes(), data)
}
