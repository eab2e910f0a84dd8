package build

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/tracegraph/am"
	"github.com/teranos/tracegraph/graph"
	grapherror "github.com/teranos/tracegraph/graph/error"
	"github.com/teranos/tracegraph/graph/query"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

const requirementsDoc = `# Requirements

'''item REQ-1 Brake on obstacle
:asil: B

The vehicle shall brake when an obstacle is detected.
'''

'''item REQ-2 Warn the driver
:asil: QM
'''

'''item-list Safety requirements
:filter: REQ-.*
'''
`

const testsDoc = `items:
  - id: TST-1
    caption: Emergency brake test
    attributes:
      result: pass
    relations:
      validates: [REQ-1]
  - id: TST-2
    relations:
      validates: [REQ-7]
`

const checklistDoc = `# Review

- [x] REQ-1 reviewed
- [ ] REQ-5 unknown
`

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(strings.ReplaceAll(content, "'''", "```")), 0644))
}

func testProject(t *testing.T) (string, *am.Config) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "docs/requirements.md", requirementsDoc)
	writeFile(t, root, "docs/tests/tests.yaml", testsDoc)
	writeFile(t, root, "checklist.md", checklistDoc)

	cfg := am.DefaultConfig()
	cfg.Traceability.Attributes["reviewed"] = "yes|no"
	cfg.Traceability.Checklist.AttributeName = "reviewed"
	cfg.Traceability.Checklist.Source = "checklist.md"
	return root, cfg
}

func TestRun(t *testing.T) {
	root, cfg := testProject(t)
	var out bytes.Buffer

	b, err := Run(context.Background(), cfg, Options{Root: root, ConfigFile: "tracegraph.toml", Out: &out})
	require.NoError(t, err)

	s := b.Summary
	assert.NotEmpty(t, s.BuildID)
	assert.Equal(t, []string{"docs/requirements.md", "docs/tests/tests.yaml"}, s.Documents)
	assert.Equal(t, 4, s.Stats.Items)

	c := b.Collection
	assert.Equal(t, "B", c.Item("REQ-1").Attribute("asil"))
	assert.Equal(t, "yes", c.Item("REQ-1").Attribute("reviewed"))
	assert.Equal(t, []string{"TST-1"}, c.Item("REQ-1").IterTargets("validated_by", true, true, true))
	assert.True(t, c.Item("REQ-7").IsPlaceholder())

	require.Len(t, s.Queries, 1)
	assert.Equal(t, "Safety requirements", s.Queries[0].Title)
	require.NotNil(t, s.Queries[0].Result)
	assert.Equal(t, query.KindList, s.Queries[0].Result.Kind)
	assert.Equal(t, []string{"REQ-1", "REQ-2"}, s.Queries[0].Result.Items)
	assert.Contains(t, out.String(), "Safety requirements")

	// REQ-5 is only in the checklist, REQ-7 only exists as a link target
	var unused, broken int
	for _, w := range s.Warnings {
		switch {
		case w.Document == "checklist.md":
			unused++
		case w.Category == grapherror.CategoryResolve:
			broken++
		}
	}
	assert.Equal(t, 1, unused)
	assert.Positive(t, broken)

	data, err := os.ReadFile(filepath.Join(root, "build", "traceability.json"))
	require.NoError(t, err)
	var exported []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &exported))
	require.Len(t, exported, 5)
	var exportedIDs []interface{}
	for _, item := range exported {
		exportedIDs = append(exportedIDs, item["id"])
	}
	assert.Equal(t, []interface{}{"REQ-1", "REQ-2", nil, "TST-1", "TST-2"}, exportedIDs,
		"natural id order, REQ-7 is a placeholder")
	assert.Empty(t, exported[2], "placeholders export as {}")
	assert.Equal(t, "B", exported[0]["attributes"].(map[string]interface{})["asil"])
	assert.Equal(t, filepath.Join(root, "build", "traceability.json"), s.ExportPath)
}

func TestRunNoExport(t *testing.T) {
	root, cfg := testProject(t)

	b, err := Run(context.Background(), cfg, Options{Root: root, NoExport: true})
	require.NoError(t, err)
	assert.Empty(t, b.Summary.ExportPath)
	assert.NoFileExists(t, filepath.Join(root, "build", "traceability.json"))
}

func TestRunClearsSharedRegistry(t *testing.T) {
	root, cfg := testProject(t)
	reg := graph.NewAttributeRegistry()
	require.NoError(t, reg.Declare(graph.AttributeDefinition{ID: "stale", ValueRegex: ".*"}))

	b, err := Run(context.Background(), cfg, Options{Root: root, NoExport: true, Registry: reg})
	require.NoError(t, err)
	assert.False(t, reg.Exists("stale"), "declarations of an earlier build are dropped")
	assert.True(t, reg.Exists("reviewed"))
	assert.Same(t, reg, b.Collection.Registry())
}

func TestRunInvalidConfig(t *testing.T) {
	root, cfg := testProject(t)
	cfg.Traceability.Relationships["validates"] = "depends_on"

	_, err := Run(context.Background(), cfg, Options{Root: root, ConfigFile: "tracegraph.toml"})
	require.Error(t, err)
	var ge *grapherror.GraphError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, grapherror.CategoryConfig, ge.Category)
	assert.Equal(t, "tracegraph.toml", ge.Document)
}

func TestRunMinimumVersion(t *testing.T) {
	root, cfg := testProject(t)
	cfg.Traceability.MinimumVersion = "not a constraint"

	_, err := Run(context.Background(), cfg, Options{Root: root})
	require.Error(t, err)
}

func TestRunUnsupportedDocument(t *testing.T) {
	root, cfg := testProject(t)
	writeFile(t, root, "docs/notes.txt", "REQ-1\n")
	cfg.Traceability.Sources = append(cfg.Traceability.Sources, "docs/*.txt")

	b, err := Run(context.Background(), cfg, Options{Root: root, NoExport: true})
	require.NoError(t, err)
	assert.NotContains(t, b.Summary.Documents, "docs/notes.txt")
	// the unsupported document and the undeclared checklist entry
	assert.Equal(t, 2, b.Summary.Stats.Skipped)
}

func TestRunCancelled(t *testing.T) {
	root, cfg := testProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, cfg, Options{Root: root})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatchRebuildsOnChange(t *testing.T) {
	root, cfg := testProject(t)
	configPath := filepath.Join(root, am.ProjectConfigName)
	require.NoError(t, am.Save(cfg, configPath))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	builds := make(chan *Build, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, cfg, WatchOptions{
			Options:  Options{Root: root, ConfigFile: configPath, NoExport: true},
			Debounce: 20 * time.Millisecond,
			OnBuild: func(b *Build, err error) {
				if err == nil {
					builds <- b
				}
			},
		})
	}()

	first := <-builds
	assert.True(t, first.Collection.HasItem("REQ-1"))
	assert.False(t, first.Collection.HasItem("REQ-3"))

	// give the watcher time to register before touching sources
	time.Sleep(100 * time.Millisecond)
	writeFile(t, root, "docs/more.md", "'''item REQ-3\n'''\n")

	select {
	case b := <-builds:
		assert.True(t, b.Collection.HasItem("REQ-3"))
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild after source change")
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestExportFilter(t *testing.T) {
	ignore := exportFilter("/project", "build/traceability.json")
	assert.True(t, ignore("/project/build/traceability.json"))
	assert.False(t, ignore("/project/docs/req.md"))
	assert.False(t, exportFilter("/project", "")("/project/build/traceability.json"))
}
