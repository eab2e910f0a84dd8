// Package build runs one traceability build: configuration, ingestion of the
// source documents, self-test, queries, rendering and export.
package build

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/teranos/tracegraph/am"
	"github.com/teranos/tracegraph/display"
	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/graph"
	grapherror "github.com/teranos/tracegraph/graph/error"
	"github.com/teranos/tracegraph/graph/query"
	"github.com/teranos/tracegraph/ixgest"
	"github.com/teranos/tracegraph/ixgest/checklist"
	"github.com/teranos/tracegraph/ixgest/markdown"
	"github.com/teranos/tracegraph/ixgest/yamldoc"
	"github.com/teranos/tracegraph/logger"
	"github.com/teranos/tracegraph/version"
)

// Options controls a build
type Options struct {
	Root       string    // project root; source globs and the export path resolve against it
	ConfigFile string    // reported as the location of configuration warnings
	Out        io.Writer // query output; nil skips rendering
	NoExport   bool
	// Registry is cleared and reused when set; a build that outlives the
	// next Run on the same registry sees its declarations replaced
	Registry *graph.AttributeRegistry
}

// QueryResult is the answer to one query directive
type QueryResult struct {
	Location ixgest.Location `json:"location"`
	Title    string          `json:"title,omitempty"`
	Result   *query.Result   `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Summary describes a finished build
type Summary struct {
	BuildID    string                   `json:"build_id"`
	Documents  []string                 `json:"documents"`
	Stats      ixgest.Stats             `json:"stats"`
	Items      int                      `json:"items"`
	Queries    []QueryResult            `json:"queries,omitempty"`
	Warnings   []*grapherror.GraphError `json:"warnings,omitempty"`
	ExportPath string                   `json:"export_path,omitempty"`
	Duration   time.Duration            `json:"duration"`
}

// Build is the outcome of Run: the finished collection and its summary
type Build struct {
	Collection *graph.Collection
	Engine     *query.Engine
	Summary    *Summary
	Recorder   *grapherror.Recorder
}

// Run executes a build of cfg. Declaration problems become warnings in the
// summary; only invalid configuration, unreadable sources, cancellation and
// a failed export abort the build.
func Run(ctx context.Context, cfg *am.Config, opts Options) (*Build, error) {
	start := time.Now()
	buildID := uuid.NewString()
	ctx = logger.WithComponent(logger.WithBuildID(ctx, buildID), "build")
	log := logger.LoggerFromContext(ctx)

	if err := cfg.Validate(); err != nil {
		return nil, grapherror.New(grapherror.CategoryConfig, err, "").At(opts.ConfigFile, 0)
	}
	if err := version.Check(cfg.Traceability.MinimumVersion); err != nil {
		return nil, grapherror.New(grapherror.CategoryConfig, err, "").At(opts.ConfigFile, 0)
	}
	tc := cfg.Traceability
	root := opts.Root
	if root == "" {
		root = "."
	}

	rec := grapherror.NewRecorder(log)
	reg := opts.Registry
	if reg == nil {
		reg = graph.NewAttributeRegistry()
	}
	reg.Clear()

	collectionOpts := []graph.Option{graph.WithLogger(log.Named("graph"))}
	var cl *checklist.Checklist
	if tc.Checklist.Configured() {
		var err error
		cl, err = checklist.Load(filepath.Join(root, tc.Checklist.Source), filepath.ToSlash(tc.Checklist.Source), checklist.Config{
			AttributeName:  tc.Checklist.AttributeName,
			CheckedValue:   tc.Checklist.CheckedValue,
			UncheckedValue: tc.Checklist.UncheckedValue,
		})
		if err != nil {
			rec.Warn(grapherror.New(grapherror.CategoryConfig, err, "").At(opts.ConfigFile, 0))
		} else {
			collectionOpts = append(collectionOpts, graph.WithItemCallback(cl.Callback()))
		}
	}

	c := graph.NewCollection(reg, collectionOpts...)
	in := ixgest.New(c, rec, log.Named("ixgest"))
	applyConfig(in, tc, ixgest.Location{Document: opts.ConfigFile})

	sources, err := ResolveSources(root, tc.Sources)
	if err != nil {
		return nil, err
	}
	summary := &Summary{BuildID: buildID}
	mdProc := markdown.NewProcessor(in, log.Named("markdown"))
	yamlProc := yamldoc.NewProcessor(in, log.Named("yaml"))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "build cancelled")
		}
		switch kindOf(src.Path) {
		case kindMarkdown:
			if _, err := mdProc.ProcessFile(src.Path, src.Document); err != nil {
				return nil, err
			}
		case kindYAML:
			if _, err := yamlProc.ProcessFile(src.Path, src.Document); err != nil {
				return nil, err
			}
		default:
			in.Warn(ixgest.Location{Document: src.Document},
				errors.Wrapf(errors.ErrSyntax, "unsupported document type %s", filepath.Ext(src.Path)))
			continue
		}
		summary.Documents = append(summary.Documents, src.Document)
	}
	in.Finish()
	if cl != nil {
		cl.ReportUnused(in)
	}

	selfTest(c, rec, summary.Documents)

	engine := query.New(c, query.Options{Logger: log.Named("query"), Warnings: rec})
	var renderer *display.Renderer
	if opts.Out != nil {
		if renderer, err = display.NewRenderer(opts.Out, engine, tc); err != nil {
			return nil, err
		}
	}
	for _, q := range in.Queries() {
		summary.Queries = append(summary.Queries, runQuery(engine, renderer, rec, q))
	}

	if tc.Export != "" && !opts.NoExport {
		path := tc.Export
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		if err := c.ExportFile(path); err != nil {
			return nil, grapherror.New(grapherror.CategoryExport, err, "")
		}
		summary.ExportPath = path
	}

	summary.Stats = in.Stats()
	summary.Items = c.Len()
	summary.Warnings = rec.Warnings()
	summary.Duration = time.Since(start)
	log.Infow("Build finished",
		logger.FieldCount, len(summary.Documents),
		logger.FieldTotalCount, summary.Items,
		"warnings", len(summary.Warnings),
		logger.FieldDurationMS, summary.Duration.Milliseconds())

	return &Build{Collection: c, Engine: engine, Summary: summary, Recorder: rec}, nil
}

// applyConfig declares the configured attributes, relationships and sort rules
func applyConfig(in *ixgest.Ingestor, tc am.TraceabilityConfig, loc ixgest.Location) {
	for _, id := range sortedKeys(tc.Attributes) {
		in.DeclareAttribute(loc, graph.AttributeDefinition{
			ID:         id,
			Name:       tc.AttributesToString[id],
			ValueRegex: tc.Attributes[id],
		})
	}
	declared := make(map[string]bool)
	for _, forward := range sortedKeys(tc.Relationships) {
		if declared[forward] {
			continue
		}
		reverse := tc.Relationships[forward]
		in.DeclareRelationPair(loc, forward, reverse)
		declared[forward] = true
		if reverse != "" {
			declared[reverse] = true
		}
	}
	for _, rule := range tc.SortRules {
		in.AddAttributeSortRule(loc, rule.Regex, rule.Order)
	}
}

// selfTest reports integrity violations per document, then for placeholders
func selfTest(c *graph.Collection, rec grapherror.Sink, documents []string) {
	if len(c.Relations()) == 0 {
		rec.Warn(grapherror.New(grapherror.CategoryResolve, c.SelfTest(""), ""))
		return
	}
	for _, doc := range documents {
		for _, w := range grapherror.Split(grapherror.CategoryResolve, c.SelfTest(doc)) {
			rec.Warn(w.At(doc, 0))
		}
	}
	for _, id := range c.ItemIDs() {
		item := c.Item(id)
		if !item.IsPlaceholder() {
			continue
		}
		if err := item.SelfTest(); err != nil {
			rec.Warn(grapherror.New(grapherror.CategoryResolve, err, "").WithContext(logger.FieldItem, id))
		}
	}
}

func runQuery(engine *query.Engine, renderer *display.Renderer, rec grapherror.Sink, q ixgest.Query) QueryResult {
	out := QueryResult{Location: q.Location, Title: q.Title}
	var (
		res *query.Result
		err error
	)
	if renderer != nil {
		res, err = renderer.Render(q.Title, q.Spec)
	} else {
		res, err = engine.Run(q.Spec)
	}
	if err != nil {
		rec.Warn(grapherror.New(grapherror.CategoryQuery, err, "").
			At(q.Location.Document, q.Location.Line).
			WithContext(logger.FieldQuery, string(q.Spec.Kind())))
		out.Error = err.Error()
		return out
	}
	out.Result = res
	return out
}
