// Package markdown ingests traceability directives from markdown documents.
// Directives are fenced code blocks whose info string starts with a directive
// name:
//
//	```item REQ-001 Brake on obstacle
//	:asil: B
//	:validated_by: TST-001
//
//	The vehicle shall brake when an obstacle is detected.
//	```
//
// Option lines (":key: value") come first; the content follows a blank line.
package markdown

import (
	"os"
	"sort"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"

	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/ixgest"
	"github.com/teranos/tracegraph/logger"
)

var (
	parserInstance goldmark.Markdown
	parserOnce     sync.Once
)

func getParser() goldmark.Markdown {
	parserOnce.Do(func() {
		parserInstance = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return parserInstance
}

// Processor applies the directives of markdown documents to an Ingestor
type Processor struct {
	ingestor *ixgest.Ingestor
	logger   *zap.SugaredLogger
}

// ProcessingResult summarises one document
type ProcessingResult struct {
	Document   string        `json:"document"`
	Directives int           `json:"directives"`
	Queries    int           `json:"queries"`
	Stats      ixgest.Stats  `json:"stats"`
	Success    bool          `json:"success"`
	Message    string        `json:"message,omitempty"`
	StartTime  time.Time     `json:"start_time"`
	Duration   time.Duration `json:"duration"`
}

// NewProcessor creates a Processor feeding in
func NewProcessor(in *ixgest.Ingestor, l *zap.SugaredLogger) *Processor {
	if l == nil {
		l = logger.Logger.Named("ixgest.markdown")
	}
	return &Processor{ingestor: in, logger: l}
}

// ProcessFile reads path and processes it under the name document
func (p *Processor) ProcessFile(path, document string) (*ProcessingResult, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return &ProcessingResult{Document: document, Message: err.Error()},
			errors.Wrapf(errors.ErrMissingDocument, "read %s: %v", path, err)
	}
	return p.Process(document, source), nil
}

// Process applies every directive found in source. Malformed directives are
// reported as warnings and skipped.
func (p *Processor) Process(document string, source []byte) *ProcessingResult {
	result := &ProcessingResult{Document: document, StartTime: time.Now()}
	before := p.ingestor.Stats()

	lines := newLineIndex(source)
	doc := getParser().Parser().Parse(text.NewReader(source))

	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if block.Info == nil {
			return ast.WalkSkipChildren, nil
		}

		info := string(block.Info.Segment.Value(source))
		line := lines.lineOf(block.Info.Segment.Start)
		body := make([]string, 0, block.Lines().Len())
		for i := 0; i < block.Lines().Len(); i++ {
			segment := block.Lines().At(i)
			body = append(body, string(segment.Value(source)))
		}

		loc := ixgest.Location{Document: document, Line: line}
		d, err := parseDirective(info, body, line)
		if err != nil {
			p.ingestor.Warn(loc, err)
			return ast.WalkSkipChildren, nil
		}
		if d == nil {
			return ast.WalkSkipChildren, nil
		}
		result.Directives++
		if d.Def.Query {
			result.Queries++
		}
		p.apply(loc, d)
		return ast.WalkSkipChildren, nil
	})

	result.Stats = diffStats(before, p.ingestor.Stats())
	result.Success = result.Stats.Skipped == 0
	result.Duration = time.Since(result.StartTime)
	p.logger.Debugw("Processed document",
		logger.FieldDocument, document,
		logger.FieldCount, result.Directives,
		logger.FieldDurationMS, result.Duration.Milliseconds())
	return result
}

func diffStats(before, after ixgest.Stats) ixgest.Stats {
	return ixgest.Stats{
		Attributes: after.Attributes - before.Attributes,
		Relations:  after.Relations - before.Relations,
		Items:      after.Items - before.Items,
		Edges:      after.Edges - before.Edges,
		SortRules:  after.SortRules - before.SortRules,
		Queries:    after.Queries - before.Queries,
		Skipped:    after.Skipped - before.Skipped,
	}
}

// lineIndex maps byte offsets to 1-based line numbers
type lineIndex []int

func newLineIndex(source []byte) lineIndex {
	idx := lineIndex{0}
	for i, b := range source {
		if b == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

func (idx lineIndex) lineOf(offset int) int {
	return sort.Search(len(idx), func(i int) bool { return idx[i] > offset })
}
