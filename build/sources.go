package build

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/graph"
)

// Source is one document selected by the source globs
type Source struct {
	Path     string // absolute path
	Document string // slash separated path relative to the project root
}

// ResolveSources expands the source globs relative to root. Every file is
// returned once, in natural document order.
func ResolveSources(root string, patterns []string) ([]Source, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve project root %s", root)
	}

	seen := make(map[string]Source)
	for _, pattern := range patterns {
		absPattern := pattern
		if !filepath.IsAbs(pattern) {
			absPattern = filepath.Join(absRoot, pattern)
		}
		matches, err := doublestar.FilepathGlob(absPattern)
		if err != nil {
			return nil, errors.Wrapf(err, "source pattern %s", pattern)
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}
			doc, err := filepath.Rel(absRoot, match)
			if err != nil || strings.HasPrefix(doc, "..") {
				doc = match
			}
			doc = filepath.ToSlash(doc)
			seen[doc] = Source{Path: match, Document: doc}
		}
	}

	docs := make([]string, 0, len(seen))
	for doc := range seen {
		docs = append(docs, doc)
	}
	graph.SortNatural(docs)
	out := make([]Source, 0, len(docs))
	for _, doc := range docs {
		out = append(out, seen[doc])
	}
	return out, nil
}

// WatchDirs returns the existing directories the source globs start from
func WatchDirs(root string, patterns []string) []string {
	set := make(map[string]struct{})
	for _, pattern := range patterns {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
		dir := filepath.FromSlash(base)
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			set[dir] = struct{}{}
		}
	}
	dirs := make([]string, 0, len(set))
	for d := range set {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

type documentKind int

const (
	kindUnknown documentKind = iota
	kindMarkdown
	kindYAML
)

func kindOf(path string) documentKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return kindMarkdown
	case ".yaml", ".yml":
		return kindYAML
	}
	return kindUnknown
}
