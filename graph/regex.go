package graph

import (
	"regexp"

	"github.com/teranos/tracegraph/errors"
)

// CompileFull compiles pattern so that it only matches whole strings. An empty
// pattern matches everything.
func CompileFull(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		pattern = ".*"
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid regex %q", pattern)
	}
	return re, nil
}

// compileAttributeFilter compiles a map of attribute id -> value regex.
func compileAttributeFilter(reg *AttributeRegistry, attrs map[string]string) (map[string]*regexp.Regexp, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	compiled := make(map[string]*regexp.Regexp, len(attrs))
	for id, pattern := range attrs {
		re, err := CompileFull(pattern)
		if err != nil {
			return nil, err
		}
		compiled[reg.Canonical(id)] = re
	}
	return compiled, nil
}
