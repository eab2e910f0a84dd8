package display

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/teranos/tracegraph/am"
	"github.com/teranos/tracegraph/errors"
)

// ExternalURL fills a URL template with the colon separated fields of an
// external target: "PRJ:42" sets field1 to PRJ and field2 to 42. Higher
// indexes are replaced first so field1 never eats into field10.
func ExternalURL(template, target string) string {
	fields := strings.Split(target, ":")
	url := template
	for i := len(fields); i >= 1; i-- {
		url = strings.ReplaceAll(url, "field"+strconv.Itoa(i), fields[i-1])
	}
	return url
}

type colorRule struct {
	re     *regexp.Regexp
	colors []string
	class  string
}

// Linker resolves external target URLs and hyperlink classes
type Linker struct {
	urls  map[string]string
	rules []colorRule
}

// NewLinker compiles the link related settings of cfg
func NewLinker(cfg am.TraceabilityConfig) (*Linker, error) {
	l := &Linker{urls: cfg.ExternalRelationshipToURL}
	for i, hc := range cfg.HyperlinkColors {
		re, err := regexp.Compile(hc.Regex)
		if err != nil {
			return nil, errors.Wrapf(err, "hyperlink_colors[%d]", i)
		}
		l.rules = append(l.rules, colorRule{re: re, colors: hc.Colors, class: classFor(cfg.ClassNames, hc.Colors, i)})
	}
	return l, nil
}

// classFor returns the configured class for colors, or a generated one
func classFor(names []am.ClassName, colors []string, index int) string {
	for _, cn := range names {
		if equalColors(cn.Colors, colors) {
			return cn.Class
		}
	}
	return "tracegraph-color-" + strconv.Itoa(index)
}

func equalColors(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

// URL returns the URL of an external target, or "" without a template
func (l *Linker) URL(relation, target string) string {
	template, ok := l.urls[relation]
	if !ok {
		return ""
	}
	return ExternalURL(template, target)
}

// Class returns the hyperlink class of the first color rule matching id
func (l *Linker) Class(id string) string {
	for _, r := range l.rules {
		if r.re.MatchString(id) {
			return r.class
		}
	}
	return ""
}

// Colors returns the default, hover and active colors of the first rule
// matching id; missing entries are empty
func (l *Linker) Colors(id string) (def, hover, active string) {
	for _, r := range l.rules {
		if !r.re.MatchString(id) {
			continue
		}
		out := make([]string, 3)
		copy(out, r.colors)
		return out[0], out[1], out[2]
	}
	return "", "", ""
}
