package markdown

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/graph"
	"github.com/teranos/tracegraph/ixgest/types"
)

var optionLine = regexp.MustCompile(`^:([A-Za-z0-9_-]+):(?:\s+(.*?))?\s*$`)

// Directive is one fenced block whose info string names a directive
type Directive struct {
	Def     types.DirectiveDef
	Args    []string          // words after the directive name
	Options map[string]string // lowercased option name -> raw value
	Keys    []string          // option names in source order
	Content string
	Line    int // line of the opening fence
}

// parseDirective parses a fenced block. A block whose info string is not a
// known directive returns nil without error.
func parseDirective(info string, body []string, line int) (*Directive, error) {
	words, err := shellquote.Split(info)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrSyntax, "info string %q: %v", info, err)
	}
	if len(words) == 0 {
		return nil, nil
	}
	def, ok := types.Lookup(words[0])
	if !ok {
		return nil, nil
	}

	d := &Directive{Def: def, Args: words[1:], Options: map[string]string{}, Line: line}
	i := 0
	for ; i < len(body); i++ {
		text := strings.TrimRight(body[i], "\r\n")
		if strings.TrimSpace(text) == "" {
			i++
			break
		}
		m := optionLine.FindStringSubmatch(text)
		if m == nil {
			break
		}
		key := strings.ToLower(m[1])
		if _, dup := d.Options[key]; dup {
			return nil, errors.Wrapf(errors.ErrSyntax, "%s: option %s given twice", def.Name, key)
		}
		d.Options[key] = m[2]
		d.Keys = append(d.Keys, key)
	}
	d.Content = strings.TrimRight(strings.Join(body[i:], ""), "\r\n")
	return d, nil
}

// Arg returns the i-th argument or ""
func (d *Directive) Arg(i int) string {
	if i < len(d.Args) {
		return d.Args[i]
	}
	return ""
}

// Option returns the value of key, or fallback when absent or empty
func (d *Directive) Option(key, fallback string) string {
	if v := d.Options[key]; v != "" {
		return v
	}
	return fallback
}

// Has reports whether key was given
func (d *Directive) Has(key string) bool {
	_, ok := d.Options[key]
	return ok
}

// Flag reads a value-less option; "false" and "no" switch it off
func (d *Directive) Flag(key string) bool {
	v, ok := d.Options[key]
	if !ok {
		return false
	}
	switch strings.ToLower(v) {
	case "", "yes", "on":
		return true
	case "no", "off":
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// Words splits the value of key with shell quoting
func (d *Directive) Words(key string) ([]string, error) {
	v := d.Options[key]
	if v == "" {
		return nil, nil
	}
	words, err := shellquote.Split(v)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrSyntax, "%s: option %s: %v", d.Def.Name, key, err)
	}
	return words, nil
}

// Pairs parses "key=value" words of option key into a map
func (d *Directive) Pairs(key string) (map[string]string, error) {
	words, err := d.Words(key)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(words))
	for _, w := range words {
		k, v, ok := strings.Cut(w, "=")
		if !ok || k == "" {
			return nil, errors.Wrapf(errors.ErrSyntax, "%s: option %s: %q is not key=value", d.Def.Name, key, w)
		}
		out[k] = v
	}
	return out, nil
}

// classify splits the options that are neither fixed options nor flags into
// attribute values and relation targets, and reports unknown names
func (d *Directive) classify(c *graph.Collection) (attrs map[string]string, relations map[string][]string, err error) {
	attrs = map[string]string{}
	relations = map[string][]string{}
	var unknown errors.Collector
	for _, key := range d.Keys {
		if d.Def.HasOption(key) {
			continue
		}
		switch {
		case d.Def.AttributeOptions && c.Registry().Exists(key):
			attrs[c.Registry().Canonical(key)] = d.Options[key]
		case d.Def.RelationOptions && c.HasRelation(key):
			targets, werr := d.Words(key)
			if werr != nil {
				unknown.Add(werr)
				continue
			}
			relations[key] = append(relations[key], targets...)
		default:
			unknown.Add(errors.WithHintf(
				errors.Wrapf(errors.ErrSyntax, "%s: unknown option %s", d.Def.Name, key),
				"declare %s as an attribute or relationship first", key))
		}
	}
	return attrs, relations, unknown.Err()
}
