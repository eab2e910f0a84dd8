package am

import (
	"regexp"
	"sort"
	"strings"

	"github.com/teranos/tracegraph/errors"
	"github.com/teranos/tracegraph/version"
)

// externalPrefix mirrors graph.ExternalPrefix; am must not import graph.
const externalPrefix = "ext_"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Log.Verbosity < 0 {
		return errors.Newf("log.verbosity must be >= 0, got %d", c.Log.Verbosity)
	}
	return c.Traceability.Validate()
}

// IsExternal reports whether relation is external under this configuration
func (t *TraceabilityConfig) IsExternal(relation string) bool {
	if strings.HasPrefix(relation, externalPrefix) {
		return true
	}
	reverse, ok := t.Relationships[relation]
	return ok && reverse == ""
}

// Validate checks the traceability section
func (t *TraceabilityConfig) Validate() error {
	if err := version.Check(t.MinimumVersion); err != nil {
		return errors.Wrap(err, "traceability.minimum_version")
	}

	for _, pattern := range t.Sources {
		if strings.TrimSpace(pattern) == "" {
			return errors.New("traceability.sources must not contain empty patterns")
		}
	}

	if err := t.validateRelationships(); err != nil {
		return err
	}

	for relation := range t.ExternalRelationshipToURL {
		if !t.IsExternal(relation) {
			return errors.WithHintf(
				errors.Newf("traceability.external_relationship_to_url: %s is not an external relationship", relation),
				"declare %s with an empty reverse or use the %s prefix", relation, externalPrefix)
		}
	}

	for _, id := range sortedKeys(t.Attributes) {
		if t.Attributes[id] == "" {
			return errors.Newf("traceability.attributes.%s: value regex must not be empty", id)
		}
		if _, err := regexp.Compile(t.Attributes[id]); err != nil {
			return errors.Wrapf(err, "traceability.attributes.%s", id)
		}
	}

	if err := t.validateChecklist(); err != nil {
		return err
	}

	for i, hc := range t.HyperlinkColors {
		if _, err := regexp.Compile(hc.Regex); err != nil {
			return errors.Wrapf(err, "traceability.hyperlink_colors[%d].regex", i)
		}
		if len(hc.Colors) == 0 || len(hc.Colors) > 3 {
			return errors.Newf("traceability.hyperlink_colors[%d]: want 1 to 3 colors, got %d", i, len(hc.Colors))
		}
	}
	for i, cn := range t.ClassNames {
		if cn.Class == "" {
			return errors.Newf("traceability.class_names[%d]: class must not be empty", i)
		}
	}

	for i, rule := range t.SortRules {
		if _, err := regexp.Compile(rule.Regex); err != nil {
			return errors.Wrapf(err, "traceability.sort_rules[%d].regex", i)
		}
		if len(rule.Order) == 0 {
			return errors.Newf("traceability.sort_rules[%d]: order must not be empty", i)
		}
	}

	return nil
}

func (t *TraceabilityConfig) validateRelationships() error {
	for _, forward := range sortedKeys(t.Relationships) {
		reverse := t.Relationships[forward]
		if forward == "" {
			return errors.New("traceability.relationships: relationship name must not be empty")
		}
		if strings.HasPrefix(forward, externalPrefix) && reverse != "" {
			return errors.Newf("traceability.relationships.%s: external relationship cannot have reverse %s", forward, reverse)
		}
		if reverse == "" {
			continue
		}
		if back, ok := t.Relationships[reverse]; ok && back != forward {
			return errors.Newf("traceability.relationships: %s is the reverse of %s but declared with reverse %q", reverse, forward, back)
		}
	}
	return nil
}

func (t *TraceabilityConfig) validateChecklist() error {
	cl := t.Checklist
	if cl.AttributeName == "" {
		return nil
	}
	pattern, ok := t.Attributes[cl.AttributeName]
	if !ok {
		return errors.Newf("traceability.checklist.attribute_name: attribute %s is not declared", cl.AttributeName)
	}
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return errors.Wrapf(err, "traceability.attributes.%s", cl.AttributeName)
	}
	for _, value := range []string{cl.CheckedValue, cl.UncheckedValue} {
		if !re.MatchString(value) {
			return errors.Newf("traceability.checklist: value %q does not match attribute %s regex %s", value, cl.AttributeName, pattern)
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
