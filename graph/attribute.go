package graph

import (
	"regexp"
	"strings"

	"github.com/teranos/tracegraph/errors"
)

// AttributeDefinition declares an attribute and the grammar of its values.
type AttributeDefinition struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	ValueRegex string `json:"value_regex"`
	Caption    string `json:"caption,omitempty"`
	Document   string `json:"document,omitempty"`
	Line       int    `json:"line,omitempty"`
}

type attributeEntry struct {
	def   AttributeDefinition
	regex *regexp.Regexp
}

// AttributeRegistry holds the attribute declarations of one build. Call Clear
// at build start; it is shared by every item of a Collection.
type AttributeRegistry struct {
	entries map[string]*attributeEntry
}

// NewAttributeRegistry returns an empty registry.
func NewAttributeRegistry() *AttributeRegistry {
	return &AttributeRegistry{entries: make(map[string]*attributeEntry)}
}

// Canonical case-folds an attribute identifier.
func (r *AttributeRegistry) Canonical(id string) string {
	return strings.ToLower(id)
}

// Declare registers an attribute. Re-declaring merges: non-empty fields of def
// overwrite the stored ones.
func (r *AttributeRegistry) Declare(def AttributeDefinition) error {
	def.ID = r.Canonical(def.ID)
	if def.ID == "" {
		return errors.Wrap(errors.ErrInvalidAttribute, "attribute id must not be empty")
	}

	existing, ok := r.entries[def.ID]
	if !ok {
		if def.ValueRegex == "" {
			return errors.Wrapf(errors.ErrInvalidAttribute, "attribute %s declared without value regex", def.ID)
		}
		re, err := CompileFull(def.ValueRegex)
		if err != nil {
			return errors.Wrapf(errors.ErrInvalidAttribute, "attribute %s: %v", def.ID, err)
		}
		if def.Name == "" {
			def.Name = def.ID
		}
		r.entries[def.ID] = &attributeEntry{def: def, regex: re}
		return nil
	}

	merged := existing.def
	if def.ValueRegex != "" && def.ValueRegex != merged.ValueRegex {
		re, err := CompileFull(def.ValueRegex)
		if err != nil {
			return errors.Wrapf(errors.ErrInvalidAttribute, "attribute %s: %v", def.ID, err)
		}
		merged.ValueRegex = def.ValueRegex
		existing.regex = re
	}
	if def.Name != "" {
		merged.Name = def.Name
	}
	if def.Caption != "" {
		merged.Caption = def.Caption
	}
	if def.Document != "" {
		merged.Document = def.Document
		merged.Line = def.Line
	}
	existing.def = merged
	return nil
}

// Exists reports whether id (in any case) was declared.
func (r *AttributeRegistry) Exists(id string) bool {
	_, ok := r.entries[r.Canonical(id)]
	return ok
}

// Require returns ErrUnknownAttribute when id was never declared.
func (r *AttributeRegistry) Require(id string) error {
	if !r.Exists(id) {
		return errors.Wrapf(errors.ErrUnknownAttribute, "attribute %s", r.Canonical(id))
	}
	return nil
}

// Accepts reports whether value fully matches the regex of attribute id.
// Unknown attributes accept nothing.
func (r *AttributeRegistry) Accepts(id, value string) bool {
	entry, ok := r.entries[r.Canonical(id)]
	if !ok {
		return false
	}
	return entry.regex.MatchString(value)
}

// Get returns the declaration of id.
func (r *AttributeRegistry) Get(id string) (AttributeDefinition, bool) {
	entry, ok := r.entries[r.Canonical(id)]
	if !ok {
		return AttributeDefinition{}, false
	}
	return entry.def, true
}

// IDs returns every declared attribute id in natural order.
func (r *AttributeRegistry) IDs() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	SortNatural(ids)
	return ids
}

// Clear forgets every declaration.
func (r *AttributeRegistry) Clear() {
	r.entries = make(map[string]*attributeEntry)
}
