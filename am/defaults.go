package am

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("traceability.sources", []string{"docs/**/*.md", "docs/**/*.yaml"})
	v.SetDefault("traceability.export", "")
	v.SetDefault("traceability.minimum_version", "")

	v.SetDefault("traceability.render_attributes_per_item", true)
	v.SetDefault("traceability.render_relationship_per_item", true)
	v.SetDefault("traceability.collapse_links", false)

	v.SetDefault("traceability.checklist.checked_value", "yes")
	v.SetDefault("traceability.checklist.unchecked_value", "no")

	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)
}

// DefaultConfig returns the configuration written by `tracegraph init`: the
// defaults plus a small set of common relationships and attributes.
func DefaultConfig() *Config {
	return &Config{
		Traceability: TraceabilityConfig{
			Sources:                   []string{"docs/**/*.md", "docs/**/*.yaml"},
			Export:                    "build/traceability.json",
			RenderAttributesPerItem:   true,
			RenderRelationshipPerItem: true,
			Relationships: map[string]string{
				"depends_on": "impacts_on",
				"fulfills":   "fulfilled_by",
				"validates":  "validated_by",
				"ext_issue":  "",
			},
			RelationshipToString: map[string]string{
				"depends_on":   "Depends on",
				"impacts_on":   "Impacts on",
				"fulfills":     "Fulfills",
				"fulfilled_by": "Fulfilled by",
				"validates":    "Validates",
				"validated_by": "Validated by",
				"ext_issue":    "Issue",
			},
			ExternalRelationshipToURL: map[string]string{
				"ext_issue": "https://issues.example.com/browse/field1",
			},
			Attributes: map[string]string{
				"status": "^.*$",
				"asil":   "^(QM|[ABCD])$",
				"result": "(?i)^(pass|fail|error)$",
			},
			AttributesToString: map[string]string{
				"status": "Status",
				"asil":   "ASIL",
				"result": "Result",
			},
			Checklist: ChecklistConfig{
				CheckedValue:   "yes",
				UncheckedValue: "no",
			},
		},
	}
}
