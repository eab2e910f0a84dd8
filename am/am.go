package am

// Config represents the tracegraph configuration
type Config struct {
	Traceability TraceabilityConfig `mapstructure:"traceability" toml:"traceability"`
	Log          LogConfig          `mapstructure:"log" toml:"log"`
}

// LogConfig configures build output logging
type LogConfig struct {
	JSON      bool `mapstructure:"json" toml:"json"`           // JSON log lines instead of console output
	Verbosity int  `mapstructure:"verbosity" toml:"verbosity"` // 0 = warnings, 1 = info, 2+ = debug
}

// TraceabilityConfig configures what is ingested and how it is related and rendered.
// Map keys are lowercased by viper; relation and attribute names are expected lowercase.
type TraceabilityConfig struct {
	Sources        []string `mapstructure:"sources" toml:"sources"`                 // doublestar globs, relative to the config file
	Export         string   `mapstructure:"export" toml:"export"`                   // JSON export path, empty = no export
	MinimumVersion string   `mapstructure:"minimum_version" toml:"minimum_version"` // semver constraint on tracegraph itself

	RenderAttributesPerItem   bool `mapstructure:"render_attributes_per_item" toml:"render_attributes_per_item"`
	RenderRelationshipPerItem bool `mapstructure:"render_relationship_per_item" toml:"render_relationship_per_item"`
	CollapseLinks             bool `mapstructure:"collapse_links" toml:"collapse_links"`

	Relationships             map[string]string `mapstructure:"relationships" toml:"relationships"` // forward -> reverse, "" = external
	RelationshipToString      map[string]string `mapstructure:"relationship_to_string" toml:"relationship_to_string"`
	ExternalRelationshipToURL map[string]string `mapstructure:"external_relationship_to_url" toml:"external_relationship_to_url"` // field<n> placeholders
	Attributes                map[string]string `mapstructure:"attributes" toml:"attributes"` // attribute id -> value regex
	AttributesToString        map[string]string `mapstructure:"attributes_to_string" toml:"attributes_to_string"`

	Checklist       ChecklistConfig  `mapstructure:"checklist" toml:"checklist"`
	HyperlinkColors []HyperlinkColor `mapstructure:"hyperlink_colors" toml:"hyperlink_colors"` // first match wins
	ClassNames      []ClassName      `mapstructure:"class_names" toml:"class_names"`
	SortRules       []SortRule       `mapstructure:"sort_rules" toml:"sort_rules"` // first match wins
}

// ChecklistConfig maps GFM task list entries onto an item attribute
type ChecklistConfig struct {
	AttributeName  string `mapstructure:"attribute_name" toml:"attribute_name"`
	CheckedValue   string `mapstructure:"checked_value" toml:"checked_value"`
	UncheckedValue string `mapstructure:"unchecked_value" toml:"unchecked_value"`
	Source         string `mapstructure:"source" toml:"source"` // markdown file holding the task list
}

// Configured reports whether checklist processing is enabled
func (c ChecklistConfig) Configured() bool {
	return c.AttributeName != "" && c.Source != ""
}

// HyperlinkColor colors links to items whose id matches Regex.
// Colors holds up to three values: default, hover and active.
type HyperlinkColor struct {
	Regex  string   `mapstructure:"regex" toml:"regex"`
	Colors []string `mapstructure:"colors" toml:"colors"`
}

// ClassName names the CSS class for a color tuple
type ClassName struct {
	Colors []string `mapstructure:"colors" toml:"colors"`
	Class  string   `mapstructure:"class" toml:"class"`
}

// SortRule fixes the attribute order of items whose id matches Regex
type SortRule struct {
	Regex string   `mapstructure:"regex" toml:"regex"`
	Order []string `mapstructure:"order" toml:"order"`
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)

// ProjectConfigName is the file searched upward from the working directory
const ProjectConfigName = "tracegraph.toml"
