// Package sym defines the glyphs tracegraph prints for its commands and
// build stages. They are stable across CLI help, tables and warnings.
package sym

// Command glyphs.
const (
	Build      = "⚙" // ingest, check, query and export
	Export     = "⇪" // JSON export
	Items      = "≣" // item lists
	Matrix     = "▦" // linear and 2-D matrices
	Coverage   = "◔" // coverage classification
	Tree       = "⋔" // item trees
	Attributes = "⊞" // attribute tables
	Show       = "◉" // a single item
	Config     = "≡" // configuration and its sources
)

// Build stage glyphs, keyed by warning category in StageGlyph.
const (
	Ingest  = "⨳" // a declaration could not be applied
	Resolve = "⋈" // the self-test found a broken link
	Query   = "?" // a query could not be answered
)

// Category groups glyphs by what they mark.
type Category int

const (
	CategoryCommand Category = iota + 1
	CategoryStage
)

// entry binds a glyph to its command name and description.
type entry struct {
	glyph       string
	command     string
	description string
	category    Category
}

// registry is the canonical list of glyphs. Command entries are in help order.
var registry = []entry{
	{Build, "build", "Ingest sources, run embedded queries and export", CategoryCommand},
	{Export, "export", "Print the JSON export, optionally filtered with jq", CategoryCommand},
	{Items, "items", "List items by id and attributes", CategoryCommand},
	{Matrix, "matrix", "Show a traceability matrix", CategoryCommand},
	{Coverage, "coverage", "Classify items by downstream coverage", CategoryCommand},
	{Tree, "tree", "Show items as a tree", CategoryCommand},
	{Attributes, "attributes", "Show a table of items by attribute values", CategoryCommand},
	{Show, "show", "Show one item with its attributes and relations", CategoryCommand},
	{Config, "config", "Show the effective configuration and where it came from", CategoryCommand},
	{Ingest, "", "Declaration skipped during ingestion", CategoryStage},
	{Resolve, "", "Integrity problem found by the self-test", CategoryStage},
	{Query, "", "Query could not be answered", CategoryStage},
}

// Lookup tables built from the registry at init time.
var (
	// SymbolToCommand maps command glyphs to their command names.
	SymbolToCommand map[string]string
	// CommandToSymbol maps command names to their glyphs.
	CommandToSymbol map[string]string
	// CommandDescriptions holds the one-line help of every command.
	CommandDescriptions map[string]string
)

func init() {
	SymbolToCommand = make(map[string]string)
	CommandToSymbol = make(map[string]string)
	CommandDescriptions = make(map[string]string)
	for _, e := range registry {
		if e.category != CategoryCommand {
			continue
		}
		SymbolToCommand[e.glyph] = e.command
		CommandToSymbol[e.command] = e.glyph
		CommandDescriptions[e.command] = e.description
	}
}

// Short formats the cobra Short text of command: its glyph and description.
func Short(command string) string {
	glyph, ok := CommandToSymbol[command]
	if !ok {
		return ""
	}
	return glyph + " " + CommandDescriptions[command]
}

// StageGlyph returns the glyph for a warning category name, "" if none.
func StageGlyph(category string) string {
	switch category {
	case "ingest":
		return Ingest
	case "resolve":
		return Resolve
	case "query":
		return Query
	case "config":
		return Config
	case "export":
		return Export
	}
	return ""
}

// Glyphs returns every registered glyph of category in registry order.
func Glyphs(category Category) []string {
	var out []string
	for _, e := range registry {
		if e.category == category {
			out = append(out, e.glyph)
		}
	}
	return out
}
