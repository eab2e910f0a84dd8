package grapherror

// Category represents the build stage a traceability error was raised in
type Category string

const (
	// CategoryIngest indicates a declaration could not be applied to the collection
	CategoryIngest Category = "ingest"

	// CategoryConfig indicates invalid traceability configuration
	CategoryConfig Category = "config"

	// CategoryResolve indicates an integrity problem found by the self-test
	CategoryResolve Category = "resolve"

	// CategoryQuery indicates a query could not be answered as asked
	CategoryQuery Category = "query"

	// CategoryExport indicates the JSON export failed
	CategoryExport Category = "export"
)

// String returns the string representation of the category
func (c Category) String() string {
	return string(c)
}

// Ingest Subcategories
const (
	// SubcategoryDuplicate indicates an item was declared twice
	SubcategoryDuplicate = "duplicate"

	// SubcategoryCircular indicates an item was related to itself
	SubcategoryCircular = "circular"

	// SubcategoryDuplicateRelation indicates the same explicit edge was added twice
	SubcategoryDuplicateRelation = "duplicate_relation"

	// SubcategoryUnknownRelation indicates a relation missing from the registry
	SubcategoryUnknownRelation = "unknown_relation"

	// SubcategoryInvalidAttribute indicates an unknown attribute, empty value or regex mismatch
	SubcategoryInvalidAttribute = "invalid_attribute"

	// SubcategoryReentrancy indicates the item callback tried to mutate the collection
	SubcategoryReentrancy = "reentrancy"

	// SubcategorySyntax indicates a malformed directive or document
	SubcategorySyntax = "syntax"
)

// Resolve Subcategories
const (
	// SubcategoryMissingDocument indicates an item without source location
	SubcategoryMissingDocument = "missing_document"

	// SubcategoryBrokenEdge indicates a missing edge target or reverse edge
	SubcategoryBrokenEdge = "broken_edge"

	// SubcategoryNoRelations indicates an empty relation registry
	SubcategoryNoRelations = "no_relations"
)

// Query Subcategories
const (
	// SubcategoryBrokenLink indicates a reference to an undefined item
	SubcategoryBrokenLink = "broken_link"

	// SubcategoryInvalidQuery indicates malformed query parameters
	SubcategoryInvalidQuery = "invalid_query"
)
