package order

// Category labels a turn with the conversation topic the extractor detected.
// The set is fixed; anything the model emits outside of it collapses to
// CategoryDefault so an unknown label never propagates into stored state.
type Category string

const (
	CategoryProducts     Category = "Products & Sourcing"
	CategoryLogistics    Category = "Logistics & Shipping"
	CategoryPayments     Category = "Payments & Finance"
	CategoryGuarantees   Category = "Guarantees & Quality"
	CategoryRelationship Category = "Relationship & Psychology"

	// CategoryDefault is the conversational fallback. Turns in this category
	// skip field collection entirely.
	CategoryDefault = CategoryRelationship
)

var categories = map[Category]struct{}{
	CategoryProducts:     {},
	CategoryLogistics:    {},
	CategoryPayments:     {},
	CategoryGuarantees:   {},
	CategoryRelationship: {},
}

// ParseCategory normalises the provided label into one of the known
// categories. Unknown values fall back to CategoryDefault.
func ParseCategory(v string) Category {
	if _, ok := categories[Category(v)]; ok {
		return Category(v)
	}
	return CategoryDefault
}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// IsDefault reports whether the category is the conversational fallback.
func (c Category) IsDefault() bool {
	return c == CategoryDefault
}
