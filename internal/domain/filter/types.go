// Package filter describes advanced list filters passed as ?filter=<json>.
package filter

// ComparisonType is the comparison applied by one filter item.
type ComparisonType string

const (
	Equal          ComparisonType = "eq"
	NotEqual       ComparisonType = "neq"
	LessOrEqual    ComparisonType = "lte"
	GreaterOrEqual ComparisonType = "gte"
	InList         ComparisonType = "in"
	NotInList      ComparisonType = "nin"
	Contains       ComparisonType = "contains"  // ILIKE %val%
	NotContains    ComparisonType = "ncontains" // NOT ILIKE %val%
	IsNull         ComparisonType = "null"
	IsNotNull      ComparisonType = "not_null"
)

// Item is one filter row.
type Item struct {
	Field    string         `json:"field"`    // column name (snake_case)
	Operator ComparisonType `json:"operator"` // comparison
	Value    any            `json:"value"`    // scalar or array
}
