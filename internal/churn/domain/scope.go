package domain

// Scope says whether a churn record covers the whole client or a single
// contracted product.
type Scope string

const (
	ScopeClient  Scope = "client"
	ScopeProduct Scope = "product"
)

// ValidScope reports whether s is a known scope value.
func ValidScope(s Scope) bool {
	return s == ScopeClient || s == ScopeProduct
}
