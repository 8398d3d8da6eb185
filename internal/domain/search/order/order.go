package order

import "strings"

// Order is the sort direction of a sorted search.
type Order string

// Sort order constants.
const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Parse accepts "asc"/"desc" in any case; empty means Asc.
func Parse(s string) (Order, bool) {
	if s == "" {
		return Asc, true
	}
	o := Order(strings.ToLower(s))
	return o, o.IsValid()
}

// IsValid checks if the order is one of the supported values.
func (o Order) IsValid() bool {
	return o == Asc || o == Desc
}

// Descending reports whether o sorts high to low.
func (o Order) Descending() bool { return o == Desc }
