package tuple

import (
	"strings"
)

const (
	// Wildcard in a query field matches any attribute value.
	Wildcard = "?"

	// Separator delimits attribute values in tuple and query strings.
	Separator = ","
)

// Tuple is an ordered list of attribute values, one per schema attribute.
// Queries use the same representation, with Wildcard in unconstrained positions.
type Tuple []string

// Size returns the fixed encoded size in bytes of a tuple with nattrs attributes.
func Size(nattrs int) int {
	return 28 + 7*(nattrs-2)
}

// IsWildcard reports whether an attribute value is the wildcard marker.
func IsWildcard(value string) bool {
	return value == Wildcard
}

// Match reports whether t literally matches query q. Wildcards in q match any
// value; every other field must be equal. Tuples of different arity never match.
func Match(t, q Tuple) bool {
	if len(t) != len(q) {
		return false
	}
	for i, want := range q {
		if !IsWildcard(want) && t[i] != want {
			return false
		}
	}
	return true
}

// String renders the tuple in its comma-separated form.
func (t Tuple) String() string {
	return strings.Join(t, Separator)
}

// Wildcards returns the number of wildcard fields.
func (t Tuple) Wildcards() int {
	n := 0
	for _, v := range t {
		if IsWildcard(v) {
			n++
		}
	}
	return n
}
