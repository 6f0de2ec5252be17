package signature

import (
	"strings"

	dberror "sigdb/pkg/error"
)

// Scheme selects how attribute codewords are laid out in a signature.
type Scheme uint8

const (
	// Overlapping codewords span the full signature width ("simc").
	Overlapping Scheme = iota + 1
	// DisjointSegment codewords occupy one segment per attribute ("catc").
	DisjointSegment
)

// ParseScheme accepts a single-letter code ("s", "c") or a scheme name.
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "simc", "overlapping":
		return Overlapping, nil
	case "c", "catc", "disjoint", "disjoint-segment":
		return DisjointSegment, nil
	}
	return 0, dberror.ErrInvalidParams.With("ParseScheme", "signature", "unknown scheme %q", s)
}

// Valid reports whether s is one of the defined schemes.
func (s Scheme) Valid() bool {
	return s == Overlapping || s == DisjointSegment
}

func (s Scheme) String() string {
	switch s {
	case Overlapping:
		return "simc"
	case DisjointSegment:
		return "catc"
	default:
		return "unknown"
	}
}
