package query

import (
	"strings"

	dberror "sigdb/pkg/error"
)

// Tier selects which signature file filters candidate pages.
type Tier int

const (
	// None scans every data page.
	None Tier = iota
	// TupleSigs tests every stored tuple signature.
	TupleSigs
	// PageSigs tests every stored page signature.
	PageSigs
	// BitSlices intersects the bit-slice rows named by the query signature.
	BitSlices
)

var tierNames = map[Tier]string{
	None:      "none",
	TupleSigs: "tsig",
	PageSigs:  "psig",
	BitSlices: "bsig",
}

// ParseTier accepts a single-letter code (x, t, p, b) or a tier name.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x", "none":
		return None, nil
	case "t", "tsig":
		return TupleSigs, nil
	case "p", "psig":
		return PageSigs, nil
	case "b", "bsig":
		return BitSlices, nil
	}
	return None, dberror.ErrInvalidParams.With("ParseTier", "query", "unknown filter tier %q", s)
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	_, ok := tierNames[t]
	return ok
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "unknown"
}
