package signature

import (
	"math"

	"sigdb/pkg/primitives"
	"sigdb/pkg/storage/page"
)

// Widths are the per-tier signature parameters of a relation.
type Widths struct {
	BitsPerAttr uint // tk
	TupleBits   uint // tm
	PageBits    uint // pm
	SliceBits   uint // bm
}

const minSliceBits = 64

// maxTwoPerPage is the widest signature that still fits two per page.
var maxTwoPerPage = uint(page.Available/2) * 8

// Size derives signature widths that target a false-match probability of pF:
//
//	k = ln(1/pF) / ln 2
//	m = n * ln(1/pF) / (ln 2)^2
//
// with n the number of attribute values summarised (one tuple for tuple
// signatures, a full page of tuples for page signatures). The bit-slice width
// is the number of data pages expectedTuples will need. Page and bit-slice
// widths are capped so that two still fit on a page.
func Size(attributes int, pF float64, tuplesPerPage primitives.Count, expectedTuples uint) Widths {
	if pF <= 0 || pF >= 1 {
		pF = 0.01
	}
	ln1pF := math.Log(1 / pF)

	k := uint(math.Ceil(ln1pF / math.Ln2))
	tm := uint(math.Ceil(float64(attributes) * ln1pF / (math.Ln2 * math.Ln2)))
	pm := uint(math.Ceil(float64(attributes) * float64(tuplesPerPage) * ln1pF / (math.Ln2 * math.Ln2)))
	bm := uint(primitives.CeilDiv(primitives.Count(expectedTuples), tuplesPerPage))

	// at least two bits per attribute keeps DisjointSegment coding usable
	floor := max(k, 8, 2*uint(attributes))

	return Widths{
		BitsPerAttr: max(k, 1),
		TupleBits:   max(tm, floor),
		PageBits:    min(max(pm, floor), maxTwoPerPage),
		SliceBits:   min(max(bm, minSliceBits), maxTwoPerPage),
	}
}
