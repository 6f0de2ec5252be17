package query

import (
	"github.com/RoaringBitmap/roaring"

	"sigdb/pkg/bits"
	"sigdb/pkg/primitives"
	"sigdb/pkg/storage/page"
)

// bitSlicePage is one page of bit-slice rows, read once and decoded per row.
type bitSlicePage struct {
	p     *page.Page
	width uint
}

// row returns the data pages below npages whose bit is set in the row at slot.
func (b *bitSlicePage) row(slot primitives.SlotID, npages primitives.Count) *roaring.Bitmap {
	v := bits.FromBytes(b.width, b.p.Item(slot))
	out := roaring.New()
	for j := uint(0); j < v.Len() && j < uint(npages); j++ {
		if v.IsSet(j) {
			out.Add(uint32(j))
		}
	}
	return out
}
