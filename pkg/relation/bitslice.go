package relation

import (
	"github.com/pkg/errors"

	"sigdb/pkg/bits"
	"sigdb/pkg/primitives"
	"sigdb/pkg/storage/page"
)

// initBitSlices writes one all-zero row per page-signature bit position.
// Rows never move afterwards; insertion patches them in place.
func (r *Relation) initBitSlices() error {
	rows := primitives.Count(r.params.PageSig.Bits)
	perPage := r.params.BitSlice.PerPage
	zero := make([]byte, r.params.BitSlice.Bytes)

	for written := primitives.Count(0); written < rows; {
		pid, err := r.bsig.AddPage()
		if err != nil {
			return err
		}
		p := page.NewPage(r.params.BitSlice.Bytes)
		for n := min(perPage, rows-written); n > 0; n-- {
			p.Append(zero)
			written++
		}
		if err := r.bsig.WritePage(pid, p); err != nil {
			return err
		}
		r.counters.BitSlicePages++
	}
	r.counters.BitSlices = rows

	r.log.Debug().
		Uint32("rows", uint32(rows)).
		Uint32("pages", uint32(r.counters.BitSlicePages)).
		Msg("bit-slice rows initialised")
	return nil
}

// BitSliceRow returns bit-slice row i: bit j is set iff data page j's page
// signature has bit i set.
func (r *Relation) BitSliceRow(i uint) (*bits.Bits, error) {
	if i >= r.params.PageSig.Bits {
		return nil, errors.Errorf("bit-slice row %d out of range [0, %d)", i, r.params.PageSig.Bits)
	}
	pid, slot := r.params.BitSlice.Locate(primitives.Count(i))
	p, err := r.bsig.ReadPage(pid)
	if err != nil {
		return nil, err
	}
	return bits.FromBytes(r.params.BitSlice.Bits, p.Item(slot)), nil
}

// updateBitSlices sets bit pid in every row named by a set bit of psig.
// Rows sharing a page are patched together, so each affected page is read
// and written once.
func (r *Relation) updateBitSlices(pid primitives.PageNumber, psig *bits.Bits) error {
	var (
		cur     *page.Page
		curPage = primitives.NoPage
		pages   int
	)

	flush := func() error {
		if cur == nil {
			return nil
		}
		pages++
		return r.bsig.WritePage(curPage, cur)
	}

	for i := uint(0); i < psig.Len(); i++ {
		if !psig.IsSet(i) {
			continue
		}
		rowPage, slot := r.params.BitSlice.Locate(primitives.Count(i))
		if rowPage != curPage {
			if err := flush(); err != nil {
				return err
			}
			p, err := r.bsig.ReadPage(rowPage)
			if err != nil {
				return err
			}
			cur, curPage = p, rowPage
		}
		row := bits.FromBytes(r.params.BitSlice.Bits, cur.Item(slot))
		row.Set(uint(pid))
		cur.PutItem(slot, row.Bytes())
	}
	if err := flush(); err != nil {
		return err
	}

	r.log.Debug().
		Uint32("page", uint32(pid)).
		Uint("rows", psig.Count()).
		Int("row_pages", pages).
		Msg("bit-slices updated")
	return nil
}
