package relation

import (
	"sigdb/pkg/bits"
	dberror "sigdb/pkg/error"
	"sigdb/pkg/logging"
	"sigdb/pkg/primitives"
	"sigdb/pkg/storage/page"
	"sigdb/pkg/tuple"
)

// appendState records what happened to a file's last page during an append.
type appendState int

const (
	// appendingToExisting: the item went into the page that was already last.
	appendingToExisting appendState = iota
	// rolledToNewPage: the last page was full and a new page was allocated.
	rolledToNewPage
)

func (s appendState) String() string {
	if s == rolledToNewPage {
		return "rolled"
	}
	return "existing"
}

// appendResult locates an appended item.
type appendResult struct {
	Page  primitives.PageNumber
	Slot  primitives.SlotID
	State appendState
}

// appendItem appends item to last, the current last page of f, allocating a
// new page when last is full.
func appendItem(f *page.File, last primitives.PageNumber, item []byte) (appendResult, error) {
	p, err := f.ReadPage(last)
	if err != nil {
		return appendResult{}, err
	}

	res := appendResult{Page: last, State: appendingToExisting}
	if p.IsFull() {
		if res.Page, err = f.AddPage(); err != nil {
			return appendResult{}, err
		}
		p = page.NewPage(f.ItemSize())
		res.State = rolledToNewPage
	}

	slot, ok := p.Append(item)
	if !ok {
		return appendResult{}, dberror.ErrPageFull.With("Insert", "relation", "%s page %d", f.FilePath().Base(), res.Page)
	}
	res.Slot = slot

	if err := f.WritePage(res.Page, p); err != nil {
		return appendResult{}, err
	}
	return res, nil
}

// logRoll records a new page allocated by an append to file.
func (r *Relation) logRoll(file string, res appendResult) {
	if res.State != rolledToNewPage {
		return
	}
	log := logging.WithPage(uint32(res.Page))
	log.Debug().Str("relation", r.name.Base()).Str("file", file).Msg("page rolled")
}

// Insert stores t and updates all three signature files.
//
// The tuple's encoding, its attribute count and the bit-slice capacity are
// checked before anything is written. A failure after the data file has been
// written leaves the signature files behind the data file and is reported as
// ErrInsertIncomplete.
//
// Returns:
//   - primitives.PageNumber: The data page the tuple was stored on
//   - error: primitives.NoPage is returned alongside any error
func (r *Relation) Insert(t tuple.Tuple) (primitives.PageNumber, error) {
	const op = "Insert"

	if len(t) != r.params.Attributes {
		return primitives.NoPage, dberror.ErrSchemaMismatch.With(op, "relation", "got %d values, relation has %d attributes", len(t), r.params.Attributes)
	}
	rec, err := tuple.Encode(t, r.params.TupleSize)
	if err != nil {
		return primitives.NoPage, err
	}

	target := r.counters.Tuples / r.params.TuplesPerPage
	if target >= primitives.Count(r.params.BitSlice.Bits) {
		return primitives.NoPage, dberror.ErrBitSliceCapacity.With(op, "relation", "data page %d, rows hold %d pages", target, r.params.BitSlice.Bits)
	}

	tsig := r.MakeTupleSig(t)
	psig := r.MakePageSig(t)

	data, err := appendItem(r.data, primitives.PageNumber(r.counters.Pages-1), rec)
	if err != nil {
		r.log.Error().Err(err).Str("tuple", t.String()).Msg("insert failed")
		return primitives.NoPage, err
	}
	r.counters.Tuples++
	if data.State == rolledToNewPage {
		r.counters.Pages++
	}
	r.logRoll(SuffixData, data)

	if err := r.indexTuple(data, tsig, psig); err != nil {
		err = dberror.ErrInsertIncomplete.With(op, "relation", "tuple %d on data page %d", r.counters.Tuples-1, data.Page).Because(err)
		r.log.Error().Err(err).Str("tuple", t.String()).Msg("insert failed")
		return primitives.NoPage, err
	}

	r.log.Debug().
		Uint32("page", uint32(data.Page)).
		Uint32("slot", uint32(data.Slot)).
		Stringer("state", data.State).
		Msg("tuple inserted")
	return data.Page, nil
}

// indexTuple brings the three signature files up to date with a tuple just
// written at data.
func (r *Relation) indexTuple(data appendResult, tsig, psig *bits.Bits) error {
	res, err := appendItem(r.tsig, primitives.PageNumber(r.counters.TupleSigPages-1), tsig.Bytes())
	if err != nil {
		return err
	}
	r.counters.TupleSigs++
	if res.State == rolledToNewPage {
		r.counters.TupleSigPages++
	}
	r.logRoll(SuffixTsig, res)

	merged, err := r.mergePageSignature(data, psig)
	if err != nil {
		return err
	}
	return r.updateBitSlices(data.Page, merged)
}

// mergePageSignature folds a tuple's page-width contribution into the page
// signature of its data page and returns the result.
//
// The first tuple on a data page starts that page's signature, so exactly
// data.Page signatures exist beforehand. Any later tuple merges into the
// existing signature, so data.Page+1 exist. The data file's state is
// rolledToNewPage only for a first tuple, but page 0 is allocated at creation
// and its first tuple arrives in appendingToExisting, hence the slot test.
func (r *Relation) mergePageSignature(data appendResult, contribution *bits.Bits) (*bits.Bits, error) {
	first := data.Slot == 0
	if data.State == rolledToNewPage && !first {
		return nil, dberror.ErrCorruptState.With("Insert", "relation", "new data page %d received slot %d", data.Page, data.Slot)
	}

	if first {
		if r.counters.PageSigs != primitives.Count(data.Page) {
			return nil, dberror.ErrCorruptState.With("Insert", "relation", "%d page signatures before data page %d", r.counters.PageSigs, data.Page)
		}
		res, err := appendItem(r.psig, primitives.PageNumber(r.counters.PageSigPages-1), contribution.Bytes())
		if err != nil {
			return nil, err
		}
		r.counters.PageSigs++
		if res.State == rolledToNewPage {
			r.counters.PageSigPages++
		}
		r.logRoll(SuffixPsig, res)
		return contribution, nil
	}

	if r.counters.PageSigs != primitives.Count(data.Page)+1 {
		return nil, dberror.ErrCorruptState.With("Insert", "relation", "%d page signatures for data page %d", r.counters.PageSigs, data.Page)
	}
	ppid, slot := r.params.PageSig.Locate(primitives.Count(data.Page))
	p, err := r.psig.ReadPage(ppid)
	if err != nil {
		return nil, err
	}
	merged := bits.FromBytes(r.params.PageSig.Bits, p.Item(slot))
	merged.Or(contribution)
	p.PutItem(slot, merged.Bytes())
	if err := r.psig.WritePage(ppid, p); err != nil {
		return nil, err
	}
	return merged, nil
}
