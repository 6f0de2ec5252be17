// Package query answers partial-match queries against a relation.
//
// A query first narrows the data pages to a candidate set using one of the
// relation's signature files, then scans only those pages and tests each
// tuple literally. Signatures admit false positives but never false
// negatives, so the scan result is exact.
package query

import (
	"github.com/RoaringBitmap/roaring"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"sigdb/pkg/bits"
	dberror "sigdb/pkg/error"
	"sigdb/pkg/logging"
	"sigdb/pkg/primitives"
	"sigdb/pkg/relation"
	"sigdb/pkg/tuple"
)

// Stats counts the work a query did.
type Stats struct {
	SigPages   primitives.Count // signature-file pages read
	Signatures primitives.Count // signatures or bit-slice rows examined
	DataPages  primitives.Count // data pages scanned
	Tuples     primitives.Count // tuples tested
	FalsePages primitives.Count // scanned pages without a single match
	Matches    primitives.Count
	Candidates primitives.Count // pages selected by the filter
}

// Query is a single partial-match query. It is discarded after one Scan.
type Query struct {
	rel     *relation.Relation
	text    string
	values  tuple.Tuple
	tier    Tier
	pages   *roaring.Bitmap
	stats   Stats
	scanned bool
	log     zerolog.Logger
}

// Start validates q against rel's schema and builds the candidate page set
// using tier. Nothing is read before the query string is validated.
//
// Parameters:
//   - rel: An open relation
//   - q: Comma-separated values, one per attribute; "?" matches anything
//   - tier: The filter to apply
//
// Returns:
//   - *Query: A query ready to Scan
//   - error: ErrEmptyQuery, ErrSchemaMismatch, ErrInvalidParams for an
//     unknown tier, or an I/O error while filtering
func Start(rel *relation.Relation, q string, tier Tier) (*Query, error) {
	if !tier.Valid() {
		return nil, dberror.ErrInvalidParams.With("StartQuery", "query", "unknown filter tier %d", tier)
	}
	values, err := tuple.Parse(q, rel.Params().Attributes)
	if err != nil {
		return nil, err
	}

	qr := &Query{
		rel:    rel,
		text:   q,
		values: values,
		tier:   tier,
		pages:  roaring.New(),
		log:    logging.WithComponent("query").With().Str("relation", rel.Name().Base()).Stringer("tier", tier).Logger(),
	}

	switch tier {
	case None:
		qr.pages.AddRange(0, uint64(rel.Counters().Pages))
	case TupleSigs:
		err = qr.filterTupleSigs()
	case PageSigs:
		err = qr.filterPageSigs()
	case BitSlices:
		err = qr.filterBitSlices()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "filtering %q by %s", q, tier)
	}

	qr.stats.Candidates = primitives.Count(qr.pages.GetCardinality())
	qr.log.Debug().
		Str("query", q).
		Int("wildcards", values.Wildcards()).
		Uint32("candidates", uint32(qr.stats.Candidates)).
		Uint32("sig_pages", uint32(qr.stats.SigPages)).
		Msg("candidate pages built")
	return qr, nil
}

// filterTupleSigs marks the data page of every tuple whose signature covers
// the query signature. Tuple signatures are stored in tuple order, so the
// n-th signature belongs to data page n / tuplesPerPage.
func (q *Query) filterTupleSigs() error {
	params, counters := q.rel.Params(), q.rel.Counters()
	qsig := q.rel.MakeTupleSig(q.values)

	for pid := primitives.PageNumber(0); primitives.Count(pid) < counters.TupleSigPages; pid++ {
		p, err := q.rel.ReadTupleSigPage(pid)
		if err != nil {
			return err
		}
		q.stats.SigPages++

		for slot := primitives.SlotID(0); primitives.Count(slot) < p.NumItems(); slot++ {
			q.stats.Signatures++
			if !qsig.IsSubsetOf(bits.FromBytes(params.TupleSig.Bits, p.Item(slot))) {
				continue
			}
			n := primitives.Count(pid)*params.TupleSig.PerPage + primitives.Count(slot)
			q.pages.Add(uint32(n / params.TuplesPerPage))
		}
	}
	return nil
}

// filterPageSigs marks every data page whose signature covers the query's
// page-width signature.
func (q *Query) filterPageSigs() error {
	params, counters := q.rel.Params(), q.rel.Counters()
	qsig := q.rel.MakePageSig(q.values)

	for pid := primitives.PageNumber(0); primitives.Count(pid) < counters.PageSigPages; pid++ {
		p, err := q.rel.ReadPageSigPage(pid)
		if err != nil {
			return err
		}
		q.stats.SigPages++

		for slot := primitives.SlotID(0); primitives.Count(slot) < p.NumItems(); slot++ {
			q.stats.Signatures++
			if qsig.IsSubsetOf(bits.FromBytes(params.PageSig.Bits, p.Item(slot))) {
				q.pages.Add(uint32(primitives.Count(pid)*params.PageSig.PerPage + primitives.Count(slot)))
			}
		}
	}
	return nil
}

// filterBitSlices starts from every data page and intersects the row of each
// bit set in the query's page-width signature. A query of wildcards sets no
// bits and keeps every page.
func (q *Query) filterBitSlices() error {
	params, counters := q.rel.Params(), q.rel.Counters()
	qsig := q.rel.MakePageSig(q.values)
	q.pages.AddRange(0, uint64(counters.Pages))

	var (
		cur     = primitives.NoPage
		rowPage *bitSlicePage
	)
	for i := uint(0); i < qsig.Len() && !q.pages.IsEmpty(); i++ {
		if !qsig.IsSet(i) {
			continue
		}
		pid, slot := params.BitSlice.Locate(primitives.Count(i))
		if pid != cur {
			p, err := q.rel.ReadBitSlicePage(pid)
			if err != nil {
				return err
			}
			q.stats.SigPages++
			cur, rowPage = pid, &bitSlicePage{p: p, width: params.BitSlice.Bits}
		}
		q.stats.Signatures++
		q.pages.And(rowPage.row(slot, counters.Pages))
	}
	return nil
}

// Candidates returns the data pages selected by the filter.
func (q *Query) Candidates() []primitives.PageNumber {
	out := make([]primitives.PageNumber, 0, q.pages.GetCardinality())
	it := q.pages.Iterator()
	for it.HasNext() {
		out = append(out, primitives.PageNumber(it.Next()))
	}
	return out
}

// Scan reads every candidate page and calls visit for each tuple that
// matches the query literally. A page that yields no match is counted as a
// false page. Scan runs once per query; an error from visit stops it.
func (q *Query) Scan(visit func(tuple.Tuple) error) error {
	if q.scanned {
		return errors.New("query already scanned")
	}
	q.scanned = true

	it := q.pages.Iterator()
	for it.HasNext() {
		pid := primitives.PageNumber(it.Next())
		p, err := q.rel.ReadDataPage(pid)
		if err != nil {
			return errors.Wrapf(err, "scanning data page %d", pid)
		}
		q.stats.DataPages++

		matched := false
		for slot := primitives.SlotID(0); primitives.Count(slot) < p.NumItems(); slot++ {
			t := tuple.Decode(p.Item(slot))
			q.stats.Tuples++
			if !tuple.Match(t, q.values) {
				continue
			}
			matched = true
			q.stats.Matches++
			if err := visit(t); err != nil {
				return err
			}
		}
		if !matched {
			q.stats.FalsePages++
		}
	}

	q.log.Debug().
		Str("query", q.text).
		Uint32("matches", uint32(q.stats.Matches)).
		Uint32("false_pages", uint32(q.stats.FalsePages)).
		Msg("query scanned")
	return nil
}

// Collect scans and returns every match.
func (q *Query) Collect() ([]tuple.Tuple, error) {
	var out []tuple.Tuple
	err := q.Scan(func(t tuple.Tuple) error {
		out = append(out, t)
		return nil
	})
	return out, err
}

// Stats returns the work counted so far.
func (q *Query) Stats() Stats {
	return q.stats
}

// Tier returns the filter the query was started with.
func (q *Query) Tier() Tier {
	return q.tier
}

// String returns the query text.
func (q *Query) String() string {
	return q.text
}
