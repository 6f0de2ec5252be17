package relation

import (
	"github.com/google/uuid"

	"sigdb/pkg/bits"
	dberror "sigdb/pkg/error"
	"sigdb/pkg/primitives"
	"sigdb/pkg/signature"
	"sigdb/pkg/storage/page"
	"sigdb/pkg/tuple"
)

// Options are the creation-time choices for a relation. Signature widths are
// in bits and are rounded up to whole bytes.
type Options struct {
	Attributes    int
	FalsePositive float64 // pF, the target false-match probability
	Scheme        signature.Scheme
	BitsPerAttr   uint // tk, codeword weight under Overlapping coding
	TupleBits     uint // tm
	PageBits      uint // pm
	SliceBits     uint // bm, also the number of data pages bit-slices can represent
}

// Tier is the on-disk layout of one signature file.
type Tier struct {
	Bits    uint             // signature width
	Bytes   int              // Bits/8
	PerPage primitives.Count // signatures per page
}

func newTier(width uint) Tier {
	width = roundUp8(width)
	t := Tier{Bits: width, Bytes: bits.ByteLen(width)}
	if t.Bytes > 0 {
		t.PerPage = page.ItemsPerPage(t.Bytes)
	}
	return t
}

// consistent reports whether a decoded tier could have come from newTier.
func (t Tier) consistent() bool {
	return t.Bits > 0 && t.Bits%8 == 0 && t.Bytes == bits.ByteLen(t.Bits) &&
		t.PerPage > 0 && t.PerPage == page.ItemsPerPage(t.Bytes)
}

// Locate maps the n-th signature of the tier to its page and slot.
func (t Tier) Locate(n primitives.Count) (primitives.PageNumber, primitives.SlotID) {
	return primitives.PageNumber(n / t.PerPage), primitives.SlotID(n % t.PerPage)
}

// Params are the immutable schema parameters of a relation.
type Params struct {
	ID            uuid.UUID
	Attributes    int
	FalsePositive float64
	Scheme        signature.Scheme
	BitsPerAttr   uint
	TupleSize     int
	TuplesPerPage primitives.Count
	TupleSig      Tier
	PageSig       Tier
	BitSlice      Tier
}

// Counters are the dynamic item and page counts of a relation's files.
type Counters struct {
	Tuples        primitives.Count
	Pages         primitives.Count // data pages
	TupleSigs     primitives.Count
	TupleSigPages primitives.Count
	PageSigs      primitives.Count
	PageSigPages  primitives.Count
	BitSlices     primitives.Count
	BitSlicePages primitives.Count
}

func roundUp8(n uint) uint {
	if r := n % 8; r > 0 {
		n += 8 - r
	}
	return n
}

// newParams derives and validates the layout for opts. Nothing touches disk.
func newParams(opts Options) (Params, error) {
	const op = "Create"

	if opts.Attributes < 1 {
		return Params{}, dberror.ErrInvalidParams.With(op, "relation", "need at least one attribute, got %d", opts.Attributes)
	}
	if !opts.Scheme.Valid() {
		return Params{}, dberror.ErrInvalidParams.With(op, "relation", "unknown signature scheme %d", opts.Scheme)
	}
	if opts.FalsePositive < 0 || opts.FalsePositive >= 1 {
		return Params{}, dberror.ErrInvalidParams.With(op, "relation", "false-match probability %g outside [0, 1)", opts.FalsePositive)
	}

	p := Params{
		ID:            uuid.New(),
		Attributes:    opts.Attributes,
		FalsePositive: opts.FalsePositive,
		Scheme:        opts.Scheme,
		BitsPerAttr:   opts.BitsPerAttr,
		TupleSize:     tuple.Size(opts.Attributes),
		TupleSig:      newTier(opts.TupleBits),
		PageSig:       newTier(opts.PageBits),
		BitSlice:      newTier(opts.SliceBits),
	}
	if p.Scheme == signature.DisjointSegment {
		p.BitsPerAttr = 0
	}

	if p.TupleSize > page.Available {
		return Params{}, dberror.ErrInvalidParams.With(op, "relation", "%d-byte tuples do not fit a page", p.TupleSize)
	}
	p.TuplesPerPage = page.ItemsPerPage(p.TupleSize)

	coder := p.Coder()
	if err := coder.Validate(p.TupleSig.Bits); err != nil {
		return Params{}, err
	}
	if err := coder.Validate(p.PageSig.Bits); err != nil {
		return Params{}, err
	}

	if p.TupleSig.PerPage < 1 {
		return Params{}, dberror.ErrSignatureSizing.With(op, "relation", "%d-bit tuple signatures do not fit a page", p.TupleSig.Bits)
	}
	if p.PageSig.PerPage < 2 {
		return Params{}, dberror.ErrSignatureSizing.With(op, "relation", "%d-bit page signatures fit %d per page", p.PageSig.Bits, p.PageSig.PerPage)
	}
	if p.BitSlice.Bits == 0 || p.BitSlice.PerPage < 2 {
		return Params{}, dberror.ErrSignatureSizing.With(op, "relation", "%d-bit bit-slices fit %d per page", p.BitSlice.Bits, p.BitSlice.PerPage)
	}
	return p, nil
}

// Coder returns the signature coder for this schema.
func (p Params) Coder() signature.Coder {
	return signature.Coder{
		Scheme:      p.Scheme,
		Attributes:  p.Attributes,
		BitsPerAttr: p.BitsPerAttr,
	}
}
