package signature

import (
	"sigdb/pkg/bits"
	dberror "sigdb/pkg/error"
	"sigdb/pkg/tuple"
)

// Segment is one attribute's bit range under DisjointSegment coding.
type Segment struct {
	Offset uint
	Width  uint
}

// Coder builds signatures for one relation's schema.
type Coder struct {
	Scheme      Scheme
	Attributes  int
	BitsPerAttr uint // codeword weight, Overlapping only
}

// Segments splits width bits into one segment per attribute. The first
// segment absorbs the remainder of an uneven division.
func (c Coder) Segments(width uint) []Segment {
	n := uint(c.Attributes)
	base := width / n
	first := base + width%n

	segs := make([]Segment, n)
	segs[0] = Segment{Offset: 0, Width: first}
	for i := uint(1); i < n; i++ {
		segs[i] = Segment{Offset: first + base*(i-1), Width: base}
	}
	return segs
}

// Validate checks that the coder can produce meaningful signatures of the
// given width.
func (c Coder) Validate(width uint) error {
	if c.Attributes < 1 {
		return dberror.ErrInvalidParams.With("Validate", "signature", "need at least one attribute")
	}
	switch c.Scheme {
	case Overlapping:
		if c.BitsPerAttr < 1 || c.BitsPerAttr > width {
			return dberror.ErrInvalidParams.With("Validate", "signature",
				"%d bits per attribute does not fit %d-bit signatures", c.BitsPerAttr, width)
		}
	case DisjointSegment:
		if width/uint(c.Attributes) < 2 {
			return dberror.ErrInvalidParams.With("Validate", "signature",
				"%d-bit signatures leave segments under 2 bits for %d attributes", width, c.Attributes)
		}
	default:
		return dberror.ErrInvalidParams.With("Validate", "signature", "unknown scheme %d", c.Scheme)
	}
	return nil
}

// Signature superimposes the codewords of every non-wildcard value of t into
// a width-bit signature. t must have c.Attributes values.
func (c Coder) Signature(t tuple.Tuple, width uint) *bits.Bits {
	sig := bits.New(width)

	var segs []Segment
	if c.Scheme == DisjointSegment {
		segs = c.Segments(width)
	}

	for i, v := range t {
		if tuple.IsWildcard(v) {
			continue
		}
		if c.Scheme == DisjointSegment {
			seg := segs[i]
			cw := Codeword(v, width, seg.Width, seg.Width/2)
			cw.ShiftLeft(seg.Offset)
			sig.Or(cw)
		} else {
			sig.Or(Codeword(v, width, width, c.BitsPerAttr))
		}
	}
	return sig
}
