package relation

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/google/uuid"

	dberror "sigdb/pkg/error"
	"sigdb/pkg/primitives"
	"sigdb/pkg/signature"
	"sigdb/pkg/storage/page"
)

const metaVersion = 1

var metaMagic = [4]byte{'S', 'I', 'G', 'R'}

// metaRecord is the fixed binary layout of the .info file. It is written
// little-endian at the start of the file's only page and followed by a
// CRC32 of the record bytes.
type metaRecord struct {
	Magic         [4]byte
	Version       uint16
	Scheme        uint8
	Reserved      uint8
	ID            [16]byte
	Attributes    uint32
	FalsePositive float64
	BitsPerAttr   uint32
	TupleSize     uint32
	TuplesPerPage uint32

	TupleBits        uint32
	TupleBytes       uint32
	TupleSigsPerPage uint32
	PageBits         uint32
	PageBytes        uint32
	PageSigsPerPage  uint32
	SliceBits        uint32
	SliceBytes       uint32
	SlicesPerPage    uint32

	Tuples        uint32
	Pages         uint32
	TupleSigs     uint32
	TupleSigPages uint32
	PageSigs      uint32
	PageSigPages  uint32
	BitSlices     uint32
	BitSlicePages uint32
}

var metaSize = binary.Size(metaRecord{})

func encodeMeta(p Params, c Counters) []byte {
	rec := metaRecord{
		Magic:         metaMagic,
		Version:       metaVersion,
		Scheme:        uint8(p.Scheme),
		ID:            p.ID,
		Attributes:    uint32(p.Attributes),
		FalsePositive: p.FalsePositive,
		BitsPerAttr:   uint32(p.BitsPerAttr),
		TupleSize:     uint32(p.TupleSize),
		TuplesPerPage: uint32(p.TuplesPerPage),

		TupleBits:        uint32(p.TupleSig.Bits),
		TupleBytes:       uint32(p.TupleSig.Bytes),
		TupleSigsPerPage: uint32(p.TupleSig.PerPage),
		PageBits:         uint32(p.PageSig.Bits),
		PageBytes:        uint32(p.PageSig.Bytes),
		PageSigsPerPage:  uint32(p.PageSig.PerPage),
		SliceBits:        uint32(p.BitSlice.Bits),
		SliceBytes:       uint32(p.BitSlice.Bytes),
		SlicesPerPage:    uint32(p.BitSlice.PerPage),

		Tuples:        uint32(c.Tuples),
		Pages:         uint32(c.Pages),
		TupleSigs:     uint32(c.TupleSigs),
		TupleSigPages: uint32(c.TupleSigPages),
		PageSigs:      uint32(c.PageSigs),
		PageSigPages:  uint32(c.PageSigPages),
		BitSlices:     uint32(c.BitSlices),
		BitSlicePages: uint32(c.BitSlicePages),
	}

	var buf bytes.Buffer
	buf.Grow(page.PageSize)
	// writes to a bytes.Buffer cannot fail
	_ = binary.Write(&buf, binary.LittleEndian, &rec)
	_ = binary.Write(&buf, binary.LittleEndian, crc32.ChecksumIEEE(buf.Bytes()))

	out := make([]byte, page.PageSize)
	copy(out, buf.Bytes())
	return out
}

func decodeMeta(data []byte) (Params, Counters, error) {
	const op = "Open"

	if len(data) < metaSize+4 {
		return Params{}, Counters{}, dberror.ErrShortIO.With(op, "relation", "metadata is %d bytes", len(data))
	}

	want := binary.LittleEndian.Uint32(data[metaSize : metaSize+4])
	if got := crc32.ChecksumIEEE(data[:metaSize]); got != want {
		return Params{}, Counters{}, dberror.ErrCorruptMetadata.With(op, "relation", "checksum %08x, stored %08x", got, want)
	}

	var rec metaRecord
	if err := binary.Read(bytes.NewReader(data[:metaSize]), binary.LittleEndian, &rec); err != nil {
		return Params{}, Counters{}, dberror.ErrCorruptMetadata.With(op, "relation", "decoding record").Because(err)
	}
	if rec.Magic != metaMagic {
		return Params{}, Counters{}, dberror.ErrCorruptMetadata.With(op, "relation", "bad magic %q", rec.Magic[:])
	}
	if rec.Version != metaVersion {
		return Params{}, Counters{}, dberror.ErrCorruptMetadata.With(op, "relation", "unsupported version %d", rec.Version)
	}

	p := Params{
		ID:            uuid.UUID(rec.ID),
		Attributes:    int(rec.Attributes),
		FalsePositive: rec.FalsePositive,
		Scheme:        signature.Scheme(rec.Scheme),
		BitsPerAttr:   uint(rec.BitsPerAttr),
		TupleSize:     int(rec.TupleSize),
		TuplesPerPage: primitives.Count(rec.TuplesPerPage),
		TupleSig:      Tier{Bits: uint(rec.TupleBits), Bytes: int(rec.TupleBytes), PerPage: primitives.Count(rec.TupleSigsPerPage)},
		PageSig:       Tier{Bits: uint(rec.PageBits), Bytes: int(rec.PageBytes), PerPage: primitives.Count(rec.PageSigsPerPage)},
		BitSlice:      Tier{Bits: uint(rec.SliceBits), Bytes: int(rec.SliceBytes), PerPage: primitives.Count(rec.SlicesPerPage)},
	}
	if !p.Scheme.Valid() || p.Attributes < 1 || p.TupleSize <= 0 || p.TuplesPerPage == 0 || p.TuplesPerPage != page.ItemsPerPage(p.TupleSize) {
		return Params{}, Counters{}, dberror.ErrCorruptMetadata.With(op, "relation", "layout parameters out of range")
	}
	for _, t := range []Tier{p.TupleSig, p.PageSig, p.BitSlice} {
		if !t.consistent() {
			return Params{}, Counters{}, dberror.ErrCorruptMetadata.With(op, "relation", "%d-bit signature stored as %d bytes, %d per page", t.Bits, t.Bytes, t.PerPage)
		}
	}

	c := Counters{
		Tuples:        primitives.Count(rec.Tuples),
		Pages:         primitives.Count(rec.Pages),
		TupleSigs:     primitives.Count(rec.TupleSigs),
		TupleSigPages: primitives.Count(rec.TupleSigPages),
		PageSigs:      primitives.Count(rec.PageSigs),
		PageSigPages:  primitives.Count(rec.PageSigPages),
		BitSlices:     primitives.Count(rec.BitSlices),
		BitSlicePages: primitives.Count(rec.BitSlicePages),
	}
	return p, c, nil
}
