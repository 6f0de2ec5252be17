package relation

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigdb/pkg/bits"
	dberror "sigdb/pkg/error"
	"sigdb/pkg/logging"
	"sigdb/pkg/primitives"
	"sigdb/pkg/signature"
	"sigdb/pkg/tuple"
)

func relPath(t *testing.T) primitives.Filepath {
	t.Helper()
	return primitives.Filepath(filepath.Join(t.TempDir(), "rel"))
}

func testOptions() Options {
	return Options{
		Attributes:    2,
		FalsePositive: 0.01,
		Scheme:        signature.Overlapping,
		BitsPerAttr:   4,
		TupleBits:     64,
		PageBits:      256,
		SliceBits:     64,
	}
}

func createOpen(t *testing.T, opts Options) *Relation {
	t.Helper()
	name := relPath(t)
	_, err := Create(name, opts)
	require.NoError(t, err)
	r, err := Open(name)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestCreate_Layout(t *testing.T) {
	name := relPath(t)
	params, err := Create(name, testOptions())
	require.NoError(t, err)

	for _, s := range suffixes {
		assert.True(t, name.WithSuffix(s).Exists(), s)
	}
	assert.True(t, Exists(name))

	assert.Equal(t, 28, params.TupleSize)
	assert.Equal(t, primitives.Count(146), params.TuplesPerPage)
	assert.Equal(t, Tier{Bits: 64, Bytes: 8, PerPage: 511}, params.TupleSig)
	assert.Equal(t, Tier{Bits: 256, Bytes: 32, PerPage: 127}, params.PageSig)
	assert.Equal(t, Tier{Bits: 64, Bytes: 8, PerPage: 511}, params.BitSlice)

	r, err := Open(name)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, params, r.Params())
	assert.Equal(t, Counters{
		Pages:         1,
		TupleSigPages: 1,
		PageSigPages:  1,
		BitSlices:     256,
		BitSlicePages: 1,
	}, r.Counters())

	for i := uint(0); i < 256; i++ {
		row, err := r.BitSliceRow(i)
		require.NoError(t, err)
		assert.Zero(t, row.Count())
	}
	_, err = r.BitSliceRow(256)
	assert.Error(t, err)
}

func TestCreate_BitSlicesSpanPages(t *testing.T) {
	opts := testOptions()
	opts.PageBits = 1200
	opts.SliceBits = 8000 // 1000 bytes, 4 rows per page

	r := createOpen(t, opts)
	assert.Equal(t, primitives.Count(1200), r.Counters().BitSlices)
	assert.Equal(t, primitives.Count(300), r.Counters().BitSlicePages)

	n, err := r.bsig.NumPages()
	require.NoError(t, err)
	assert.Equal(t, primitives.Count(300), n)
}

func TestCreate_RoundsWidths(t *testing.T) {
	opts := testOptions()
	opts.TupleBits = 61
	opts.PageBits = 250
	opts.SliceBits = 57

	r := createOpen(t, opts)
	p := r.Params()
	assert.Equal(t, uint(64), p.TupleSig.Bits)
	assert.Equal(t, uint(256), p.PageSig.Bits)
	assert.Equal(t, uint(64), p.BitSlice.Bits)
}

func TestCreate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		want   error
	}{
		{"page signature fills a page", func(o *Options) { o.PageBits = 4096 * 8 }, dberror.ErrSignatureSizing},
		{"one page signature per page", func(o *Options) { o.PageBits = 2100 * 8 }, dberror.ErrSignatureSizing},
		{"one bit-slice per page", func(o *Options) { o.SliceBits = 2100 * 8 }, dberror.ErrSignatureSizing},
		{"zero bit-slice width", func(o *Options) { o.SliceBits = 0 }, dberror.ErrSignatureSizing},
		{"tuple signature wider than a page", func(o *Options) { o.TupleBits = 4096 * 8 }, dberror.ErrSignatureSizing},
		{"no attributes", func(o *Options) { o.Attributes = 0 }, dberror.ErrInvalidParams},
		{"unknown scheme", func(o *Options) { o.Scheme = 0 }, dberror.ErrInvalidParams},
		{"probability of one", func(o *Options) { o.FalsePositive = 1 }, dberror.ErrInvalidParams},
		{"tuple too large for a page", func(o *Options) { o.Attributes = 600 }, dberror.ErrInvalidParams},
		{"weight exceeds width", func(o *Options) { o.BitsPerAttr = 100 }, dberror.ErrInvalidParams},
		{"segments too narrow", func(o *Options) {
			o.Scheme = signature.DisjointSegment
			o.Attributes = 40
		}, dberror.ErrInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name := relPath(t)
			opts := testOptions()
			tt.mutate(&opts)

			_, err := Create(name, opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			for _, s := range suffixes {
				assert.False(t, name.WithSuffix(s).Exists(), s)
			}
		})
	}
}

func TestCreate_RefusesExisting(t *testing.T) {
	name := relPath(t)
	_, err := Create(name, testOptions())
	require.NoError(t, err)

	_, err = Create(name, testOptions())
	assert.True(t, errors.Is(err, dberror.ErrRelationExists))

	r, err := Open(name)
	require.NoError(t, err, "failed create must not disturb the existing relation")
	require.NoError(t, r.Close())
}

func TestOpen_Failures(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := Open(relPath(t))
		assert.True(t, errors.Is(err, dberror.ErrRelationMissing))
	})

	t.Run("missing data file", func(t *testing.T) {
		name := relPath(t)
		_, err := Create(name, testOptions())
		require.NoError(t, err)
		require.NoError(t, name.WithSuffix(SuffixBsig).Remove())

		_, err = Open(name)
		assert.True(t, errors.Is(err, dberror.ErrRelationMissing))
	})

	t.Run("short metadata", func(t *testing.T) {
		name := relPath(t)
		_, err := Create(name, testOptions())
		require.NoError(t, err)
		require.NoError(t, os.Truncate(name.WithSuffix(SuffixInfo).String(), 100))

		_, err = Open(name)
		assert.True(t, errors.Is(err, dberror.ErrShortIO))
	})

	t.Run("corrupt metadata", func(t *testing.T) {
		name := relPath(t)
		_, err := Create(name, testOptions())
		require.NoError(t, err)

		f, err := os.OpenFile(name.WithSuffix(SuffixInfo).String(), os.O_RDWR, 0)
		require.NoError(t, err)
		_, err = f.WriteAt([]byte{0xff}, 10)
		require.NoError(t, err)
		require.NoError(t, f.Close())

		_, err = Open(name)
		assert.True(t, errors.Is(err, dberror.ErrCorruptMetadata))
	})
}

func TestDecodeMeta_RejectsInconsistentLayout(t *testing.T) {
	valid, err := newParams(testOptions())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero tuple size", func(p *Params) { p.TupleSize = 0 }},
		{"tuples per page", func(p *Params) { p.TuplesPerPage++ }},
		{"zero attributes", func(p *Params) { p.Attributes = 0 }},
		{"zero tuple signature bytes", func(p *Params) { p.TupleSig.Bytes = 0 }},
		{"page signature bytes", func(p *Params) { p.PageSig.Bytes = int(p.PageSig.Bits/8) + 1 }},
		{"unaligned bit-slice width", func(p *Params) { p.BitSlice.Bits-- }},
		{"zero bit-slice width", func(p *Params) { p.BitSlice = Tier{PerPage: 1} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			require.NotPanics(t, func() {
				_, _, err = decodeMeta(encodeMeta(p, Counters{}))
			})
			assert.True(t, errors.Is(err, dberror.ErrCorruptMetadata), "got %v", err)
		})
	}

	got, _, err := decodeMeta(encodeMeta(valid, Counters{}))
	require.NoError(t, err)
	assert.Equal(t, valid, got)
}

func TestClose_Idempotent(t *testing.T) {
	r := createOpen(t, testOptions())
	require.NoError(t, r.Close())
	assert.NoError(t, r.Close())
}

func TestRoundTrip(t *testing.T) {
	name := relPath(t)
	_, err := Create(name, testOptions())
	require.NoError(t, err)

	r, err := Open(name)
	require.NoError(t, err)
	for i := 0; i < 200; i++ {
		_, err := r.Insert(tuple.Tuple{fmt.Sprintf("k%d", i), "x"})
		require.NoError(t, err)
	}
	params, counters := r.Params(), r.Counters()
	require.NoError(t, r.Close())

	r, err = Open(name)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, params, r.Params())
	assert.Equal(t, counters, r.Counters())
}

func TestInsert_Counters(t *testing.T) {
	r := createOpen(t, testOptions())

	for i := 0; i < 300; i++ {
		pid, err := r.Insert(tuple.Tuple{fmt.Sprintf("k%d", i), "v"})
		require.NoError(t, err)
		assert.Equal(t, primitives.PageNumber(i/146), pid)
	}

	assert.Equal(t, Counters{
		Tuples:        300,
		Pages:         3,
		TupleSigs:     300,
		TupleSigPages: 1,
		PageSigs:      3,
		PageSigPages:  1,
		BitSlices:     256,
		BitSlicePages: 1,
	}, r.Counters())

	p, err := r.ReadDataPage(2)
	require.NoError(t, err)
	assert.Equal(t, primitives.Count(8), p.NumItems())
	assert.Equal(t, tuple.Tuple{"k299", "v"}, tuple.Decode(p.Item(7)))

	ts, err := r.ReadTupleSigPage(0)
	require.NoError(t, err)
	assert.Equal(t, primitives.Count(300), ts.NumItems())
	assert.Equal(t, r.MakeTupleSig(tuple.Tuple{"k5", "v"}).Bytes(), ts.Item(5))

	ps, err := r.ReadPageSigPage(0)
	require.NoError(t, err)
	assert.Equal(t, primitives.Count(3), ps.NumItems())
}

func TestInsert_TupleSignaturesRollPages(t *testing.T) {
	opts := testOptions()
	opts.TupleBits = 1024 // 128 bytes, 31 per page
	r := createOpen(t, opts)

	for i := 0; i < 70; i++ {
		_, err := r.Insert(tuple.Tuple{fmt.Sprintf("k%d", i), "v"})
		require.NoError(t, err)
	}
	assert.Equal(t, primitives.Count(70), r.Counters().TupleSigs)
	assert.Equal(t, primitives.Count(3), r.Counters().TupleSigPages)

	last, err := r.ReadTupleSigPage(2)
	require.NoError(t, err)
	assert.Equal(t, primitives.Count(8), last.NumItems())
}

func TestInsert_LogsPageRolls(t *testing.T) {
	defer logging.Close()
	var buf bytes.Buffer
	logging.InitWriter(&buf, logging.LevelDebug)

	opts := testOptions()
	opts.TupleBits = 1024
	r := createOpen(t, opts)
	for i := 0; i < 40; i++ {
		_, err := r.Insert(tuple.Tuple{fmt.Sprintf("k%d", i), "v"})
		require.NoError(t, err)
	}

	out := buf.String()
	assert.Contains(t, out, `"message":"page rolled"`)
	assert.Contains(t, out, `"file":"tsig"`)
	assert.Contains(t, out, `"page_id":1`)
}

func TestInsert_Rejects(t *testing.T) {
	r := createOpen(t, testOptions())

	_, err := r.Insert(tuple.Tuple{"a"})
	assert.True(t, errors.Is(err, dberror.ErrSchemaMismatch))

	pid, err := r.Insert(tuple.Tuple{"a", tuple.Wildcard})
	assert.True(t, errors.Is(err, dberror.ErrInvalidTuple))
	assert.Equal(t, primitives.NoPage, pid)

	_, err = r.Insert(tuple.Tuple{"a,b", "c"})
	assert.True(t, errors.Is(err, dberror.ErrInvalidTuple))

	_, err = r.Insert(tuple.Tuple{"aaaaaaaaaaaaaaaaaaaa", "bbbbbbbbbbbb"})
	assert.True(t, errors.Is(err, dberror.ErrTupleTooLarge))

	assert.Zero(t, r.Counters().Tuples)
	assert.Zero(t, r.Counters().PageSigs)
}

func TestInsert_BitSliceCapacity(t *testing.T) {
	opts := testOptions()
	opts.Attributes = 500 // one tuple per page
	opts.SliceBits = 64
	r := createOpen(t, opts)
	require.Equal(t, primitives.Count(1), r.Params().TuplesPerPage)

	values := func(i int) tuple.Tuple {
		tup := make(tuple.Tuple, 500)
		for j := range tup {
			tup[j] = fmt.Sprintf("%d", (i+j)%7)
		}
		return tup
	}

	for i := 0; i < 64; i++ {
		pid, err := r.Insert(values(i))
		require.NoError(t, err)
		assert.Equal(t, primitives.PageNumber(i), pid)
	}
	before := r.Counters()

	pid, err := r.Insert(values(64))
	assert.True(t, errors.Is(err, dberror.ErrBitSliceCapacity))
	assert.Equal(t, primitives.NoPage, pid)
	assert.Equal(t, before, r.Counters())

	n, err := r.data.NumPages()
	require.NoError(t, err)
	assert.Equal(t, primitives.Count(64), n)
}

// Bit j of row i equals bit i of page j's signature, after every insertion.
func assertTransposed(t *testing.T, r *Relation) {
	t.Helper()
	pages := r.Counters().Pages
	sigs := make([]*bits.Bits, pages)
	for j := range sigs {
		sig, err := r.PageSignature(primitives.PageNumber(j))
		require.NoError(t, err)
		sigs[j] = sig
	}

	for i := uint(0); i < r.Params().PageSig.Bits; i++ {
		row, err := r.BitSliceRow(i)
		require.NoError(t, err)
		for j := uint(0); j < row.Len(); j++ {
			want := j < uint(pages) && sigs[j].IsSet(i)
			require.Equal(t, want, row.IsSet(j), "row %d page %d", i, j)
		}
	}
}

func TestInsert_BitSlicesMatchPageSignatures(t *testing.T) {
	for _, scheme := range []signature.Scheme{signature.Overlapping, signature.DisjointSegment} {
		t.Run(scheme.String(), func(t *testing.T) {
			opts := testOptions()
			opts.Scheme = scheme
			opts.Attributes = 20 // 154-byte tuples, 26 per page
			opts.TupleBits = 160
			opts.PageBits = 1600 // 1600 rows over four bit-slice pages
			r := createOpen(t, opts)
			rng := rand.New(rand.NewPCG(7, 11))

			for i := 0; i < 120; i++ {
				tup := make(tuple.Tuple, 20)
				for j := range tup {
					tup[j] = fmt.Sprintf("%d", rng.IntN(30))
				}
				_, err := r.Insert(tup)
				require.NoError(t, err)
				if i%25 == 0 {
					assertTransposed(t, r)
				}
			}
			assertTransposed(t, r)
			assert.Equal(t, primitives.Count(5), r.Counters().Pages)
		})
	}
}

func TestInsert_PageSignatureCoversEveryTuple(t *testing.T) {
	r := createOpen(t, testOptions())

	var inserted []tuple.Tuple
	for i := 0; i < 400; i++ {
		tup := tuple.Tuple{fmt.Sprintf("a%d", i%17), fmt.Sprintf("b%d", i%5)}
		_, err := r.Insert(tup)
		require.NoError(t, err)
		inserted = append(inserted, tup)
	}

	for i, tup := range inserted {
		pid := primitives.PageNumber(primitives.Count(i) / r.Params().TuplesPerPage)
		sig, err := r.PageSignature(pid)
		require.NoError(t, err)
		assert.True(t, r.MakePageSig(tup).IsSubsetOf(sig), "tuple %d on page %d", i, pid)
	}

	_, err := r.PageSignature(primitives.PageNumber(r.Counters().PageSigs))
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	r := createOpen(t, testOptions())
	for i := 0; i < 73; i++ {
		_, err := r.Insert(tuple.Tuple{"a", fmt.Sprintf("%d", i)})
		require.NoError(t, err)
	}

	s := r.Stats()
	assert.Equal(t, "rel", s.Name)
	assert.Equal(t, primitives.Count(64), s.PageCapacity)
	assert.InDelta(t, 0.5, s.FillFactor, 1e-9)
	assert.Equal(t, r.Counters(), s.Counters)
}
