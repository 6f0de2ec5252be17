package query

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dberror "sigdb/pkg/error"
	"sigdb/pkg/logging"
	"sigdb/pkg/primitives"
	"sigdb/pkg/relation"
	"sigdb/pkg/signature"
	"sigdb/pkg/tuple"
)

var allTiers = []Tier{None, TupleSigs, PageSigs, BitSlices}

func newRelation(t *testing.T, opts relation.Options) *relation.Relation {
	t.Helper()
	name := primitives.Filepath(filepath.Join(t.TempDir(), "rel"))
	_, err := relation.Create(name, opts)
	require.NoError(t, err)
	r, err := relation.Open(name)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func smallOptions(scheme signature.Scheme) relation.Options {
	return relation.Options{
		Attributes:    2,
		FalsePositive: 0.01,
		Scheme:        scheme,
		BitsPerAttr:   4,
		TupleBits:     64,
		PageBits:      256,
		SliceBits:     64,
	}
}

func TestStart_LogsCandidates(t *testing.T) {
	defer logging.Close()
	var buf bytes.Buffer
	logging.InitWriter(&buf, logging.LevelDebug)

	r := newRelation(t, smallOptions(signature.DisjointSegment))
	_, err := r.Insert(tuple.Tuple{"a", "b"})
	require.NoError(t, err)

	q, err := Start(r, "a,?", PageSigs)
	require.NoError(t, err)
	assert.Equal(t, PageSigs, q.Tier())
	assert.Contains(t, buf.String(), `"wildcards":1`)
	assert.Contains(t, buf.String(), `"tier":"psig"`)
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		in   string
		want Tier
	}{
		{"x", None},
		{"none", None},
		{"t", TupleSigs},
		{"TSIG", TupleSigs},
		{"p", PageSigs},
		{"psig", PageSigs},
		{"b", BitSlices},
		{" bsig ", BitSlices},
	}
	for _, tt := range tests {
		got, err := ParseTier(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseTier("q")
	assert.True(t, errors.Is(err, dberror.ErrInvalidParams))
	assert.Equal(t, "bsig", BitSlices.String())
	assert.Equal(t, "unknown", Tier(9).String())
}

func TestStart_Validation(t *testing.T) {
	r := newRelation(t, smallOptions(signature.Overlapping))

	_, err := Start(r, "", None)
	assert.True(t, errors.Is(err, dberror.ErrEmptyQuery))

	_, err = Start(r, "a,b,c", PageSigs)
	assert.True(t, errors.Is(err, dberror.ErrSchemaMismatch))

	_, err = Start(r, "a,b", Tier(7))
	assert.True(t, errors.Is(err, dberror.ErrInvalidParams))
}

func TestQuery_EndToEnd(t *testing.T) {
	for _, scheme := range []signature.Scheme{signature.Overlapping, signature.DisjointSegment} {
		r := newRelation(t, smallOptions(scheme))
		for _, tup := range []tuple.Tuple{{"a", "1"}, {"b", "2"}, {"a", "3"}} {
			pid, err := r.Insert(tup)
			require.NoError(t, err)
			require.Equal(t, primitives.PageNumber(0), pid)
		}

		for _, tier := range allTiers {
			t.Run(fmt.Sprintf("%s/%s", scheme, tier), func(t *testing.T) {
				q, err := Start(r, "a,?", tier)
				require.NoError(t, err)
				assert.Equal(t, []primitives.PageNumber{0}, q.Candidates())

				got, err := q.Collect()
				require.NoError(t, err)
				assert.Equal(t, []tuple.Tuple{{"a", "1"}, {"a", "3"}}, got)

				s := q.Stats()
				assert.Equal(t, primitives.Count(2), s.Matches)
				assert.Equal(t, primitives.Count(1), s.DataPages)
				assert.Equal(t, primitives.Count(3), s.Tuples)
				assert.Zero(t, s.FalsePages)
				assert.Equal(t, primitives.Count(1), s.Candidates)
			})
		}
	}
}

func TestQuery_Stats(t *testing.T) {
	r := newRelation(t, smallOptions(signature.Overlapping))
	for i := 0; i < 300; i++ {
		_, err := r.Insert(tuple.Tuple{fmt.Sprintf("k%d", i), "v"})
		require.NoError(t, err)
	}

	t.Run("no filter reads every page", func(t *testing.T) {
		q, err := Start(r, "k5,?", None)
		require.NoError(t, err)
		require.NoError(t, q.Scan(func(tuple.Tuple) error { return nil }))

		s := q.Stats()
		assert.Zero(t, s.SigPages)
		assert.Zero(t, s.Signatures)
		assert.Equal(t, primitives.Count(3), s.DataPages)
		assert.Equal(t, primitives.Count(300), s.Tuples)
		assert.Equal(t, primitives.Count(2), s.FalsePages)
		assert.Equal(t, primitives.Count(1), s.Matches)
	})

	t.Run("tuple signatures", func(t *testing.T) {
		q, err := Start(r, "k5,?", TupleSigs)
		require.NoError(t, err)
		s := q.Stats()
		assert.Equal(t, primitives.Count(1), s.SigPages)
		assert.Equal(t, primitives.Count(300), s.Signatures)
		assert.Contains(t, q.Candidates(), primitives.PageNumber(0))
	})

	t.Run("page signatures", func(t *testing.T) {
		q, err := Start(r, "?,v", PageSigs)
		require.NoError(t, err)
		s := q.Stats()
		assert.Equal(t, primitives.Count(1), s.SigPages)
		assert.Equal(t, primitives.Count(3), s.Signatures)
		assert.Len(t, q.Candidates(), 3)
	})

	t.Run("bit-slices read one row per query bit", func(t *testing.T) {
		q, err := Start(r, "?,v", BitSlices)
		require.NoError(t, err)
		s := q.Stats()
		assert.Equal(t, primitives.Count(1), s.SigPages)
		assert.Equal(t, primitives.Count(r.MakePageSig(tuple.Tuple{"?", "v"}).Count()), s.Signatures)
		assert.Len(t, q.Candidates(), 3)
	})

	t.Run("all wildcards keep every page", func(t *testing.T) {
		for _, tier := range allTiers {
			q, err := Start(r, "?,?", tier)
			require.NoError(t, err)
			assert.Len(t, q.Candidates(), 3, tier.String())
			got, err := q.Collect()
			require.NoError(t, err)
			assert.Len(t, got, 300, tier.String())
		}
	})

	t.Run("scan once", func(t *testing.T) {
		q, err := Start(r, "k1,v", PageSigs)
		require.NoError(t, err)
		_, err = q.Collect()
		require.NoError(t, err)
		_, err = q.Collect()
		assert.Error(t, err)
	})

	t.Run("visit error stops the scan", func(t *testing.T) {
		q, err := Start(r, "?,v", None)
		require.NoError(t, err)
		stop := errors.New("stop")
		calls := 0
		err = q.Scan(func(tuple.Tuple) error {
			calls++
			return stop
		})
		assert.ErrorIs(t, err, stop)
		assert.Equal(t, 1, calls)
	})
}

func TestQuery_EmptyRelation(t *testing.T) {
	r := newRelation(t, smallOptions(signature.Overlapping))
	for _, tier := range allTiers {
		q, err := Start(r, "a,?", tier)
		require.NoError(t, err)
		got, err := q.Collect()
		require.NoError(t, err)
		assert.Empty(t, got, tier.String())
	}
}

// Every stored tuple that matches a query literally must survive every
// filter, so all four tiers return exactly the same tuples.
func TestQuery_NoFalseNegatives(t *testing.T) {
	for _, scheme := range []signature.Scheme{signature.Overlapping, signature.DisjointSegment} {
		t.Run(scheme.String(), func(t *testing.T) {
			opts := relation.Options{
				Attributes:    3,
				FalsePositive: 0.05,
				Scheme:        scheme,
				BitsPerAttr:   3,
				TupleBits:     48,
				PageBits:      480,
				SliceBits:     64,
			}
			r := newRelation(t, opts)
			rng := rand.New(rand.NewPCG(42, uint64(scheme)))

			var stored []tuple.Tuple
			for i := 0; i < 600; i++ {
				tup := tuple.Tuple{
					fmt.Sprintf("a%d", rng.IntN(20)),
					fmt.Sprintf("b%d", rng.IntN(8)),
					fmt.Sprintf("c%d", rng.IntN(50)),
				}
				_, err := r.Insert(tup)
				require.NoError(t, err)
				stored = append(stored, tup)
			}

			for iter := 0; iter < 40; iter++ {
				src := stored[rng.IntN(len(stored))]
				q := make(tuple.Tuple, len(src))
				for j := range q {
					if rng.IntN(2) == 0 {
						q[j] = tuple.Wildcard
					} else {
						q[j] = src[j]
					}
				}

				var want []tuple.Tuple
				for _, tup := range stored {
					if tuple.Match(tup, q) {
						want = append(want, tup)
					}
				}

				for _, tier := range allTiers {
					qr, err := Start(r, q.String(), tier)
					require.NoError(t, err)
					got, err := qr.Collect()
					require.NoError(t, err)
					require.Equal(t, want, got, "query %s tier %s", q, tier)
				}
			}
		})
	}
}
