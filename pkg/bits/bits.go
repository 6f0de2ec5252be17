// Package bits is the fixed-length bit vector used for tuple signatures, page
// signatures and bit-slice rows.
//
// A Bits value never grows: every index must lie in [0, Len()). The persisted
// form is Len()/8 bytes with bit i stored in byte i/8 at position i%8.
package bits

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// Bits is a fixed-length bit string.
type Bits struct {
	n   uint
	set *bitset.BitSet
}

// New returns an all-zero bit vector of n bits.
func New(n uint) *Bits {
	return &Bits{n: n, set: bitset.New(n)}
}

// FromBytes decodes the persisted form of an n-bit vector.
// b must hold at least ByteLen(n) bytes.
func FromBytes(n uint, b []byte) *Bits {
	v := New(n)
	for i := uint(0); i < n; i++ {
		if b[i/8]&(1<<(i%8)) != 0 {
			v.set.Set(i)
		}
	}
	return v
}

// ByteLen is the number of bytes needed to persist n bits.
func ByteLen(n uint) int {
	return int((n + 7) / 8)
}

// Bytes encodes the vector in its persisted form.
func (b *Bits) Bytes() []byte {
	out := make([]byte, ByteLen(b.n))
	for i, ok := b.set.NextSet(0); ok && i < b.n; i, ok = b.set.NextSet(i + 1) {
		out[i/8] |= 1 << (i % 8)
	}
	return out
}

// Len returns the number of bits in the vector.
func (b *Bits) Len() uint {
	return b.n
}

func (b *Bits) check(i uint) {
	if i >= b.n {
		panic(fmt.Sprintf("bits: index %d out of range [0, %d)", i, b.n))
	}
}

// Set sets bit i.
func (b *Bits) Set(i uint) {
	b.check(i)
	b.set.Set(i)
}

// Unset clears bit i.
func (b *Bits) Unset(i uint) {
	b.check(i)
	b.set.Clear(i)
}

// IsSet reports whether bit i is set.
func (b *Bits) IsSet(i uint) bool {
	b.check(i)
	return b.set.Test(i)
}

// SetAll sets every bit.
func (b *Bits) SetAll() {
	b.set.ClearAll().FlipRange(0, b.n)
}

// UnsetAll clears every bit.
func (b *Bits) UnsetAll() {
	b.set.ClearAll()
}

// Count returns the number of set bits.
func (b *Bits) Count() uint {
	return b.set.Count()
}

// Or merges other into b. Both vectors must have the same length.
func (b *Bits) Or(other *Bits) {
	b.sameLen(other)
	b.set.InPlaceUnion(other.set)
}

// And intersects b with other. Both vectors must have the same length.
func (b *Bits) And(other *Bits) {
	b.sameLen(other)
	b.set.InPlaceIntersection(other.set)
}

// IsSubsetOf reports whether every bit set in b is also set in other.
func (b *Bits) IsSubsetOf(other *Bits) bool {
	b.sameLen(other)
	return other.set.IsSuperSet(b.set)
}

// ShiftLeft moves every set bit k positions towards the high end.
// Bits shifted past Len() are dropped.
func (b *Bits) ShiftLeft(k uint) {
	if k == 0 {
		return
	}
	shifted := bitset.New(b.n)
	for i, ok := b.set.NextSet(0); ok; i, ok = b.set.NextSet(i + 1) {
		if i+k < b.n {
			shifted.Set(i + k)
		}
	}
	b.set = shifted
}

// SetBits calls fn for every set bit in ascending order.
func (b *Bits) SetBits(fn func(i uint)) {
	for i, ok := b.set.NextSet(0); ok && i < b.n; i, ok = b.set.NextSet(i + 1) {
		fn(i)
	}
}

// Equal reports whether both vectors have the same length and bits.
func (b *Bits) Equal(other *Bits) bool {
	return b.n == other.n && b.set.Equal(other.set)
}

// Clone returns an independent copy.
func (b *Bits) Clone() *Bits {
	return &Bits{n: b.n, set: b.set.Clone()}
}

// String renders the vector most significant bit first, as the CLI dumps do.
func (b *Bits) String() string {
	var sb strings.Builder
	sb.Grow(int(b.n))
	for i := b.n; i > 0; i-- {
		if b.set.Test(i - 1) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func (b *Bits) sameLen(other *Bits) {
	if b.n != other.n {
		panic(fmt.Sprintf("bits: length mismatch %d vs %d", b.n, other.n))
	}
}
