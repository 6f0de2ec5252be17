package signature

import (
	"math/rand/v2"

	"github.com/cespare/xxhash"

	"sigdb/pkg/bits"
)

// pcgStream is the fixed second PCG seed word; the first is the value hash.
const pcgStream = 0x9e3779b97f4a7c15

// Codeword returns a width-bit vector with weight distinct bits set, all
// drawn from [0, domain). The generator is seeded only from value, so the
// result depends on nothing but the arguments.
func Codeword(value string, width, domain, weight uint) *bits.Bits {
	cw := bits.New(width)
	if domain > width {
		domain = width
	}
	if weight > domain {
		weight = domain
	}

	seed := xxhash.Sum64([]byte(value))
	rng := rand.New(rand.NewPCG(seed, seed^pcgStream))
	for nbits := uint(0); nbits < weight; {
		i := uint(rng.IntN(int(domain)))
		if !cw.IsSet(i) {
			cw.Set(i)
			nbits++
		}
	}
	return cw
}
