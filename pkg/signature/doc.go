// Package signature derives superimposed-coding signatures from attribute values.
//
// Every non-wildcard attribute value is mapped to a codeword, a bit pattern
// chosen by a pseudo-random generator seeded from a hash of the value itself,
// so the same value always yields the same codeword at a given width. A
// signature is the OR of the codewords of a tuple's attributes.
//
// Two coding schemes are supported:
//
//   - Overlapping ("simc"): every codeword spans the whole signature and sets
//     BitsPerAttr bits.
//   - DisjointSegment ("catc"): the signature is cut into one segment per
//     attribute and each codeword sets half of its own segment's bits.
//
// Because codewords are only ever OR-ed together, a value present in a tuple
// always has its codeword bits inside the tuple's signature, and inside the
// signature of the page holding it. Filtering with a subset test therefore has
// false positives but no false negatives.
package signature
