package tuple

import (
	"bytes"
	"strings"

	dberror "sigdb/pkg/error"
)

// Encode serialises t into exactly size bytes: the comma-joined values
// followed by NUL padding.
//
// Parameters:
//   - t: The tuple to encode
//   - size: The relation's fixed tuple size
//
// Returns:
//   - []byte: The fixed-size record
//   - error: ErrInvalidTuple for values holding a separator, a NUL or the
//     wildcard; ErrTupleTooLarge when the joined values exceed size
func Encode(t Tuple, size int) ([]byte, error) {
	for i, v := range t {
		if strings.Contains(v, Separator) || strings.IndexByte(v, 0) >= 0 {
			return nil, dberror.ErrInvalidTuple.With("Encode", "tuple", "attribute %d holds a reserved character", i)
		}
		if IsWildcard(v) {
			return nil, dberror.ErrInvalidTuple.With("Encode", "tuple", "attribute %d is the wildcard", i)
		}
	}

	joined := t.String()
	if len(joined) > size {
		return nil, dberror.ErrTupleTooLarge.With("Encode", "tuple", "%d bytes, limit %d", len(joined), size)
	}

	rec := make([]byte, size)
	copy(rec, joined)
	return rec, nil
}

// Decode reverses Encode, stripping the NUL padding.
func Decode(rec []byte) Tuple {
	if i := bytes.IndexByte(rec, 0); i >= 0 {
		rec = rec[:i]
	}
	return Tuple(strings.Split(string(rec), Separator))
}
