package tuple

import (
	"strings"

	dberror "sigdb/pkg/error"
)

// Parse splits a comma-separated tuple or query string and checks that it has
// exactly nattrs fields. The empty string is rejected outright.
func Parse(s string, nattrs int) (Tuple, error) {
	if s == "" {
		return nil, dberror.ErrEmptyQuery.With("Parse", "tuple", "expected %d fields", nattrs)
	}
	fields := strings.Split(s, Separator)
	if len(fields) != nattrs {
		return nil, dberror.ErrSchemaMismatch.With("Parse", "tuple", "got %d fields, want %d", len(fields), nattrs)
	}
	return Tuple(fields), nil
}
