package primitives

import "math"

// FileID is a unique identifier derived from hashing a file path.
// The same path always produces the same ID.
type FileID uint64

// PageNumber represents a zero-based page number within one of a relation's files.
type PageNumber uint32

// SlotID represents an item slot within a page.
type SlotID uint32

// Count is the type of every persisted item and page counter.
type Count uint32

// Sentinel values for invalid/unset identifiers
const (
	// NoPage is returned by insertion when the tuple could not be stored.
	// Page 0 is a valid data page, so the sentinel sits at the top of the range.
	NoPage PageNumber = math.MaxUint32

	// InvalidFileID represents an invalid or unset file ID
	InvalidFileID FileID = 0
)

// IsValid reports whether pid refers to a real page.
func (pid PageNumber) IsValid() bool {
	return pid != NoPage
}

// IsValid checks if the FileID is a valid non-zero identifier.
func (f FileID) IsValid() bool {
	return f != InvalidFileID
}

// CeilDiv returns ceil(a/b) for counters. b must be non-zero.
func CeilDiv(a, b Count) Count {
	return (a + b - 1) / b
}
