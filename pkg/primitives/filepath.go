package primitives

import (
	"os"
	"path/filepath"

	"github.com/cespare/xxhash"
)

// Filepath is a type-safe wrapper around file paths used throughout the storage layer.
// It provides convenient methods for path manipulation and file operations while maintaining
// type safety and reducing the need for string conversions.
//
// The Filepath type is used for:
//   - Relation base names (the shared prefix of the five relation files)
//   - The individual metadata, data and signature files
//   - Log file paths
//
// Example usage:
//
//	base := primitives.Filepath("/data/people")
//	data := base.WithSuffix("data") // "/data/people.data"
//	if data.Exists() {
//	    data.Remove()
//	}
type Filepath string

// Hash generates a unique FileID from the file path.
//
// Returns:
//   - FileID: A 64-bit hash value representing this file path
func (f Filepath) Hash() FileID {
	return FileID(xxhash.Sum64([]byte(f)))
}

// WithSuffix appends "." and the suffix to the path.
//
// Parameters:
//   - suffix: The file suffix without the leading dot
//
// Returns:
//   - Filepath: A new Filepath naming the sibling file
//
// Example:
//
//	primitives.Filepath("rel").WithSuffix("tsig") // "rel.tsig"
func (f Filepath) WithSuffix(suffix string) Filepath {
	return Filepath(string(f) + "." + suffix)
}

// Dir returns the directory portion of the file path.
func (f Filepath) Dir() string {
	return filepath.Dir(string(f))
}

// String converts the Filepath to a standard string.
func (f Filepath) String() string {
	return string(f)
}

// Join concatenates path elements to this path and returns a new Filepath.
//
// Parameters:
//   - elem: Variable number of path elements to append
//
// Returns:
//   - Filepath: A new Filepath with the elements joined
func (f Filepath) Join(elem ...string) Filepath {
	parts := append([]string{string(f)}, elem...)
	return Filepath(filepath.Join(parts...))
}

// Base returns the last element of the path (the filename).
func (f Filepath) Base() string {
	return filepath.Base(string(f))
}

// Exists checks whether the file exists on the filesystem.
func (f Filepath) Exists() bool {
	_, err := os.Stat(string(f))
	return err == nil
}

// IsEmpty reports whether the path is the empty string.
func (f Filepath) IsEmpty() bool {
	return f == ""
}

// Remove deletes the file. Removing a file that does not exist is not an error.
func (f Filepath) Remove() error {
	if err := os.Remove(string(f)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MkdirAll creates the parent directories of this path.
//
// Parameters:
//   - perm: Permission bits for any directory created
func (f Filepath) MkdirAll(perm os.FileMode) error {
	return os.MkdirAll(f.Dir(), perm)
}
