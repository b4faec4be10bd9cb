package blob

import (
	"io"
)

// Store is the directory-like interface the metadata layer depends on. Paths
// are slash-separated and relative to the store root; implementations decide
// how they map to actual storage.
type Store interface {
	// Exists reports whether a blob is present at path.
	Exists(path string) bool

	// Write stores the blob read from r at path, creating intermediate
	// directories as needed, and returns the number of bytes written.
	Write(path string, r io.Reader) (int64, error)

	// Open returns a reader over the blob at path.
	Open(path string) (io.ReadCloser, error)

	// Remove deletes the blob at path.
	Remove(path string) error

	// Size returns the byte size of the blob at path.
	Size(path string) (int64, error)
}
