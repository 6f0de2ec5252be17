package page

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	dberror "sigdb/pkg/error"
	"sigdb/pkg/primitives"
)

// BaseFile provides page-granular I/O over a single OS file.
// It handles file I/O, page counting, and thread-safety concerns.
//
// Key responsibilities:
//   - Managing the underlying OS file handle
//   - Reading and writing whole pages at offset pageNo * PageSize
//   - Calculating page counts and allocating new zeroed pages
//
// Thread-safety: All public methods use read/write locks. Relations are still
// single-writer; the lock only keeps a stray concurrent reader from observing
// a closed handle.
type BaseFile struct {
	file     *os.File            // The underlying OS file handle for I/O operations
	fileID   primitives.FileID   // Unique identifier generated from the file path hash
	mutex    sync.RWMutex        // Read-write mutex for thread-safe operations
	filePath primitives.Filepath // Path to the file
}

// CreateBaseFile creates a new file, failing if it already exists.
//
// Parameters:
//   - filePath: The path of the file to create
//
// Returns:
//   - *BaseFile: A handle on the new, empty file
//   - error: If the path is empty, the file exists, or creation fails
func CreateBaseFile(filePath primitives.Filepath) (*BaseFile, error) {
	return newBaseFile(filePath, os.O_RDWR|os.O_CREATE|os.O_EXCL)
}

// OpenBaseFile opens an existing file for reading and writing.
//
// Parameters:
//   - filePath: The path of the file to open
//
// Returns:
//   - *BaseFile: A handle on the file
//   - error: ErrRelationMissing if the file does not exist, or the open failure
func OpenBaseFile(filePath primitives.Filepath) (*BaseFile, error) {
	return newBaseFile(filePath, os.O_RDWR)
}

func newBaseFile(filePath primitives.Filepath, flag int) (*BaseFile, error) {
	if filePath.IsEmpty() {
		return nil, fmt.Errorf("filePath cannot be empty")
	}

	file, err := os.OpenFile(filePath.String(), flag, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, dberror.ErrRelationMissing.With("Open", "page", "%s", filePath).Because(err)
		}
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}

	return &BaseFile{
		file:     file,
		fileID:   filePath.Hash(),
		filePath: filePath,
	}, nil
}

// GetID returns the unique identifier for this file.
func (bf *BaseFile) GetID() primitives.FileID {
	return bf.fileID
}

// FilePath returns the path used to open this file.
func (bf *BaseFile) FilePath() primitives.Filepath {
	return bf.filePath
}

// NumPages returns the total number of pages in this file.
//
// This method calculates the number of pages by dividing the file size
// by the page size. If the file size is not evenly divisible by the page
// size, it rounds up to include the partial page.
//
// Returns:
//   - primitives.Count: The total number of pages in the file
//   - error: An error if the file is closed or stat operation fails
func (bf *BaseFile) NumPages() (primitives.Count, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.file == nil {
		return 0, fmt.Errorf("file is closed")
	}

	fileInfo, err := bf.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}

	numPages := primitives.Count(fileInfo.Size() / int64(PageSize))
	if fileInfo.Size()%int64(PageSize) != 0 {
		numPages++
	}

	return numPages, nil
}

// ReadPageData reads raw page data from disk at the specified page number.
//
// This method reads exactly PageSize bytes from the file at the offset
// corresponding to the given page number.
//
// Parameters:
//   - pageNo: The zero-based page number to read
//
// Returns:
//   - []byte: A slice containing the raw page data (always PageSize bytes)
//   - error: ErrShortIO if the page lies (partly) past the end of the file
func (bf *BaseFile) ReadPageData(pageNo primitives.PageNumber) ([]byte, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	if bf.file == nil {
		return nil, fmt.Errorf("file is closed")
	}

	offset := int64(pageNo) * int64(PageSize)
	pageData := make([]byte, PageSize)

	if _, err := bf.file.ReadAt(pageData, offset); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, dberror.ErrShortIO.With("ReadPage", "page", "%s page %d", bf.filePath, pageNo).Because(err)
		}
		return nil, fmt.Errorf("failed to read page %d: %w", pageNo, err)
	}
	return pageData, nil
}

// WritePageData writes raw page data to disk at the specified page number.
//
// Parameters:
//   - pageNo: The zero-based page number to write
//   - pageData: The raw page data to write (must be exactly PageSize bytes)
//
// Returns:
//   - error: An error if the file is closed, data size is invalid, or I/O fails
//
// Writes are not synced individually; Sync flushes the file when the owning
// relation closes.
func (bf *BaseFile) WritePageData(pageNo primitives.PageNumber, pageData []byte) error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return fmt.Errorf("file is closed")
	}

	if len(pageData) != PageSize {
		return fmt.Errorf("invalid page data size: expected %d, got %d", PageSize, len(pageData))
	}

	offset := int64(pageNo) * int64(PageSize)

	if _, err := bf.file.WriteAt(pageData, offset); err != nil {
		return fmt.Errorf("failed to write page data: %w", err)
	}

	return nil
}

// AllocateNewPage reserves the next page number by extending the file with a
// zero-filled page. A zeroed page is a valid empty page (item count 0).
//
// Returns:
//   - primitives.PageNumber: The allocated page number (equal to old NumPages)
//   - error: An error if the file is closed, stat fails, or write fails
func (bf *BaseFile) AllocateNewPage() (primitives.PageNumber, error) {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return 0, fmt.Errorf("file is closed")
	}

	fileInfo, err := bf.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}

	currentSize := fileInfo.Size()
	numPages := currentSize / int64(PageSize)
	if currentSize%int64(PageSize) != 0 {
		numPages++
	}

	zeroPage := make([]byte, PageSize)
	if _, err := bf.file.WriteAt(zeroPage, numPages*int64(PageSize)); err != nil {
		return 0, fmt.Errorf("failed to reserve page space: %w", err)
	}

	return primitives.PageNumber(numPages), nil
}

// Sync flushes written pages to stable storage.
func (bf *BaseFile) Sync() error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file == nil {
		return fmt.Errorf("file is closed")
	}
	return bf.file.Sync()
}

// Close closes the underlying file handle.
//
// After calling Close, all other methods will return errors.
// It is safe to call Close more than once.
func (bf *BaseFile) Close() error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	if bf.file != nil {
		err := bf.file.Close()
		bf.file = nil
		return err
	}

	return nil
}
