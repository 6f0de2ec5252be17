package page

import (
	"github.com/pkg/errors"

	"sigdb/pkg/primitives"
)

// File is a sequence of Pages holding items of one fixed size: tuples in the
// data file, or signatures in one of the three signature files.
type File struct {
	*BaseFile
	itemSize int
}

// CreateFile creates a new paged file for items of itemSize bytes.
func CreateFile(path primitives.Filepath, itemSize int) (*File, error) {
	bf, err := CreateBaseFile(path)
	if err != nil {
		return nil, err
	}
	return &File{BaseFile: bf, itemSize: itemSize}, nil
}

// OpenFile opens an existing paged file for items of itemSize bytes.
func OpenFile(path primitives.Filepath, itemSize int) (*File, error) {
	bf, err := OpenBaseFile(path)
	if err != nil {
		return nil, err
	}
	return &File{BaseFile: bf, itemSize: itemSize}, nil
}

// ItemSize returns the size of the items stored in this file.
func (f *File) ItemSize() int {
	return f.itemSize
}

// ReadPage loads page pid.
func (f *File) ReadPage(pid primitives.PageNumber) (*Page, error) {
	data, err := f.ReadPageData(pid)
	if err != nil {
		return nil, err
	}
	p, err := FromBytes(data, f.itemSize)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s page %d", f.FilePath().Base(), pid)
	}
	return p, nil
}

// WritePage stores p as page pid.
func (f *File) WritePage(pid primitives.PageNumber, p *Page) error {
	return errors.Wrapf(f.WritePageData(pid, p.Bytes()), "writing %s page %d", f.FilePath().Base(), pid)
}

// AddPage appends an empty page and returns its number.
func (f *File) AddPage() (primitives.PageNumber, error) {
	pid, err := f.AllocateNewPage()
	if err != nil {
		return primitives.NoPage, errors.Wrapf(err, "adding page to %s", f.FilePath().Base())
	}
	return pid, nil
}
