package page

import (
	"encoding/binary"
	"fmt"

	"sigdb/pkg/primitives"
)

const (
	// PageSize is the size of each page in bytes (4KB)
	PageSize = 4096

	// HeaderSize is the item-count header at the start of every page.
	HeaderSize = 4

	// Available is the space left for items after the header.
	Available = PageSize - HeaderSize
)

// Page is a fixed-size binary container holding a packed run of equally
// sized items after a little-endian item count.
//
// Page Layout:
//
//	[count uint32][item 0][item 1]...[item count-1][unused]
//
// Items are appended one unit at a time; any slot below Capacity can be
// read or overwritten in place.
type Page struct {
	data     []byte
	itemSize int
}

// NewPage returns an empty page for items of itemSize bytes.
//
// Parameters:
//   - itemSize: Size of each item in bytes (1..Available)
//
// Returns:
//   - *Page: A zeroed page with an item count of 0
func NewPage(itemSize int) *Page {
	if itemSize <= 0 || itemSize > Available {
		panic(fmt.Sprintf("page: invalid item size %d", itemSize))
	}
	return &Page{data: make([]byte, PageSize), itemSize: itemSize}
}

// FromBytes wraps raw page data read from disk.
//
// Parameters:
//   - data: Exactly PageSize bytes
//   - itemSize: Size of each item in bytes
//
// Returns:
//   - *Page: The decoded page (shares data)
//   - error: If the data has the wrong size or the header claims more items than fit
func FromBytes(data []byte, itemSize int) (*Page, error) {
	if len(data) != PageSize {
		return nil, fmt.Errorf("invalid page data size: expected %d, got %d", PageSize, len(data))
	}
	p := &Page{data: data, itemSize: itemSize}
	if p.NumItems() > p.Capacity() {
		return nil, fmt.Errorf("page header claims %d items, capacity is %d", p.NumItems(), p.Capacity())
	}
	return p, nil
}

// ItemsPerPage returns how many items of itemSize bytes fit on one page.
func ItemsPerPage(itemSize int) primitives.Count {
	return primitives.Count(Available / itemSize)
}

// NumItems returns the item count stored in the header.
func (p *Page) NumItems() primitives.Count {
	return primitives.Count(binary.LittleEndian.Uint32(p.data[0:HeaderSize]))
}

// Capacity returns the maximum number of items the page can hold.
func (p *Page) Capacity() primitives.Count {
	return ItemsPerPage(p.itemSize)
}

// IsFull reports whether no further item can be appended.
func (p *Page) IsFull() bool {
	return p.NumItems() >= p.Capacity()
}

// ItemSize returns the size of each item in bytes.
func (p *Page) ItemSize() int {
	return p.itemSize
}

func (p *Page) offset(slot primitives.SlotID) int {
	return HeaderSize + int(slot)*p.itemSize
}

// Item returns a copy of the item in the given slot.
func (p *Page) Item(slot primitives.SlotID) []byte {
	if primitives.Count(slot) >= p.Capacity() {
		panic(fmt.Sprintf("page: slot %d out of range [0, %d)", slot, p.Capacity()))
	}
	off := p.offset(slot)
	item := make([]byte, p.itemSize)
	copy(item, p.data[off:off+p.itemSize])
	return item
}

// PutItem overwrites the given slot. Shorter input is zero-padded.
// The item count is not changed.
func (p *Page) PutItem(slot primitives.SlotID, item []byte) {
	if primitives.Count(slot) >= p.Capacity() {
		panic(fmt.Sprintf("page: slot %d out of range [0, %d)", slot, p.Capacity()))
	}
	if len(item) > p.itemSize {
		panic(fmt.Sprintf("page: item of %d bytes exceeds item size %d", len(item), p.itemSize))
	}
	off := p.offset(slot)
	n := copy(p.data[off:off+p.itemSize], item)
	clear(p.data[off+n : off+p.itemSize])
}

// AddOneItem increments the item count.
func (p *Page) AddOneItem() {
	binary.LittleEndian.PutUint32(p.data[0:HeaderSize], uint32(p.NumItems()+1))
}

// Append stores item in the next free slot and bumps the item count.
//
// Returns:
//   - primitives.SlotID: The slot the item was written to
//   - bool: false if the page was already full
func (p *Page) Append(item []byte) (primitives.SlotID, bool) {
	if p.IsFull() {
		return 0, false
	}
	slot := primitives.SlotID(p.NumItems())
	p.PutItem(slot, item)
	p.AddOneItem()
	return slot, true
}

// Bytes returns the page's backing buffer for writing to disk.
func (p *Page) Bytes() []byte {
	return p.data
}
