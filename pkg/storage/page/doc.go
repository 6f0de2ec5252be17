// Package page is the disk layer under every relation file.
//
// Data is organised into fixed-size 4 KB pages that are read and written as
// whole units at offset pageNo * PageSize.
//
// # Page layout
//
// Each page starts with a 4-byte little-endian item count followed by items
// of one fixed size packed back to back. There is no slot directory: item i
// lives at HeaderSize + i*itemSize, and free space is whatever follows the
// last item. A zero-filled page is a valid empty page, so AllocateNewPage
// only has to extend the file.
//
// # Files
//
//   - [BaseFile] owns the OS handle and moves raw pages.
//   - [File] adds the item size and converts between raw bytes and [Page].
//
// Writes are not synced one by one; the owning relation syncs every file
// when it closes.
package page
