package storage

import (
	"errors"
	"fmt"
)

// Flash errors.
var (
	ErrPageOutOfRange  = errors.New("page out of range")
	ErrBufferOverflow  = errors.New("write past end of page buffer")
	ErrInvalidNodeAddr = errors.New("invalid node address")
)

// Flash is the contract with the flash collaborator. Page program is
// atomic-or-not-attempted; no partial-page corruption model exists beyond
// that. The single page buffer is the only staging area for partial
// writes, so at most one streaming operation may use it at a time (see
// Arena).
type Flash interface {
	// ReadNode returns a copy of the NodeSize bytes at the given address.
	ReadNode(addr uint16) (Node, error)

	// LoadPage copies a page into the staging buffer.
	LoadPage(page uint16) error

	// WriteBuffer copies data into the staging buffer at a byte offset.
	WriteBuffer(data []byte, offset int) error

	// CommitPage programs the staging buffer into the given page.
	CommitPage(page uint16) error

	// WriteNode programs one whole node record: load page, overlay the
	// slot, commit. Convenience for single-node mutations.
	WriteNode(addr uint16, node Node) error

	// FindFreeSlots scans the node zone from (startPage, startSlot) for
	// unprogrammed slots and returns up to max node addresses.
	FindFreeSlots(max int, startPage, startSlot uint16) []uint16
}

// MemFlash is an in-memory Flash used by the host-channel daemon and by
// tests. It honors the same page/buffer contract as the device part.
type MemFlash struct {
	pages  [][]byte
	buffer []byte
}

// compile-time interface check
var _ Flash = (*MemFlash)(nil)

// NewMemFlash creates an erased in-memory flash. Erased flash reads as
// zero in this model, which is also what makes a node slot free.
func NewMemFlash() *MemFlash {
	pages := make([][]byte, PageCount)
	for i := range pages {
		pages[i] = make([]byte, BytesPerPage)
	}
	return &MemFlash{
		pages:  pages,
		buffer: make([]byte, BytesPerPage),
	}
}

// ReadNode returns a copy of the node record at addr.
func (f *MemFlash) ReadNode(addr uint16) (Node, error) {
	if SlotOf(addr) >= SlotsPerPage || int(PageOf(addr)) >= len(f.pages) {
		return nil, fmt.Errorf("read node 0x%04x: %w", addr, ErrInvalidNodeAddr)
	}
	out := make(Node, NodeSize)
	off := ByteOffsetOf(addr)
	copy(out, f.pages[PageOf(addr)][off:off+NodeSize])
	return out, nil
}

// LoadPage copies a page into the staging buffer.
func (f *MemFlash) LoadPage(page uint16) error {
	if int(page) >= len(f.pages) {
		return fmt.Errorf("load page %d: %w", page, ErrPageOutOfRange)
	}
	copy(f.buffer, f.pages[page])
	return nil
}

// WriteBuffer copies data into the staging buffer at a byte offset.
func (f *MemFlash) WriteBuffer(data []byte, offset int) error {
	if offset < 0 || offset+len(data) > len(f.buffer) {
		return fmt.Errorf("buffer write at %d len %d: %w", offset, len(data), ErrBufferOverflow)
	}
	copy(f.buffer[offset:], data)
	return nil
}

// CommitPage programs the staging buffer into the given page.
func (f *MemFlash) CommitPage(page uint16) error {
	if int(page) >= len(f.pages) {
		return fmt.Errorf("commit page %d: %w", page, ErrPageOutOfRange)
	}
	copy(f.pages[page], f.buffer)
	return nil
}

// WriteNode programs one whole node record through the staging buffer.
func (f *MemFlash) WriteNode(addr uint16, node Node) error {
	if SlotOf(addr) >= SlotsPerPage || int(PageOf(addr)) >= len(f.pages) {
		return fmt.Errorf("write node 0x%04x: %w", addr, ErrInvalidNodeAddr)
	}
	page := PageOf(addr)
	if err := f.LoadPage(page); err != nil {
		return err
	}
	if err := f.WriteBuffer(node, ByteOffsetOf(addr)); err != nil {
		return err
	}
	return f.CommitPage(page)
}

// FindFreeSlots scans the node zone from (startPage, startSlot) for free
// slots, in address order, and returns up to max node addresses. The null
// address is never returned.
func (f *MemFlash) FindFreeSlots(max int, startPage, startSlot uint16) []uint16 {
	var out []uint16
	slot := startSlot
	for page := startPage; page < NodeZonePages && len(out) < max; page++ {
		for ; slot < SlotsPerPage && len(out) < max; slot++ {
			addr := AddrOf(page, slot)
			if addr == NodeAddrNull {
				continue
			}
			off := int(slot) * NodeSize
			if Node(f.pages[page][off : off+NodeSize]).Free() {
				out = append(out, addr)
			}
		}
		slot = 0
	}
	return out
}

// ReadPage returns a copy of a raw page. Test and export helper.
func (f *MemFlash) ReadPage(page uint16) ([]byte, error) {
	if int(page) >= len(f.pages) {
		return nil, fmt.Errorf("read page %d: %w", page, ErrPageOutOfRange)
	}
	out := make([]byte, BytesPerPage)
	copy(out, f.pages[page])
	return out, nil
}

// EraseAll resets every page and the staging buffer to the erased state.
// Administrative operation, never reachable from the dispatch path.
func (f *MemFlash) EraseAll() {
	for _, p := range f.pages {
		for i := range p {
			p[i] = 0
		}
	}
	for i := range f.buffer {
		f.buffer[i] = 0
	}
}
