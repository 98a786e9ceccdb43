// Package storage implements the node-addressed flash storage engine:
// the address codec, the flash page contract, the streaming node writer
// and the bulk media importer. All layout constants are bit-exact with
// the persisted format; changing any of them breaks existing databases.
package storage

// Physical layout constants.
const (
	// NodeSize is the fixed size of every node record in bytes.
	NodeSize = 132

	// BytesPerPage is the flash program/erase unit.
	BytesPerPage = 528

	// SlotsPerPage is BytesPerPage / NodeSize, integer, no padding.
	SlotsPerPage = BytesPerPage / NodeSize

	// PageCount is the total number of flash pages.
	PageCount = 1024

	// NodeZonePages is the number of pages reserved for the node database.
	// Pages at and above this index belong to the media zone.
	NodeZonePages = MediaZoneStart

	// MediaZoneStart and MediaZoneEnd bound the bulk media import zone,
	// start inclusive, end exclusive.
	MediaZoneStart = 128
	MediaZoneEnd   = PageCount
)

// Node addressing. A node address packs (page, slot) into a flat 16-bit
// value: the low slotBits carry the in-page slot, the remaining bits the
// page. Address 0 is reserved as the null address, so page 0 slot 0 is
// never allocated.
const (
	slotBits = 3
	slotMask = (1 << slotBits) - 1

	// NodeAddrNull is the reserved null node address.
	NodeAddrNull uint16 = 0
)

// PageOf returns the flash page holding the given node address.
func PageOf(addr uint16) uint16 {
	return addr >> slotBits
}

// SlotOf returns the in-page slot of the given node address.
func SlotOf(addr uint16) uint16 {
	return addr & slotMask
}

// AddrOf packs a (page, slot) pair into a node address.
func AddrOf(page, slot uint16) uint16 {
	return page<<slotBits | slot&slotMask
}

// ByteOffsetOf returns the byte offset of a node within its page.
func ByteOffsetOf(addr uint16) int {
	return int(SlotOf(addr)) * NodeSize
}

// ValidAddr returns true if addr points at an allocatable node slot:
// non-null, inside the node zone, and within the real slot count
// (the slot field can encode more slots than a page holds).
func ValidAddr(addr uint16) bool {
	return addr != NodeAddrNull &&
		PageOf(addr) < NodeZonePages &&
		SlotOf(addr) < SlotsPerPage
}
