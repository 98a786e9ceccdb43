package storage

import "bytes"

// NodeType is the logical kind of a node, encoded in the top two bits of
// the flags word. All kinds share the same 132-byte physical layout.
type NodeType uint16

const (
	// NodeTypeParent is a service/context node heading a child chain.
	NodeTypeParent NodeType = 0
	// NodeTypeChild is a login+password leaf under a parent.
	NodeTypeChild NodeType = 1
	// NodeTypeData is an opaque payload link in a data chain.
	NodeTypeData NodeType = 2
)

// Flags word layout (little-endian u16 at node offset 0):
// bits 15-14 node type, bit 13 in-use marker, bits 7-4 owner user id.
// Erased flash reads as zero, so a zero flags word means a free slot.
const (
	flagsTypeShift  = 14
	flagsInUseBit   = 1 << 13
	flagsOwnerShift = 4
	flagsOwnerMask  = 0x00F0

	// Data nodes keep their used-block count in the low flag bits; the
	// payload region has no room for a length field of its own.
	flagsBlockCountMask = 0x0007
)

// Parent node field offsets.
const (
	offPrevParent = 2
	offNextParent = 4
	offFirstChild = 6
	offService    = 8
)

// Child node field offsets. The fields pack to exactly NodeSize bytes.
const (
	offPrevChild    = 2
	offNextChild    = 4
	offDescription  = 6
	offDateCreated  = 30
	offDateLastUsed = 32
	offCtr          = 34
	offLogin        = 37
	offPassword     = 100
)

// Data node field offsets. Each data node carries DataBlocksPerNode
// fixed-size payload blocks.
const (
	offNextData    = 2
	offDataPayload = 4

	// DataBlockSize is the append/read unit for free-form data.
	DataBlockSize = 32

	// DataBlocksPerNode is how many blocks fit one data node.
	DataBlocksPerNode = (NodeSize - offDataPayload) / DataBlockSize
)

// Node wraps a raw NodeSize-byte record with typed accessors. The
// underlying slice is shared, not copied: mutations write through.
type Node []byte

// NewNode allocates a zeroed record stamped with type, in-use marker and
// owner. The caller fills the type-specific fields afterwards.
func NewNode(t NodeType, owner byte) Node {
	n := Node(make([]byte, NodeSize))
	n.SetFlags(uint16(t)<<flagsTypeShift | flagsInUseBit)
	n.SetOwner(owner)
	return n
}

// Flags returns the node's flags word.
func (n Node) Flags() uint16 {
	return uint16(n[0]) | uint16(n[1])<<8
}

// SetFlags overwrites the flags word.
func (n Node) SetFlags(f uint16) {
	n[0] = byte(f)
	n[1] = byte(f >> 8)
}

// Type returns the node's logical kind.
func (n Node) Type() NodeType {
	return NodeType(n.Flags() >> flagsTypeShift)
}

// InUse returns true if the slot holds a live record.
func (n Node) InUse() bool {
	return n.Flags()&flagsInUseBit != 0
}

// Free returns true if the slot has never been programmed.
func (n Node) Free() bool {
	return n.Flags() == 0
}

// Owner returns the owner user id from the flags region.
func (n Node) Owner() byte {
	return byte((n.Flags() & flagsOwnerMask) >> flagsOwnerShift)
}

// SetOwner stamps the owner user id into the flags region, preserving
// every other flag bit.
func (n Node) SetOwner(uid byte) {
	f := n.Flags()&^uint16(flagsOwnerMask) | uint16(uid)<<flagsOwnerShift&flagsOwnerMask
	n.SetFlags(f)
}

// StampOwner forces the owner id and the in-use marker into a raw flags
// prefix, regardless of what the host supplied there. Used on the first
// chunk of a streamed node write so every committed node carries a
// verifiable owner even under malicious input. The prefix must be at
// least two bytes.
func StampOwner(prefix []byte, uid byte) {
	f := uint16(prefix[0]) | uint16(prefix[1])<<8
	f = f&^uint16(flagsOwnerMask) | uint16(uid)<<flagsOwnerShift&flagsOwnerMask | flagsInUseBit
	prefix[0] = byte(f)
	prefix[1] = byte(f >> 8)
}

// addr16 reads a little-endian node address at the given offset.
func (n Node) addr16(off int) uint16 {
	return uint16(n[off]) | uint16(n[off+1])<<8
}

// setAddr16 writes a little-endian node address at the given offset.
func (n Node) setAddr16(off int, v uint16) {
	n[off] = byte(v)
	n[off+1] = byte(v >> 8)
}

// Parent node accessors.

func (n Node) PrevParent() uint16        { return n.addr16(offPrevParent) }
func (n Node) SetPrevParent(addr uint16) { n.setAddr16(offPrevParent, addr) }
func (n Node) NextParent() uint16        { return n.addr16(offNextParent) }
func (n Node) SetNextParent(addr uint16) { n.setAddr16(offNextParent, addr) }
func (n Node) FirstChild() uint16        { return n.addr16(offFirstChild) }
func (n Node) SetFirstChild(addr uint16) { n.setAddr16(offFirstChild, addr) }

// Service returns the parent's service name.
func (n Node) Service() string {
	return cString(n[offService : offService+serviceFieldLen])
}

// SetService writes the parent's service name, NUL-terminated.
func (n Node) SetService(name string) {
	writeCString(n[offService:offService+serviceFieldLen], name)
}

// Child node accessors.

func (n Node) PrevChild() uint16        { return n.addr16(offPrevChild) }
func (n Node) SetPrevChild(addr uint16) { n.setAddr16(offPrevChild, addr) }
func (n Node) NextChild() uint16        { return n.addr16(offNextChild) }
func (n Node) SetNextChild(addr uint16) { n.setAddr16(offNextChild, addr) }

// Description returns the child's description field.
func (n Node) Description() string {
	return cString(n[offDescription : offDescription+descriptionFieldLen])
}

// SetDescription writes the child's description field.
func (n Node) SetDescription(s string) {
	writeCString(n[offDescription:offDescription+descriptionFieldLen], s)
}

// Login returns the child's login field.
func (n Node) Login() string {
	return cString(n[offLogin : offLogin+loginFieldLen])
}

// SetLogin writes the child's login field.
func (n Node) SetLogin(s string) {
	writeCString(n[offLogin:offLogin+loginFieldLen], s)
}

// Password returns a copy of the child's password field.
func (n Node) Password() []byte {
	out := make([]byte, passwordFieldLen)
	copy(out, n[offPassword:offPassword+passwordFieldLen])
	return out
}

// SetPassword writes the child's password field, zero-padding the rest.
func (n Node) SetPassword(p []byte) {
	field := n[offPassword : offPassword+passwordFieldLen]
	for i := range field {
		field[i] = 0
	}
	copy(field, p)
}

// Ctr returns the child's per-credential CTR value.
func (n Node) Ctr() []byte {
	out := make([]byte, ctrFieldLen)
	copy(out, n[offCtr:offCtr+ctrFieldLen])
	return out
}

// SetCtr writes the child's per-credential CTR value.
func (n Node) SetCtr(ctr []byte) {
	copy(n[offCtr:offCtr+ctrFieldLen], ctr)
}

// Data node accessors.

func (n Node) NextData() uint16        { return n.addr16(offNextData) }
func (n Node) SetNextData(addr uint16) { n.setAddr16(offNextData, addr) }

// BlockCount returns how many payload blocks of a data node are used.
func (n Node) BlockCount() int {
	return int(n.Flags() & flagsBlockCountMask)
}

// SetBlockCount records the used-block count of a data node.
func (n Node) SetBlockCount(c int) {
	n.SetFlags(n.Flags()&^uint16(flagsBlockCountMask) | uint16(c)&flagsBlockCountMask)
}

// DataBlock returns the idx-th payload block of a data node.
func (n Node) DataBlock(idx int) []byte {
	off := offDataPayload + idx*DataBlockSize
	out := make([]byte, DataBlockSize)
	copy(out, n[off:off+DataBlockSize])
	return out
}

// SetDataBlock writes the idx-th payload block of a data node.
func (n Node) SetDataBlock(idx int, block []byte) {
	off := offDataPayload + idx*DataBlockSize
	copy(n[off:off+DataBlockSize], block)
}

// Field lengths, terminators included. These track the protocol text
// limits; they are restated here so the storage layout stands on its own.
const (
	serviceFieldLen     = 58
	descriptionFieldLen = 24
	loginFieldLen       = 63
	passwordFieldLen    = 32
	ctrFieldLen         = 3
)

// cString extracts a NUL-terminated string from a fixed field.
func cString(field []byte) string {
	if idx := bytes.IndexByte(field, 0); idx >= 0 {
		return string(field[:idx])
	}
	return string(field)
}

// writeCString fills a fixed field with s, NUL-padding the remainder.
// Oversized input is truncated, always leaving a terminator.
func writeCString(field []byte, s string) {
	for i := range field {
		field[i] = 0
	}
	limit := len(field) - 1
	if len(s) > limit {
		s = s[:limit]
	}
	copy(field, s)
}
