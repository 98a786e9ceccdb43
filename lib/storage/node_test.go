package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeFlags(t *testing.T) {
	n := NewNode(NodeTypeChild, 5)

	assert.Equal(t, NodeTypeChild, n.Type())
	assert.True(t, n.InUse())
	assert.False(t, n.Free())
	assert.Equal(t, byte(5), n.Owner())

	n.SetOwner(9)
	assert.Equal(t, byte(9), n.Owner())
	assert.Equal(t, NodeTypeChild, n.Type(), "owner change keeps the type bits")
	assert.True(t, n.InUse())
}

func TestNodeFree(t *testing.T) {
	n := Node(make([]byte, NodeSize))
	assert.True(t, n.Free(), "zeroed slot reads as free")
	n.SetFlags(flagsInUseBit)
	assert.False(t, n.Free())
}

func TestStampOwner(t *testing.T) {
	// host claims owner 0xF and a cleared in-use bit; both get overridden
	prefix := []byte{0xF0, 0x00, 0xAA}
	StampOwner(prefix, 3)

	n := Node(append(prefix, make([]byte, NodeSize-3)...))
	assert.Equal(t, byte(3), n.Owner())
	assert.True(t, n.InUse())
	assert.Equal(t, byte(0xAA), prefix[2], "bytes past the flags word are untouched")
}

func TestParentFields(t *testing.T) {
	n := NewNode(NodeTypeParent, 0)
	n.SetPrevParent(0x0011)
	n.SetNextParent(0x0022)
	n.SetFirstChild(0x0033)
	n.SetService("example.com")

	assert.Equal(t, uint16(0x0011), n.PrevParent())
	assert.Equal(t, uint16(0x0022), n.NextParent())
	assert.Equal(t, uint16(0x0033), n.FirstChild())
	assert.Equal(t, "example.com", n.Service())
}

func TestChildFields(t *testing.T) {
	n := NewNode(NodeTypeChild, 1)
	n.SetPrevChild(0x0101)
	n.SetNextChild(0x0202)
	n.SetDescription("personal")
	n.SetLogin("alice@example.com")
	n.SetPassword([]byte("hunter2"))
	n.SetCtr([]byte{1, 2, 3})

	assert.Equal(t, uint16(0x0101), n.PrevChild())
	assert.Equal(t, uint16(0x0202), n.NextChild())
	assert.Equal(t, "personal", n.Description())
	assert.Equal(t, "alice@example.com", n.Login())
	assert.Equal(t, []byte{1, 2, 3}, n.Ctr())

	pw := n.Password()
	assert.Equal(t, []byte("hunter2"), pw[:7])
	for _, b := range pw[7:] {
		assert.Zero(t, b, "password field is zero padded")
	}
}

func TestDataBlocks(t *testing.T) {
	n := NewNode(NodeTypeData, 2)
	n.SetNextData(0x0042)

	block := make([]byte, DataBlockSize)
	for i := range block {
		block[i] = byte(i)
	}
	n.SetDataBlock(3, block)

	assert.Equal(t, uint16(0x0042), n.NextData())
	assert.Equal(t, block, n.DataBlock(3))
	assert.Equal(t, make([]byte, DataBlockSize), n.DataBlock(2))
	assert.Equal(t, 4, DataBlocksPerNode)
}

func TestWriteCStringTruncates(t *testing.T) {
	n := NewNode(NodeTypeChild, 0)
	long := make([]byte, loginFieldLen+10)
	for i := range long {
		long[i] = 'x'
	}
	n.SetLogin(string(long))
	assert.Len(t, n.Login(), loginFieldLen-1, "oversized input keeps a terminator")
}
