package vault

import (
	"fmt"

	"github.com/BioHaZard1/mooltipass/lib/storage"
	"github.com/BioHaZard1/mooltipass/lib/util"
)

// DataCursor tracks the sequential read position in a data chain. Owned
// by the session; reset whenever the data context changes.
type DataCursor struct {
	NodeAddr uint16
	Block    int
}

// Reset rewinds the cursor to the head of the chain under parentAddr.
func (c *DataCursor) Reset() {
	c.NodeAddr = storage.NodeAddrNull
	c.Block = 0
}

// AddDataBlock appends one fixed-size block to the data chain under the
// given data context. Appends fill the last node before allocating a
// new one.
func (s *Store) AddDataBlock(parentAddr uint16, uid byte, block []byte) error {
	if len(block) != storage.DataBlockSize {
		return fmt.Errorf("data block of %d bytes: %w", len(block), util.ErrInvalidField)
	}
	parent, err := s.ReadNode(parentAddr, uid)
	if err != nil {
		return err
	}

	// walk to the tail of the chain
	var tailAddr uint16 = storage.NodeAddrNull
	var tail storage.Node
	for addr := parent.FirstChild(); addr != storage.NodeAddrNull; {
		node, err := s.flash.ReadNode(addr)
		if err != nil {
			return err
		}
		tailAddr, tail = addr, node
		addr = node.NextData()
	}

	if tail != nil && tail.BlockCount() < storage.DataBlocksPerNode {
		tail.SetDataBlock(tail.BlockCount(), block)
		tail.SetBlockCount(tail.BlockCount() + 1)
		return s.flash.WriteNode(tailAddr, tail)
	}

	addr, err := s.allocateSlot()
	if err != nil {
		return err
	}
	node := storage.NewNode(storage.NodeTypeData, uid)
	node.SetDataBlock(0, block)
	node.SetBlockCount(1)
	if err := s.flash.WriteNode(addr, node); err != nil {
		return err
	}

	if tailAddr == storage.NodeAddrNull {
		return s.relink(parentAddr, func(n storage.Node) { n.SetFirstChild(addr) })
	}
	return s.relink(tailAddr, func(n storage.Node) { n.SetNextData(addr) })
}

// ReadDataBlock returns the next block of the chain under the given data
// context, advancing the cursor. util.ErrNotFound marks the end of the
// chain.
func (s *Store) ReadDataBlock(parentAddr uint16, uid byte, cursor *DataCursor) ([]byte, error) {
	if cursor.NodeAddr == storage.NodeAddrNull {
		parent, err := s.ReadNode(parentAddr, uid)
		if err != nil {
			return nil, err
		}
		cursor.NodeAddr = parent.FirstChild()
		cursor.Block = 0
		if cursor.NodeAddr == storage.NodeAddrNull {
			return nil, util.ErrNotFound
		}
	}

	node, err := s.ReadNode(cursor.NodeAddr, uid)
	if err != nil {
		return nil, err
	}
	if cursor.Block >= node.BlockCount() {
		return nil, util.ErrNotFound
	}
	block := node.DataBlock(cursor.Block)
	cursor.Block++
	if cursor.Block >= node.BlockCount() && node.NextData() != storage.NodeAddrNull {
		cursor.NodeAddr = node.NextData()
		cursor.Block = 0
	}
	return block, nil
}
