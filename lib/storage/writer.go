package storage

import (
	"errors"
	"fmt"

	"github.com/BioHaZard1/mooltipass/lib/protocol"
	"github.com/BioHaZard1/mooltipass/lib/util"
)

// Streamed node write geometry. A node record does not fit one packet
// body, so it arrives as numbered chunks carrying WriteChunkSize bytes
// each, the last one short.
const (
	// WriteChunkSize is the payload stride of a streamed node write:
	// the packet body minus the two address bytes and the chunk number.
	WriteChunkSize = protocol.MaxBody - 3

	// FinalChunkIndex is the chunk number that completes a node.
	FinalChunkIndex = NodeSize / WriteChunkSize
)

// Node writer errors.
var (
	ErrWriteNotStarted = errors.New("no node write in progress")
	ErrAddrMismatch    = errors.New("chunk addressed to a different node")
	ErrBadSequence     = errors.New("chunk out of sequence")
)

const arenaOwnerWriter = "node-writer"

// NodeWriter assembles streamed write-node chunks into the flash page
// buffer and commits the page once the final chunk lands. The first
// chunk claims the buffer and stamps the owner id into the node flags;
// completion or Abandon releases it. Not safe for concurrent use; the
// dispatcher runs commands to completion.
type NodeWriter struct {
	flash Flash
	arena *Arena

	addr    uint16
	nextSeq byte
}

// NewNodeWriter creates a writer over the given flash and page buffer.
func NewNodeWriter(flash Flash, arena *Arena) *NodeWriter {
	return &NodeWriter{flash: flash, arena: arena}
}

// Active returns true while a streamed write is in progress.
func (w *NodeWriter) Active() bool {
	return w.addr != NodeAddrNull
}

// CurrentAddr returns the address of the node being written, or the
// null address when idle.
func (w *NodeWriter) CurrentAddr() uint16 {
	return w.addr
}

// Write applies one chunk. The caller has already verified that the
// session owner may write the target slot; uid is stamped into the
// flags word on chunk zero so the committed node always carries the
// true owner. The page commits when the final chunk lands, after which
// the writer is idle again.
func (w *NodeWriter) Write(addr uint16, seq byte, payload []byte, uid byte) error {
	if !ValidAddr(addr) {
		return util.NewStorageError(addr, "write node", ErrInvalidNodeAddr)
	}
	if seq > FinalChunkIndex || int(seq)*WriteChunkSize+len(payload) > NodeSize {
		return util.NewStorageError(addr, "write node", util.ErrStorageBounds)
	}

	if seq == 0 {
		if len(payload) < 2 {
			return util.NewStorageError(addr, "write node", util.ErrStorageBounds)
		}
		if err := w.arena.Acquire(arenaOwnerWriter); err != nil {
			return err
		}
		if err := w.flash.LoadPage(PageOf(addr)); err != nil {
			w.arena.Release(arenaOwnerWriter)
			return err
		}
		StampOwner(payload, uid)
		w.addr = addr
		w.nextSeq = 0
	} else {
		if !w.Active() {
			return ErrWriteNotStarted
		}
		if addr != w.addr {
			return fmt.Errorf("%w: have 0x%04x, got 0x%04x", ErrAddrMismatch, w.addr, addr)
		}
	}
	// a rejected chunk must leave the reassembly untouched so the
	// legitimate sequence can still complete
	if seq != w.nextSeq {
		return fmt.Errorf("%w: want %d, got %d", ErrBadSequence, w.nextSeq, seq)
	}

	off := ByteOffsetOf(w.addr) + int(seq)*WriteChunkSize
	if err := w.flash.WriteBuffer(payload, off); err != nil {
		w.Abandon()
		return err
	}

	if seq == FinalChunkIndex {
		err := w.flash.CommitPage(PageOf(w.addr))
		w.Abandon()
		return err
	}
	w.nextSeq++
	return nil
}

// Abandon drops any in-progress write and releases the page buffer.
// Called on mode exit and card removal so a half-written node never
// reaches flash.
func (w *NodeWriter) Abandon() {
	if w.addr != NodeAddrNull {
		w.addr = NodeAddrNull
		w.nextSeq = 0
		w.arena.Release(arenaOwnerWriter)
	}
}
