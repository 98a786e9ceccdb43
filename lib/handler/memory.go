package handler

import (
	"github.com/BioHaZard1/mooltipass/lib/protocol"
	"github.com/BioHaZard1/mooltipass/lib/session"
	"github.com/BioHaZard1/mooltipass/lib/storage"
	"github.com/BioHaZard1/mooltipass/lib/util"
	"github.com/BioHaZard1/mooltipass/lib/vault"
)

// freeSlotBatch is the number of addresses one free-slots reply carries:
// the body holds 31 little-endian 16-bit addresses.
const freeSlotBatch = protocol.MaxBody / 2

func handleStartMemoryMgmt(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	if ctx.Session.State != session.Unlocked {
		return nil, util.ErrNotUnlocked
	}
	if !ctx.UI.Confirm("Approve memory management?") {
		return nil, util.ErrUserDeclined
	}
	// step-up auth: a fresh PIN entry even though the card is unlocked
	if !ctx.Auth.RequestReauth() {
		if !ctx.Auth.Unlocked() {
			ctx.Session.CardRemoved()
		}
		return nil, util.ErrNotApproved
	}
	ctx.Session.EnterMemoryMgmt()
	return nil, nil
}

func handleEndMemoryMgmt(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	// raw writes may have rewired the chains behind every cached index
	ctx.Writer.Abandon()
	ctx.Store.InvalidateCache()
	ctx.Session.LeaveMemoryMgmt()
	return nil, nil
}

func handleReadFlashNode(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	addr, err := pkt.Uint16At(0)
	if err != nil {
		return nil, util.ErrInvalidField
	}
	node, err := ctx.Store.ReadNode(addr, ctx.Session.UserID)
	if err != nil {
		return nil, err
	}

	// a node spans several reply packets
	for off := 0; off < len(node); off += protocol.MaxBody {
		end := off + protocol.MaxBody
		if end > len(node) {
			end = len(node)
		}
		r := protocol.NewReply(protocol.CmdReadFlashNode, node[off:end])
		if end == len(node) {
			return r, nil
		}
		ctx.Emit(r)
	}
	return nil, nil
}

func handleWriteFlashNode(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	addr, err := pkt.Uint16At(0)
	if err != nil || pkt.Len() < 3 {
		return nil, util.ErrInvalidField
	}
	seq := pkt.Body[2]
	payload := pkt.Body[3:]

	if seq == 0 {
		// permission gate runs before the writer touches any state
		if err := ctx.Store.CheckOwner(addr, ctx.Session.UserID); err != nil {
			return nil, err
		}
	}
	return nil, ctx.Writer.Write(addr, seq, payload, ctx.Session.UserID)
}

func handleGetFreeSlots(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	start, err := pkt.Uint16At(0)
	if err != nil {
		return nil, util.ErrInvalidField
	}
	slots := ctx.Flash.FindFreeSlots(freeSlotBatch, storage.PageOf(start), storage.SlotOf(start))

	body := make([]byte, 0, len(slots)*2)
	for _, s := range slots {
		body = append(body, byte(s), byte(s>>8))
	}
	return protocol.NewReply(protocol.CmdGetFreeSlots, body), nil
}

func handleGetFavorite(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	if pkt.Len() != 1 {
		return nil, util.ErrInvalidField
	}
	fav, err := ctx.Store.Profiles().Favorite(ctx.Session.UserID, int(pkt.Body[0]))
	if err != nil {
		return nil, err
	}
	body := []byte{byte(fav.Parent), byte(fav.Parent >> 8), byte(fav.Child), byte(fav.Child >> 8)}
	return protocol.NewReply(protocol.CmdGetFavorite, body), nil
}

func handleSetFavorite(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	if pkt.Len() != 5 {
		return nil, util.ErrInvalidField
	}
	fav := vault.Favorite{
		Parent: uint16(pkt.Body[1]) | uint16(pkt.Body[2])<<8,
		Child:  uint16(pkt.Body[3]) | uint16(pkt.Body[4])<<8,
	}
	return nil, ctx.Store.Profiles().SetFavorite(ctx.Session.UserID, int(pkt.Body[0]), fav)
}

func startingParentReply(cmd byte, addr uint16) *protocol.Reply {
	return protocol.NewReply(cmd, []byte{byte(addr), byte(addr >> 8)})
}

func handleGetStartingParent(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	addr := ctx.Store.Profiles().StartingParent(ctx.Session.UserID)
	return startingParentReply(protocol.CmdGetStartingParent, addr), nil
}

func handleSetStartingParent(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	addr, err := pkt.Uint16At(0)
	if err != nil {
		return nil, util.ErrInvalidField
	}
	return nil, ctx.Store.Profiles().SetStartingParent(ctx.Session.UserID, addr)
}

func handleGetDataStartingParent(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	addr := ctx.Store.Profiles().DataStartingParent(ctx.Session.UserID)
	return startingParentReply(protocol.CmdGetDataStartingParent, addr), nil
}

func handleSetDataStartingParent(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	addr, err := pkt.Uint16At(0)
	if err != nil {
		return nil, util.ErrInvalidField
	}
	return nil, ctx.Store.Profiles().SetDataStartingParent(ctx.Session.UserID, addr)
}

func handleGetCtrValue(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	ctr := ctx.Store.Profiles().CtrValue(ctx.Session.UserID)
	return protocol.NewReply(protocol.CmdGetCtrValue, ctr[:]), nil
}

func handleSetCtrValue(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	if pkt.Len() != protocol.CtrValueSize {
		return nil, util.ErrInvalidField
	}
	var ctr [vault.CtrValueSize]byte
	copy(ctr[:], pkt.Body)
	return nil, ctx.Store.Profiles().SetCtrValue(ctx.Session.UserID, ctr)
}

func handleAddCpzCtr(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	if pkt.Len() != protocol.CpzSize+protocol.CtrNonceSize {
		return nil, util.ErrInvalidField
	}
	entry := vault.CpzEntry{UserID: ctx.Session.UserID}
	copy(entry.Cpz[:], pkt.Body[:protocol.CpzSize])
	copy(entry.Nonce[:], pkt.Body[protocol.CpzSize:])
	return nil, ctx.Store.Profiles().AddCpzEntry(entry)
}

func handleGetCpzCtr(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	for _, e := range ctx.Store.Profiles().AllCpzEntries() {
		body := make([]byte, 0, protocol.CpzSize+protocol.CtrNonceSize)
		body = append(body, e.Cpz[:]...)
		body = append(body, e.Nonce[:]...)
		ctx.Emit(protocol.NewReply(protocol.CmdGetCpzCtr, body))
	}
	// trailing OK marks the end of the export stream
	return nil, nil
}
