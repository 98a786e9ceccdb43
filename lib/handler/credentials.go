package handler

import (
	"fmt"

	"github.com/BioHaZard1/mooltipass/lib/protocol"
	"github.com/BioHaZard1/mooltipass/lib/storage"
	"github.com/BioHaZard1/mooltipass/lib/util"
	"github.com/BioHaZard1/mooltipass/lib/vault"
)

// textField re-runs the validator to get the field; the dispatcher has
// already rejected invalid text before the handler runs.
func textField(pkt *protocol.Packet) []byte {
	text, _ := protocol.ValidateText(pkt)
	return text
}

func setContext(ctx *Context, pkt *protocol.Packet, kind vault.ContextKind) (*protocol.Reply, error) {
	service := string(textField(pkt))
	addr, err := ctx.Store.FindContext(ctx.Session.UserID, kind, service)
	if err != nil {
		ctx.Session.ClearContext()
		return nil, err
	}
	ctx.Session.SetContext(kind, addr)
	return nil, nil
}

func handleSetContext(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	return setContext(ctx, pkt, vault.KindCredential)
}

func handleSetDataContext(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	return setContext(ctx, pkt, vault.KindData)
}

func addContext(ctx *Context, pkt *protocol.Packet, kind vault.ContextKind) (*protocol.Reply, error) {
	service := string(textField(pkt))
	if !ctx.UI.Confirm(fmt.Sprintf("Add service %s?", service)) {
		return nil, util.ErrUserDeclined
	}
	addr, err := ctx.Store.AddContext(ctx.Session.UserID, kind, service)
	if err != nil {
		return nil, err
	}
	ctx.Session.SetContext(kind, addr)
	return nil, nil
}

func handleAddContext(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	return addContext(ctx, pkt, vault.KindCredential)
}

func handleAddDataContext(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	return addContext(ctx, pkt, vault.KindData)
}

// selectedChild resolves the child credential get/set operations act on,
// defaulting to the context's first child when none is selected yet.
func selectedChild(ctx *Context) (uint16, error) {
	s := ctx.Session
	if !s.ContextValid || s.ContextKind != vault.KindCredential {
		return storage.NodeAddrNull, util.ErrNoContext
	}
	if s.ChildAddr != storage.NodeAddrNull {
		return s.ChildAddr, nil
	}
	child, err := ctx.Store.FirstChild(s.ParentAddr)
	if err != nil {
		return storage.NodeAddrNull, util.ErrNoContext
	}
	s.ChildAddr = child
	return child, nil
}

func handleGetLogin(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	child, err := selectedChild(ctx)
	if err != nil {
		return nil, err
	}
	login, err := ctx.Store.Login(child, ctx.Session.UserID)
	if err != nil {
		return nil, err
	}
	return protocol.NewReply(protocol.CmdGetLogin, protocol.TextBody(login)), nil
}

func handleGetPassword(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	child, err := selectedChild(ctx)
	if err != nil {
		return nil, err
	}
	pw, err := ctx.Store.Password(child, ctx.Session.UserID)
	if err != nil {
		return nil, err
	}
	body := append(pw[:clen(pw)], 0)
	reply := protocol.NewReply(protocol.CmdGetPassword, body)
	util.Wipe(pw)
	util.Wipe(body)
	return reply, nil
}

func handleGetDescription(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	child, err := selectedChild(ctx)
	if err != nil {
		return nil, err
	}
	desc, err := ctx.Store.Description(child, ctx.Session.UserID)
	if err != nil {
		return nil, err
	}
	return protocol.NewReply(protocol.CmdGetDescription, protocol.TextBody(desc)), nil
}

func handleSetLogin(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	s := ctx.Session
	if !s.ContextValid || s.ContextKind != vault.KindCredential {
		return nil, util.ErrNoContext
	}
	child, err := ctx.Store.SetLogin(s.ParentAddr, s.UserID, string(textField(pkt)))
	if err != nil {
		return nil, err
	}
	s.ChildAddr = child
	return nil, nil
}

func handleSetPassword(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	s := ctx.Session
	if !s.ContextValid || s.ChildAddr == storage.NodeAddrNull {
		return nil, util.ErrNoContext
	}
	return nil, ctx.Store.SetPassword(s.ChildAddr, s.UserID, textField(pkt))
}

func handleCheckPassword(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	child, err := selectedChild(ctx)
	if err != nil {
		// tri-state result: not-applicable without a selected credential
		return protocol.Ack(protocol.CmdCheckPassword, util.StatusNA), nil
	}
	if _, err := ctx.Store.CheckPassword(child, ctx.Session.UserID, textField(pkt)); err != nil {
		return protocol.Ack(protocol.CmdCheckPassword, util.StatusError), nil
	}
	return protocol.Ack(protocol.CmdCheckPassword, util.StatusOK), nil
}

func handleWriteDataBlock(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	s := ctx.Session
	if !s.ContextValid || s.ContextKind != vault.KindData {
		return nil, util.ErrNoContext
	}
	return nil, ctx.Store.AddDataBlock(s.ParentAddr, s.UserID, pkt.Body)
}

func handleReadDataBlock(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	s := ctx.Session
	if !s.ContextValid || s.ContextKind != vault.KindData {
		return nil, util.ErrNoContext
	}
	block, err := ctx.Store.ReadDataBlock(s.ParentAddr, s.UserID, &s.DataCursor)
	if err != nil {
		return nil, err
	}
	return protocol.NewReply(protocol.CmdReadDataBlock, block), nil
}

// clen returns the length of the NUL-terminated prefix of a fixed field.
func clen(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return len(b)
}
