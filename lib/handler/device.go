package handler

import (
	"github.com/BioHaZard1/mooltipass/lib/protocol"
	"github.com/BioHaZard1/mooltipass/lib/util"
)

func handleSetParameter(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	if pkt.Len() != 2 {
		return nil, util.ErrInvalidField
	}
	return nil, ctx.Params.SetParam(pkt.Body[0], pkt.Body[1])
}

func handleGetParameter(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	if pkt.Len() != 1 {
		return nil, util.ErrInvalidField
	}
	v, err := ctx.Params.Param(pkt.Body[0])
	if err != nil {
		return nil, err
	}
	return protocol.NewReply(protocol.CmdGetParameter, []byte{v}), nil
}

func handleSetUID(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	if pkt.Len() != protocol.UIDRequestKeySize+protocol.UIDSize {
		return nil, util.ErrInvalidField
	}
	// the UID is factory provisioned exactly once
	if _, ok := ctx.Params.UIDRequestKey(); ok {
		return nil, util.ErrNotApproved
	}
	key := pkt.Body[:protocol.UIDRequestKeySize]
	uid := pkt.Body[protocol.UIDRequestKeySize:]
	return nil, ctx.Params.SetUID(key, uid)
}

func handleGetUID(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	if pkt.Len() != protocol.UIDRequestKeySize {
		return nil, util.ErrInvalidField
	}
	key, ok := ctx.Params.UIDRequestKey()
	if !ok {
		return nil, util.ErrNotFound
	}
	candidate := make([]byte, pkt.Len())
	copy(candidate, pkt.Body)
	if !util.CompareFixedTime(key, candidate, util.PasswordCheckDuration) {
		return nil, util.ErrPasswordMismatch
	}
	uid, _ := ctx.Params.UID()
	return protocol.NewReply(protocol.CmdGetUID, uid), nil
}

func handleSetBootPassword(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	if pkt.Len() != protocol.BootPasswordSize {
		return nil, util.ErrInvalidField
	}
	return nil, ctx.Params.SetBootPassword(pkt.Body)
}

func handleJumpToBootloader(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	stored, ok := ctx.Params.BootPassword()
	if !ok || pkt.Len() != protocol.BootPasswordSize {
		return nil, util.ErrNotApproved
	}
	candidate := make([]byte, pkt.Len())
	copy(candidate, pkt.Body)
	if !util.CompareFixedTime(stored, candidate, util.PasswordCheckDuration) {
		return nil, util.ErrPasswordMismatch
	}
	// the real device resets into its bootloader here and never replies;
	// the emulation acknowledges and keeps running
	ctx.Log.Warn("Bootloader jump requested")
	return nil, nil
}
