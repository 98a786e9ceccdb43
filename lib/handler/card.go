package handler

import (
	"github.com/BioHaZard1/mooltipass/lib/protocol"
	"github.com/BioHaZard1/mooltipass/lib/util"
)

// The smartcard application zone holds one standalone credential on the
// card itself, readable only after user confirmation.

func handleReadCardLogin(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	if !ctx.UI.Confirm("Send card login?") {
		return nil, util.ErrUserDeclined
	}
	login, err := ctx.Auth.CardLogin()
	if err != nil {
		return nil, err
	}
	return protocol.NewReply(protocol.CmdReadCardLogin, protocol.TextBody(string(login))), nil
}

func handleReadCardPassword(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	if !ctx.UI.Confirm("Send card password?") {
		return nil, util.ErrUserDeclined
	}
	pw, err := ctx.Auth.CardPassword()
	if err != nil {
		return nil, err
	}
	body := protocol.TextBody(string(pw))
	reply := protocol.NewReply(protocol.CmdReadCardPassword, body)
	util.Wipe(body)
	return reply, nil
}

func handleSetCardLogin(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	if !ctx.UI.Confirm("Change card login?") {
		return nil, util.ErrUserDeclined
	}
	return nil, ctx.Auth.SetCardLogin(textField(pkt))
}

func handleSetCardPassword(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	if !ctx.UI.Confirm("Change card password?") {
		return nil, util.ErrUserDeclined
	}
	return nil, ctx.Auth.SetCardPassword(textField(pkt))
}

func handleGetCardCPZ(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	cpz, err := ctx.Auth.CardCPZ()
	if err != nil {
		return nil, err
	}
	return protocol.NewReply(protocol.CmdGetCardCPZ, cpz), nil
}
