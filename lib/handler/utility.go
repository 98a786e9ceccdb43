package handler

import (
	"github.com/BioHaZard1/mooltipass/lib/protocol"
	"github.com/BioHaZard1/mooltipass/lib/util"
)

// flashChipMbit is reported in the first version byte, matching the
// 4Mbit part the node/page geometry belongs to.
const flashChipMbit = 4

func handlePing(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	// echo the body so the host can match concurrent pings
	return protocol.NewReply(protocol.CmdPing, pkt.Body), nil
}

func handleVersion(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	body := append([]byte{flashChipMbit}, protocol.TextBody(ctx.Version)...)
	if len(body) > protocol.MaxBody {
		body = body[:protocol.MaxBody]
		body[len(body)-1] = 0
	}
	return protocol.NewReply(protocol.CmdVersion, body), nil
}

func handleGetRandom(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	buf := make([]byte, protocol.DataBlockSize)
	if err := ctx.Rand.Fill(buf); err != nil {
		return nil, err
	}
	return protocol.NewReply(protocol.CmdGetRandom, buf), nil
}

func handleSetDate(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	date, err := pkt.Uint16At(0)
	if err != nil {
		return nil, util.ErrInvalidField
	}
	return nil, ctx.Params.SetDate(date)
}
