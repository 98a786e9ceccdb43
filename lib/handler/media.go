package handler

import (
	"github.com/BioHaZard1/mooltipass/lib/protocol"
	"github.com/BioHaZard1/mooltipass/lib/util"
)

// approveMediaImport runs the import authentication: the developer
// channel bypasses it, a provisioned update password must match in
// fixed time, and an unprovisioned device falls back to a user prompt.
func approveMediaImport(ctx *Context, pkt *protocol.Packet) error {
	if ctx.DevMode {
		return nil
	}
	stored, ok := ctx.Params.BootPassword()
	if !ok {
		if !ctx.UI.Confirm("Approve media import?") {
			return util.ErrUserDeclined
		}
		return nil
	}
	if pkt.Len() != protocol.BootPasswordSize {
		return util.ErrInvalidField
	}
	candidate := make([]byte, len(pkt.Body))
	copy(candidate, pkt.Body)
	if !util.CompareFixedTime(stored, candidate, util.PasswordCheckDuration) {
		return util.ErrPasswordMismatch
	}
	return nil
}

func handleImportMediaStart(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	if err := approveMediaImport(ctx, pkt); err != nil {
		return nil, err
	}
	return nil, ctx.Importer.Start()
}

func handleImportMedia(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	return nil, ctx.Importer.Write(pkt.Body)
}

func handleImportMediaEnd(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error) {
	return nil, ctx.Importer.End()
}
