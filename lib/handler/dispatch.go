package handler

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/BioHaZard1/mooltipass/lib/protocol"
	"github.com/BioHaZard1/mooltipass/lib/session"
	"github.com/BioHaZard1/mooltipass/lib/util"
)

// Dispatcher runs the per-packet pipeline: decode, status probe, text
// validation, access class gate, route, generic trailer. Run to
// completion: one packet is fully handled before the next is read.
type Dispatcher struct {
	ctx    *Context
	router *Router
}

// NewDispatcher wires a dispatcher over the given context.
func NewDispatcher(ctx *Context) *Dispatcher {
	return &Dispatcher{ctx: ctx, router: NewRouter()}
}

// Dispatch handles one raw packet. The returned slice holds zero or
// more reply packets in send order: zero for silent drops (malformed
// frames, unknown commands, cancel), more than one for streamed reads.
func (d *Dispatcher) Dispatch(raw []byte) []*protocol.Reply {
	ctx := d.ctx

	pkt, err := protocol.Decode(raw)
	if err != nil {
		// the command byte cannot be trusted for a reply tag
		ctx.Log.WithError(fmt.Errorf("%w: %v", util.ErrMalformedPacket, err)).
			Debug("Dropping malformed packet")
		return nil
	}

	d.syncCardState()

	log := ctx.Log.WithFields(logrus.Fields{
		"command": protocol.CommandName(pkt.Command),
		"state":   ctx.Session.State,
	})

	if pkt.Command == protocol.CmdStatus {
		return []*protocol.Reply{d.statusReply()}
	}
	if pkt.Command == protocol.CmdCancel {
		// never acknowledged: an ack could race a freshly issued command
		log.Debug("Cancel received")
		return nil
	}
	if !protocol.Known(pkt.Command) {
		log.Debug("Dropping unknown command")
		return nil
	}

	if protocol.HasTextField(pkt.Command) {
		if _, err := protocol.ValidateText(pkt); err != nil {
			log.WithError(err).Debug("Text field rejected")
			return []*protocol.Reply{protocol.Ack(pkt.Command, util.StatusError)}
		}
	}

	if err := d.checkClass(pkt.Command); err != nil {
		log.WithError(err).Debug("Access class check failed")
		return []*protocol.Reply{protocol.Ack(pkt.Command, util.ToStatusByte(err))}
	}

	var extra []*protocol.Reply
	ctx.emit = func(r *protocol.Reply) { extra = append(extra, r) }
	reply, err := d.router.Lookup(pkt.Command)(ctx, pkt)
	ctx.emit = nil

	switch {
	case err != nil:
		cmdErr := util.NewCommandError(pkt.Command, "command failed", err)
		if util.IsAuthorization(err) {
			log.WithError(cmdErr).Debug("Command refused")
		} else {
			log.WithError(cmdErr).Debug("Command failed")
		}
		reply = protocol.Ack(pkt.Command, util.ToStatusByte(err))
	case reply == nil:
		reply = protocol.Ack(pkt.Command, util.StatusOK)
	}
	return append(extra, reply)
}

// syncCardState applies a card-removal notification before any check
// runs: the session locks and both streaming writers drop their state.
func (d *Dispatcher) syncCardState() {
	ctx := d.ctx
	if ctx.Session.State != session.Locked && !ctx.Auth.CardPresent() {
		ctx.Log.Info("Card removed, locking session")
		ctx.Session.CardRemoved()
		ctx.Writer.Abandon()
		ctx.Importer.Abort()
	}
}

// checkClass enforces the command's access class before any handler side
// effect.
func (d *Dispatcher) checkClass(cmd byte) error {
	s := d.ctx.Session
	switch protocol.Class(cmd) {
	case protocol.ClassUnlocked:
		if s.State == session.Locked {
			return util.ErrNotUnlocked
		}
	case protocol.ClassMemoryMgmt:
		if !s.MemoryMgmtApproved() {
			return util.ErrNotApproved
		}
	}
	return nil
}

// statusReply builds the host-pollable status byte. Bypasses every other
// check so the host can poll while locked.
func (d *Dispatcher) statusReply() *protocol.Reply {
	var status byte
	auth := d.ctx.Auth
	if auth.CardPresent() {
		status |= protocol.StatusBitCardPresent
	}
	if auth.UnlockPromptActive() {
		status |= protocol.StatusBitUnlockPrompt
	}
	if auth.Unlocked() {
		status |= protocol.StatusBitCardUnlocked
	}
	if auth.UnknownCard() {
		status |= protocol.StatusBitUnknownCard
	}
	return protocol.NewReply(protocol.CmdStatus, []byte{status})
}
