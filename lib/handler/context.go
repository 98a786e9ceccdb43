// Package handler implements the command dispatcher: it decodes inbound
// packets, enforces session state per access class, routes to the owning
// component and encodes the reply. No component called from here calls
// back into the dispatcher.
package handler

import (
	"github.com/sirupsen/logrus"

	"github.com/BioHaZard1/mooltipass/lib/protocol"
	"github.com/BioHaZard1/mooltipass/lib/session"
	"github.com/BioHaZard1/mooltipass/lib/storage"
	"github.com/BioHaZard1/mooltipass/lib/vault"
)

// Context bundles the session, storage components and collaborators a
// handler may touch. One Context exists per device; the dispatcher owns
// it for the duration of each packet.
type Context struct {
	Session  *session.Session
	Store    *vault.Store
	Flash    storage.Flash
	Writer   *storage.NodeWriter
	Importer *storage.MediaImporter

	Auth   session.Authenticator
	UI     session.UI
	Params session.ParamStore
	Rand   session.Rand

	Log *logrus.Logger

	// Version is reported by the version command.
	Version string

	// DevMode skips the media-import approval flow, mirroring the
	// factory programming channel.
	DevMode bool

	// emit sends an extra reply ahead of the handler's final one; used
	// by streaming reads that span several packets.
	emit func(*protocol.Reply)
}

// Emit sends an intermediate reply packet. Handlers producing multi-
// packet output call this for every packet but the last.
func (c *Context) Emit(r *protocol.Reply) {
	if c.emit != nil {
		c.emit(r)
	}
}

// Func is a command handler. A non-nil reply is sent as-is; a nil reply
// with nil error produces the generic OK trailer; an error produces the
// matching error trailer.
type Func func(ctx *Context, pkt *protocol.Packet) (*protocol.Reply, error)
