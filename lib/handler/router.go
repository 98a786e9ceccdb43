package handler

import (
	"github.com/BioHaZard1/mooltipass/lib/protocol"
)

// Router maps command identifiers to their handlers.
type Router struct {
	handlers map[byte]Func
}

// NewRouter creates a router with every command of the closed set
// registered.
func NewRouter() *Router {
	r := &Router{handlers: make(map[byte]Func)}

	// utility
	r.register(protocol.CmdPing, handlePing)
	r.register(protocol.CmdVersion, handleVersion)
	r.register(protocol.CmdGetRandom, handleGetRandom)
	r.register(protocol.CmdSetDate, handleSetDate)

	// credential contexts and fields
	r.register(protocol.CmdSetContext, handleSetContext)
	r.register(protocol.CmdSetDataContext, handleSetDataContext)
	r.register(protocol.CmdAddContext, handleAddContext)
	r.register(protocol.CmdAddDataContext, handleAddDataContext)
	r.register(protocol.CmdGetLogin, handleGetLogin)
	r.register(protocol.CmdGetPassword, handleGetPassword)
	r.register(protocol.CmdGetDescription, handleGetDescription)
	r.register(protocol.CmdSetLogin, handleSetLogin)
	r.register(protocol.CmdSetPassword, handleSetPassword)
	r.register(protocol.CmdCheckPassword, handleCheckPassword)
	r.register(protocol.CmdWriteDataBlock, handleWriteDataBlock)
	r.register(protocol.CmdReadDataBlock, handleReadDataBlock)

	// memory management
	r.register(protocol.CmdStartMemoryMgmt, handleStartMemoryMgmt)
	r.register(protocol.CmdEndMemoryMgmt, handleEndMemoryMgmt)
	r.register(protocol.CmdReadFlashNode, handleReadFlashNode)
	r.register(protocol.CmdWriteFlashNode, handleWriteFlashNode)
	r.register(protocol.CmdGetFreeSlots, handleGetFreeSlots)
	r.register(protocol.CmdGetFavorite, handleGetFavorite)
	r.register(protocol.CmdSetFavorite, handleSetFavorite)
	r.register(protocol.CmdGetStartingParent, handleGetStartingParent)
	r.register(protocol.CmdSetStartingParent, handleSetStartingParent)
	r.register(protocol.CmdGetDataStartingParent, handleGetDataStartingParent)
	r.register(protocol.CmdSetDataStartingParent, handleSetDataStartingParent)
	r.register(protocol.CmdGetCtrValue, handleGetCtrValue)
	r.register(protocol.CmdSetCtrValue, handleSetCtrValue)
	r.register(protocol.CmdAddCpzCtr, handleAddCpzCtr)
	r.register(protocol.CmdGetCpzCtr, handleGetCpzCtr)

	// media import
	r.register(protocol.CmdImportMediaStart, handleImportMediaStart)
	r.register(protocol.CmdImportMedia, handleImportMedia)
	r.register(protocol.CmdImportMediaEnd, handleImportMediaEnd)

	// device administration
	r.register(protocol.CmdSetParameter, handleSetParameter)
	r.register(protocol.CmdGetParameter, handleGetParameter)
	r.register(protocol.CmdSetUID, handleSetUID)
	r.register(protocol.CmdGetUID, handleGetUID)
	r.register(protocol.CmdSetBootPassword, handleSetBootPassword)
	r.register(protocol.CmdJumpToBootloader, handleJumpToBootloader)

	// smartcard application zone
	r.register(protocol.CmdReadCardLogin, handleReadCardLogin)
	r.register(protocol.CmdReadCardPassword, handleReadCardPassword)
	r.register(protocol.CmdSetCardLogin, handleSetCardLogin)
	r.register(protocol.CmdSetCardPassword, handleSetCardPassword)
	r.register(protocol.CmdGetCardCPZ, handleGetCardCPZ)

	return r
}

func (r *Router) register(cmd byte, h Func) {
	r.handlers[cmd] = h
}

// Lookup returns the handler for a command, or nil for an unknown one.
func (r *Router) Lookup(cmd byte) Func {
	return r.handlers[cmd]
}
