// Package session tracks the authentication and mode state every
// command check consults, plus the interfaces of the external
// collaborators (smartcard authentication, user confirmation, device
// parameters, randomness).
package session

import (
	"github.com/BioHaZard1/mooltipass/lib/storage"
	"github.com/BioHaZard1/mooltipass/lib/vault"
)

// State is the session's authentication level.
type State int

const (
	// Locked means no authenticated user.
	Locked State = iota
	// Unlocked means a card+PIN authenticated user is present.
	Unlocked
	// MemoryManagement is the elevated state permitting raw node access.
	MemoryManagement
)

func (s State) String() string {
	switch s {
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	case MemoryManagement:
		return "memory-management"
	default:
		return "invalid"
	}
}

// Session holds all per-connection command state. A single Session
// exists per device; the dispatcher owns it and is its only mutator.
type Session struct {
	State  State
	UserID byte

	// selected credential context
	ContextValid bool
	ContextKind  vault.ContextKind
	ParentAddr   uint16
	ChildAddr    uint16

	// sequential data-chain read position
	DataCursor vault.DataCursor
}

// New returns a locked session.
func New() *Session {
	return &Session{State: Locked}
}

// Unlock records a successful card+PIN authentication.
func (s *Session) Unlock(uid byte) {
	s.State = Unlocked
	s.UserID = uid
}

// SetContext caches a selected context and clears any child selection
// and data cursor belonging to the previous one.
func (s *Session) SetContext(kind vault.ContextKind, parentAddr uint16) {
	s.ContextValid = true
	s.ContextKind = kind
	s.ParentAddr = parentAddr
	s.ChildAddr = storage.NodeAddrNull
	s.DataCursor.Reset()
}

// ClearContext drops the selected context.
func (s *Session) ClearContext() {
	s.ContextValid = false
	s.ParentAddr = storage.NodeAddrNull
	s.ChildAddr = storage.NodeAddrNull
	s.DataCursor.Reset()
}

// EnterMemoryMgmt records an approved transition to memory management.
func (s *Session) EnterMemoryMgmt() {
	s.State = MemoryManagement
	s.ClearContext()
}

// LeaveMemoryMgmt returns to the unlocked state.
func (s *Session) LeaveMemoryMgmt() {
	if s.State == MemoryManagement {
		s.State = Unlocked
	}
}

// MemoryMgmtApproved reports whether raw node access is permitted.
func (s *Session) MemoryMgmtApproved() bool {
	return s.State == MemoryManagement
}

// CardRemoved handles the external card-removal notification: the
// session drops to Locked and every approval and selection is cleared.
func (s *Session) CardRemoved() {
	s.State = Locked
	s.UserID = 0
	s.ClearContext()
}
