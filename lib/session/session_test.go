package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BioHaZard1/mooltipass/lib/storage"
	"github.com/BioHaZard1/mooltipass/lib/vault"
)

func TestSessionLifecycle(t *testing.T) {
	s := New()
	assert.Equal(t, Locked, s.State)
	assert.False(t, s.MemoryMgmtApproved())

	s.Unlock(3)
	assert.Equal(t, Unlocked, s.State)
	assert.Equal(t, byte(3), s.UserID)

	s.EnterMemoryMgmt()
	assert.True(t, s.MemoryMgmtApproved())

	s.LeaveMemoryMgmt()
	assert.Equal(t, Unlocked, s.State)

	s.LeaveMemoryMgmt()
	assert.Equal(t, Unlocked, s.State, "leaving twice is harmless")
}

func TestSetContextClearsSelection(t *testing.T) {
	s := New()
	s.Unlock(1)

	s.SetContext(vault.KindCredential, 0x0010)
	s.ChildAddr = 0x0011
	s.DataCursor.NodeAddr = 0x0012

	s.SetContext(vault.KindData, 0x0020)
	assert.True(t, s.ContextValid)
	assert.Equal(t, uint16(0x0020), s.ParentAddr)
	assert.Equal(t, storage.NodeAddrNull, s.ChildAddr)
	assert.Equal(t, storage.NodeAddrNull, s.DataCursor.NodeAddr)
}

func TestCardRemovedForcesLocked(t *testing.T) {
	s := New()
	s.Unlock(2)
	s.EnterMemoryMgmt()
	s.SetContext(vault.KindCredential, 0x0010)

	s.CardRemoved()

	assert.Equal(t, Locked, s.State)
	assert.Zero(t, s.UserID)
	assert.False(t, s.ContextValid)
	assert.False(t, s.MemoryMgmtApproved())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "locked", Locked.String())
	assert.Equal(t, "unlocked", Unlocked.String())
	assert.Equal(t, "memory-management", MemoryManagement.String())
}

func TestMemParams(t *testing.T) {
	p := NewMemParams()

	v, err := p.Param(7)
	assert.NoError(t, err)
	assert.Zero(t, v)
	assert.NoError(t, p.SetParam(7, 0x42))
	v, _ = p.Param(7)
	assert.Equal(t, byte(0x42), v)

	_, ok := p.UID()
	assert.False(t, ok)
	assert.NoError(t, p.SetUID([]byte("0123456789abcdef"), []byte("uidval")))
	uid, ok := p.UID()
	assert.True(t, ok)
	assert.Equal(t, []byte("uidval"), uid)
	key, ok := p.UIDRequestKey()
	assert.True(t, ok)
	assert.Equal(t, []byte("0123456789abcdef"), key)

	assert.NoError(t, p.SetBootPassword([]byte("update-pw")))
	assert.Error(t, p.SetBootPassword([]byte("second")), "bootloader password is write once")
	pw, ok := p.BootPassword()
	assert.True(t, ok)
	assert.Equal(t, []byte("update-pw"), pw)
}

func TestFakeAuthCardGating(t *testing.T) {
	a := &FakeAuth{}

	_, err := a.CardLogin()
	assert.ErrorIs(t, err, ErrNoCard)
	assert.ErrorIs(t, a.SetCardPassword([]byte("x")), ErrNoCard)

	a.Present = true
	assert.NoError(t, a.SetCardLogin([]byte("alice")))
	login, err := a.CardLogin()
	assert.NoError(t, err)
	assert.Equal(t, []byte("alice"), login)

	a.UID = 5
	assert.Equal(t, byte(5), a.UserID(), "session unlock reads the id through the interface")
}

func TestCryptoRand(t *testing.T) {
	var r CryptoRand
	b := make([]byte, 32)
	assert.NoError(t, r.Fill(b))
	assert.NotEqual(t, make([]byte, 32), b)
}
