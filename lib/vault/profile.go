// Package vault implements the credential store on top of the node
// storage engine: context lookup and creation, login/password/description
// field access, free-form data chains, and the per-user profile records
// (favorites, starting parents, CTR value, card-binding table).
package vault

import (
	"fmt"
	"sync"

	"github.com/BioHaZard1/mooltipass/lib/util"
)

const (
	// FavoriteCount is the number of favorite slots per user profile.
	FavoriteCount = 14

	// MaxUsers bounds the user id space; the owner tag in the node flags
	// is four bits wide.
	MaxUsers = 16

	// CpzSize and CtrNonceSize are the smartcard code-protected-zone
	// value and its paired AES counter nonce.
	CpzSize      = 8
	CtrNonceSize = 16

	// CtrValueSize is the per-profile AES CTR value.
	CtrValueSize = 3
)

// Favorite maps a favorite slot to a (parent, child) node pair.
type Favorite struct {
	Parent uint16
	Child  uint16
}

// CpzEntry binds a smartcard code-protected-zone value to an AES counter
// nonce for one user.
type CpzEntry struct {
	UserID byte
	Cpz    [CpzSize]byte
	Nonce  [CtrNonceSize]byte
}

// ProfileStore holds the per-user records that live outside the node
// database on the real device.
type ProfileStore interface {
	StartingParent(uid byte) uint16
	SetStartingParent(uid byte, addr uint16) error
	DataStartingParent(uid byte) uint16
	SetDataStartingParent(uid byte, addr uint16) error

	Favorite(uid byte, slot int) (Favorite, error)
	SetFavorite(uid byte, slot int, fav Favorite) error

	CtrValue(uid byte) [CtrValueSize]byte
	SetCtrValue(uid byte, v [CtrValueSize]byte) error

	// AddCpzEntry appends a card binding for a user. AllCpzEntries
	// returns every binding across users, in insertion order.
	AddCpzEntry(e CpzEntry) error
	AllCpzEntries() []CpzEntry
}

type profile struct {
	startingParent     uint16
	dataStartingParent uint16
	favorites          [FavoriteCount]Favorite
	ctr                [CtrValueSize]byte
}

// MemProfileStore is an in-memory ProfileStore for the emulation daemon
// and tests.
type MemProfileStore struct {
	mu       sync.Mutex
	profiles map[byte]*profile
	cpz      []CpzEntry
}

var _ ProfileStore = (*MemProfileStore)(nil)

// NewMemProfileStore creates an empty profile store.
func NewMemProfileStore() *MemProfileStore {
	return &MemProfileStore{profiles: make(map[byte]*profile)}
}

func (s *MemProfileStore) profileFor(uid byte) *profile {
	p, ok := s.profiles[uid]
	if !ok {
		p = &profile{}
		s.profiles[uid] = p
	}
	return p
}

func (s *MemProfileStore) StartingParent(uid byte) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profileFor(uid).startingParent
}

func (s *MemProfileStore) SetStartingParent(uid byte, addr uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profileFor(uid).startingParent = addr
	return nil
}

func (s *MemProfileStore) DataStartingParent(uid byte) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profileFor(uid).dataStartingParent
}

func (s *MemProfileStore) SetDataStartingParent(uid byte, addr uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profileFor(uid).dataStartingParent = addr
	return nil
}

func (s *MemProfileStore) Favorite(uid byte, slot int) (Favorite, error) {
	if slot < 0 || slot >= FavoriteCount {
		return Favorite{}, fmt.Errorf("favorite slot %d: %w", slot, util.ErrInvalidField)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profileFor(uid).favorites[slot], nil
}

func (s *MemProfileStore) SetFavorite(uid byte, slot int, fav Favorite) error {
	if slot < 0 || slot >= FavoriteCount {
		return fmt.Errorf("favorite slot %d: %w", slot, util.ErrInvalidField)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profileFor(uid).favorites[slot] = fav
	return nil
}

func (s *MemProfileStore) CtrValue(uid byte) [CtrValueSize]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profileFor(uid).ctr
}

func (s *MemProfileStore) SetCtrValue(uid byte, v [CtrValueSize]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profileFor(uid).ctr = v
	return nil
}

func (s *MemProfileStore) AddCpzEntry(e CpzEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cpz) >= MaxUsers {
		return util.ErrNoFreeSlots
	}
	s.cpz = append(s.cpz, e)
	return nil
}

func (s *MemProfileStore) AllCpzEntries() []CpzEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CpzEntry, len(s.cpz))
	copy(out, s.cpz)
	return out
}
