package vault

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/BioHaZard1/mooltipass/lib/storage"
	"github.com/BioHaZard1/mooltipass/lib/util"
)

// contextCacheSize bounds the service-name lookup cache. Context
// switches dominate host traffic, so even a small cache removes most
// parent-chain walks.
const contextCacheSize = 64

// ContextKind selects which parent chain a context lives on.
type ContextKind int

const (
	// KindCredential is a login+password service context.
	KindCredential ContextKind = iota
	// KindData is a free-form data context.
	KindData
)

// Store is the credential database. It owns context lookup and node
// allocation; raw per-address access stays with the caller, which is
// responsible for the permission gate.
type Store struct {
	flash    storage.Flash
	profiles ProfileStore
	cache    *lru.Cache[string, uint16]
}

// NewStore creates a Store over the given flash and profile store.
func NewStore(flash storage.Flash, profiles ProfileStore) (*Store, error) {
	cache, err := lru.New[string, uint16](contextCacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{flash: flash, profiles: profiles, cache: cache}, nil
}

// Profiles exposes the per-user profile records.
func (s *Store) Profiles() ProfileStore {
	return s.profiles
}

// InvalidateCache drops every cached context lookup. Called when leaving
// memory management mode, where raw writes may have rewired the parent
// chains behind the cache's back.
func (s *Store) InvalidateCache() {
	s.cache.Purge()
}

func cacheKey(uid byte, kind ContextKind, service string) string {
	return fmt.Sprintf("%d/%d/%s", uid, kind, service)
}

func (s *Store) startingParent(uid byte, kind ContextKind) uint16 {
	if kind == KindData {
		return s.profiles.DataStartingParent(uid)
	}
	return s.profiles.StartingParent(uid)
}

func (s *Store) setStartingParent(uid byte, kind ContextKind, addr uint16) error {
	if kind == KindData {
		return s.profiles.SetDataStartingParent(uid, addr)
	}
	return s.profiles.SetStartingParent(uid, addr)
}

// FindContext resolves a service name to its parent node address on the
// user's chain for the given kind. Returns util.ErrNotFound when no
// parent carries the name.
func (s *Store) FindContext(uid byte, kind ContextKind, service string) (uint16, error) {
	key := cacheKey(uid, kind, service)
	if addr, ok := s.cache.Get(key); ok {
		return addr, nil
	}

	addr := s.startingParent(uid, kind)
	for addr != storage.NodeAddrNull {
		node, err := s.flash.ReadNode(addr)
		if err != nil {
			return storage.NodeAddrNull, err
		}
		if node.Owner() == uid && node.Service() == service {
			s.cache.Add(key, addr)
			return addr, nil
		}
		addr = node.NextParent()
	}
	return storage.NodeAddrNull, fmt.Errorf("context %q: %w", service, util.ErrNotFound)
}

// AddContext creates a parent node for a new service name and links it
// into the user's chain, which is kept sorted by service name. Adding a
// name that already exists just returns the existing parent.
func (s *Store) AddContext(uid byte, kind ContextKind, service string) (uint16, error) {
	if addr, err := s.FindContext(uid, kind, service); err == nil {
		return addr, nil
	}

	addr, err := s.allocateSlot()
	if err != nil {
		return storage.NodeAddrNull, err
	}

	node := storage.NewNode(storage.NodeTypeParent, uid)
	node.SetService(service)

	// find the insertion point on the sorted chain
	var prevAddr uint16 = storage.NodeAddrNull
	nextAddr := s.startingParent(uid, kind)
	for nextAddr != storage.NodeAddrNull {
		next, err := s.flash.ReadNode(nextAddr)
		if err != nil {
			return storage.NodeAddrNull, err
		}
		if next.Service() > service {
			break
		}
		prevAddr = nextAddr
		nextAddr = next.NextParent()
	}

	node.SetPrevParent(prevAddr)
	node.SetNextParent(nextAddr)
	if err := s.flash.WriteNode(addr, node); err != nil {
		return storage.NodeAddrNull, err
	}

	if prevAddr == storage.NodeAddrNull {
		if err := s.setStartingParent(uid, kind, addr); err != nil {
			return storage.NodeAddrNull, err
		}
	} else if err := s.relink(prevAddr, func(n storage.Node) { n.SetNextParent(addr) }); err != nil {
		return storage.NodeAddrNull, err
	}
	if nextAddr != storage.NodeAddrNull {
		if err := s.relink(nextAddr, func(n storage.Node) { n.SetPrevParent(addr) }); err != nil {
			return storage.NodeAddrNull, err
		}
	}

	s.cache.Add(cacheKey(uid, kind, service), addr)
	return addr, nil
}

// relink applies a link mutation to a stored node and writes it back.
func (s *Store) relink(addr uint16, mutate func(storage.Node)) error {
	node, err := s.flash.ReadNode(addr)
	if err != nil {
		return err
	}
	mutate(node)
	return s.flash.WriteNode(addr, node)
}

// allocateSlot returns the first free node slot.
func (s *Store) allocateSlot() (uint16, error) {
	slots := s.flash.FindFreeSlots(1, 0, 0)
	if len(slots) == 0 {
		return storage.NodeAddrNull, util.ErrNoFreeSlots
	}
	return slots[0], nil
}

// ReadNode reads a node after verifying it belongs to uid. The owner
// check runs before any field is interpreted.
func (s *Store) ReadNode(addr uint16, uid byte) (storage.Node, error) {
	node, err := s.flash.ReadNode(addr)
	if err != nil {
		return nil, err
	}
	if !node.InUse() || node.Owner() != uid {
		return nil, util.NewStorageError(addr, "read node", util.ErrPermission)
	}
	return node, nil
}

// CheckOwner reports whether uid may stream a write to addr: the slot is
// either free or already owned by uid. A failed check has no side
// effects.
func (s *Store) CheckOwner(addr uint16, uid byte) error {
	node, err := s.flash.ReadNode(addr)
	if err != nil {
		return err
	}
	if !node.Free() && node.Owner() != uid {
		return util.NewStorageError(addr, "write node", util.ErrPermission)
	}
	return nil
}
