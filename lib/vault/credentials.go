package vault

import (
	"fmt"

	"github.com/BioHaZard1/mooltipass/lib/storage"
	"github.com/BioHaZard1/mooltipass/lib/util"
)

// FirstChild returns the first child under a parent, or util.ErrNotFound
// for a childless context.
func (s *Store) FirstChild(parentAddr uint16) (uint16, error) {
	parent, err := s.flash.ReadNode(parentAddr)
	if err != nil {
		return storage.NodeAddrNull, err
	}
	child := parent.FirstChild()
	if child == storage.NodeAddrNull {
		return storage.NodeAddrNull, util.ErrNotFound
	}
	return child, nil
}

// Login returns the login of a child credential.
func (s *Store) Login(childAddr uint16, uid byte) (string, error) {
	node, err := s.ReadNode(childAddr, uid)
	if err != nil {
		return "", err
	}
	return node.Login(), nil
}

// Password returns a copy of the stored password of a child credential.
// The caller wipes the copy once sent.
func (s *Store) Password(childAddr uint16, uid byte) ([]byte, error) {
	node, err := s.ReadNode(childAddr, uid)
	if err != nil {
		return nil, err
	}
	return node.Password(), nil
}

// Description returns the description of a child credential.
func (s *Store) Description(childAddr uint16, uid byte) (string, error) {
	node, err := s.ReadNode(childAddr, uid)
	if err != nil {
		return "", err
	}
	return node.Description(), nil
}

// SetLogin selects the child carrying the given login under parentAddr,
// creating one when absent. The child chain stays sorted by login.
// Returns the selected child's address.
func (s *Store) SetLogin(parentAddr uint16, uid byte, login string) (uint16, error) {
	parent, err := s.ReadNode(parentAddr, uid)
	if err != nil {
		return storage.NodeAddrNull, err
	}

	var prevAddr uint16 = storage.NodeAddrNull
	nextAddr := parent.FirstChild()
	for nextAddr != storage.NodeAddrNull {
		next, err := s.flash.ReadNode(nextAddr)
		if err != nil {
			return storage.NodeAddrNull, err
		}
		if next.Login() == login {
			return nextAddr, nil
		}
		if next.Login() > login {
			break
		}
		prevAddr = nextAddr
		nextAddr = next.NextChild()
	}

	addr, err := s.allocateSlot()
	if err != nil {
		return storage.NodeAddrNull, err
	}

	child := storage.NewNode(storage.NodeTypeChild, uid)
	child.SetLogin(login)
	ctr := s.profiles.CtrValue(uid)
	child.SetCtr(ctr[:])
	child.SetPrevChild(prevAddr)
	child.SetNextChild(nextAddr)
	if err := s.flash.WriteNode(addr, child); err != nil {
		return storage.NodeAddrNull, err
	}

	if prevAddr == storage.NodeAddrNull {
		if err := s.relink(parentAddr, func(n storage.Node) { n.SetFirstChild(addr) }); err != nil {
			return storage.NodeAddrNull, err
		}
	} else if err := s.relink(prevAddr, func(n storage.Node) { n.SetNextChild(addr) }); err != nil {
		return storage.NodeAddrNull, err
	}
	if nextAddr != storage.NodeAddrNull {
		if err := s.relink(nextAddr, func(n storage.Node) { n.SetPrevChild(addr) }); err != nil {
			return storage.NodeAddrNull, err
		}
	}
	return addr, nil
}

// SetPassword stores a password on the selected child credential.
func (s *Store) SetPassword(childAddr uint16, uid byte, password []byte) error {
	node, err := s.ReadNode(childAddr, uid)
	if err != nil {
		return err
	}
	node.SetPassword(password)
	return s.flash.WriteNode(childAddr, node)
}

// CheckPassword compares a candidate against the stored password. The
// comparison always takes util.PasswordCheckDuration and the candidate
// buffer is wiped in every path.
func (s *Store) CheckPassword(childAddr uint16, uid byte, candidate []byte) (bool, error) {
	node, err := s.ReadNode(childAddr, uid)
	if err != nil {
		util.Wipe(candidate)
		return false, err
	}
	stored := node.Password()
	padded := make([]byte, len(stored))
	copy(padded, candidate)

	match := util.CompareFixedTime(stored, padded, util.PasswordCheckDuration)
	util.Wipe(candidate)
	util.Wipe(stored)
	if !match {
		return false, fmt.Errorf("child 0x%04x: %w", childAddr, util.ErrPasswordMismatch)
	}
	return true, nil
}
