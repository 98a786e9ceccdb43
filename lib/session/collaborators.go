package session

import (
	"crypto/rand"
)

// Authenticator is the smartcard collaborator. It reports unlock state
// and card presence, runs the step-up re-authentication flow, and gives
// access to the card's application zone (a secondary credential slot on
// the card itself).
type Authenticator interface {
	CardPresent() bool
	Unlocked() bool
	UnlockPromptActive() bool
	UnknownCard() bool
	UserID() byte

	// RequestReauth runs a fresh PIN entry even on an unlocked card.
	// Blocking; returns false on wrong PIN or user abort.
	RequestReauth() bool

	CardLogin() ([]byte, error)
	SetCardLogin([]byte) error
	CardPassword() ([]byte, error)
	SetCardPassword([]byte) error

	// CardCPZ reads the card's code-protected zone.
	CardCPZ() ([]byte, error)
}

// UI is the display/input collaborator. Confirm blocks until the user
// accepts or rejects; prompt timeouts are the collaborator's concern.
type UI interface {
	Confirm(prompt string) bool
}

// ParamStore is the device parameter collaborator (EEPROM analog):
// byte-addressed settings, the device UID with its request key, the
// bootloader password, and the device date.
type ParamStore interface {
	Param(id byte) (byte, error)
	SetParam(id, value byte) error

	SetUID(requestKey []byte, uid []byte) error
	UID() (uid []byte, ok bool)
	UIDRequestKey() (key []byte, ok bool)

	// SetBootPassword stores the bootloader/update password. Fails once
	// set; the password is write-once by contract.
	SetBootPassword(pw []byte) error
	BootPassword() (pw []byte, ok bool)

	SetDate(date uint16) error
	Date() uint16
}

// Rand fills buffers with cryptographically strong random bytes.
type Rand interface {
	Fill(b []byte) error
}

// CryptoRand is the crypto/rand backed Rand.
type CryptoRand struct{}

// Fill implements Rand.
func (CryptoRand) Fill(b []byte) error {
	_, err := rand.Read(b)
	return err
}
