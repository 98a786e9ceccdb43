package session

import (
	"errors"
	"sync"
)

// ErrNoCard is returned by card application-zone operations without a
// present card.
var ErrNoCard = errors.New("no card present")

// FakeAuth is an in-memory Authenticator for the emulation daemon and
// tests. Fields are plain so tests can drive card insertion/removal and
// PIN outcomes directly.
type FakeAuth struct {
	Present      bool
	IsUnlocked   bool
	PromptActive bool
	Unknown      bool
	UID          byte
	ReauthResult bool

	AppLogin    []byte
	AppPassword []byte
	CPZ         []byte
}

var _ Authenticator = (*FakeAuth)(nil)

func (a *FakeAuth) CardPresent() bool        { return a.Present }
func (a *FakeAuth) Unlocked() bool           { return a.IsUnlocked }
func (a *FakeAuth) UnlockPromptActive() bool { return a.PromptActive }
func (a *FakeAuth) UnknownCard() bool        { return a.Unknown }
func (a *FakeAuth) UserID() byte             { return a.UID }
func (a *FakeAuth) RequestReauth() bool      { return a.ReauthResult }

func (a *FakeAuth) CardLogin() ([]byte, error) {
	if !a.Present {
		return nil, ErrNoCard
	}
	return a.AppLogin, nil
}

func (a *FakeAuth) SetCardLogin(v []byte) error {
	if !a.Present {
		return ErrNoCard
	}
	a.AppLogin = append([]byte(nil), v...)
	return nil
}

func (a *FakeAuth) CardPassword() ([]byte, error) {
	if !a.Present {
		return nil, ErrNoCard
	}
	return a.AppPassword, nil
}

func (a *FakeAuth) SetCardPassword(v []byte) error {
	if !a.Present {
		return ErrNoCard
	}
	a.AppPassword = append([]byte(nil), v...)
	return nil
}

func (a *FakeAuth) CardCPZ() ([]byte, error) {
	if !a.Present {
		return nil, ErrNoCard
	}
	return a.CPZ, nil
}

// AutoConfirmUI accepts or rejects every prompt according to Accept.
// The daemon's developer mode runs with Accept set.
type AutoConfirmUI struct {
	Accept bool

	// Prompts records every prompt text, for test assertions.
	Prompts []string
}

var _ UI = (*AutoConfirmUI)(nil)

func (u *AutoConfirmUI) Confirm(prompt string) bool {
	u.Prompts = append(u.Prompts, prompt)
	return u.Accept
}

// MemParams is an in-memory ParamStore.
type MemParams struct {
	mu     sync.Mutex
	params map[byte]byte
	uid    []byte
	uidKey []byte
	bootPw []byte
	pwSet  bool
	date   uint16
}

var _ ParamStore = (*MemParams)(nil)

// NewMemParams creates an empty parameter store.
func NewMemParams() *MemParams {
	return &MemParams{params: make(map[byte]byte)}
}

func (p *MemParams) Param(id byte) (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params[id], nil
}

func (p *MemParams) SetParam(id, value byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.params[id] = value
	return nil
}

func (p *MemParams) SetUID(requestKey, uid []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.uidKey = append([]byte(nil), requestKey...)
	p.uid = append([]byte(nil), uid...)
	return nil
}

func (p *MemParams) UID() ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.uid == nil {
		return nil, false
	}
	return append([]byte(nil), p.uid...), true
}

func (p *MemParams) UIDRequestKey() ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.uidKey == nil {
		return nil, false
	}
	return append([]byte(nil), p.uidKey...), true
}

func (p *MemParams) SetBootPassword(pw []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pwSet {
		return errors.New("bootloader password already set")
	}
	p.bootPw = append([]byte(nil), pw...)
	p.pwSet = true
	return nil
}

func (p *MemParams) BootPassword() ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.pwSet {
		return nil, false
	}
	return append([]byte(nil), p.bootPw...), true
}

func (p *MemParams) SetDate(date uint16) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.date = date
	return nil
}

func (p *MemParams) Date() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.date
}
