package protocol

import (
	"bytes"
	"errors"
)

// Validator errors.
var (
	ErrEmptyText     = errors.New("empty text field")
	ErrTextTooLong   = errors.New("text field exceeds limit")
	ErrNotTerminated = errors.New("text field not NUL-terminated")
	ErrEmbeddedNUL   = errors.New("text field has embedded NUL")
	ErrNoTextField   = errors.New("command carries no text field")
)

// textLimits maps every text-carrying command to its maximum field size,
// terminator included. Commands absent from this table skip text validation.
var textLimits = map[byte]int{
	CmdSetContext:      MaxServiceLen,
	CmdAddContext:      MaxServiceLen,
	CmdSetDataContext:  MaxServiceLen,
	CmdAddDataContext:  MaxServiceLen,
	CmdSetLogin:        MaxLoginLen,
	CmdSetPassword:     MaxPasswordLen,
	CmdCheckPassword:   MaxPasswordLen,
	CmdSetCardLogin:    MaxCardLoginLen,
	CmdSetCardPassword: MaxCardPasswordLen,
}

// serviceCommands are the text commands whose field names a context; these
// are case-folded to lowercase so lookups are canonical.
var serviceCommands = map[byte]bool{
	CmdSetContext:     true,
	CmdAddContext:     true,
	CmdSetDataContext: true,
	CmdAddDataContext: true,
}

// HasTextField returns true if the command carries a validated text field.
func HasTextField(cmd byte) bool {
	_, ok := textLimits[cmd]
	return ok
}

// ValidateText checks a packet's text field against the protocol rules:
// the advertised length must be non-zero, within the command's limit,
// within the transport body maximum, and equal to the string length plus
// its NUL terminator. Service-type fields are lower-cased in place for
// canonical lookups. Returns the field without its terminator.
func ValidateText(pkt *Packet) ([]byte, error) {
	limit, ok := textLimits[pkt.Command]
	if !ok {
		return nil, ErrNoTextField
	}

	body := pkt.Body
	if len(body) == 0 {
		return nil, ErrEmptyText
	}
	if len(body) > limit || len(body) > MaxBody {
		return nil, ErrTextTooLong
	}

	// length must equal strlen(body)+1 exactly: terminated, no interior NULs
	idx := bytes.IndexByte(body, 0)
	if idx < 0 {
		return nil, ErrNotTerminated
	}
	if idx != len(body)-1 {
		return nil, ErrEmbeddedNUL
	}

	text := body[:idx]
	if serviceCommands[pkt.Command] {
		lowerCaseASCII(text)
	}
	return text, nil
}

// lowerCaseASCII folds A-Z to a-z in place. Non-ASCII bytes pass through
// untouched, matching the persisted canonical form.
func lowerCaseASCII(b []byte) {
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
}

// TextBody builds a protocol text field from a string: the bytes plus the
// NUL terminator. Helper for hosts and tests.
func TextBody(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}
