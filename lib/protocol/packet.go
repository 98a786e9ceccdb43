package protocol

import (
	"errors"
	"fmt"
)

// Packet decode errors.
var (
	ErrPacketTooShort  = errors.New("packet shorter than header")
	ErrPacketOversized = errors.New("packet exceeds transport maximum")
	ErrLengthMismatch  = errors.New("advertised length exceeds packet body")
	ErrBodyTooLarge    = errors.New("advertised length exceeds body maximum")
)

// Packet is one decoded host request. Never persisted; its lifetime is a
// single dispatch call. Body holds exactly the advertised payload.
type Packet struct {
	Command byte
	Body    []byte
}

// Len returns the advertised payload length.
func (p *Packet) Len() int {
	return len(p.Body)
}

// Decode parses a raw transport frame into a Packet with every field
// bounds-checked before it is read. The frame layout is
// [command: 1][length: 1][body: length bytes]; trailing frame padding past
// the advertised length is ignored.
func Decode(raw []byte) (*Packet, error) {
	if len(raw) < HeaderSize {
		return nil, ErrPacketTooShort
	}
	if len(raw) > PacketMaxSize {
		return nil, ErrPacketOversized
	}

	length := int(raw[1])
	if length > MaxBody {
		return nil, ErrBodyTooLarge
	}
	if length > len(raw)-HeaderSize {
		return nil, ErrLengthMismatch
	}

	// Copy the body so the packet does not alias the transport buffer.
	body := make([]byte, length)
	copy(body, raw[HeaderSize:HeaderSize+length])

	return &Packet{Command: raw[0], Body: body}, nil
}

// Uint16At reads a little-endian u16 at the given body offset.
// Returns an error instead of slicing past the body.
func (p *Packet) Uint16At(offset int) (uint16, error) {
	if offset < 0 || offset+2 > len(p.Body) {
		return 0, fmt.Errorf("u16 at offset %d: %w", offset, ErrLengthMismatch)
	}
	return uint16(p.Body[offset]) | uint16(p.Body[offset+1])<<8, nil
}

// String returns a short description for logging. Body bytes are never
// printed: they may hold plaintext credentials.
func (p *Packet) String() string {
	return fmt.Sprintf("%s len=%d", CommandName(p.Command), len(p.Body))
}
