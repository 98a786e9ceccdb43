package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     []byte
		wantCmd byte
		wantLen int
		wantErr error
	}{
		{
			name:    "minimal packet",
			raw:     []byte{CmdPing, 0},
			wantCmd: CmdPing,
			wantLen: 0,
		},
		{
			name:    "body with exact length",
			raw:     []byte{CmdSetLogin, 3, 'a', 'b', 0},
			wantCmd: CmdSetLogin,
			wantLen: 3,
		},
		{
			name:    "padded frame ignores trailing bytes",
			raw:     append([]byte{CmdGetLogin, 1, 0x42}, make([]byte, 30)...),
			wantCmd: CmdGetLogin,
			wantLen: 1,
		},
		{
			name:    "single byte",
			raw:     []byte{CmdPing},
			wantErr: ErrPacketTooShort,
		},
		{
			name:    "empty frame",
			raw:     nil,
			wantErr: ErrPacketTooShort,
		},
		{
			name:    "frame larger than transport maximum",
			raw:     make([]byte, PacketMaxSize+1),
			wantErr: ErrPacketOversized,
		},
		{
			name:    "length past end of frame",
			raw:     []byte{CmdSetLogin, 10, 'a'},
			wantErr: ErrLengthMismatch,
		},
		{
			name:    "length above body maximum",
			raw:     append([]byte{CmdSetLogin, MaxBody + 1}, make([]byte, MaxBody)...),
			wantErr: ErrBodyTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkt, err := Decode(tt.raw)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, pkt)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCmd, pkt.Command)
			assert.Equal(t, tt.wantLen, pkt.Len())
		})
	}
}

func TestDecode_CopiesBody(t *testing.T) {
	raw := []byte{CmdSetLogin, 2, 'h', 0}
	pkt, err := Decode(raw)
	require.NoError(t, err)

	raw[2] = 'X'
	assert.Equal(t, byte('h'), pkt.Body[0], "packet must not alias the transport buffer")
}

func TestPacket_Uint16At(t *testing.T) {
	pkt := &Packet{Command: CmdReadFlashNode, Body: []byte{0x34, 0x12, 0xFF}}

	v, err := pkt.Uint16At(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), v)

	_, err = pkt.Uint16At(2)
	assert.Error(t, err)

	_, err = pkt.Uint16At(-1)
	assert.Error(t, err)
}

func TestReply_Encode(t *testing.T) {
	r := NewReply(CmdGetLogin, []byte("alice\x00"))
	out := r.Encode()

	require.Len(t, out, HeaderSize+6)
	assert.Equal(t, CmdGetLogin, out[0])
	assert.Equal(t, byte(6), out[1])
	assert.Equal(t, []byte("alice\x00"), out[HeaderSize:])
}

func TestNewReply_CopiesBody(t *testing.T) {
	body := []byte{1, 2, 3}
	r := NewReply(CmdGetRandom, body)
	body[0] = 9
	assert.Equal(t, byte(1), r.Body[0])
}

func TestAck(t *testing.T) {
	r := Ack(CmdSetLogin, 0x01)
	assert.Equal(t, CmdSetLogin, r.Command)
	assert.Equal(t, []byte{0x01}, r.Body)
}
