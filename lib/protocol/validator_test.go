package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateText(t *testing.T) {
	tests := []struct {
		name     string
		cmd      byte
		body     []byte
		wantText string
		wantErr  error
	}{
		{
			name:     "valid login",
			cmd:      CmdSetLogin,
			body:     TextBody("alice"),
			wantText: "alice",
		},
		{
			name:     "service is lower-cased",
			cmd:      CmdSetContext,
			body:     TextBody("Example.COM"),
			wantText: "example.com",
		},
		{
			name:     "login case is preserved",
			cmd:      CmdSetLogin,
			body:     TextBody("Alice"),
			wantText: "Alice",
		},
		{
			name:    "empty body",
			cmd:     CmdSetLogin,
			body:    nil,
			wantErr: ErrEmptyText,
		},
		{
			name:    "missing terminator",
			cmd:     CmdSetLogin,
			body:    []byte("alice"),
			wantErr: ErrNotTerminated,
		},
		{
			name:    "embedded NUL",
			cmd:     CmdSetLogin,
			body:    []byte("ali\x00ce\x00"),
			wantErr: ErrEmbeddedNUL,
		},
		{
			name:    "over command limit",
			cmd:     CmdSetPassword,
			body:    TextBody(strings.Repeat("x", MaxPasswordLen)),
			wantErr: ErrTextTooLong,
		},
		{
			name:    "not a text command",
			cmd:     CmdPing,
			body:    TextBody("hi"),
			wantErr: ErrNoTextField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := ValidateText(&Packet{Command: tt.cmd, Body: tt.body})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, string(text))
		})
	}
}

func TestValidateText_MaxLengthAccepted(t *testing.T) {
	// limit includes the terminator, so limit-1 characters fit exactly
	body := TextBody(strings.Repeat("p", MaxPasswordLen-1))
	_, err := ValidateText(&Packet{Command: CmdCheckPassword, Body: body})
	assert.NoError(t, err)
}

func TestClass(t *testing.T) {
	tests := []struct {
		name string
		cmd  byte
		want AccessClass
	}{
		{"ping is public", CmdPing, ClassPublic},
		{"status is public", CmdStatus, ClassPublic},
		{"cancel is public", CmdCancel, ClassPublic},
		{"set context requires unlock", CmdSetContext, ClassUnlocked},
		{"get login requires unlock", CmdGetLogin, ClassUnlocked},
		{"read node requires memory mgmt", CmdReadFlashNode, ClassMemoryMgmt},
		{"write node requires memory mgmt", CmdWriteFlashNode, ClassMemoryMgmt},
		{"free slots requires memory mgmt", CmdGetFreeSlots, ClassMemoryMgmt},
		{"end memory mgmt requires memory mgmt", CmdEndMemoryMgmt, ClassMemoryMgmt},
		{"start memory mgmt is public", CmdStartMemoryMgmt, ClassPublic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Class(tt.cmd))
		})
	}
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, "PING", CommandName(CmdPing))
	assert.Equal(t, "WRITE_FLASH_NODE", CommandName(CmdWriteFlashNode))
	assert.Equal(t, "UNKNOWN", CommandName(0xFE))
	assert.True(t, Known(CmdCancel))
	assert.False(t, Known(0xFE))
}
