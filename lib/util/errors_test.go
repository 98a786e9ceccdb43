package util

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageErrorUnwraps(t *testing.T) {
	err := NewStorageError(0x002B, "write node", ErrPermission)

	assert.ErrorIs(t, err, ErrPermission)
	assert.Contains(t, err.Error(), "0x002b")
	assert.Contains(t, err.Error(), "write node")

	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, uint16(0x002B), se.Address)
}

func TestCommandErrorUnwraps(t *testing.T) {
	err := NewCommandError(0x31, "command failed", ErrStorageBounds)

	assert.ErrorIs(t, err, ErrStorageBounds)
	assert.Contains(t, err.Error(), "0x31")

	var ce *CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, byte(0x31), ce.Command)

	bare := NewCommandError(0x05, "no child selected", nil)
	assert.Contains(t, bare.Error(), "no child selected")
	assert.Nil(t, errors.Unwrap(bare))
}

func TestIsAuthorization(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"not unlocked", ErrNotUnlocked, true},
		{"not approved", ErrNotApproved, true},
		{"owner mismatch", ErrPermission, true},
		{"wrapped owner mismatch", NewStorageError(1, "read", ErrPermission), true},
		{"not found", ErrNotFound, false},
		{"bounds", ErrStorageBounds, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAuthorization(tt.err))
		})
	}
}

func TestToStatusByte(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want byte
	}{
		{"nil is ok", nil, StatusOK},
		{"locked maps to no-card", ErrNotUnlocked, StatusNoCard},
		{"wrapped locked maps to no-card", NewCommandError(0x05, "refused", ErrNotUnlocked), StatusNoCard},
		{"no context maps to not-applicable", ErrNoContext, StatusNA},
		{"permission maps to error", ErrPermission, StatusError},
		{"anything else maps to error", errors.New("boom"), StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToStatusByte(tt.err))
		})
	}
}

func TestCompareFixedTime(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}

	secret := []byte("update-pw")
	candidate := []byte("update-pw")

	start := time.Now()
	match := CompareFixedTime(secret, candidate, 100*time.Millisecond)
	elapsed := time.Since(start)

	assert.True(t, match)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Equal(t, make([]byte, len(candidate)), candidate, "candidate is wiped")

	miss := []byte("wrong")
	assert.False(t, CompareFixedTime(secret, miss, time.Millisecond))
	assert.Equal(t, make([]byte, len(miss)), miss)
}

func TestWipe(t *testing.T) {
	b := []byte{1, 2, 3}
	Wipe(b)
	assert.Equal(t, []byte{0, 0, 0}, b)
}
