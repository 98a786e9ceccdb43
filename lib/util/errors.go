// Package util provides common utilities for the vault firmware core.
// This includes the error taxonomy shared by the dispatcher, the storage
// engine and the host-channel bridge.
package util

import (
	"errors"
	"fmt"
)

// Sentinel errors for vault protocol operations.
// Each maps to a one-byte status trailer sent back to the host.
var (
	// ErrMalformedPacket indicates the inbound packet could not be decoded.
	// Malformed packets are dropped without a reply: the command byte
	// cannot be trusted for the reply tag.
	ErrMalformedPacket = errors.New("malformed packet")

	// ErrInvalidField indicates a text or fixed-length field failed
	// validation (length mismatch, oversized, empty).
	ErrInvalidField = errors.New("invalid field")

	// ErrNotUnlocked indicates the operation requires an unlocked card.
	// Maps to the no-card status byte.
	ErrNotUnlocked = errors.New("card not unlocked")

	// ErrNotApproved indicates the session lacks the elevated mode the
	// command's access class requires (memory management or media import).
	ErrNotApproved = errors.New("mode not approved")

	// ErrPermission indicates the node's owner tag does not match the
	// authenticated user.
	ErrPermission = errors.New("node owner mismatch")

	// ErrStorageBounds indicates a write would exceed node, page or media
	// zone bounds. The responsible streaming state is reset as a fail-safe.
	ErrStorageBounds = errors.New("storage boundary exceeded")

	// ErrUserDeclined indicates the user rejected a confirmation prompt.
	ErrUserDeclined = errors.New("user declined")

	// ErrNoContext indicates no credential context is currently selected.
	ErrNoContext = errors.New("no context selected")

	// ErrNotFound indicates a context, node or record lookup failed.
	ErrNotFound = errors.New("not found")

	// ErrNoFreeSlots indicates the free-node pool is exhausted.
	ErrNoFreeSlots = errors.New("no free node slots")

	// ErrPasswordMismatch indicates a password comparison failed.
	ErrPasswordMismatch = errors.New("password mismatch")
)

// StorageError wraps an error with node address context.
// Use this when an error occurs during addressed storage operations.
type StorageError struct {
	Address   uint16 // The node address involved
	Operation string // The operation being performed (e.g., "read", "commit")
	Err       error  // The underlying error
}

// NewStorageError creates a new StorageError with context.
func NewStorageError(address uint16, operation string, err error) *StorageError {
	return &StorageError{
		Address:   address,
		Operation: operation,
		Err:       err,
	}
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("node 0x%04x: %s: %v", e.Address, e.Operation, e.Err)
}

// Unwrap returns the underlying error for errors.Is and errors.As support.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// CommandError wraps an error with protocol command context.
// Use this when an error occurs during command handling.
type CommandError struct {
	Command byte   // The command identifier
	Message string // Human-readable error message
	Err     error  // The underlying error (optional)
}

// NewCommandError creates a new CommandError with context.
func NewCommandError(command byte, message string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cmd 0x%02x: %s: %v", e.Command, e.Message, e.Err)
	}
	return fmt.Sprintf("cmd 0x%02x: %s", e.Command, e.Message)
}

// Unwrap returns the underlying error for errors.Is and errors.As support.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// IsAuthorization returns true if the error represents an access-class or
// ownership failure rather than a malformed request.
func IsAuthorization(err error) bool {
	return errors.Is(err, ErrNotUnlocked) ||
		errors.Is(err, ErrNotApproved) ||
		errors.Is(err, ErrPermission)
}

// Status trailer bytes surfaced to the host. These are the only values the
// transport ever carries for a generic acknowledgement.
const (
	StatusError  byte = 0x00
	StatusOK     byte = 0x01
	StatusNA     byte = 0x02
	StatusNoCard byte = 0x03
)

// ToStatusByte converts an error to the one-byte status trailer.
// Returns StatusOK for nil.
func ToStatusByte(err error) byte {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrNotUnlocked):
		return StatusNoCard
	case errors.Is(err, ErrNoContext):
		return StatusNA
	default:
		return StatusError
	}
}
