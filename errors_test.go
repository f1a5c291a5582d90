package memberkit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestErrorMessage tests error string formatting
func TestErrorMessage(t *testing.T) {
	err := NewError(ErrMemberNotFound, "cannot update")
	assert.Equal(t, "memberkit: member not found: cannot update", err.Error())

	bare := &Error{Err: ErrMemberNotFound}
	assert.Equal(t, "memberkit: member not found", bare.Error())

	cause := errors.New("connection refused")
	withCause := NewError(ErrStoreWrite, "add member").WithCause(cause)
	assert.Equal(t, "memberkit: store write failed: add member: connection refused", withCause.Error())
}

// TestErrorUnwrap tests errors.Is matching on sentinel and cause
func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(ErrStoreWrite, "add member").WithCause(cause)

	assert.True(t, errors.Is(err, ErrStoreWrite))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrMemberNotFound))
}

// TestErrorAs tests errors.As extraction of the rich error
func TestErrorAs(t *testing.T) {
	err := NewError(ErrMemberNotFound, "cannot update").
		WithPath("organizations/org1").
		WithUser("u1").
		WithLevel(LevelWrite).
		WithActor("admin1")

	var rich *Error
	require.True(t, errors.As(error(err), &rich))
	assert.Equal(t, "organizations/org1", rich.Path)
	assert.Equal(t, "u1", rich.UserID)
	assert.Equal(t, LevelWrite, rich.Level)
	assert.Equal(t, "admin1", rich.ActorID)
}

// TestErrorHelpers tests the IsX classification helpers
func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsMemberNotFound(NewError(ErrMemberNotFound, "")))
	assert.True(t, IsInvalidPath(NewError(ErrInvalidPath, "")))
	assert.True(t, IsInvalidLevel(NewError(ErrInvalidLevel, "")))
	assert.True(t, IsUnauthorized(NewError(ErrUnauthorized, "")))
	assert.True(t, IsStoreWrite(NewError(ErrStoreWrite, "")))
	assert.True(t, IsStoreRead(NewError(ErrStoreRead, "")))

	assert.False(t, IsMemberNotFound(NewError(ErrInvalidPath, "")))
	assert.False(t, IsUnauthorized(nil))
	assert.False(t, IsStoreWrite(errors.New("other")))
}
