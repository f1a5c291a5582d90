package memberkit

import (
	"errors"
	"fmt"
)

// Sentinel errors for MemberKit operations.
var (
	// ErrInvalidPath is returned when a resource path has no complete
	// collection/identifier pair.
	ErrInvalidPath = errors.New("memberkit: invalid path")

	// ErrInvalidLevel is returned when a level string is not one of
	// "read", "write" or "admin".
	ErrInvalidLevel = errors.New("memberkit: invalid level")

	// ErrMemberNotFound is returned when updating a member record that
	// does not exist.
	ErrMemberNotFound = errors.New("memberkit: member not found")

	// ErrInvalidMember is returned when a member document fails validation.
	ErrInvalidMember = errors.New("memberkit: invalid member record")

	// ErrUnauthorized is returned when a user doesn't have the required level.
	ErrUnauthorized = errors.New("memberkit: unauthorized")

	// ErrNoUserID is returned when a user ID cannot be extracted from a request.
	ErrNoUserID = errors.New("memberkit: no user ID in request")

	// ErrStoreWrite is returned when a document store write fails.
	ErrStoreWrite = errors.New("memberkit: store write failed")

	// ErrStoreRead is returned when a read that cannot degrade safely
	// fails, such as the read half of an update.
	ErrStoreRead = errors.New("memberkit: store read failed")

	// ErrUnsupportedOp is returned by store adapters for filter operators
	// they cannot translate.
	ErrUnsupportedOp = errors.New("memberkit: unsupported filter operator")
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err     error  // Underlying sentinel error
	Cause   error  // Store error that triggered this, if any
	Message string // Additional context
	Path    string // Resource path involved
	UserID  string // User involved (if applicable)
	Level   Level  // Level involved (if applicable)
	ActorID string // Actor who triggered the error (if applicable)
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Err.Error(), e.Message, e.Cause)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Err.Error(), e.Cause)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying errors for errors.Is/As.
// Both the sentinel and the store cause remain matchable.
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithCause attaches the store error that triggered this error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithPath adds path information to the error.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithUser adds user information to the error.
func (e *Error) WithUser(userID string) *Error {
	e.UserID = userID
	return e
}

// WithLevel adds level information to the error.
func (e *Error) WithLevel(level Level) *Error {
	e.Level = level
	return e
}

// WithActor adds actor information to the error.
func (e *Error) WithActor(actorID string) *Error {
	e.ActorID = actorID
	return e
}

// IsMemberNotFound checks if an error is due to a missing member record.
func IsMemberNotFound(err error) bool {
	return errors.Is(err, ErrMemberNotFound)
}

// IsInvalidPath checks if an error is due to a malformed resource path.
func IsInvalidPath(err error) bool {
	return errors.Is(err, ErrInvalidPath)
}

// IsInvalidLevel checks if an error is due to an unknown access level.
func IsInvalidLevel(err error) bool {
	return errors.Is(err, ErrInvalidLevel)
}

// IsUnauthorized checks if an error is an authorization error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsStoreWrite checks if an error is a failed document store write.
func IsStoreWrite(err error) bool {
	return errors.Is(err, ErrStoreWrite)
}

// IsStoreRead checks if an error is a failed document store read.
func IsStoreRead(err error) bool {
	return errors.Is(err, ErrStoreRead)
}
