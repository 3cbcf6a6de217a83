package common

import (
	"errors"
	"fmt"
)

// Error kinds shared by every ledger module. Module errors wrap one of these
// so callers can classify failures with errors.Is.
var (
	ErrAccessDenied        = errors.New("access denied")
	ErrAlreadyExists       = errors.New("already exists")
	ErrNotFound            = errors.New("not found")
	ErrFeeMismatch         = errors.New("fee mismatch")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrInvalidParameters   = errors.New("invalid parameters")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// AccessDeniedError reports the capability a caller was missing.
type AccessDeniedError struct {
	Module string
	Role   string
}

// Error implements error.
func (e *AccessDeniedError) Error() string {
	if e.Module == "" {
		return fmt.Sprintf("must have %s role", e.Role)
	}
	return fmt.Sprintf("%s: must have %s role", e.Module, e.Role)
}

// Unwrap lets errors.Is(err, ErrAccessDenied) match.
func (e *AccessDeniedError) Unwrap() error { return ErrAccessDenied }

// AccessDenied builds an AccessDeniedError for the module and role name.
func AccessDenied(module, role string) error {
	return &AccessDeniedError{Module: module, Role: role}
}

// kindError attaches an error kind to a module specific reason.
type kindError struct {
	kind   error
	reason string
}

func (e *kindError) Error() string { return e.reason }

func (e *kindError) Unwrap() error { return e.kind }

// NewError returns a sentinel error carrying reason as its message and
// matching kind under errors.Is.
func NewError(kind error, reason string) error {
	return &kindError{kind: kind, reason: reason}
}
