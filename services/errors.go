package services

import (
	"errors"
	"fmt"
)

// Kind classifies a failed session operation.
type Kind string

const (
	KindUnauthorized  Kind = "unauthorized"   // no verified caller
	KindForbidden     Kind = "forbidden"      // caller is not seated
	KindNotYourTurn   Kind = "not_your_turn"  // caller does not own the turn
	KindNotFound      Kind = "not_found"      // session or record absent
	KindInvalidState  Kind = "invalid_state"  // operation invalid for current status
	KindAlreadyRolled Kind = "already_rolled" // dice already present this turn
	KindDataIntegrity Kind = "data_integrity" // referenced rating record missing
	KindInternal      Kind = "internal"
)

// Error is returned by every session operation. Errors are never retried
// internally; they surface to the caller as-is.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so callers can write
// errors.Is(err, services.ErrAlreadyRolled).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnauthorized  = &Error{Kind: KindUnauthorized, Message: "caller identity required"}
	ErrForbidden     = &Error{Kind: KindForbidden, Message: "caller is not seated in this session"}
	ErrNotYourTurn   = &Error{Kind: KindNotYourTurn, Message: "it is not the caller's turn"}
	ErrNotFound      = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInvalidState  = &Error{Kind: KindInvalidState, Message: "operation not valid in the current state"}
	ErrAlreadyRolled = &Error{Kind: KindAlreadyRolled, Message: "dice already rolled this turn"}
	ErrDataIntegrity = &Error{Kind: KindDataIntegrity, Message: "referenced record missing"}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func internalError(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
