package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes the engine reports. Callers branch
// on these with errors.Is; the Error wrapper adds entity and detail.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrAlreadyInState     = errors.New("already in requested state")
	ErrForbidden          = errors.New("forbidden")
	ErrIdentifierConflict = errors.New("identifier conflict")
	ErrInternal           = errors.New("internal error")
)

type Error struct {
	Err    error
	Entity string
	Detail string
}

func (e *Error) Error() string {
	switch {
	case e.Entity != "" && e.Detail != "":
		return fmt.Sprintf("%s: %s: %s", e.Err.Error(), e.Entity, e.Detail)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Detail)
	case e.Entity != "":
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Entity)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Wrap(sentinel error, entity, detail string) error {
	return &Error{Err: sentinel, Entity: entity, Detail: detail}
}

func Wrapf(sentinel error, entity, format string, args ...any) error {
	return &Error{Err: sentinel, Entity: entity, Detail: fmt.Sprintf(format, args...)}
}

func NotFound(entity, id string) error {
	return &Error{Err: ErrNotFound, Entity: entity, Detail: id}
}

func Validation(detail string) error {
	return &Error{Err: ErrValidation, Detail: detail}
}

func Precondition(entity, detail string) error {
	return &Error{Err: ErrPreconditionFailed, Entity: entity, Detail: detail}
}
