// Package concept holds the error taxonomy and the natural-key rules shared
// by every domain service.
package concept

import (
	"errors"
	"fmt"
)

// Error kinds. Every user-facing failure wraps exactly one of these.
var (
	ErrBadValues       = errors.New("bad values")
	ErrNotFound        = errors.New("not found")
	ErrNotAllowed      = errors.New("not allowed")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// UserRef marks a message argument as a user id so the route layer can show
// the username instead.
type UserRef string

// Error is a user-readable failure of a given kind. Its message is kept as a
// format string plus args until rendered.
type Error struct {
	kind   error
	format string
	args   []any
}

// Errorf builds an Error. kind may be one of the sentinel kinds or an error
// that wraps one.
func Errorf(kind error, format string, args ...any) *Error {
	return &Error{kind: kind, format: format, args: args}
}

func (e *Error) Error() string {
	return e.Render(nil)
}

func (e *Error) Unwrap() error {
	return e.kind
}

// UserRefs returns the user ids referenced by the message.
func (e *Error) UserRefs() []string {
	var ids []string
	for _, a := range e.args {
		if ref, ok := a.(UserRef); ok {
			ids = append(ids, string(ref))
		}
	}
	return ids
}

// Render formats the message, substituting each UserRef found in names.
func (e *Error) Render(names map[string]string) string {
	args := make([]any, len(e.args))
	for i, a := range e.args {
		if ref, ok := a.(UserRef); ok {
			if name, found := names[string(ref)]; found {
				args[i] = name
				continue
			}
			args[i] = string(ref)
			continue
		}
		args[i] = a
	}
	return fmt.Sprintf(e.format, args...)
}

func BadValues(format string, args ...any) *Error {
	return Errorf(ErrBadValues, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return Errorf(ErrNotFound, format, args...)
}

func NotAllowed(format string, args ...any) *Error {
	return Errorf(ErrNotAllowed, format, args...)
}

func Unauthenticated(format string, args ...any) *Error {
	return Errorf(ErrUnauthenticated, format, args...)
}

// KindOf returns the sentinel kind err wraps, or nil for unexpected errors.
func KindOf(err error) error {
	for _, kind := range []error{ErrBadValues, ErrNotFound, ErrNotAllowed, ErrUnauthenticated} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
