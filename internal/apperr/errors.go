// Package apperr defines the error taxonomy shared by models and controllers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind int

const (
	KindEditor Kind = iota
	KindFileOperation
	KindAIIntegration
	KindNotFound
	KindValidation
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindFileOperation:
		return "file operation"
	case KindAIIntegration:
		return "ai integration"
	case KindNotFound:
		return "not found"
	case KindValidation:
		return "validation"
	default:
		return "editor"
	}
}

// Sentinels for errors.Is. Every application error matches ErrEditor.
var (
	ErrEditor        = &Error{Kind: KindEditor, Msg: "editor error"}
	ErrFileOperation = &Error{Kind: KindFileOperation, Msg: "file operation failed"}
	ErrAIIntegration = &Error{Kind: KindAIIntegration, Msg: "ai integration failed"}
	ErrNotFound      = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrValidation    = &Error{Kind: KindValidation, Msg: "invalid input"}
)

// Error is an application error carrying its kind and the underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches kind sentinels. ErrEditor matches any application error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t == ErrEditor {
		return true
	}
	return t.Kind == e.Kind && (t == sentinel(t.Kind) || t == e)
}

func sentinel(k Kind) *Error {
	switch k {
	case KindFileOperation:
		return ErrFileOperation
	case KindAIIntegration:
		return ErrAIIntegration
	case KindNotFound:
		return ErrNotFound
	case KindValidation:
		return ErrValidation
	default:
		return ErrEditor
	}
}

// FileOp returns a file-operation error for path.
func FileOp(msg, path string, cause error) error {
	return &Error{Kind: KindFileOperation, Msg: msg, Path: path, Err: cause}
}

// AI returns an AI-integration error.
func AI(msg string, cause error) error {
	return &Error{Kind: KindAIIntegration, Msg: msg, Err: cause}
}

// NotFound returns a not-found error naming the missing key.
func NotFound(what, key string) error {
	return &Error{Kind: KindNotFound, Msg: what + " not found", Path: key}
}

// Validation returns a validation error.
func Validation(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

// KindOf returns the kind of err, or KindEditor with ok=false if err is not an application error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return KindEditor, false
}

// IsKind reports whether err is an application error of kind k.
func IsKind(err error, k Kind) bool {
	kind, ok := KindOf(err)
	return ok && kind == k
}
