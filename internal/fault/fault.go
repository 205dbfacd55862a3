// Package fault defines the error taxonomy reported across the C boundary.
//
// Boundary entry points never panic or unwind into the host on a recoverable
// condition. They build a *Error, record it in the last-error channel and
// return a sentinel value. Kind is exposed to the host as an integer so callers
// do not have to match on message text.
package fault

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes a boundary failure.
type Kind int

const (
	KindNone Kind = iota
	KindNullArgument
	KindUnknownHandle
	KindWrongThread
	KindNotInitialized
	KindInvalidArgument
	KindToolkit
)

var kindNames = map[Kind]string{
	KindNone:            "none",
	KindNullArgument:    "null_argument",
	KindUnknownHandle:   "unknown_handle",
	KindWrongThread:     "wrong_thread",
	KindNotInitialized:  "not_initialized",
	KindInvalidArgument: "invalid_argument",
	KindToolkit:         "toolkit",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a boundary failure with enough context to produce the
// human-readable message handed to the host.
type Error struct {
	Kind   Kind
	Op     string
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteByte(' ')
	}
	if e.Detail != "" {
		b.WriteString(e.Detail)
	} else {
		b.WriteString(e.Kind.String())
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same Kind, so errors.Is(err, fault.ErrWrongThread)
// works regardless of Op and Detail.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind && t.Op == "" && t.Detail == ""
	}
	return false
}

// Sentinels for errors.Is.
var (
	ErrNullArgument    = &Error{Kind: KindNullArgument}
	ErrUnknownHandle   = &Error{Kind: KindUnknownHandle}
	ErrWrongThread     = &Error{Kind: KindWrongThread}
	ErrNotInitialized  = &Error{Kind: KindNotInitialized}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrToolkit         = &Error{Kind: KindToolkit}
)

// NullArgument reports a required pointer argument that was null.
func NullArgument(op, what string) *Error {
	return &Error{
		Kind:   KindNullArgument,
		Op:     op,
		Detail: fmt.Sprintf("received a null %s pointer", what),
	}
}

// UnknownHandle reports a handle that did not resolve against the live set.
func UnknownHandle(op, category string, handle uint64) *Error {
	return &Error{
		Kind:   KindUnknownHandle,
		Op:     op,
		Detail: fmt.Sprintf("received an unknown %s pointer %#x", category, handle),
	}
}

// WrongThread reports an owner-thread-only operation invoked elsewhere.
func WrongThread(op string) *Error {
	return &Error{
		Kind:   KindWrongThread,
		Op:     op,
		Detail: "must be called on the main thread",
	}
}

// NotInitialized reports use of the bridge before the application exists.
func NotInitialized(op string) *Error {
	return &Error{
		Kind:   KindNotInitialized,
		Op:     op,
		Detail: "called before the application was created",
	}
}

// InvalidArgument reports a non-pointer argument outside its domain.
func InvalidArgument(op, format string, args ...any) *Error {
	return &Error{
		Kind:   KindInvalidArgument,
		Op:     op,
		Detail: fmt.Sprintf(format, args...),
	}
}

// Toolkit wraps a failure reported by the GUI collaborator.
func Toolkit(op string, cause error) *Error {
	return &Error{
		Kind:   KindToolkit,
		Op:     op,
		Detail: "toolkit call failed",
		Cause:  cause,
	}
}

// KindOf returns the Kind of err, KindToolkit for foreign errors and KindNone
// for nil.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindToolkit
}
