package services

import "errors"

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindNotFound
	KindConflict
	KindState // request is well formed but the resource is in the wrong state
)

// Error is a caller-facing failure. Msg is safe to show; Err is for logs only.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func invalid(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }
func unauth(msg string) error { return &Error{Kind: KindAuth, Msg: msg} }
func notFound(msg string) error { return &Error{Kind: KindNotFound, Msg: msg} }
func conflict(msg string) error { return &Error{Kind: KindConflict, Msg: msg} }
func badState(msg string) error { return &Error{Kind: KindState, Msg: msg} }
func failed(msg string, err error) error { return &Error{Kind: KindInternal, Msg: msg, Err: err} }

// KindOf classifies err; anything that is not an *Error is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
