package object

import (
	hosterr "github.com/pyembed/py-runtime/errors"
	"github.com/pyembed/py-runtime/gil"
	"github.com/pyembed/py-runtime/native"
)

// Error is a raised interpreter exception, captured at the moment a protocol
// operation signaled failure. It owns the fetched (type, value, traceback)
// triple; fetching cleared the interpreter's pending-exception slot, so the
// exception lives on only through this value.
//
// The layer does not pre-classify exceptions. Callers that care which kind
// was raised classify with Matches or inspect the live objects via
// Type/Value.
type Error struct {
	typ, val, tb native.RawObject
	typeName     string
	msg          string
}

// ErrOccurred reports whether an exception is pending, without disturbing
// the slot.
func ErrOccurred(tok *gil.Token) bool {
	return !tok.Runtime().ErrOccurred().IsNull()
}

// Fetch retrieves and clears the pending exception, or returns nil if none
// is pending. Fetch is destructive and exactly-once: after a single failure
// the first Fetch yields the error and the second yields nil.
func Fetch(tok *gil.Token) *Error {
	rt := tok.Runtime()
	if rt.ErrOccurred().IsNull() {
		return nil
	}
	typ, val, tb := rt.ErrFetch()
	e := &Error{typ: typ, val: val, tb: tb}
	e.typeName, e.msg = summarize(tok, typ, val)
	return e
}

// Error renders the exception as "TypeName: message". The text is captured
// at fetch time so the value remains a usable Go error after the lock token
// is gone.
func (e *Error) Error() string {
	if e.msg == "" {
		return e.typeName
	}
	return e.typeName + ": " + e.msg
}

// TypeName returns the exception type's rendered name, captured at fetch.
// Display only; classification goes through Matches, which compares type
// identity rather than rendered text.
func (e *Error) TypeName() string { return e.typeName }

// Matches reports whether the exception matches the named builtin exception
// type, by type identity (subclasses included, where the backend tracks
// them). Unknown builtin names match nothing.
func (e *Error) Matches(tok *gil.Token, builtin string) bool {
	if e.typ.IsNull() {
		panic("object: match against released error")
	}
	rt := tok.Runtime()
	exc := rt.ExcBuiltin(builtin)
	if exc.IsNull() {
		return false
	}
	return rt.ErrGivenExceptionMatches(e.typ, exc) != 0
}

// Type returns a borrowed view of the exception type.
func (e *Error) Type() Ref { return Ref{raw: e.typ} }

// Value returns a borrowed view of the exception value, which may be null
// for exceptions raised as a bare type.
func (e *Error) Value() (Ref, bool) {
	if e.val.IsNull() {
		return Ref{}, false
	}
	return Ref{raw: e.val}, true
}

// Traceback returns a borrowed view of the traceback, if one was attached.
func (e *Error) Traceback() (Ref, bool) {
	if e.tb.IsNull() {
		return Ref{}, false
	}
	return Ref{raw: e.tb}, true
}

// Restore re-arms the interpreter's pending-exception slot with this error,
// consuming its ownership of the triple. The inverse of Fetch.
func (e *Error) Restore(tok *gil.Token) {
	if e.typ.IsNull() {
		panic("object: restore of released error")
	}
	tok.Runtime().ErrRestore(e.typ, e.val, e.tb)
	e.typ, e.val, e.tb = 0, 0, 0
}

// Release drops the owned triple. Idempotent use panics like any released
// owned reference.
func (e *Error) Release(tok *gil.Token) {
	if e.typ.IsNull() {
		panic("object: release of released error")
	}
	rt := tok.Runtime()
	rt.DecRef(e.typ)
	if !e.val.IsNull() {
		rt.DecRef(e.val)
	}
	if !e.tb.IsNull() {
		rt.DecRef(e.tb)
	}
	e.typ, e.val, e.tb = 0, 0, 0
}

// summarize renders the type name and message while the slot is clear. Any
// exception raised during rendering is swallowed and cleared; the triple
// itself stays intact.
func summarize(tok *gil.Token, typ, val native.RawObject) (name, msg string) {
	rt := tok.Runtime()
	name = "exception"
	if s, ok := renderStr(tok, typ); ok {
		name = s
	}
	if !val.IsNull() {
		if s, ok := renderStr(tok, val); ok {
			msg = s
		}
	}
	rt.ErrClear()
	return name, msg
}

func renderStr(tok *gil.Token, raw native.RawObject) (string, bool) {
	rt := tok.Runtime()
	s := rt.ObjectStr(raw)
	if s.IsNull() {
		rt.ErrClear()
		return "", false
	}
	defer rt.DecRef(s)
	return rt.UnicodeAsString(s)
}

// errNullWithoutPending covers the interpreter fault where an entry point
// returned its failure sentinel but left no exception pending.
func errNullWithoutPending() error {
	return hosterr.InvalidInput(hosterr.PhaseProtocol, "null result with no pending exception")
}

// errOnNonzero translates a status-returning entry point: zero is success,
// anything else means fetch the pending exception.
func errOnNonzero(tok *gil.Token, status int) error {
	if status == 0 {
		return nil
	}
	if e := Fetch(tok); e != nil {
		return e
	}
	return hosterr.InvalidInput(hosterr.PhaseProtocol, "error status with no pending exception")
}

// sentinelInt64 disambiguates integer entry points where -1 is both the
// failure sentinel and a legitimate value: only a pending exception turns
// the sentinel into an error, otherwise the value passes through unchanged.
func sentinelInt64(tok *gil.Token, v int64) (int64, error) {
	if v != -1 {
		return v, nil
	}
	if e := Fetch(tok); e != nil {
		return 0, e
	}
	return v, nil
}
