package object

import (
	"github.com/pyembed/py-runtime/gil"
	"github.com/pyembed/py-runtime/native"
)

// Ref is a borrowed view of an interpreter object. Some other owner is
// responsible for the underlying reference count; a Ref therefore has no
// release operation, only CloneOwned for taking a reference of one's own.
//
// A Ref is only meaningful while the lock token it was obtained under is
// live. The zero Ref is the null reference; protocol operations panic on it.
type Ref struct {
	raw native.RawObject
}

// Owned is a reference this side must release. Exactly one live Owned value
// exists per reference it represents: Release consumes it, and moving an
// Owned into an operation that steals its reference poisons it. All protocol
// operations are promoted from the embedded borrowed view.
type Owned struct {
	Ref
}

// FromOwnedRaw wraps a raw result whose entry point transfers ownership to
// the caller. A null raw means the interpreter signaled failure, so it is
// routed through error translation instead of being wrapped.
func FromOwnedRaw(tok *gil.Token, raw native.RawObject) (*Owned, error) {
	return ownedOrErr(tok, raw)
}

// FromBorrowedRaw wraps a raw result whose entry point retains ownership.
func FromBorrowedRaw(tok *gil.Token, raw native.RawObject) (Ref, error) {
	if raw.IsNull() {
		if err := Fetch(tok); err != nil {
			return Ref{}, err
		}
		return Ref{}, errNullWithoutPending()
	}
	return Ref{raw: raw}, nil
}

// CloneOwned increments the reference count and returns a new owned
// reference to the same object. Incrementing cannot fail.
func (r Ref) CloneOwned(tok *gil.Token) *Owned {
	r.checkLive()
	tok.Runtime().IncRef(r.raw)
	return &Owned{Ref{raw: r.raw}}
}

// Raw exposes the raw handle for backend-level consumers (the module
// registry, async-exception injection). The borrowed/owned classification of
// whatever the raw is passed to remains the caller's responsibility.
func (r Ref) Raw() native.RawObject { return r.raw }

// IsNull reports whether this is the null reference.
func (r Ref) IsNull() bool { return r.raw.IsNull() }

// RefCount reads the current reference count. Diagnostic only.
func (r Ref) RefCount(tok *gil.Token) int64 {
	r.checkLive()
	return tok.Runtime().RefCount(r.raw)
}

// Borrow returns the borrowed view of an owned reference.
func (o *Owned) Borrow() Ref {
	o.checkLive()
	return o.Ref
}

// Release decrements the reference count exactly once and poisons the value.
// Further use panics. Release must happen before the token's final Release.
func (o *Owned) Release(tok *gil.Token) {
	o.checkLive()
	tok.Runtime().DecRef(o.raw)
	o.raw = 0
}

// steal hands the reference count to a foreign entry point that consumes it
// (tuple item insertion, error restore) and poisons the value without a
// decref.
func (o *Owned) steal() native.RawObject {
	o.checkLive()
	raw := o.raw
	o.raw = 0
	return raw
}

func (r Ref) checkLive() {
	if r.raw.IsNull() {
		panic("object: use of null or released reference")
	}
}

func ownedOrErr(tok *gil.Token, raw native.RawObject) (*Owned, error) {
	if raw.IsNull() {
		if err := Fetch(tok); err != nil {
			return nil, err
		}
		return nil, errNullWithoutPending()
	}
	return &Owned{Ref{raw: raw}}, nil
}
