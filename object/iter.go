package object

import (
	"github.com/pyembed/py-runtime/gil"
)

// Iterator drives the interpreter's iteration protocol. It owns the
// iterator object produced by GetIter and must be released when the caller
// is done, whether or not iteration ran to exhaustion.
type Iterator struct {
	obj *Owned
}

// GetIter asks the object for an iterator over itself. Non-iterable
// objects raise TypeError.
func (r Ref) GetIter(tok *gil.Token) (*Iterator, error) {
	r.checkLive()
	it, err := ownedOrErr(tok, tok.Runtime().ObjectGetIter(r.raw))
	if err != nil {
		return nil, err
	}
	return &Iterator{obj: it}, nil
}

// Next advances the iterator. It returns (value, true, nil) for an element,
// (nil, false, nil) on exhaustion, and (nil, false, err) when the iterator
// raised. The backend signals both exhaustion and failure with a null
// result; only a pending exception distinguishes them.
func (it *Iterator) Next(tok *gil.Token) (*Owned, bool, error) {
	it.obj.checkLive()
	raw := tok.Runtime().IterNext(it.obj.raw)
	if raw.IsNull() {
		if e := Fetch(tok); e != nil {
			return nil, false, e
		}
		return nil, false, nil
	}
	return &Owned{Ref{raw: raw}}, true, nil
}

// Object returns a borrowed view of the iterator object itself.
func (it *Iterator) Object() Ref { return it.obj.Borrow() }

// Release drops the iterator object.
func (it *Iterator) Release(tok *gil.Token) { it.obj.Release(tok) }
