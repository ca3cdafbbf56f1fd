package object

import (
	"github.com/pyembed/py-runtime/gil"
	"github.com/pyembed/py-runtime/native"
)

// Ordering is the result of a three-way comparison.
type Ordering int

const (
	Less Ordering = iota - 1
	Equal
	Greater
)

func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Greater:
		return "greater"
	default:
		return "equal"
	}
}

// HasAttr reports whether the object has the named attribute. The check
// itself always succeeds; only converting name can fail.
func (r Ref) HasAttr(tok *gil.Token, name any) (bool, error) {
	r.checkLive()
	n, err := ToObject(tok, name)
	if err != nil {
		return false, err
	}
	defer n.Release(tok)
	return tok.Runtime().ObjectHasAttr(r.raw, n.raw) != 0, nil
}

// GetAttr retrieves an attribute value.
func (r Ref) GetAttr(tok *gil.Token, name any) (*Owned, error) {
	r.checkLive()
	n, err := ToObject(tok, name)
	if err != nil {
		return nil, err
	}
	defer n.Release(tok)
	return ownedOrErr(tok, tok.Runtime().ObjectGetAttr(r.raw, n.raw))
}

// SetAttr assigns an attribute.
func (r Ref) SetAttr(tok *gil.Token, name, value any) error {
	r.checkLive()
	n, err := ToObject(tok, name)
	if err != nil {
		return err
	}
	defer n.Release(tok)
	v, err := ToObject(tok, value)
	if err != nil {
		return err
	}
	defer v.Release(tok)
	return errOnNonzero(tok, tok.Runtime().ObjectSetAttr(r.raw, n.raw, v.raw))
}

// DelAttr removes an attribute.
func (r Ref) DelAttr(tok *gil.Token, name any) error {
	r.checkLive()
	n, err := ToObject(tok, name)
	if err != nil {
		return err
	}
	defer n.Release(tok)
	return errOnNonzero(tok, tok.Runtime().ObjectDelAttr(r.raw, n.raw))
}

// Compare orders the object against another by the interpreter's three-way
// comparison.
func (r Ref) Compare(tok *gil.Token, other any) (Ordering, error) {
	r.checkLive()
	o, err := ToObject(tok, other)
	if err != nil {
		return Equal, err
	}
	defer o.Release(tok)
	result, status := tok.Runtime().ObjectCmp(r.raw, o.raw)
	if err := errOnNonzero(tok, status); err != nil {
		return Equal, err
	}
	switch {
	case result < 0:
		return Less, nil
	case result > 0:
		return Greater, nil
	default:
		return Equal, nil
	}
}

// Str computes the object's string conversion.
func (r Ref) Str(tok *gil.Token) (*Owned, error) {
	r.checkLive()
	return ownedOrErr(tok, tok.Runtime().ObjectStr(r.raw))
}

// Repr computes the object's debug representation.
func (r Ref) Repr(tok *gil.Token) (*Owned, error) {
	r.checkLive()
	return ownedOrErr(tok, tok.Runtime().ObjectRepr(r.raw))
}

// Unicode computes the object's text conversion.
func (r Ref) Unicode(tok *gil.Token) (*Owned, error) {
	r.checkLive()
	return ownedOrErr(tok, tok.Runtime().ObjectUnicode(r.raw))
}

// IsCallable reports whether the object can be called. Never fails.
func (r Ref) IsCallable(tok *gil.Token) bool {
	r.checkLive()
	return tok.Runtime().CallableCheck(r.raw) != 0
}

// Call invokes the object with positional args and optional keyword args.
func (r Ref) Call(tok *gil.Token, args []any, kw map[string]any) (*Owned, error) {
	r.checkLive()
	tuple, err := packArgs(tok, args)
	if err != nil {
		return nil, err
	}
	defer tuple.Release(tok)

	var kwRaw native.RawObject
	if len(kw) > 0 {
		dict, err := packKwargs(tok, kw)
		if err != nil {
			return nil, err
		}
		defer dict.Release(tok)
		kwRaw = dict.raw
	}
	return ownedOrErr(tok, tok.Runtime().ObjectCall(r.raw, tuple.raw, kwRaw))
}

// CallMethod looks up the named attribute and calls it. Composed from
// GetAttr followed by Call, so a failed lookup short-circuits before any
// invocation is attempted.
func (r Ref) CallMethod(tok *gil.Token, name string, args []any, kw map[string]any) (*Owned, error) {
	method, err := r.GetAttr(tok, name)
	if err != nil {
		return nil, err
	}
	defer method.Release(tok)
	return method.Call(tok, args, kw)
}

// Hash computes the object's hash. A result of -1 is an error only when an
// exception is actually pending; otherwise -1 is a legitimate hash and is
// returned as-is.
func (r Ref) Hash(tok *gil.Token) (int64, error) {
	r.checkLive()
	return sentinelInt64(tok, tok.Runtime().ObjectHash(r.raw))
}

// IsTrue reports the object's truthiness.
func (r Ref) IsTrue(tok *gil.Token) (bool, error) {
	r.checkLive()
	v, err := sentinelInt64(tok, int64(tok.Runtime().ObjectIsTrue(r.raw)))
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// Len returns the length of a sequence or mapping.
func (r Ref) Len(tok *gil.Token) (int64, error) {
	r.checkLive()
	return sentinelInt64(tok, tok.Runtime().ObjectSize(r.raw))
}

// GetItem retrieves a keyed item.
func (r Ref) GetItem(tok *gil.Token, key any) (*Owned, error) {
	r.checkLive()
	k, err := ToObject(tok, key)
	if err != nil {
		return nil, err
	}
	defer k.Release(tok)
	return ownedOrErr(tok, tok.Runtime().ObjectGetItem(r.raw, k.raw))
}

// SetItem assigns a keyed item.
func (r Ref) SetItem(tok *gil.Token, key, value any) error {
	r.checkLive()
	k, err := ToObject(tok, key)
	if err != nil {
		return err
	}
	defer k.Release(tok)
	v, err := ToObject(tok, value)
	if err != nil {
		return err
	}
	defer v.Release(tok)
	return errOnNonzero(tok, tok.Runtime().ObjectSetItem(r.raw, k.raw, v.raw))
}

// DelItem removes a keyed item.
func (r Ref) DelItem(tok *gil.Token, key any) error {
	r.checkLive()
	k, err := ToObject(tok, key)
	if err != nil {
		return err
	}
	defer k.Release(tok)
	return errOnNonzero(tok, tok.Runtime().ObjectDelItem(r.raw, k.raw))
}

// packArgs builds the positional-argument tuple. Tuple insertion steals the
// converted references.
func packArgs(tok *gil.Token, args []any) (*Owned, error) {
	rt := tok.Runtime()
	tuple, err := ownedOrErr(tok, rt.TupleNew(int64(len(args))))
	if err != nil {
		return nil, err
	}
	for i, a := range args {
		v, err := ToObject(tok, a)
		if err != nil {
			tuple.Release(tok)
			return nil, err
		}
		if status := rt.TupleSetItem(tuple.raw, int64(i), v.steal()); status != 0 {
			err := errOnNonzero(tok, status)
			tuple.Release(tok)
			return nil, err
		}
	}
	return tuple, nil
}

func packKwargs(tok *gil.Token, kw map[string]any) (*Owned, error) {
	rt := tok.Runtime()
	dict, err := ownedOrErr(tok, rt.DictNew())
	if err != nil {
		return nil, err
	}
	for k, a := range kw {
		if err := dict.SetItem(tok, k, a); err != nil {
			dict.Release(tok)
			return nil, err
		}
	}
	return dict, nil
}
