package object

import (
	"fmt"
	"math"

	hosterr "github.com/pyembed/py-runtime/errors"
	"github.com/pyembed/py-runtime/gil"
)

// ToObject converts a host value into an owned interpreter object.
//
// Supported: nil (None), bool, all int/uint widths, float32/64, string,
// Ref/Owned (taking a new reference), []any (list), map[string]any (dict).
// Anything else is a host-side conversion error, not a foreign exception.
func ToObject(tok *gil.Token, v any) (*Owned, error) {
	rt := tok.Runtime()
	switch x := v.(type) {
	case nil:
		// The none singleton is a borrowed global.
		return Ref{raw: rt.None()}.CloneOwned(tok), nil
	case bool:
		return ownedOrErr(tok, rt.BoolFromBool(x))
	case int:
		return ownedOrErr(tok, rt.LongFromInt64(int64(x)))
	case int8:
		return ownedOrErr(tok, rt.LongFromInt64(int64(x)))
	case int16:
		return ownedOrErr(tok, rt.LongFromInt64(int64(x)))
	case int32:
		return ownedOrErr(tok, rt.LongFromInt64(int64(x)))
	case int64:
		return ownedOrErr(tok, rt.LongFromInt64(x))
	case uint:
		return uintToObject(tok, uint64(x))
	case uint8:
		return ownedOrErr(tok, rt.LongFromInt64(int64(x)))
	case uint16:
		return ownedOrErr(tok, rt.LongFromInt64(int64(x)))
	case uint32:
		return ownedOrErr(tok, rt.LongFromInt64(int64(x)))
	case uint64:
		return uintToObject(tok, x)
	case float32:
		return ownedOrErr(tok, rt.FloatFromFloat64(float64(x)))
	case float64:
		return ownedOrErr(tok, rt.FloatFromFloat64(x))
	case string:
		return ownedOrErr(tok, rt.UnicodeFromString(x))
	case Ref:
		return x.CloneOwned(tok), nil
	case Owned:
		return x.CloneOwned(tok), nil
	case *Owned:
		return x.CloneOwned(tok), nil
	case []any:
		return sliceToObject(tok, x)
	case map[string]any:
		return mapToObject(tok, x)
	default:
		return nil, hosterr.Conversion(fmt.Sprintf("%T", v), "unsupported type")
	}
}

func uintToObject(tok *gil.Token, v uint64) (*Owned, error) {
	if v > math.MaxInt64 {
		return nil, hosterr.Conversion("uint64", "value overflows int64")
	}
	return ownedOrErr(tok, tok.Runtime().LongFromInt64(int64(v)))
}

func sliceToObject(tok *gil.Token, xs []any) (*Owned, error) {
	rt := tok.Runtime()
	list, err := ownedOrErr(tok, rt.ListNew(0))
	if err != nil {
		return nil, err
	}
	for _, x := range xs {
		v, err := ToObject(tok, x)
		if err != nil {
			list.Release(tok)
			return nil, err
		}
		status := rt.ListAppend(list.raw, v.raw)
		v.Release(tok)
		if err := errOnNonzero(tok, status); err != nil {
			list.Release(tok)
			return nil, err
		}
	}
	return list, nil
}

func mapToObject(tok *gil.Token, m map[string]any) (*Owned, error) {
	dict, err := ownedOrErr(tok, tok.Runtime().DictNew())
	if err != nil {
		return nil, err
	}
	for k, x := range m {
		if err := dict.SetItem(tok, k, x); err != nil {
			dict.Release(tok)
			return nil, err
		}
	}
	return dict, nil
}

// AsString extracts a Go string from a text object.
func AsString(tok *gil.Token, r Ref) (string, error) {
	r.checkLive()
	s, ok := tok.Runtime().UnicodeAsString(r.raw)
	if !ok {
		return "", hosterr.Conversion("string", "object is not text")
	}
	return s, nil
}

// AsInt64 extracts an integer value.
func AsInt64(tok *gil.Token, r Ref) (int64, error) {
	r.checkLive()
	v, ok := tok.Runtime().LongAsInt64(r.raw)
	if !ok {
		return 0, hosterr.Conversion("int64", "object is not an integer")
	}
	return v, nil
}

// AsFloat64 extracts a floating-point value.
func AsFloat64(tok *gil.Token, r Ref) (float64, error) {
	r.checkLive()
	v, ok := tok.Runtime().FloatAsFloat64(r.raw)
	if !ok {
		return 0, hosterr.Conversion("float64", "object is not a float")
	}
	return v, nil
}

// StrOf renders the object's string conversion directly to a Go string.
func StrOf(tok *gil.Token, r Ref) (string, error) {
	s, err := r.Str(tok)
	if err != nil {
		return "", err
	}
	defer s.Release(tok)
	return AsString(tok, s.Borrow())
}
