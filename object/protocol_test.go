package object_test

import (
	"testing"

	"github.com/pyembed/py-runtime/gil"
	"github.com/pyembed/py-runtime/native"
	"github.com/pyembed/py-runtime/native/nativetest"
	"github.com/pyembed/py-runtime/object"
)

func TestAttrRoundTrip(t *testing.T) {
	withToken(t, func(backend *nativetest.Runtime, tok *gil.Token) {
		obj, err := object.FromOwnedRaw(tok, backend.NewObject())
		if err != nil {
			t.Fatal(err)
		}
		defer obj.Release(tok)
		ref := obj.Borrow()

		has, err := ref.HasAttr(tok, "version")
		if err != nil {
			t.Fatal(err)
		}
		if has {
			t.Fatal("attribute present before assignment")
		}

		if err := ref.SetAttr(tok, "version", 5); err != nil {
			t.Fatal(err)
		}
		got, err := ref.GetAttr(tok, "version")
		if err != nil {
			t.Fatal(err)
		}
		defer got.Release(tok)
		v, err := object.AsInt64(tok, got.Borrow())
		if err != nil {
			t.Fatal(err)
		}
		if v != 5 {
			t.Fatalf("attribute round trip = %d, want 5", v)
		}

		if err := ref.DelAttr(tok, "version"); err != nil {
			t.Fatal(err)
		}
		if _, err := ref.GetAttr(tok, "version"); err == nil {
			t.Fatal("get of deleted attribute succeeded")
		} else if ferr := err.(*object.Error); ferr.TypeName() != "AttributeError" {
			t.Fatalf("deleted attribute raised %q, want AttributeError", ferr.TypeName())
		}
	})
}

func TestCompareThreeWay(t *testing.T) {
	withToken(t, func(backend *nativetest.Runtime, tok *gil.Token) {
		two, err := object.ToObject(tok, int64(2))
		if err != nil {
			t.Fatal(err)
		}
		defer two.Release(tok)
		ref := two.Borrow()

		cases := []struct {
			other any
			want  object.Ordering
		}{
			{int64(3), object.Less},
			{int64(2), object.Equal},
			{int64(1), object.Greater},
			{1.5, object.Greater},
		}
		for _, tc := range cases {
			got, err := ref.Compare(tok, tc.other)
			if err != nil {
				t.Fatalf("compare against %v: %v", tc.other, err)
			}
			if got != tc.want {
				t.Errorf("compare against %v = %s, want %s", tc.other, got, tc.want)
			}
		}

		// Mismatched kinds are not orderable; the failure carries the
		// interpreter's exception.
		_, err = ref.Compare(tok, "two")
		ferr, ok := err.(*object.Error)
		if !ok {
			t.Fatalf("incomparable error is %T, want *object.Error", err)
		}
		if ferr.TypeName() != "TypeError" {
			t.Fatalf("incomparable raised %q, want TypeError", ferr.TypeName())
		}
	})
}

func TestHashMinusOneDisambiguation(t *testing.T) {
	withToken(t, func(backend *nativetest.Runtime, tok *gil.Token) {
		// An object whose real hash is -1 must pass through unchanged.
		pinned, err := object.FromOwnedRaw(tok, backend.NewHashed(-1))
		if err != nil {
			t.Fatal(err)
		}
		defer pinned.Release(tok)
		h, err := pinned.Borrow().Hash(tok)
		if err != nil {
			t.Fatalf("legitimate -1 hash reported as error: %v", err)
		}
		if h != -1 {
			t.Fatalf("hash = %d, want -1", h)
		}

		// An unhashable object also returns -1, but with an exception
		// pending; that one is an error.
		list, err := object.ToObject(tok, []any{})
		if err != nil {
			t.Fatal(err)
		}
		defer list.Release(tok)
		_, err = list.Borrow().Hash(tok)
		ferr, ok := err.(*object.Error)
		if !ok {
			t.Fatalf("unhashable error is %T, want *object.Error", err)
		}
		if ferr.TypeName() != "TypeError" {
			t.Fatalf("unhashable raised %q, want TypeError", ferr.TypeName())
		}
	})
}

func TestCallWithArgsAndKwargs(t *testing.T) {
	withToken(t, func(backend *nativetest.Runtime, tok *gil.Token) {
		fn := backend.NewCallable(func(rt *nativetest.Runtime, args []native.RawObject, kw native.RawObject) native.RawObject {
			var sum int64
			for _, a := range args {
				v, ok := rt.LongAsInt64(a)
				if !ok {
					rt.Raise("TypeError", "argument is not an integer")
					return 0
				}
				sum += v
			}
			if kw != 0 {
				key := rt.UnicodeFromString("bonus")
				defer rt.DecRef(key)
				if v := rt.ObjectGetItem(kw, key); v != 0 {
					defer rt.DecRef(v)
					if b, ok := rt.LongAsInt64(v); ok {
						sum += b
					}
				} else {
					rt.ErrClear()
				}
			}
			return rt.LongFromInt64(sum)
		})
		callable, err := object.FromOwnedRaw(tok, fn)
		if err != nil {
			t.Fatal(err)
		}
		defer callable.Release(tok)
		ref := callable.Borrow()

		if !ref.IsCallable(tok) {
			t.Fatal("callable not reported as callable")
		}

		res, err := ref.Call(tok, []any{1, 2, 3}, map[string]any{"bonus": 10})
		if err != nil {
			t.Fatal(err)
		}
		defer res.Release(tok)
		v, err := object.AsInt64(tok, res.Borrow())
		if err != nil {
			t.Fatal(err)
		}
		if v != 16 {
			t.Fatalf("call result = %d, want 16", v)
		}
	})
}

func TestCallMethodShortCircuitsOnMissingAttr(t *testing.T) {
	withToken(t, func(backend *nativetest.Runtime, tok *gil.Token) {
		called := false
		obj, err := object.FromOwnedRaw(tok, backend.NewObject())
		if err != nil {
			t.Fatal(err)
		}
		defer obj.Release(tok)
		ref := obj.Borrow()

		fn, err := object.FromOwnedRaw(tok, backend.NewCallable(
			func(rt *nativetest.Runtime, args []native.RawObject, kw native.RawObject) native.RawObject {
				called = true
				return rt.BoolFromBool(true)
			}))
		if err != nil {
			t.Fatal(err)
		}
		defer fn.Release(tok)
		if err := ref.SetAttr(tok, "ping", fn.Borrow()); err != nil {
			t.Fatal(err)
		}

		// Present attribute: looked up and invoked.
		res, err := ref.CallMethod(tok, "ping", nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		res.Release(tok)
		if !called {
			t.Fatal("present method was not invoked")
		}

		// Missing attribute: the lookup failure short-circuits before any
		// invocation.
		called = false
		_, err = ref.CallMethod(tok, "pong", nil, nil)
		ferr, ok := err.(*object.Error)
		if !ok {
			t.Fatalf("missing method error is %T, want *object.Error", err)
		}
		if ferr.TypeName() != "AttributeError" {
			t.Fatalf("missing method raised %q, want AttributeError", ferr.TypeName())
		}
		if called {
			t.Fatal("missing method lookup still invoked something")
		}
	})
}

func TestItemAccess(t *testing.T) {
	withToken(t, func(backend *nativetest.Runtime, tok *gil.Token) {
		dict, err := object.ToObject(tok, map[string]any{"a": 1})
		if err != nil {
			t.Fatal(err)
		}
		defer dict.Release(tok)
		ref := dict.Borrow()

		if err := ref.SetItem(tok, "b", 2); err != nil {
			t.Fatal(err)
		}
		n, err := ref.Len(tok)
		if err != nil {
			t.Fatal(err)
		}
		if n != 2 {
			t.Fatalf("len = %d, want 2", n)
		}

		got, err := ref.GetItem(tok, "b")
		if err != nil {
			t.Fatal(err)
		}
		defer got.Release(tok)
		v, err := object.AsInt64(tok, got.Borrow())
		if err != nil {
			t.Fatal(err)
		}
		if v != 2 {
			t.Fatalf("item = %d, want 2", v)
		}

		if err := ref.DelItem(tok, "a"); err != nil {
			t.Fatal(err)
		}
		_, err = ref.GetItem(tok, "a")
		ferr, ok := err.(*object.Error)
		if !ok {
			t.Fatalf("absent key error is %T, want *object.Error", err)
		}
		if ferr.TypeName() != "KeyError" {
			t.Fatalf("absent key raised %q, want KeyError", ferr.TypeName())
		}
	})
}

func TestTruthinessAndStr(t *testing.T) {
	withToken(t, func(backend *nativetest.Runtime, tok *gil.Token) {
		cases := []struct {
			value any
			truth bool
			str   string
		}{
			{nil, false, "None"},
			{true, true, "True"},
			{int64(0), false, "0"},
			{int64(7), true, "7"},
			{"", false, ""},
			{"x", true, "x"},
		}
		for _, tc := range cases {
			obj, err := object.ToObject(tok, tc.value)
			if err != nil {
				t.Fatalf("convert %v: %v", tc.value, err)
			}
			truth, err := obj.Borrow().IsTrue(tok)
			if err != nil {
				t.Fatalf("truth of %v: %v", tc.value, err)
			}
			if truth != tc.truth {
				t.Errorf("truth of %v = %v, want %v", tc.value, truth, tc.truth)
			}
			s, err := object.StrOf(tok, obj.Borrow())
			if err != nil {
				t.Fatalf("str of %v: %v", tc.value, err)
			}
			if s != tc.str {
				t.Errorf("str of %v = %q, want %q", tc.value, s, tc.str)
			}
			obj.Release(tok)
		}
	})
}

func TestCallArgumentsDoNotLeak(t *testing.T) {
	withToken(t, func(backend *nativetest.Runtime, tok *gil.Token) {
		base := backend.LiveObjects()
		fn, err := object.FromOwnedRaw(tok, backend.NewCallable(
			func(rt *nativetest.Runtime, args []native.RawObject, kw native.RawObject) native.RawObject {
				return rt.BoolFromBool(len(args) == 2)
			}))
		if err != nil {
			t.Fatal(err)
		}

		res, err := fn.Borrow().Call(tok, []any{"a", 1}, nil)
		if err != nil {
			t.Fatal(err)
		}
		res.Release(tok)
		fn.Release(tok)

		if got := backend.LiveObjects(); got != base {
			t.Fatalf("live objects after call = %d, want %d", got, base)
		}
	})
}
