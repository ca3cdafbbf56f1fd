package object_test

import (
	"testing"

	"github.com/pyembed/py-runtime/gil"
	"github.com/pyembed/py-runtime/native/nativetest"
	"github.com/pyembed/py-runtime/object"
)

func TestFetchIsDestructiveExactlyOnce(t *testing.T) {
	withToken(t, func(backend *nativetest.Runtime, tok *gil.Token) {
		backend.Raise("KeyError", "missing")

		if !object.ErrOccurred(tok) {
			t.Fatal("staged exception not reported as pending")
		}
		first := object.Fetch(tok)
		if first == nil {
			t.Fatal("first fetch returned nil")
		}
		if second := object.Fetch(tok); second != nil {
			t.Fatalf("second fetch returned %v, want nil", second)
		}
		if object.ErrOccurred(tok) {
			t.Fatal("exception still pending after fetch")
		}
		first.Release(tok)
	})
}

func TestErrorRendersTypeAndMessage(t *testing.T) {
	withToken(t, func(backend *nativetest.Runtime, tok *gil.Token) {
		backend.Raise("TypeError", "unorderable")
		ferr := object.Fetch(tok)
		if ferr == nil {
			t.Fatal("fetch returned nil")
		}
		defer ferr.Release(tok)

		if got := ferr.Error(); got != "TypeError: unorderable" {
			t.Fatalf("rendered error = %q", got)
		}
		if ferr.TypeName() != "TypeError" {
			t.Fatalf("type name = %q", ferr.TypeName())
		}
		if _, ok := ferr.Value(); !ok {
			t.Fatal("exception value missing")
		}
	})
}

func TestRestoreReArmsPendingSlot(t *testing.T) {
	withToken(t, func(backend *nativetest.Runtime, tok *gil.Token) {
		backend.Raise("ValueError", "boom")
		ferr := object.Fetch(tok)
		if ferr == nil {
			t.Fatal("fetch returned nil")
		}

		ferr.Restore(tok)
		if !object.ErrOccurred(tok) {
			t.Fatal("slot not pending after restore")
		}

		again := object.Fetch(tok)
		if again == nil {
			t.Fatal("re-fetch after restore returned nil")
		}
		if again.TypeName() != "ValueError" {
			t.Fatalf("re-fetched type = %q, want ValueError", again.TypeName())
		}
		again.Release(tok)
	})
}

func TestRestoreOfReleasedErrorPanics(t *testing.T) {
	withToken(t, func(backend *nativetest.Runtime, tok *gil.Token) {
		backend.Raise("ValueError", "boom")
		ferr := object.Fetch(tok)
		ferr.Release(tok)

		defer func() {
			if recover() == nil {
				t.Fatal("restore of released error did not panic")
			}
		}()
		ferr.Restore(tok)
	})
}
