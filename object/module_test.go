package object_test

import (
	"testing"

	"github.com/pyembed/py-runtime/gil"
	"github.com/pyembed/py-runtime/native"
	"github.com/pyembed/py-runtime/native/nativetest"
	"github.com/pyembed/py-runtime/object"
)

// classRenderedBackend renders exception types the way CPython's str() does,
// as "<class 'Name'>" rather than the bare name. Exception handling must not
// depend on the rendered text.
type classRenderedBackend struct {
	*nativetest.Runtime
}

var renderedExcNames = []string{
	"AttributeError", "KeyError", "IndexError", "TypeError",
	"ValueError", "ImportError", "RuntimeError", "SystemError",
}

func (b *classRenderedBackend) ObjectStr(raw native.RawObject) native.RawObject {
	for _, name := range renderedExcNames {
		if raw == b.ExcType(name) {
			return b.UnicodeFromString("<class '" + name + "'>")
		}
	}
	return b.Runtime.ObjectStr(raw)
}

func TestModuleNameAndAdd(t *testing.T) {
	withToken(t, func(backend *nativetest.Runtime, tok *gil.Token) {
		mod, err := object.NewModule(tok, "spam")
		if err != nil {
			t.Fatal(err)
		}
		defer mod.Release(tok)

		name, err := mod.Name(tok)
		if err != nil {
			t.Fatal(err)
		}
		if name != "spam" {
			t.Fatalf("module name = %q, want spam", name)
		}

		if err := mod.Add(tok, "answer", 42); err != nil {
			t.Fatal(err)
		}
		got, err := mod.Object().GetAttr(tok, "answer")
		if err != nil {
			t.Fatal(err)
		}
		defer got.Release(tok)
		v, err := object.AsInt64(tok, got.Borrow())
		if err != nil {
			t.Fatal(err)
		}
		if v != 42 {
			t.Fatalf("added member = %d, want 42", v)
		}
	})
}

func TestModuleIndexCreatedOnDemand(t *testing.T) {
	withToken(t, func(backend *nativetest.Runtime, tok *gil.Token) {
		mod, err := object.NewModule(tok, "spam")
		if err != nil {
			t.Fatal(err)
		}
		defer mod.Release(tok)

		// A fresh module has no export index; asking for it creates an
		// empty one.
		index, err := mod.Index(tok)
		if err != nil {
			t.Fatal(err)
		}
		if n, err := index.Borrow().Len(tok); err != nil || n != 0 {
			t.Fatalf("fresh index len = (%d, %v), want 0", n, err)
		}
		index.Release(tok)

		if err := mod.Add(tok, "answer", 42); err != nil {
			t.Fatal(err)
		}
		index, err = mod.Index(tok)
		if err != nil {
			t.Fatal(err)
		}
		defer index.Release(tok)
		if n, err := index.Borrow().Len(tok); err != nil || n != 1 {
			t.Fatalf("index len after add = (%d, %v), want 1", n, err)
		}
		entry, err := index.Borrow().GetItem(tok, 0)
		if err != nil {
			t.Fatal(err)
		}
		defer entry.Release(tok)
		if s, err := object.AsString(tok, entry.Borrow()); err != nil || s != "answer" {
			t.Fatalf("index entry = (%q, %v), want answer", s, err)
		}
	})
}

func TestModuleIndexUnderClassRenderedTypes(t *testing.T) {
	backend := &classRenderedBackend{Runtime: nativetest.New()}
	err := gil.With(backend, func(tok *gil.Token) error {
		mod, err := object.NewModule(tok, "spam")
		if err != nil {
			t.Fatal(err)
		}
		defer mod.Release(tok)

		// The rendered type name carries the class wrapper, so matching on
		// text would misclassify the missing-attribute case.
		_, aerr := mod.Object().GetAttr(tok, "nope")
		ferr, ok := aerr.(*object.Error)
		if !ok {
			t.Fatalf("missing attribute error is %T, want *object.Error", aerr)
		}
		if ferr.TypeName() != "<class 'AttributeError'>" {
			t.Fatalf("rendered type = %q, want class form", ferr.TypeName())
		}
		if !ferr.Matches(tok, "AttributeError") {
			t.Fatal("identity match failed for AttributeError")
		}
		if ferr.Matches(tok, "KeyError") {
			t.Fatal("identity match crossed exception types")
		}
		ferr.Release(tok)

		index, err := mod.Index(tok)
		if err != nil {
			t.Fatalf("index on a fresh module failed: %v", err)
		}
		defer index.Release(tok)
		if n, err := index.Borrow().Len(tok); err != nil || n != 0 {
			t.Fatalf("fresh index len = (%d, %v), want 0", n, err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestModuleFilename(t *testing.T) {
	withToken(t, func(backend *nativetest.Runtime, tok *gil.Token) {
		mod, err := object.NewModule(tok, "spam")
		if err != nil {
			t.Fatal(err)
		}
		defer mod.Release(tok)

		if _, err := mod.Filename(tok); err == nil {
			t.Fatal("filename of a fileless module did not fail")
		} else if ferr, ok := err.(*object.Error); !ok || !ferr.Matches(tok, "AttributeError") {
			t.Fatalf("fileless module raised %v, want AttributeError", err)
		} else {
			ferr.Release(tok)
		}

		if err := mod.Object().SetAttr(tok, "__file__", "/lib/spam.py"); err != nil {
			t.Fatal(err)
		}
		file, err := mod.Filename(tok)
		if err != nil {
			t.Fatal(err)
		}
		if file != "/lib/spam.py" {
			t.Fatalf("filename = %q, want /lib/spam.py", file)
		}
	})
}

func TestImportModule(t *testing.T) {
	withToken(t, func(backend *nativetest.Runtime, tok *gil.Token) {
		staged, err := object.NewModule(tok, "os")
		if err != nil {
			t.Fatal(err)
		}
		backend.RegisterImport("os", staged.Object().Raw())
		staged.Release(tok)

		mod, err := object.ImportModule(tok, "os")
		if err != nil {
			t.Fatal(err)
		}
		defer mod.Release(tok)
		if name, err := mod.Name(tok); err != nil || name != "os" {
			t.Fatalf("imported module name = (%q, %v), want os", name, err)
		}

		_, err = object.ImportModule(tok, "no_such_module")
		ferr, ok := err.(*object.Error)
		if !ok {
			t.Fatalf("missing import error is %T, want *object.Error", err)
		}
		if ferr.TypeName() != "ImportError" {
			t.Fatalf("missing import raised %q, want ImportError", ferr.TypeName())
		}
	})
}

func TestAddSubmodule(t *testing.T) {
	withToken(t, func(backend *nativetest.Runtime, tok *gil.Token) {
		parent, err := object.NewModule(tok, "pkg")
		if err != nil {
			t.Fatal(err)
		}
		defer parent.Release(tok)
		child, err := object.NewModule(tok, "pkg.sub")
		if err != nil {
			t.Fatal(err)
		}
		defer child.Release(tok)

		if err := parent.AddSubmodule(tok, child); err != nil {
			t.Fatal(err)
		}
		got, err := parent.Object().GetAttr(tok, "pkg.sub")
		if err != nil {
			t.Fatal(err)
		}
		got.Release(tok)
	})
}

func TestStateDicts(t *testing.T) {
	withToken(t, func(backend *nativetest.Runtime, tok *gil.Token) {
		dict, ok := object.InterpreterDict(tok)
		if !ok {
			t.Fatal("main interpreter has no dict")
		}
		if err := dict.Borrow().SetItem(tok, "k", 1); err != nil {
			t.Fatal(err)
		}
		dict.Release(tok)

		// No thread state is current, so there is no thread-state dict.
		if _, ok := object.ThreadStateDict(tok); ok {
			t.Fatal("thread-state dict present with no current thread state")
		}

		interp := gil.NewInterpreter(tok)
		ts := gil.NewThreadState(tok, interp)
		gil.Swap(tok, ts)
		tsd, ok := object.ThreadStateDict(tok)
		if !ok {
			t.Fatal("thread-state dict missing with a current thread state")
		}
		tsd.Release(tok)
		gil.DeleteCurrent(tok)
	})
}
