package gil_test

import (
	"testing"

	"github.com/pyembed/py-runtime/gil"
	"github.com/pyembed/py-runtime/native/nativetest"
)

func TestInterpreterClearBeforeDelete(t *testing.T) {
	backend := nativetest.New()
	err := gil.With(backend, func(tok *gil.Token) error {
		interp := gil.NewInterpreter(tok)

		if err := interp.Delete(tok); err == nil {
			t.Error("delete before clear succeeded")
		}
		if err := interp.Clear(tok); err != nil {
			t.Fatalf("clear: %v", err)
		}
		if err := interp.Delete(tok); err != nil {
			t.Fatalf("delete after clear: %v", err)
		}
		if err := interp.Delete(tok); err == nil {
			t.Error("double delete succeeded")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestCurrentInterpreterRefusesTeardown(t *testing.T) {
	backend := nativetest.New()
	err := gil.With(backend, func(tok *gil.Token) error {
		cur := gil.CurrentInterpreter(tok)
		if err := cur.Clear(tok); err == nil {
			t.Error("clear of current interpreter succeeded")
		}
		if err := cur.Delete(tok); err == nil {
			t.Error("delete of current interpreter succeeded")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestThreadStateDeleteRefusesCurrent(t *testing.T) {
	backend := nativetest.New()
	err := gil.With(backend, func(tok *gil.Token) error {
		interp := gil.NewInterpreter(tok)
		ts := gil.NewThreadState(tok, interp)

		prev := gil.Swap(tok, ts)
		if prev != nil {
			t.Fatalf("initial swap returned %v, want nil", prev)
		}

		if err := ts.Delete(tok); err == nil {
			t.Fatal("generic delete of the current thread state succeeded")
		}

		gil.DeleteCurrent(tok)
		if cur := gil.CurrentThreadState(tok); cur != nil {
			t.Fatal("a thread state is still current after DeleteCurrent")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestSwapRestores(t *testing.T) {
	backend := nativetest.New()
	err := gil.With(backend, func(tok *gil.Token) error {
		interp := gil.NewInterpreter(tok)
		first := gil.NewThreadState(tok, interp)
		second := gil.NewThreadState(tok, interp)

		gil.Swap(tok, first)
		prev := gil.Swap(tok, second)
		if prev == nil || prev.Raw() != first.Raw() {
			t.Fatal("swap did not return the previously current state")
		}

		restored := gil.Swap(tok, prev)
		if restored == nil || restored.Raw() != second.Raw() {
			t.Fatal("restoring swap did not return the displaced state")
		}
		if cur := gil.CurrentThreadState(tok); cur == nil || cur.Raw() != first.Raw() {
			t.Fatal("first state not current after restore")
		}

		// Teardown in a valid order.
		if err := second.Delete(tok); err != nil {
			t.Fatalf("delete non-current: %v", err)
		}
		gil.DeleteCurrent(tok)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
