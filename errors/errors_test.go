package errors

import (
	"errors"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseConvert,
				Kind:   KindConversion,
				Detail: "cannot convert chan int",
			},
			contains: []string{"[convert]", "conversion", "cannot convert chan int"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseState,
				Kind:  KindState,
			},
			contains: []string{"[state]", "state"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseBackend,
				Kind:   KindTrap,
				Detail: "native call ObjectCall trapped",
				Cause:  errors.New("unreachable executed"),
			},
			contains: []string{"[backend]", "trap", "ObjectCall", "caused by", "unreachable executed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !containsSubstring(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseBackend,
		Kind:  KindTrap,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	// Test with errors.Unwrap
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase:  PhaseConvert,
		Kind:   KindConversion,
		Detail: "anything",
	}

	// Same phase and kind
	if !err.Is(&Error{Phase: PhaseConvert, Kind: KindConversion}) {
		t.Error("Is should match same phase and kind")
	}

	// Different phase
	if err.Is(&Error{Phase: PhaseProtocol, Kind: KindConversion}) {
		t.Error("Is should not match different phase")
	}

	// Different kind
	if err.Is(&Error{Phase: PhaseConvert, Kind: KindInvalidInput}) {
		t.Error("Is should not match different kind")
	}

	// Test with errors.Is
	target := &Error{Phase: PhaseConvert, Kind: KindConversion}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseRuntime, KindRegistration).
		Cause(cause).
		Detail("register module %q", "spam").
		Build()

	if err.Phase != PhaseRuntime {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseRuntime)
	}
	if err.Kind != KindRegistration {
		t.Errorf("Kind = %v, want %v", err.Kind, KindRegistration)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != `register module "spam"` {
		t.Errorf("Detail = %v, want register module \"spam\"", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("NotInitialized", func(t *testing.T) {
		err := NotInitialized(PhaseRuntime, "runtime")
		if err.Kind != KindNotInitialized {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotInitialized)
		}
		if !containsSubstring(err.Detail, "runtime") {
			t.Errorf("Detail = %v, should name the component", err.Detail)
		}
	})

	t.Run("InvalidInput", func(t *testing.T) {
		err := InvalidInput(PhaseProtocol, "nil receiver")
		if err.Kind != KindInvalidInput {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidInput)
		}
	})

	t.Run("Conversion", func(t *testing.T) {
		err := Conversion("chan int", "unsupported type")
		if err.Kind != KindConversion {
			t.Errorf("Kind = %v, want %v", err.Kind, KindConversion)
		}
		if !containsSubstring(err.Detail, "chan int") {
			t.Errorf("Detail = %v, should contain the Go type", err.Detail)
		}
	})

	t.Run("State", func(t *testing.T) {
		err := State("delete before clear")
		if err.Kind != KindState {
			t.Errorf("Kind = %v, want %v", err.Kind, KindState)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseRuntime, "module", "spam")
		if err.Kind != KindNotFound {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotFound)
		}
		if !containsSubstring(err.Detail, `"spam"`) {
			t.Errorf("Detail = %v, should contain the name", err.Detail)
		}
	})

	t.Run("Trap", func(t *testing.T) {
		cause := errors.New("out of bounds memory access")
		err := Trap("ObjectGetAttr", cause)
		if err.Kind != KindTrap {
			t.Errorf("Kind = %v, want %v", err.Kind, KindTrap)
		}
		if !errors.Is(err, &Error{Phase: PhaseBackend, Kind: KindTrap}) {
			t.Error("Trap should match PhaseBackend/KindTrap")
		}
		if !errors.Is(err.Cause, cause) {
			t.Error("Trap should keep the cause")
		}
	})

	t.Run("MissingSymbol", func(t *testing.T) {
		err := MissingSymbol("PyObject_Hash")
		if err.Kind != KindNotFound {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotFound)
		}
		if !containsSubstring(err.Detail, "PyObject_Hash") {
			t.Errorf("Detail = %v, should contain symbol name", err.Detail)
		}
	})

	t.Run("Registration", func(t *testing.T) {
		cause := errors.New("duplicate")
		err := Registration("add module", cause)
		if err.Kind != KindRegistration {
			t.Errorf("Kind = %v, want %v", err.Kind, KindRegistration)
		}
		if !errors.Is(err.Cause, cause) {
			t.Error("Registration should keep the cause")
		}
	})
}

func containsSubstring(s, substr string) bool {
	if len(substr) == 0 {
		return true
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
