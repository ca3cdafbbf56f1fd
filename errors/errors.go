package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the embedding boundary the error occurred
type Phase string

const (
	PhaseAcquire  Phase = "acquire"  // lock acquisition and token handling
	PhaseState    Phase = "state"    // thread/interpreter state lifecycle
	PhaseConvert  Phase = "convert"  // host value <-> interpreter object
	PhaseProtocol Phase = "protocol" // generic object protocol operations
	PhaseBackend  Phase = "backend"  // native backend (symbol lookup, traps)
	PhaseRuntime  Phase = "runtime"  // high-level runtime operations
)

// Kind categorizes the error
type Kind string

const (
	KindNotInitialized Kind = "not_initialized"
	KindInvalidInput   Kind = "invalid_input"
	KindConversion     Kind = "conversion"
	KindTrap           Kind = "trap"
	KindState          Kind = "state"
	KindNotFound       Kind = "not_found"
	KindRegistration   Kind = "registration"
)

// Error is the structured host-side error type used throughout the library.
// Foreign exceptions raised by the interpreter are NOT represented here; those
// travel as object.Error values carrying the live exception object.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NotInitialized creates a not-initialized error for a missing or closed component
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Conversion creates a host-value conversion error
func Conversion(goType, detail string) *Error {
	return &Error{
		Phase:  PhaseConvert,
		Kind:   KindConversion,
		Detail: fmt.Sprintf("Go type %s: %s", goType, detail),
	}
}

// State creates a state-lifecycle misuse error
func State(detail string) *Error {
	return &Error{
		Phase:  PhaseState,
		Kind:   KindState,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Trap creates a backend trap error
func Trap(entry string, cause error) *Error {
	return &Error{
		Phase:  PhaseBackend,
		Kind:   KindTrap,
		Detail: fmt.Sprintf("native call %s trapped", entry),
		Cause:  cause,
	}
}

// MissingSymbol creates an error for an unresolved interpreter export
func MissingSymbol(name string) *Error {
	return &Error{
		Phase:  PhaseBackend,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("interpreter export %q not found", name),
	}
}

// Registration creates a module-registry error
func Registration(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindRegistration,
		Detail: what,
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
