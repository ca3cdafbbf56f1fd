// Package errors provides structured host-side error types for the library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). These errors describe faults on the Go side of the boundary:
// misuse of the API, conversion failures, backend traps. Exceptions raised by
// the embedded interpreter are a different thing entirely and are carried as
// object.Error values wrapping the live exception object.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseConvert, errors.KindConversion).
//		Detail("cannot convert chan int").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotInitialized(errors.PhaseRuntime, "runtime")
//	err := errors.MissingSymbol("PyObject_GetAttr")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
