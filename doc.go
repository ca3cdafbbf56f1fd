// Package pyruntime provides a memory-safe Go boundary around an embedded
// Python interpreter.
//
// The interpreter manages its objects with reference counts and serializes
// all access behind a global lock. Neither discipline exists in Go, so this
// library encodes both in the API surface: lock possession is a value you
// must hold, and reference ownership is a type you cannot duplicate or leak
// by accident.
//
// # Architecture Overview
//
// The library is organized into layered packages:
//
//	py-runtime/          Root package with the high-level Runtime
//	├── gil/             Lock token acquisition and thread/interpreter states
//	├── object/          Owned/borrowed references, protocol, conversions
//	├── native/          Raw boundary: one method per interpreter entry point
//	├── native/nativetest/ In-memory backend for tests and the shell
//	├── wasmcpy/         wazero-backed interpreter compiled to WebAssembly
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Open a runtime over a backend and do all interpreter work inside With:
//
//	rt := pyruntime.Open(backend)
//	defer rt.Close()
//
//	err := rt.With(func(tok *gil.Token) error {
//	    obj, err := object.ToObject(tok, "hello")
//	    if err != nil {
//	        return err
//	    }
//	    defer obj.Release(tok)
//
//	    s, err := obj.Borrow().Str(tok)
//	    fmt.Println(s)
//	    return err
//	})
//
// # Ownership
//
// Every object reference is either owned or borrowed. An object.Owned holds
// one count that exactly one Release must drop; an object.Ref is a view with
// no release operation at all. Results crossing the boundary are classified
// per entry point, never guessed at runtime.
//
// # Errors
//
// Interpreter failures surface as *object.Error carrying the fetched
// exception triple; host-side misuse surfaces as *errors.Error with a phase
// and kind. Both unwrap normally.
package pyruntime
