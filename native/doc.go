// Package native declares the call boundary to the embedded interpreter.
//
// The boundary is a single Interface enumerating every foreign entry point
// the rest of the library is allowed to use: state constructors and
// destructors, the global lock primitives, the pending-exception slot, the
// module registry, the generic object protocol, and primitive-value
// construction. Raw handles (RawObject and friends) are opaque integers; no
// raw handle should ever be visible above the object package, which wraps
// them with ownership tracking.
//
// Error signaling at this level is the interpreter's own: a null RawObject
// from handle-returning calls, -1 or a nonzero status from integer-returning
// calls. Sentinels are translated into structured errors one layer up.
//
// Two implementations exist: wasmcpy drives an interpreter compiled to WASM
// through wazero, and nativetest provides an in-memory heap for tests and
// the demo CLI.
package native
