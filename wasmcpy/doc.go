// Package wasmcpy runs an interpreter compiled to WebAssembly under wazero
// and exposes it as a native.Interface backend.
//
// The guest is expected to be built with a thin C shim over the interpreter's
// API that flattens every boundary entry point into an exported function with
// scalar parameters. Handles travel as 32-bit guest pointers widened to
// uint64. Multi-result entry points (the exception triple, the comparison
// result, integer and float extraction) use out-parameter buffers allocated
// with the guest's exported malloc and released with free. String traffic is
// copied through guest memory the same way.
//
// All exports are resolved once at Open; a missing symbol fails open-time
// rather than trapping on first use. A trap during a call is logged with the
// entry-point name and surfaces as that entry point's failure sentinel, so
// higher layers handle a crashed guest the same way they handle an
// interpreter-raised failure.
//
// The required export list is the method set of native.Interface under the
// interp_* naming scheme plus malloc, free and an exported memory; see
// backend.go for the exact names.
package wasmcpy
