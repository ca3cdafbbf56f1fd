// Package gil manages the interpreter's global lock and the thread and
// interpreter state registry.
//
// All access to the interpreter heap is serialized by one process-wide lock.
// A Token is the capability proving the calling goroutine holds that lock;
// every heap-touching operation in the object package takes one. Tokens are
// counted, so acquiring again while already holding nests instead of
// deadlocking, and the backend lock is released only by the outermost
// Release.
//
// The usual shape is scoped:
//
//	err := gil.With(rt, func(tok *gil.Token) error {
//	    obj, err := object.ImportModule(tok, "json")
//	    ...
//	})
//
// # Thread affinity
//
// The lock is a thread-level concept in the interpreter, so the holding
// goroutine is pinned to its OS thread (runtime.LockOSThread) for the
// duration of the outermost hold. Tokens must be released on the goroutine
// that acquired them.
//
// # State registry
//
// Interpreter teardown is Clear then Delete, in that order; Delete refuses
// anything else. A thread state that is current on some thread can only be
// destroyed through DeleteCurrent — the generic Delete refuses the current
// state. Swap transfers thread affinity and returns the previous state so
// callers can restore it on exit.
package gil
