// Package object wraps raw interpreter references with ownership tracking
// and implements the generic object protocol over them.
//
// # Ownership
//
// Every wrapped reference is either owned or borrowed. Owned carries the
// obligation to decrement the reference count exactly once, discharged by
// Release (or by an entry point that steals the reference). Ref is the
// borrowed view: it has no release operation at all, only CloneOwned for
// taking a reference of one's own. Which kind a raw result becomes is a
// fixed property of the entry point that produced it and is hard-coded at
// each call site.
//
// Null raws are never wrapped. Constructors that can receive one route it
// through error translation instead.
//
// # Error translation
//
// The interpreter signals failure out of band: a null handle from
// object-returning entry points, a nonzero status or -1 from integer ones.
// Translation funnels every sentinel through one path — Fetch, which
// destructively retrieves the pending exception as an Error owning the
// (type, value, traceback) triple. For the ambiguous -1 sentinels (hash,
// truthiness, length) the pending flag decides: no pending exception means
// -1 was the real value and it passes through untouched.
//
// # Protocol
//
// The thirteen protocol operations are methods on Ref, so both owned and
// borrowed references share one implementation. Each performs exactly one
// raw call and routes the result through translation. CallMethod is
// composed from GetAttr then Call; a failed lookup short-circuits.
//
// All operations take a live gil.Token. References must not outlive the
// token they were obtained under.
package object
