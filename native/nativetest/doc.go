// Package nativetest provides an in-memory implementation of native.Interface
// for tests and the interactive shell.
//
// The fake keeps a refcounted heap of typed objects (none, bool, int, float,
// string, list, tuple, dict, module, callable, exception type), a single
// pending-exception slot, thread and interpreter state tables, and a plain
// mutex standing in for the interpreter lock. It reproduces the boundary's
// sentinel conventions faithfully: object-returning calls yield the null
// handle with a pending exception on failure, integer-returning calls yield
// -1 or a nonzero status, and TupleSetItem steals its value reference even
// when the insertion fails.
//
// Hooks beyond the interface let tests stage scenarios:
//
//   - NewObject, NewCallable and NewHashed allocate host-defined objects.
//     NewHashed pins the hash, which is how the legitimate -1 hash value is
//     exercised.
//   - Raise arms the pending slot with one of the builtin exception types.
//   - RegisterImport makes a module visible to ImportModule.
//   - LiveObjects and Locked expose heap and lock state for leak and
//     lock-discipline assertions.
package nativetest
