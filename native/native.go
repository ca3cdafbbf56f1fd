package native

// RawObject is a raw reference into the interpreter heap. The zero value is
// the null handle. RawObject carries no ownership information; classifying a
// raw result as owned or borrowed is fixed per entry point and done by the
// object package, never at runtime.
type RawObject uint64

// IsNull reports whether the handle is the null handle.
func (r RawObject) IsNull() bool { return r == 0 }

// RawThreadState identifies one native thread's binding to an interpreter.
type RawThreadState uint64

// RawInterpreterState identifies one interpreter instance.
type RawInterpreterState uint64

// RawModuleDef is the opaque identity of a module definition, used as the key
// for the interpreter's module registry.
type RawModuleDef uint64

// GILState is the two-valued lock state returned by GILEnsure and consumed by
// GILRelease.
type GILState int

const (
	GILLocked GILState = iota
	GILUnlocked
)

func (s GILState) String() string {
	if s == GILLocked {
		return "locked"
	}
	return "unlocked"
}

// Interface enumerates every native entry point of the embedded interpreter.
// One method per foreign call, raw handles in and out, sentinel-value error
// signaling exactly as the C API defines it: null handle for object-returning
// calls, -1 or nonzero status for integer-returning calls. Nothing in this
// package interprets sentinels; that is the object package's job.
//
// Every method except GILEnsure must only be called while the calling thread
// holds the interpreter lock. Higher layers enforce this through gil.Token.
type Interface interface {
	// Reference counting. IncRef and DecRef never fail. RefCount is a
	// diagnostic read of the current count.
	IncRef(o RawObject)
	DecRef(o RawObject)
	RefCount(o RawObject) int64

	// Global interpreter lock. GILEnsure blocks until the lock is free and
	// returns the thread's prior state; GILRelease consumes that state.
	// GILThreadState returns the thread-state registration of the calling
	// native thread, or null if it has none.
	GILEnsure() GILState
	GILRelease(state GILState)
	GILThreadState() RawThreadState

	// Interpreter state lifecycle. Clear must precede Delete.
	InterpreterNew() RawInterpreterState
	InterpreterClear(interp RawInterpreterState)
	InterpreterDelete(interp RawInterpreterState)
	InterpreterGet() RawInterpreterState
	InterpreterGetDict() RawObject // borrowed
	InterpreterGetID() int64

	// Thread state lifecycle. ThreadStateDelete must never be handed the
	// current thread state; ThreadStateDeleteCurrent is the dedicated
	// operation for that.
	ThreadStateNew(interp RawInterpreterState) RawThreadState
	ThreadStateClear(ts RawThreadState)
	ThreadStateDelete(ts RawThreadState)
	ThreadStateDeleteCurrent()
	ThreadStateGet() RawThreadState
	ThreadStateSwap(ts RawThreadState) RawThreadState
	ThreadStateGetDict() RawObject // borrowed

	// SetAsyncExc installs a pending exception on another thread. Returns
	// the number of thread states modified (0 or 1; anything else is a
	// foreign-runtime fault).
	SetAsyncExc(threadID uint64, exc RawObject) int

	// Module registry, keyed by module-definition identity.
	StateAddModule(module RawObject, def RawModuleDef) int
	StateRemoveModule(def RawModuleDef) int
	StateFindModule(def RawModuleDef) RawObject // borrowed

	// Pending-exception slot. ErrOccurred returns a borrowed reference to
	// the pending exception type, or null. ErrFetch retrieves and clears
	// the slot (owned triple); ErrRestore is its inverse, consuming the
	// triple's ownership.
	ErrOccurred() RawObject
	ErrFetch() (typ, val, tb RawObject)
	ErrClear()
	ErrRestore(typ, val, tb RawObject)

	// Exception classification. ExcBuiltin returns the named builtin
	// exception type, or null if the runtime does not define it (borrowed).
	// ErrGivenExceptionMatches reports whether given (an exception type or
	// instance) matches exc, including subclasses.
	ExcBuiltin(name string) RawObject
	ErrGivenExceptionMatches(given, exc RawObject) int

	// Object protocol. Owned results unless noted.
	ObjectHasAttr(o, name RawObject) int
	ObjectGetAttr(o, name RawObject) RawObject
	ObjectSetAttr(o, name, value RawObject) int
	ObjectDelAttr(o, name RawObject) int
	ObjectCmp(a, b RawObject) (result, status int)
	ObjectStr(o RawObject) RawObject
	ObjectRepr(o RawObject) RawObject
	ObjectUnicode(o RawObject) RawObject
	CallableCheck(o RawObject) int
	ObjectCall(o, args, kw RawObject) RawObject
	ObjectHash(o RawObject) int64
	ObjectIsTrue(o RawObject) int
	ObjectSize(o RawObject) int64
	ObjectGetItem(o, key RawObject) RawObject
	ObjectSetItem(o, key, value RawObject) int
	ObjectDelItem(o, key RawObject) int

	// Iteration. ObjectGetIter returns a new iterator over the object.
	// IterNext returns the next element, or null for both exhaustion and
	// failure; only a pending exception distinguishes the two.
	ObjectGetIter(o RawObject) RawObject
	IterNext(it RawObject) RawObject

	// Construction and extraction of primitive values. Constructors return
	// owned handles, or null with a pending exception.
	UnicodeFromString(s string) RawObject
	UnicodeAsString(o RawObject) (string, bool)
	LongFromInt64(v int64) RawObject
	LongAsInt64(o RawObject) (int64, bool)
	FloatFromFloat64(v float64) RawObject
	FloatAsFloat64(o RawObject) (float64, bool)
	BoolFromBool(v bool) RawObject
	None() RawObject

	// Containers needed for call argument packing and module indexes.
	TupleNew(size int64) RawObject
	TupleSetItem(tuple RawObject, index int64, value RawObject) int // steals value
	DictNew() RawObject
	ListNew(size int64) RawObject
	ListAppend(list, value RawObject) int

	// Modules.
	ModuleNew(name string) RawObject
	ModuleGetDict(module RawObject) RawObject // borrowed
	ModuleGetName(module RawObject) (string, bool)
	ImportModule(name RawObject) RawObject
}
