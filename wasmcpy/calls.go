package wasmcpy

import (
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/pyembed/py-runtime/native"
)

// call invokes a guest entry point. A trap is logged and reported as !ok;
// the caller then returns its failure sentinel, which higher layers translate
// the same way they translate interpreter-raised failures.
func (b *Backend) call(f api.Function, args ...uint64) ([]uint64, bool) {
	results, err := f.Call(b.ctx, args...)
	if err != nil {
		b.logger.Error("guest trap",
			zap.String("entry", f.Definition().Name()),
			zap.Error(err))
		return nil, false
	}
	return results, true
}

// call1 is call for entry points with exactly one result.
func (b *Backend) call1(f api.Function, args ...uint64) (uint64, bool) {
	results, ok := b.call(f, args...)
	if !ok || len(results) == 0 {
		return 0, false
	}
	return results[0], true
}

// callVoid is call for entry points with no result.
func (b *Backend) callVoid(f api.Function, args ...uint64) {
	b.call(f, args...)
}

// --- guest memory helpers ---

// writeString copies s into guest memory as a NUL-terminated buffer. The
// caller must free the returned pointer.
func (b *Backend) writeString(s string) (uint32, bool) {
	ptr, ok := b.call1(b.fn.malloc, uint64(len(s)+1))
	if !ok || ptr == 0 {
		return 0, false
	}
	buf := append([]byte(s), 0)
	if !b.mem.Write(uint32(ptr), buf) {
		b.freePtr(uint32(ptr))
		b.logger.Error("guest memory write out of range", zap.Uint64("ptr", ptr))
		return 0, false
	}
	return uint32(ptr), true
}

func (b *Backend) freePtr(ptr uint32) {
	b.callVoid(b.fn.free, uint64(ptr))
}

// readCString reads a NUL-terminated string from guest memory.
func (b *Backend) readCString(ptr uint32) (string, bool) {
	var out []byte
	for off := ptr; ; off++ {
		c, ok := b.mem.ReadByte(off)
		if !ok {
			return "", false
		}
		if c == 0 {
			return string(out), true
		}
		out = append(out, c)
	}
}

// scratch allocates an out-parameter buffer in guest memory.
func (b *Backend) scratch(size uint64) (uint32, bool) {
	ptr, ok := b.call1(b.fn.malloc, size)
	if !ok || ptr == 0 {
		return 0, false
	}
	return uint32(ptr), true
}

// --- reference counting ---

func (b *Backend) IncRef(o native.RawObject) { b.callVoid(b.fn.incRef, uint64(o)) }
func (b *Backend) DecRef(o native.RawObject) { b.callVoid(b.fn.decRef, uint64(o)) }

func (b *Backend) RefCount(o native.RawObject) int64 {
	v, ok := b.call1(b.fn.refCount, uint64(o))
	if !ok {
		return -1
	}
	return int64(v)
}

// --- global lock ---

func (b *Backend) GILEnsure() native.GILState {
	v, _ := b.call1(b.fn.gilEnsure)
	if v == 0 {
		return native.GILLocked
	}
	return native.GILUnlocked
}

func (b *Backend) GILRelease(state native.GILState) {
	v := uint64(1)
	if state == native.GILLocked {
		v = 0
	}
	b.callVoid(b.fn.gilRelease, v)
}

func (b *Backend) GILThreadState() native.RawThreadState {
	v, _ := b.call1(b.fn.gilThreadState)
	return native.RawThreadState(v)
}

// --- interpreter state ---

func (b *Backend) InterpreterNew() native.RawInterpreterState {
	v, _ := b.call1(b.fn.interpNew)
	return native.RawInterpreterState(v)
}

func (b *Backend) InterpreterClear(interp native.RawInterpreterState) {
	b.callVoid(b.fn.interpClear, uint64(interp))
}

func (b *Backend) InterpreterDelete(interp native.RawInterpreterState) {
	b.callVoid(b.fn.interpDelete, uint64(interp))
}

func (b *Backend) InterpreterGet() native.RawInterpreterState {
	v, _ := b.call1(b.fn.interpGet)
	return native.RawInterpreterState(v)
}

func (b *Backend) InterpreterGetDict() native.RawObject {
	v, _ := b.call1(b.fn.interpGetDict)
	return native.RawObject(v)
}

func (b *Backend) InterpreterGetID() int64 {
	v, _ := b.call1(b.fn.interpGetID)
	return int64(v)
}

// --- thread state ---

func (b *Backend) ThreadStateNew(interp native.RawInterpreterState) native.RawThreadState {
	v, _ := b.call1(b.fn.tsNew, uint64(interp))
	return native.RawThreadState(v)
}

func (b *Backend) ThreadStateClear(ts native.RawThreadState) {
	b.callVoid(b.fn.tsClear, uint64(ts))
}

func (b *Backend) ThreadStateDelete(ts native.RawThreadState) {
	b.callVoid(b.fn.tsDelete, uint64(ts))
}

func (b *Backend) ThreadStateDeleteCurrent() {
	b.callVoid(b.fn.tsDeleteCurrent)
}

func (b *Backend) ThreadStateGet() native.RawThreadState {
	v, _ := b.call1(b.fn.tsGet)
	return native.RawThreadState(v)
}

func (b *Backend) ThreadStateSwap(ts native.RawThreadState) native.RawThreadState {
	v, _ := b.call1(b.fn.tsSwap, uint64(ts))
	return native.RawThreadState(v)
}

func (b *Backend) ThreadStateGetDict() native.RawObject {
	v, _ := b.call1(b.fn.tsGetDict)
	return native.RawObject(v)
}

func (b *Backend) SetAsyncExc(threadID uint64, exc native.RawObject) int {
	v, ok := b.call1(b.fn.setAsyncExc, threadID, uint64(exc))
	if !ok {
		return 0
	}
	return int(int32(v))
}

// --- module registry ---

func (b *Backend) StateAddModule(module native.RawObject, def native.RawModuleDef) int {
	return b.status(b.fn.stateAddModule, uint64(module), uint64(def))
}

func (b *Backend) StateRemoveModule(def native.RawModuleDef) int {
	return b.status(b.fn.stateRemoveModule, uint64(def))
}

func (b *Backend) StateFindModule(def native.RawModuleDef) native.RawObject {
	v, _ := b.call1(b.fn.stateFindModule, uint64(def))
	return native.RawObject(v)
}

// --- pending-exception slot ---

func (b *Backend) ErrOccurred() native.RawObject {
	v, _ := b.call1(b.fn.errOccurred)
	return native.RawObject(v)
}

func (b *Backend) ErrFetch() (typ, val, tb native.RawObject) {
	// Out-parameter triple: three 32-bit handles written side by side.
	ptr, ok := b.scratch(12)
	if !ok {
		return 0, 0, 0
	}
	defer b.freePtr(ptr)
	if _, ok := b.call(b.fn.errFetch, uint64(ptr)); !ok {
		return 0, 0, 0
	}
	t, ok1 := b.mem.ReadUint32Le(ptr)
	v, ok2 := b.mem.ReadUint32Le(ptr + 4)
	tr, ok3 := b.mem.ReadUint32Le(ptr + 8)
	if !ok1 || !ok2 || !ok3 {
		return 0, 0, 0
	}
	return native.RawObject(t), native.RawObject(v), native.RawObject(tr)
}

func (b *Backend) ErrClear() { b.callVoid(b.fn.errClear) }

func (b *Backend) ExcBuiltin(name string) native.RawObject {
	ptr, ok := b.writeString(name)
	if !ok {
		return 0
	}
	defer b.freePtr(ptr)
	return b.objResult(b.fn.excBuiltin, uint64(ptr))
}

func (b *Backend) ErrGivenExceptionMatches(given, exc native.RawObject) int {
	return b.status(b.fn.errMatches, uint64(given), uint64(exc))
}

func (b *Backend) ErrRestore(typ, val, tb native.RawObject) {
	b.callVoid(b.fn.errRestore, uint64(typ), uint64(val), uint64(tb))
}

// --- object protocol ---

// status runs an entry point whose result is a 0-or-negative C status.
func (b *Backend) status(f api.Function, args ...uint64) int {
	v, ok := b.call1(f, args...)
	if !ok {
		return -1
	}
	return int(int32(v))
}

// objResult runs an entry point returning an object handle, null on failure.
func (b *Backend) objResult(f api.Function, args ...uint64) native.RawObject {
	v, ok := b.call1(f, args...)
	if !ok {
		return 0
	}
	return native.RawObject(v)
}

func (b *Backend) ObjectHasAttr(o, name native.RawObject) int {
	return b.status(b.fn.hasAttr, uint64(o), uint64(name))
}

func (b *Backend) ObjectGetAttr(o, name native.RawObject) native.RawObject {
	return b.objResult(b.fn.getAttr, uint64(o), uint64(name))
}

func (b *Backend) ObjectSetAttr(o, name, value native.RawObject) int {
	return b.status(b.fn.setAttr, uint64(o), uint64(name), uint64(value))
}

func (b *Backend) ObjectDelAttr(o, name native.RawObject) int {
	return b.status(b.fn.delAttr, uint64(o), uint64(name))
}

func (b *Backend) ObjectCmp(x, y native.RawObject) (result, status int) {
	ptr, ok := b.scratch(4)
	if !ok {
		return 0, -1
	}
	defer b.freePtr(ptr)
	status = b.status(b.fn.cmp, uint64(x), uint64(y), uint64(ptr))
	if status != 0 {
		return 0, status
	}
	v, ok := b.mem.ReadUint32Le(ptr)
	if !ok {
		return 0, -1
	}
	return int(int32(v)), 0
}

func (b *Backend) ObjectStr(o native.RawObject) native.RawObject {
	return b.objResult(b.fn.str, uint64(o))
}

func (b *Backend) ObjectRepr(o native.RawObject) native.RawObject {
	return b.objResult(b.fn.repr, uint64(o))
}

func (b *Backend) ObjectUnicode(o native.RawObject) native.RawObject {
	return b.objResult(b.fn.unicode, uint64(o))
}

func (b *Backend) CallableCheck(o native.RawObject) int {
	return b.status(b.fn.callableCheck, uint64(o))
}

func (b *Backend) ObjectCall(o, args, kw native.RawObject) native.RawObject {
	return b.objResult(b.fn.call, uint64(o), uint64(args), uint64(kw))
}

func (b *Backend) ObjectHash(o native.RawObject) int64 {
	v, ok := b.call1(b.fn.hash, uint64(o))
	if !ok {
		return -1
	}
	return int64(v)
}

func (b *Backend) ObjectIsTrue(o native.RawObject) int {
	return b.status(b.fn.isTrue, uint64(o))
}

func (b *Backend) ObjectSize(o native.RawObject) int64 {
	v, ok := b.call1(b.fn.size, uint64(o))
	if !ok {
		return -1
	}
	return int64(v)
}

func (b *Backend) ObjectGetItem(o, key native.RawObject) native.RawObject {
	return b.objResult(b.fn.getItem, uint64(o), uint64(key))
}

func (b *Backend) ObjectSetItem(o, key, value native.RawObject) int {
	return b.status(b.fn.setItem, uint64(o), uint64(key), uint64(value))
}

func (b *Backend) ObjectDelItem(o, key native.RawObject) int {
	return b.status(b.fn.delItem, uint64(o), uint64(key))
}

func (b *Backend) ObjectGetIter(o native.RawObject) native.RawObject {
	return b.objResult(b.fn.getIter, uint64(o))
}

func (b *Backend) IterNext(it native.RawObject) native.RawObject {
	// Null is exhaustion or failure; the caller consults the pending slot.
	v, ok := b.call1(b.fn.iterNext, uint64(it))
	if !ok {
		return 0
	}
	return native.RawObject(v)
}

// --- construction and extraction ---

func (b *Backend) UnicodeFromString(s string) native.RawObject {
	ptr, ok := b.writeString(s)
	if !ok {
		return 0
	}
	defer b.freePtr(ptr)
	return b.objResult(b.fn.unicodeFromString, uint64(ptr), uint64(len(s)))
}

func (b *Backend) UnicodeAsString(o native.RawObject) (string, bool) {
	ptr, ok := b.call1(b.fn.unicodeAsString, uint64(o))
	if !ok || ptr == 0 {
		return "", false
	}
	// The guest returns a pointer into its internal UTF-8 buffer; the
	// string is copied out, nothing to free.
	return b.readCString(uint32(ptr))
}

func (b *Backend) LongFromInt64(v int64) native.RawObject {
	return b.objResult(b.fn.longFromInt64, uint64(v))
}

func (b *Backend) LongAsInt64(o native.RawObject) (int64, bool) {
	ptr, ok := b.scratch(8)
	if !ok {
		return 0, false
	}
	defer b.freePtr(ptr)
	if b.status(b.fn.longAsInt64, uint64(o), uint64(ptr)) != 0 {
		return 0, false
	}
	v, ok := b.mem.ReadUint64Le(ptr)
	if !ok {
		return 0, false
	}
	return int64(v), true
}

func (b *Backend) FloatFromFloat64(v float64) native.RawObject {
	return b.objResult(b.fn.floatFromFloat64, api.EncodeF64(v))
}

func (b *Backend) FloatAsFloat64(o native.RawObject) (float64, bool) {
	ptr, ok := b.scratch(8)
	if !ok {
		return 0, false
	}
	defer b.freePtr(ptr)
	if b.status(b.fn.floatAsFloat64, uint64(o), uint64(ptr)) != 0 {
		return 0, false
	}
	v, ok := b.mem.ReadFloat64Le(ptr)
	if !ok {
		return 0, false
	}
	return v, true
}

func (b *Backend) BoolFromBool(v bool) native.RawObject {
	arg := uint64(0)
	if v {
		arg = 1
	}
	return b.objResult(b.fn.boolFromBool, arg)
}

func (b *Backend) None() native.RawObject {
	v, _ := b.call1(b.fn.none)
	return native.RawObject(v)
}

// --- containers ---

func (b *Backend) TupleNew(size int64) native.RawObject {
	return b.objResult(b.fn.tupleNew, uint64(size))
}

func (b *Backend) TupleSetItem(tuple native.RawObject, index int64, value native.RawObject) int {
	return b.status(b.fn.tupleSetItem, uint64(tuple), uint64(index), uint64(value))
}

func (b *Backend) DictNew() native.RawObject {
	return b.objResult(b.fn.dictNew)
}

func (b *Backend) ListNew(size int64) native.RawObject {
	return b.objResult(b.fn.listNew, uint64(size))
}

func (b *Backend) ListAppend(list, value native.RawObject) int {
	return b.status(b.fn.listAppend, uint64(list), uint64(value))
}

// --- modules ---

func (b *Backend) ModuleNew(name string) native.RawObject {
	ptr, ok := b.writeString(name)
	if !ok {
		return 0
	}
	defer b.freePtr(ptr)
	return b.objResult(b.fn.moduleNew, uint64(ptr))
}

func (b *Backend) ModuleGetDict(module native.RawObject) native.RawObject {
	return b.objResult(b.fn.moduleGetDict, uint64(module))
}

func (b *Backend) ModuleGetName(module native.RawObject) (string, bool) {
	ptr, ok := b.call1(b.fn.moduleGetName, uint64(module))
	if !ok || ptr == 0 {
		return "", false
	}
	return b.readCString(uint32(ptr))
}

func (b *Backend) ImportModule(name native.RawObject) native.RawObject {
	return b.objResult(b.fn.importModule, uint64(name))
}
