package nativetest

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pyembed/py-runtime/native"
)

type kind int

const (
	kindNone kind = iota
	kindBool
	kindInt
	kindFloat
	kindStr
	kindList
	kindTuple
	kindDict
	kindModule
	kindCallable
	kindExcType
	kindObject
	kindIter
)

// CallFunc is the body of a test callable. args are borrowed; the result
// must be an owned reference, or null with a pending exception raised via
// Raise.
type CallFunc func(rt *Runtime, args []native.RawObject, kw native.RawObject) native.RawObject

type object struct {
	attrs   map[string]native.RawObject
	items   map[string]itemEntry
	call    CallFunc
	seq     []native.RawObject
	s       string
	name    string
	refs    int64
	i       int64
	f       float64
	hash     int64
	pos      int
	kind     kind
	b        bool
	hasHash  bool
	iterFail bool
}

type itemEntry struct {
	key native.RawObject
	val native.RawObject
}

type threadState struct {
	interp native.RawInterpreterState
	dict   native.RawObject
}

type interpState struct {
	dict    native.RawObject
	cleared bool
}

// Runtime is an in-memory implementation of native.Interface: a refcounted
// heap, a pending-exception slot, a module registry, thread and interpreter
// state tables, and a plain mutex standing in for the interpreter lock.
//
// Apart from the lock primitives, methods assume the caller holds the lock,
// exactly like the real boundary.
type Runtime struct {
	objects    map[native.RawObject]*object
	interps    map[native.RawInterpreterState]*interpState
	threads    map[native.RawThreadState]*threadState
	registry   map[native.RawModuleDef]native.RawObject
	importable map[string]native.RawObject
	exc        map[string]native.RawObject
	immortal   map[native.RawObject]bool

	gil sync.Mutex

	pendingT, pendingV, pendingTB native.RawObject

	noneObj, trueObj, falseObj native.RawObject

	mainInterp native.RawInterpreterState
	current    native.RawThreadState

	nextObj    uint64
	nextInterp uint64
	nextThread uint64
}

// New creates a runtime with the none/bool singletons, the builtin exception
// types, and a main interpreter state already in place.
func New() *Runtime {
	r := &Runtime{
		objects:    make(map[native.RawObject]*object),
		interps:    make(map[native.RawInterpreterState]*interpState),
		threads:    make(map[native.RawThreadState]*threadState),
		registry:   make(map[native.RawModuleDef]native.RawObject),
		importable: make(map[string]native.RawObject),
		exc:        make(map[string]native.RawObject),
		immortal:   make(map[native.RawObject]bool),
	}
	r.noneObj = r.alloc(&object{kind: kindNone})
	r.trueObj = r.alloc(&object{kind: kindBool, b: true})
	r.falseObj = r.alloc(&object{kind: kindBool})
	r.immortal[r.noneObj] = true
	r.immortal[r.trueObj] = true
	r.immortal[r.falseObj] = true

	for _, name := range []string{
		"AttributeError", "KeyError", "IndexError", "TypeError",
		"ValueError", "ImportError", "RuntimeError", "SystemError",
	} {
		raw := r.alloc(&object{kind: kindExcType, name: name})
		r.exc[name] = raw
		r.immortal[raw] = true
	}

	r.mainInterp = r.InterpreterNew()
	return r
}

func (r *Runtime) alloc(o *object) native.RawObject {
	r.nextObj++
	raw := native.RawObject(r.nextObj)
	o.refs = 1
	r.objects[raw] = o
	return raw
}

func (r *Runtime) get(raw native.RawObject) *object {
	o, ok := r.objects[raw]
	if !ok {
		panic(fmt.Sprintf("nativetest: dangling handle %d", raw))
	}
	return o
}

// --- reference counting ---

func (r *Runtime) IncRef(raw native.RawObject) { r.get(raw).refs++ }

func (r *Runtime) DecRef(raw native.RawObject) {
	o := r.get(raw)
	o.refs--
	if o.refs > 0 {
		return
	}
	if r.immortal[raw] {
		o.refs = 1
		return
	}
	if o.refs < 0 {
		panic(fmt.Sprintf("nativetest: negative refcount on handle %d", raw))
	}
	delete(r.objects, raw)
	for _, a := range o.attrs {
		r.DecRef(a)
	}
	for _, e := range o.items {
		r.DecRef(e.key)
		r.DecRef(e.val)
	}
	for _, v := range o.seq {
		if v != 0 {
			r.DecRef(v)
		}
	}
}

func (r *Runtime) RefCount(raw native.RawObject) int64 { return r.get(raw).refs }

// --- global lock ---

func (r *Runtime) GILEnsure() native.GILState {
	r.gil.Lock()
	return native.GILUnlocked
}

func (r *Runtime) GILRelease(native.GILState) { r.gil.Unlock() }

func (r *Runtime) GILThreadState() native.RawThreadState { return r.current }

// Locked reports whether some thread holds the lock right now. Test hook.
func (r *Runtime) Locked() bool {
	if r.gil.TryLock() {
		r.gil.Unlock()
		return false
	}
	return true
}

// --- interpreter state ---

func (r *Runtime) InterpreterNew() native.RawInterpreterState {
	r.nextInterp++
	id := native.RawInterpreterState(r.nextInterp)
	r.interps[id] = &interpState{dict: r.DictNew()}
	return id
}

func (r *Runtime) InterpreterClear(id native.RawInterpreterState) {
	st, ok := r.interps[id]
	if !ok {
		panic("nativetest: clear of unknown interpreter state")
	}
	st.cleared = true
}

func (r *Runtime) InterpreterDelete(id native.RawInterpreterState) {
	st, ok := r.interps[id]
	if !ok {
		panic("nativetest: delete of unknown interpreter state")
	}
	if !st.cleared {
		panic("nativetest: delete of interpreter state without clear")
	}
	r.DecRef(st.dict)
	delete(r.interps, id)
}

func (r *Runtime) InterpreterGet() native.RawInterpreterState { return r.mainInterp }

func (r *Runtime) InterpreterGetDict() native.RawObject {
	return r.interps[r.mainInterp].dict
}

func (r *Runtime) InterpreterGetID() int64 { return int64(r.mainInterp) }

// --- thread state ---

func (r *Runtime) ThreadStateNew(interp native.RawInterpreterState) native.RawThreadState {
	r.nextThread++
	id := native.RawThreadState(r.nextThread)
	r.threads[id] = &threadState{interp: interp, dict: r.DictNew()}
	return id
}

func (r *Runtime) ThreadStateClear(id native.RawThreadState) {
	ts, ok := r.threads[id]
	if !ok {
		panic("nativetest: clear of unknown thread state")
	}
	r.DecRef(ts.dict)
	ts.dict = r.DictNew()
}

func (r *Runtime) ThreadStateDelete(id native.RawThreadState) {
	if id == r.current {
		panic("nativetest: generic delete of the current thread state")
	}
	ts, ok := r.threads[id]
	if !ok {
		panic("nativetest: delete of unknown thread state")
	}
	r.DecRef(ts.dict)
	delete(r.threads, id)
}

func (r *Runtime) ThreadStateDeleteCurrent() {
	if r.current == 0 {
		panic("nativetest: delete-current with no current thread state")
	}
	ts := r.threads[r.current]
	r.DecRef(ts.dict)
	delete(r.threads, r.current)
	r.current = 0
}

func (r *Runtime) ThreadStateGet() native.RawThreadState { return r.current }

func (r *Runtime) ThreadStateSwap(id native.RawThreadState) native.RawThreadState {
	prev := r.current
	r.current = id
	return prev
}

func (r *Runtime) ThreadStateGetDict() native.RawObject {
	ts, ok := r.threads[r.current]
	if !ok {
		return 0
	}
	return ts.dict
}

func (r *Runtime) SetAsyncExc(threadID uint64, exc native.RawObject) int {
	if _, ok := r.threads[native.RawThreadState(threadID)]; !ok {
		return 0
	}
	// Injection is modeled as arming the pending slot for that thread's
	// next boundary crossing; the fake keeps one slot.
	r.IncRef(exc)
	r.setPendingRaw(exc, 0, 0)
	return 1
}

// --- module registry ---

func (r *Runtime) StateAddModule(module native.RawObject, def native.RawModuleDef) int {
	if def == 0 {
		r.Raise("SystemError", "module definition is null")
		return -1
	}
	if old, ok := r.registry[def]; ok {
		r.DecRef(old)
	}
	r.IncRef(module)
	r.registry[def] = module
	return 0
}

func (r *Runtime) StateRemoveModule(def native.RawModuleDef) int {
	old, ok := r.registry[def]
	if !ok {
		r.Raise("SystemError", "module not in registry")
		return -1
	}
	r.DecRef(old)
	delete(r.registry, def)
	return 0
}

func (r *Runtime) StateFindModule(def native.RawModuleDef) native.RawObject {
	// Absent means null WITHOUT a pending exception.
	return r.registry[def]
}

// --- pending exception slot ---

func (r *Runtime) ErrOccurred() native.RawObject { return r.pendingT }

func (r *Runtime) ErrFetch() (typ, val, tb native.RawObject) {
	typ, val, tb = r.pendingT, r.pendingV, r.pendingTB
	r.pendingT, r.pendingV, r.pendingTB = 0, 0, 0
	return typ, val, tb
}

func (r *Runtime) ErrClear() {
	typ, val, tb := r.ErrFetch()
	for _, raw := range []native.RawObject{typ, val, tb} {
		if raw != 0 {
			r.DecRef(raw)
		}
	}
}

func (r *Runtime) ErrRestore(typ, val, tb native.RawObject) {
	r.ErrClear()
	r.pendingT, r.pendingV, r.pendingTB = typ, val, tb
}

func (r *Runtime) setPendingRaw(typ, val, tb native.RawObject) {
	r.ErrClear()
	r.pendingT, r.pendingV, r.pendingTB = typ, val, tb
}

// Raise arms the pending slot with one of the builtin exception types.
// Test hook and internal raise path.
func (r *Runtime) Raise(typeName, msg string) {
	typ, ok := r.exc[typeName]
	if !ok {
		panic("nativetest: unknown exception type " + typeName)
	}
	r.IncRef(typ)
	val := r.UnicodeFromString(msg)
	r.setPendingRaw(typ, val, 0)
}

// ExcType returns the builtin exception type object. Borrowed. Test hook.
func (r *Runtime) ExcType(name string) native.RawObject {
	typ, ok := r.exc[name]
	if !ok {
		panic("nativetest: unknown exception type " + name)
	}
	return typ
}

func (r *Runtime) ExcBuiltin(name string) native.RawObject {
	return r.exc[name]
}

func (r *Runtime) ErrGivenExceptionMatches(given, exc native.RawObject) int {
	if given == exc {
		return 1
	}
	// Instances carry no type link in the fake; only type identity matches.
	return 0
}

// --- object protocol ---

func (r *Runtime) attrMap(o *object) map[string]native.RawObject {
	switch o.kind {
	case kindModule, kindObject, kindCallable, kindExcType:
		if o.attrs == nil {
			o.attrs = make(map[string]native.RawObject)
		}
		return o.attrs
	default:
		return nil
	}
}

func (r *Runtime) ObjectHasAttr(raw, name native.RawObject) int {
	o := r.get(raw)
	n := r.get(name)
	if n.kind != kindStr {
		return 0
	}
	attrs := r.attrMap(o)
	if attrs == nil {
		return 0
	}
	if _, ok := attrs[n.s]; ok {
		return 1
	}
	return 0
}

func (r *Runtime) ObjectGetAttr(raw, name native.RawObject) native.RawObject {
	o := r.get(raw)
	n := r.get(name)
	if n.kind != kindStr {
		r.Raise("TypeError", "attribute name must be a string")
		return 0
	}
	attrs := r.attrMap(o)
	if attrs == nil {
		r.Raise("AttributeError", n.s)
		return 0
	}
	v, ok := attrs[n.s]
	if !ok {
		r.Raise("AttributeError", n.s)
		return 0
	}
	r.IncRef(v)
	return v
}

func (r *Runtime) ObjectSetAttr(raw, name, value native.RawObject) int {
	o := r.get(raw)
	n := r.get(name)
	if n.kind != kindStr {
		r.Raise("TypeError", "attribute name must be a string")
		return -1
	}
	attrs := r.attrMap(o)
	if attrs == nil {
		r.Raise("AttributeError", "object has no attributes")
		return -1
	}
	if old, ok := attrs[n.s]; ok {
		r.DecRef(old)
	}
	r.IncRef(value)
	attrs[n.s] = value
	return 0
}

func (r *Runtime) ObjectDelAttr(raw, name native.RawObject) int {
	o := r.get(raw)
	n := r.get(name)
	if n.kind != kindStr {
		r.Raise("TypeError", "attribute name must be a string")
		return -1
	}
	attrs := r.attrMap(o)
	if attrs == nil {
		r.Raise("AttributeError", "object has no attributes")
		return -1
	}
	old, ok := attrs[n.s]
	if !ok {
		r.Raise("AttributeError", n.s)
		return -1
	}
	r.DecRef(old)
	delete(attrs, n.s)
	return 0
}

func (r *Runtime) ObjectCmp(a, b native.RawObject) (int, int) {
	x, y := r.get(a), r.get(b)
	if xn, ok := numeric(x); ok {
		if yn, ok := numeric(y); ok {
			switch {
			case xn < yn:
				return -1, 0
			case xn > yn:
				return 1, 0
			default:
				return 0, 0
			}
		}
	}
	if x.kind == kindStr && y.kind == kindStr {
		return strings.Compare(x.s, y.s), 0
	}
	if a == b {
		return 0, 0
	}
	r.Raise("TypeError", "objects are not orderable")
	return 0, -1
}

func numeric(o *object) (float64, bool) {
	switch o.kind {
	case kindInt:
		return float64(o.i), true
	case kindFloat:
		return o.f, true
	case kindBool:
		if o.b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func (r *Runtime) ObjectStr(raw native.RawObject) native.RawObject {
	o := r.get(raw)
	switch o.kind {
	case kindStr:
		r.IncRef(raw)
		return raw
	case kindNone:
		return r.UnicodeFromString("None")
	case kindBool:
		if o.b {
			return r.UnicodeFromString("True")
		}
		return r.UnicodeFromString("False")
	case kindInt:
		return r.UnicodeFromString(strconv.FormatInt(o.i, 10))
	case kindFloat:
		return r.UnicodeFromString(strconv.FormatFloat(o.f, 'g', -1, 64))
	case kindList, kindTuple:
		parts := make([]string, 0, len(o.seq))
		for _, e := range o.seq {
			if e == 0 {
				parts = append(parts, "<nil>")
				continue
			}
			parts = append(parts, r.strOf(e))
		}
		open, close := "[", "]"
		if o.kind == kindTuple {
			open, close = "(", ")"
		}
		return r.UnicodeFromString(open + strings.Join(parts, ", ") + close)
	case kindDict:
		keys := make([]string, 0, len(o.items))
		for k := range o.items {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			e := o.items[k]
			parts = append(parts, r.strOf(e.key)+": "+r.strOf(e.val))
		}
		return r.UnicodeFromString("{" + strings.Join(parts, ", ") + "}")
	case kindModule:
		return r.UnicodeFromString("<module '" + o.name + "'>")
	case kindExcType:
		return r.UnicodeFromString(o.name)
	case kindCallable:
		return r.UnicodeFromString("<callable>")
	default:
		return r.UnicodeFromString("<object>")
	}
}

func (r *Runtime) strOf(raw native.RawObject) string {
	s := r.ObjectStr(raw)
	defer r.DecRef(s)
	return r.get(s).s
}

func (r *Runtime) ObjectRepr(raw native.RawObject) native.RawObject {
	o := r.get(raw)
	if o.kind == kindStr {
		return r.UnicodeFromString("'" + o.s + "'")
	}
	return r.ObjectStr(raw)
}

func (r *Runtime) ObjectUnicode(raw native.RawObject) native.RawObject {
	return r.ObjectStr(raw)
}

func (r *Runtime) CallableCheck(raw native.RawObject) int {
	switch r.get(raw).kind {
	case kindCallable, kindExcType:
		return 1
	}
	return 0
}

func (r *Runtime) ObjectCall(raw, args, kw native.RawObject) native.RawObject {
	o := r.get(raw)
	var argv []native.RawObject
	if args != 0 {
		argv = r.get(args).seq
	}
	switch o.kind {
	case kindCallable:
		return o.call(r, argv, kw)
	case kindExcType:
		msg := ""
		if len(argv) > 0 {
			msg = r.strOf(argv[0])
		}
		return r.UnicodeFromString(o.name + ": " + msg)
	default:
		r.Raise("TypeError", "object is not callable")
		return 0
	}
}

func (r *Runtime) ObjectHash(raw native.RawObject) int64 {
	o := r.get(raw)
	if o.hasHash {
		return o.hash
	}
	switch o.kind {
	case kindNone:
		return int64(raw)
	case kindBool:
		if o.b {
			return 1
		}
		return 0
	case kindInt:
		return o.i
	case kindStr:
		h := fnv.New64a()
		h.Write([]byte(o.s))
		return int64(h.Sum64() >> 1)
	case kindFloat:
		return int64(o.f)
	default:
		r.Raise("TypeError", "unhashable type")
		return -1
	}
}

func (r *Runtime) ObjectIsTrue(raw native.RawObject) int {
	o := r.get(raw)
	switch o.kind {
	case kindNone:
		return 0
	case kindBool:
		if o.b {
			return 1
		}
		return 0
	case kindInt:
		if o.i != 0 {
			return 1
		}
		return 0
	case kindFloat:
		if o.f != 0 {
			return 1
		}
		return 0
	case kindStr:
		if len(o.s) > 0 {
			return 1
		}
		return 0
	case kindList, kindTuple:
		if len(o.seq) > 0 {
			return 1
		}
		return 0
	case kindDict:
		if len(o.items) > 0 {
			return 1
		}
		return 0
	default:
		return 1
	}
}

func (r *Runtime) ObjectSize(raw native.RawObject) int64 {
	o := r.get(raw)
	switch o.kind {
	case kindStr:
		return int64(len(o.s))
	case kindList, kindTuple:
		return int64(len(o.seq))
	case kindDict:
		return int64(len(o.items))
	default:
		r.Raise("TypeError", "object has no length")
		return -1
	}
}

func (r *Runtime) itemKey(raw native.RawObject) (string, bool) {
	o := r.get(raw)
	switch o.kind {
	case kindNone:
		return "n", true
	case kindBool:
		return "b:" + strconv.FormatBool(o.b), true
	case kindInt:
		return "i:" + strconv.FormatInt(o.i, 10), true
	case kindStr:
		return "s:" + o.s, true
	case kindFloat:
		return "f:" + strconv.FormatFloat(o.f, 'g', -1, 64), true
	default:
		return "", false
	}
}

func (r *Runtime) ObjectGetItem(raw, key native.RawObject) native.RawObject {
	o := r.get(raw)
	switch o.kind {
	case kindDict:
		k, ok := r.itemKey(key)
		if !ok {
			r.Raise("TypeError", "unhashable key")
			return 0
		}
		e, ok := o.items[k]
		if !ok {
			r.Raise("KeyError", r.strOf(key))
			return 0
		}
		r.IncRef(e.val)
		return e.val
	case kindList, kindTuple:
		i, ok := r.get(key).maybeInt()
		if !ok {
			r.Raise("TypeError", "index must be an integer")
			return 0
		}
		if i < 0 || i >= int64(len(o.seq)) {
			r.Raise("IndexError", "index out of range")
			return 0
		}
		r.IncRef(o.seq[i])
		return o.seq[i]
	default:
		r.Raise("TypeError", "object is not subscriptable")
		return 0
	}
}

func (o *object) maybeInt() (int64, bool) {
	if o.kind == kindInt {
		return o.i, true
	}
	return 0, false
}

func (r *Runtime) ObjectSetItem(raw, key, value native.RawObject) int {
	o := r.get(raw)
	switch o.kind {
	case kindDict:
		k, ok := r.itemKey(key)
		if !ok {
			r.Raise("TypeError", "unhashable key")
			return -1
		}
		if old, exists := o.items[k]; exists {
			r.DecRef(old.key)
			r.DecRef(old.val)
		}
		if o.items == nil {
			o.items = make(map[string]itemEntry)
		}
		r.IncRef(key)
		r.IncRef(value)
		o.items[k] = itemEntry{key: key, val: value}
		return 0
	case kindList:
		i, ok := r.get(key).maybeInt()
		if !ok {
			r.Raise("TypeError", "index must be an integer")
			return -1
		}
		if i < 0 || i >= int64(len(o.seq)) {
			r.Raise("IndexError", "assignment index out of range")
			return -1
		}
		r.DecRef(o.seq[i])
		r.IncRef(value)
		o.seq[i] = value
		return 0
	default:
		r.Raise("TypeError", "object does not support item assignment")
		return -1
	}
}

func (r *Runtime) ObjectGetIter(raw native.RawObject) native.RawObject {
	o := r.get(raw)
	switch o.kind {
	case kindList, kindTuple:
		items := make([]native.RawObject, len(o.seq))
		copy(items, o.seq)
		for _, v := range items {
			r.IncRef(v)
		}
		return r.alloc(&object{kind: kindIter, seq: items})
	case kindDict:
		keys := make([]string, 0, len(o.items))
		for k := range o.items {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]native.RawObject, 0, len(keys))
		for _, k := range keys {
			e := o.items[k]
			r.IncRef(e.key)
			items = append(items, e.key)
		}
		return r.alloc(&object{kind: kindIter, seq: items})
	case kindIter:
		r.IncRef(raw)
		return raw
	default:
		r.Raise("TypeError", "object is not iterable")
		return 0
	}
}

func (r *Runtime) IterNext(raw native.RawObject) native.RawObject {
	o := r.get(raw)
	if o.kind != kindIter {
		r.Raise("TypeError", "not an iterator")
		return 0
	}
	if o.pos >= len(o.seq) {
		if o.iterFail {
			r.Raise("RuntimeError", "iterator failed")
		}
		// Exhaustion: null without a pending exception.
		return 0
	}
	v := o.seq[o.pos]
	o.pos++
	r.IncRef(v)
	return v
}

func (r *Runtime) ObjectDelItem(raw, key native.RawObject) int {
	o := r.get(raw)
	if o.kind != kindDict {
		r.Raise("TypeError", "object does not support item deletion")
		return -1
	}
	k, ok := r.itemKey(key)
	if !ok {
		r.Raise("TypeError", "unhashable key")
		return -1
	}
	e, exists := o.items[k]
	if !exists {
		r.Raise("KeyError", r.strOf(key))
		return -1
	}
	r.DecRef(e.key)
	r.DecRef(e.val)
	delete(o.items, k)
	return 0
}

// --- construction and extraction ---

func (r *Runtime) UnicodeFromString(s string) native.RawObject {
	return r.alloc(&object{kind: kindStr, s: s})
}

func (r *Runtime) UnicodeAsString(raw native.RawObject) (string, bool) {
	o := r.get(raw)
	if o.kind != kindStr {
		return "", false
	}
	return o.s, true
}

func (r *Runtime) LongFromInt64(v int64) native.RawObject {
	return r.alloc(&object{kind: kindInt, i: v})
}

func (r *Runtime) LongAsInt64(raw native.RawObject) (int64, bool) {
	o := r.get(raw)
	switch o.kind {
	case kindInt:
		return o.i, true
	case kindBool:
		if o.b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func (r *Runtime) FloatFromFloat64(v float64) native.RawObject {
	return r.alloc(&object{kind: kindFloat, f: v})
}

func (r *Runtime) FloatAsFloat64(raw native.RawObject) (float64, bool) {
	o := r.get(raw)
	switch o.kind {
	case kindFloat:
		return o.f, true
	case kindInt:
		return float64(o.i), true
	}
	return 0, false
}

func (r *Runtime) BoolFromBool(v bool) native.RawObject {
	raw := r.falseObj
	if v {
		raw = r.trueObj
	}
	r.IncRef(raw)
	return raw
}

func (r *Runtime) None() native.RawObject { return r.noneObj }

func (r *Runtime) TupleNew(size int64) native.RawObject {
	return r.alloc(&object{kind: kindTuple, seq: make([]native.RawObject, size)})
}

func (r *Runtime) TupleSetItem(tuple native.RawObject, index int64, value native.RawObject) int {
	o := r.get(tuple)
	if o.kind != kindTuple || index < 0 || index >= int64(len(o.seq)) {
		// Insertion steals the reference even on failure.
		r.DecRef(value)
		r.Raise("SystemError", "bad tuple insertion")
		return -1
	}
	if o.seq[index] != 0 {
		r.DecRef(o.seq[index])
	}
	o.seq[index] = value
	return 0
}

func (r *Runtime) DictNew() native.RawObject {
	return r.alloc(&object{kind: kindDict, items: make(map[string]itemEntry)})
}

func (r *Runtime) ListNew(size int64) native.RawObject {
	return r.alloc(&object{kind: kindList, seq: make([]native.RawObject, size)})
}

func (r *Runtime) ListAppend(list, value native.RawObject) int {
	o := r.get(list)
	if o.kind != kindList {
		r.Raise("TypeError", "append on non-list")
		return -1
	}
	r.IncRef(value)
	o.seq = append(o.seq, value)
	return 0
}

func (r *Runtime) ModuleNew(name string) native.RawObject {
	mod := r.alloc(&object{kind: kindModule, name: name})
	nameObj := r.UnicodeFromString(name)
	r.get(mod).attrs = map[string]native.RawObject{"__name__": nameObj}
	return mod
}

func (r *Runtime) ModuleGetDict(module native.RawObject) native.RawObject {
	o := r.get(module)
	if o.kind != kindModule {
		r.Raise("SystemError", "not a module")
		return 0
	}
	// The registry dict mirrors the module's attributes. Built fresh per
	// call in the fake; the real boundary returns the live dict. Cached so
	// the borrowed contract holds.
	if d, ok := o.attrs["__dict__"]; ok {
		return d
	}
	d := r.DictNew()
	for k, v := range o.attrs {
		key := r.UnicodeFromString(k)
		r.ObjectSetItem(d, key, v)
		r.DecRef(key)
	}
	o.attrs["__dict__"] = d
	return d
}

func (r *Runtime) ModuleGetName(module native.RawObject) (string, bool) {
	o := r.get(module)
	if o.kind != kindModule {
		r.Raise("SystemError", "not a module")
		return "", false
	}
	return o.name, true
}

func (r *Runtime) ImportModule(name native.RawObject) native.RawObject {
	n := r.get(name)
	if n.kind != kindStr {
		r.Raise("TypeError", "module name must be a string")
		return 0
	}
	mod, ok := r.importable[n.s]
	if !ok {
		r.Raise("ImportError", "no module named '"+n.s+"'")
		return 0
	}
	r.IncRef(mod)
	return mod
}

// --- test hooks ---

// NewObject allocates a generic attribute-bearing object. Owned.
func (r *Runtime) NewObject() native.RawObject {
	return r.alloc(&object{kind: kindObject, attrs: make(map[string]native.RawObject)})
}

// NewCallable allocates a callable backed by fn. Owned.
func (r *Runtime) NewCallable(fn CallFunc) native.RawObject {
	return r.alloc(&object{kind: kindCallable, call: fn})
}

// NewIter allocates an iterator over items (taking its own references). When
// fail is set, exhausting the iterator raises RuntimeError instead of
// stopping cleanly. Test hook for the failure half of the null-or-pending
// disambiguation.
func (r *Runtime) NewIter(items []native.RawObject, fail bool) native.RawObject {
	seq := make([]native.RawObject, len(items))
	copy(seq, items)
	for _, v := range seq {
		r.IncRef(v)
	}
	return r.alloc(&object{kind: kindIter, seq: seq, iterFail: fail})
}

// NewHashed allocates an object whose hash is pinned to h, for exercising
// the legitimate -1 hash. Owned.
func (r *Runtime) NewHashed(h int64) native.RawObject {
	return r.alloc(&object{kind: kindObject, attrs: make(map[string]native.RawObject), hash: h, hasHash: true})
}

// RegisterImport makes a module reachable through ImportModule. Takes its
// own reference.
func (r *Runtime) RegisterImport(name string, module native.RawObject) {
	r.IncRef(module)
	r.importable[name] = module
}

// LiveObjects counts heap objects excluding the immortal singletons.
func (r *Runtime) LiveObjects() int {
	n := 0
	for raw := range r.objects {
		if !r.immortal[raw] {
			n++
		}
	}
	return n
}

var _ native.Interface = (*Runtime)(nil)
