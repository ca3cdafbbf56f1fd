package gil

import (
	"runtime"
	"sync"

	"github.com/petermattis/goid"
	"go.uber.org/zap"

	"github.com/pyembed/py-runtime/native"
)

// Token proves that the calling goroutine holds the interpreter lock. Every
// operation that touches the interpreter heap takes a live Token; after the
// final Release the token is dead and its methods panic.
//
// Acquisition is counted: Ensure on a goroutine that already holds a Token
// returns the same Token with its depth incremented, so nested scoped
// acquisitions (callback reentry) balance without deadlocking. The backend
// lock is taken once, on the outermost Ensure, and released once, on the
// outermost Release.
type Token struct {
	rt    native.Interface
	gid   int64
	depth int
	prior native.GILState
	dead  bool
}

// holders maps goroutine id -> *Token for reentrancy detection. Only the
// owning goroutine ever mutates its own entry.
var holders sync.Map

// Ensure blocks until the interpreter lock is free and returns a Token for
// it. It never fails. The calling goroutine is pinned to its OS thread for
// the duration of the outermost hold.
func Ensure(rt native.Interface) *Token {
	gid := goid.Get()
	if v, ok := holders.Load(gid); ok {
		tok := v.(*Token)
		if tok.rt != rt {
			panic("gil: nested Ensure with a different runtime")
		}
		tok.depth++
		return tok
	}

	runtime.LockOSThread()
	prior := rt.GILEnsure()
	tok := &Token{rt: rt, gid: gid, depth: 1, prior: prior}
	holders.Store(gid, tok)
	logger().Debug("gil acquired", zap.Int64("goroutine", gid))
	return tok
}

// Release balances one Ensure. The outermost Release hands the lock back to
// the backend and must be the last operation referencing any handle obtained
// under this token.
func (t *Token) Release() {
	t.check()
	if t.gid != goid.Get() {
		panic("gil: token released on a different goroutine")
	}
	t.depth--
	if t.depth > 0 {
		return
	}
	t.dead = true
	holders.Delete(t.gid)
	t.rt.GILRelease(t.prior)
	runtime.UnlockOSThread()
	logger().Debug("gil released", zap.Int64("goroutine", t.gid))
}

// With runs fn while holding the interpreter lock.
func With(rt native.Interface, fn func(*Token) error) error {
	tok := Ensure(rt)
	defer tok.Release()
	return fn(tok)
}

// Runtime returns the native boundary this token guards.
func (t *Token) Runtime() native.Interface {
	t.check()
	return t.rt
}

// Depth returns the current nesting depth. Mostly a diagnostic.
func (t *Token) Depth() int {
	t.check()
	return t.depth
}

func (t *Token) check() {
	if t == nil || t.dead {
		panic("gil: use of released token")
	}
}

// Held reports whether the calling goroutine currently holds a Token for rt.
func Held(rt native.Interface) bool {
	v, ok := holders.Load(goid.Get())
	if !ok {
		return false
	}
	return v.(*Token).rt == rt
}

// CurrentThreadRegistered reports whether the calling native thread has a
// thread-state registration with the interpreter. Callable without a token.
func CurrentThreadRegistered(rt native.Interface) bool {
	return rt.GILThreadState() != 0
}
