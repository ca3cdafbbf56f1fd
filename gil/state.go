package gil

import (
	"github.com/pyembed/py-runtime/errors"
	"github.com/pyembed/py-runtime/native"
)

// Interpreter wraps one interpreter-state identity. Interpreters are never
// copied, only referenced; teardown is Clear followed by Delete, strictly in
// that order.
type Interpreter struct {
	raw     native.RawInterpreterState
	cleared bool
	deleted bool
}

// NewInterpreter creates a fresh interpreter state.
func NewInterpreter(tok *Token) *Interpreter {
	return &Interpreter{raw: tok.Runtime().InterpreterNew()}
}

// CurrentInterpreter returns the interpreter state of the calling thread.
// The returned wrapper refers to state owned elsewhere; Clear and Delete on
// it are refused.
func CurrentInterpreter(tok *Token) *Interpreter {
	return &Interpreter{raw: tok.Runtime().InterpreterGet(), cleared: true, deleted: true}
}

// Raw exposes the opaque identity, for state constructors that need it.
func (i *Interpreter) Raw() native.RawInterpreterState { return i.raw }

// ID returns the interpreter's numeric identity.
func ID(tok *Token) int64 {
	return tok.Runtime().InterpreterGetID()
}

// Clear resets the interpreter's state. Must precede Delete.
func (i *Interpreter) Clear(tok *Token) error {
	if i.deleted {
		return errors.State("clear of deleted interpreter state")
	}
	tok.Runtime().InterpreterClear(i.raw)
	i.cleared = true
	return nil
}

// Delete destroys the interpreter state. Refused unless Clear ran first.
func (i *Interpreter) Delete(tok *Token) error {
	if i.deleted {
		return errors.State("double delete of interpreter state")
	}
	if !i.cleared {
		return errors.State("interpreter state must be cleared before delete")
	}
	tok.Runtime().InterpreterDelete(i.raw)
	i.deleted = true
	return nil
}

// ThreadState wraps one native thread's binding to an interpreter.
type ThreadState struct {
	raw     native.RawThreadState
	deleted bool
}

// NewThreadState creates a thread state bound to interp.
func NewThreadState(tok *Token, interp *Interpreter) *ThreadState {
	return &ThreadState{raw: tok.Runtime().ThreadStateNew(interp.Raw())}
}

// CurrentThreadState returns the thread state current on the calling thread,
// or nil if none is current.
func CurrentThreadState(tok *Token) *ThreadState {
	raw := tok.Runtime().ThreadStateGet()
	if raw == 0 {
		return nil
	}
	return &ThreadState{raw: raw}
}

// Raw exposes the opaque identity.
func (ts *ThreadState) Raw() native.RawThreadState { return ts.raw }

// Clear resets the thread state's contents.
func (ts *ThreadState) Clear(tok *Token) error {
	if ts.deleted {
		return errors.State("clear of deleted thread state")
	}
	tok.Runtime().ThreadStateClear(ts.raw)
	return nil
}

// Delete destroys a thread state that is NOT current on any thread. Deleting
// the current one goes through DeleteCurrent; this method refuses it, since
// handing the current state to the generic teardown is undefined behavior at
// the interpreter level.
func (ts *ThreadState) Delete(tok *Token) error {
	if ts.deleted {
		return errors.State("double delete of thread state")
	}
	if tok.Runtime().ThreadStateGet() == ts.raw {
		return errors.State("cannot delete the current thread state; use DeleteCurrent")
	}
	tok.Runtime().ThreadStateDelete(ts.raw)
	ts.deleted = true
	return nil
}

// DeleteCurrent destroys the thread state that is current on the calling
// thread. This is the only way to delete the current state.
func DeleteCurrent(tok *Token) {
	tok.Runtime().ThreadStateDeleteCurrent()
}

// Swap makes ts current on the calling thread and returns the previous
// current state (nil if there was none). Passing nil swaps in no state. The
// returned value lets callers restore on exit:
//
//	prev := gil.Swap(tok, ts)
//	defer gil.Swap(tok, prev)
func Swap(tok *Token, ts *ThreadState) *ThreadState {
	var raw native.RawThreadState
	if ts != nil {
		raw = ts.raw
	}
	prev := tok.Runtime().ThreadStateSwap(raw)
	if prev == 0 {
		return nil
	}
	return &ThreadState{raw: prev}
}
