package object

import (
	"github.com/pyembed/py-runtime/gil"
)

// InterpreterDict returns the current interpreter's state dictionary. The
// entry point returns a borrowed reference; an owned clone is returned. The
// second result is false when the interpreter exposes no dictionary.
func InterpreterDict(tok *gil.Token) (*Owned, bool) {
	raw := tok.Runtime().InterpreterGetDict()
	if raw.IsNull() {
		return nil, false
	}
	return Ref{raw: raw}.CloneOwned(tok), true
}

// ThreadStateDict returns the current thread state's dictionary, creating
// nothing: false means no current thread state or no dictionary. A null here
// carries no pending exception, so it is not an error condition.
func ThreadStateDict(tok *gil.Token) (*Owned, bool) {
	raw := tok.Runtime().ThreadStateGetDict()
	if raw.IsNull() {
		return nil, false
	}
	return Ref{raw: raw}.CloneOwned(tok), true
}
