package object

import (
	hosterr "github.com/pyembed/py-runtime/errors"
	"github.com/pyembed/py-runtime/gil"
)

// Module wraps an interpreter module object.
type Module struct {
	obj *Owned
}

// NewModule creates a fresh module object with the given name.
func NewModule(tok *gil.Token, name string) (*Module, error) {
	obj, err := ownedOrErr(tok, tok.Runtime().ModuleNew(name))
	if err != nil {
		return nil, err
	}
	return &Module{obj: obj}, nil
}

// ImportModule imports a module by name.
func ImportModule(tok *gil.Token, name string) (*Module, error) {
	n, err := ToObject(tok, name)
	if err != nil {
		return nil, err
	}
	defer n.Release(tok)
	obj, err := ownedOrErr(tok, tok.Runtime().ImportModule(n.raw))
	if err != nil {
		return nil, err
	}
	return &Module{obj: obj}, nil
}

// AsModule wraps an owned reference that is already known to be a module
// object. It takes ownership of obj.
func AsModule(obj *Owned) *Module {
	return &Module{obj: obj}
}

// Object returns the borrowed view of the module object.
func (m *Module) Object() Ref { return m.obj.Borrow() }

// Release drops the module reference.
func (m *Module) Release(tok *gil.Token) { m.obj.Release(tok) }

// Dict returns the module's symbol table. The entry point returns a borrowed
// reference; a reference of our own is taken so the table stays valid
// independent of the module object.
func (m *Module) Dict(tok *gil.Token) (*Owned, error) {
	ref, err := FromBorrowedRaw(tok, tok.Runtime().ModuleGetDict(m.obj.raw))
	if err != nil {
		return nil, err
	}
	return ref.CloneOwned(tok), nil
}

// Name returns the module's name attribute.
func (m *Module) Name(tok *gil.Token) (string, error) {
	s, ok := tok.Runtime().ModuleGetName(m.obj.raw)
	if !ok {
		if e := Fetch(tok); e != nil {
			return "", e
		}
		return "", hosterr.InvalidInput(hosterr.PhaseProtocol, "module has no name")
	}
	return s, nil
}

// Filename returns the module's __file__ attribute. Modules that were not
// loaded from a file raise AttributeError, which propagates as-is.
func (m *Module) Filename(tok *gil.Token) (string, error) {
	f, err := m.obj.GetAttr(tok, "__file__")
	if err != nil {
		return "", err
	}
	defer f.Release(tok)
	return AsString(tok, f.Borrow())
}

// Index returns the module's __all__ list, creating an empty one if the
// attribute does not exist yet. Errors other than a missing attribute
// propagate.
func (m *Module) Index(tok *gil.Token) (*Owned, error) {
	idx, err := m.obj.GetAttr(tok, "__all__")
	if err == nil {
		return idx, nil
	}
	ferr, ok := err.(*Error)
	if !ok || !ferr.Matches(tok, "AttributeError") {
		return nil, err
	}
	ferr.Release(tok)
	list, lerr := ownedOrErr(tok, tok.Runtime().ListNew(0))
	if lerr != nil {
		return nil, lerr
	}
	if serr := m.obj.SetAttr(tok, "__all__", list); serr != nil {
		list.Release(tok)
		return nil, serr
	}
	return list, nil
}

// Add exports a value from the module: appends name to __all__ and assigns
// the attribute.
func (m *Module) Add(tok *gil.Token, name string, value any) error {
	idx, err := m.Index(tok)
	if err != nil {
		return err
	}
	defer idx.Release(tok)

	n, err := ToObject(tok, name)
	if err != nil {
		return err
	}
	status := tok.Runtime().ListAppend(idx.raw, n.raw)
	n.Release(tok)
	if err := errOnNonzero(tok, status); err != nil {
		return err
	}
	return m.obj.SetAttr(tok, name, value)
}

// AddSubmodule exports another module under its own name.
func (m *Module) AddSubmodule(tok *gil.Token, sub *Module) error {
	name, err := sub.Name(tok)
	if err != nil {
		return err
	}
	return m.Add(tok, name, sub.obj)
}
