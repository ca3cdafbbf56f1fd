package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	pyruntime "github.com/pyembed/py-runtime"
	"github.com/pyembed/py-runtime/gil"
	"github.com/pyembed/py-runtime/object"
)

// session is the command interpreter behind both the TUI and -eval mode. It
// holds named owned references; every command runs one locked span.
type session struct {
	rt   *pyruntime.Runtime
	vars map[string]*object.Owned
}

func newSession(rt *pyruntime.Runtime) *session {
	return &session{rt: rt, vars: make(map[string]*object.Owned)}
}

func (s *session) close() {
	_ = s.rt.With(func(tok *gil.Token) error {
		for _, v := range s.vars {
			v.Release(tok)
		}
		return nil
	})
	s.vars = nil
}

// exec runs one command line and returns its printable result.
func (s *session) exec(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	cmd, args := fields[0], fields[1:]

	var out string
	err := s.rt.With(func(tok *gil.Token) error {
		var err error
		out, err = s.run(tok, cmd, args)
		return err
	})
	return out, err
}

func (s *session) run(tok *gil.Token, cmd string, args []string) (string, error) {
	switch cmd {
	case "help":
		return helpText, nil
	case "vars":
		return s.listVars(tok)
	case "new":
		return s.cmdNew(tok, args)
	case "import":
		return s.cmdImport(tok, args)
	case "set", "get", "del", "has":
		return s.cmdAttr(tok, cmd, args)
	case "setitem", "getitem", "delitem":
		return s.cmdItem(tok, cmd, args)
	case "call":
		return s.cmdCall(tok, args)
	case "len", "hash", "str", "repr", "refs", "true":
		return s.cmdUnary(tok, cmd, args)
	case "cmp":
		return s.cmdCmp(tok, args)
	case "release":
		return s.cmdRelease(tok, args)
	default:
		return "", fmt.Errorf("unknown command %q; try help", cmd)
	}
}

const helpText = `commands:
  new (dict|list|int|float|str|module) NAME [value]
  import NAME MODULE          bind an imported module
  set OBJ ATTR VALUE          get OBJ ATTR    del OBJ ATTR    has OBJ ATTR
  setitem OBJ KEY VALUE       getitem OBJ KEY    delitem OBJ KEY
  call OBJ [ARGS...]          result is bound to _
  len OBJ   hash OBJ   str OBJ   repr OBJ   true OBJ   refs OBJ
  cmp A B                     three-way comparison
  release NAME                drop the binding's reference
  vars                        list bindings`

func (s *session) lookup(name string) (*object.Owned, error) {
	v, ok := s.vars[name]
	if !ok {
		return nil, fmt.Errorf("no binding %q", name)
	}
	return v, nil
}

// bind stores an owned reference under name, releasing any previous binding.
func (s *session) bind(tok *gil.Token, name string, v *object.Owned) {
	if old, ok := s.vars[name]; ok {
		old.Release(tok)
	}
	s.vars[name] = v
}

// parseValue turns a command argument into a conversion input. A leading $
// names an existing binding; otherwise literals are tried narrowest first.
func (s *session) parseValue(raw string) (any, error) {
	if strings.HasPrefix(raw, "$") {
		v, err := s.lookup(raw[1:])
		if err != nil {
			return nil, err
		}
		return v.Borrow(), nil
	}
	switch raw {
	case "none":
		return nil, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f, nil
	}
	return strings.Trim(raw, `"'`), nil
}

func (s *session) listVars(tok *gil.Token) (string, error) {
	if len(s.vars) == 0 {
		return "(no bindings)", nil
	}
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for i, name := range names {
		v := s.vars[name]
		desc, err := object.StrOf(tok, v.Borrow())
		if err != nil {
			desc = "<unprintable>"
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s = %s (refs %d)", name, desc, v.RefCount(tok))
	}
	return b.String(), nil
}

func (s *session) cmdNew(tok *gil.Token, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("usage: new (dict|list|int|float|str|module) NAME [value]")
	}
	kind, name := args[0], args[1]
	rest := args[2:]

	var v *object.Owned
	var err error
	switch kind {
	case "dict":
		v, err = object.ToObject(tok, map[string]any{})
	case "list":
		v, err = object.ToObject(tok, []any{})
	case "int":
		if len(rest) != 1 {
			return "", fmt.Errorf("usage: new int NAME VALUE")
		}
		var n int64
		if n, err = strconv.ParseInt(rest[0], 10, 64); err != nil {
			return "", err
		}
		v, err = object.ToObject(tok, n)
	case "float":
		if len(rest) != 1 {
			return "", fmt.Errorf("usage: new float NAME VALUE")
		}
		var f float64
		if f, err = strconv.ParseFloat(rest[0], 64); err != nil {
			return "", err
		}
		v, err = object.ToObject(tok, f)
	case "str":
		v, err = object.ToObject(tok, strings.Join(rest, " "))
	case "module":
		modName := name
		if len(rest) == 1 {
			modName = rest[0]
		}
		var mod *object.Module
		if mod, err = object.NewModule(tok, modName); err == nil {
			v = mod.Object().CloneOwned(tok)
			mod.Release(tok)
		}
	default:
		return "", fmt.Errorf("unknown kind %q", kind)
	}
	if err != nil {
		return "", err
	}
	s.bind(tok, name, v)
	return s.describe(tok, name, v), nil
}

func (s *session) cmdImport(tok *gil.Token, args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("usage: import NAME MODULE")
	}
	mod, err := object.ImportModule(tok, args[1])
	if err != nil {
		return "", err
	}
	v := mod.Object().CloneOwned(tok)
	mod.Release(tok)
	s.bind(tok, args[0], v)
	return s.describe(tok, args[0], v), nil
}

func (s *session) cmdAttr(tok *gil.Token, cmd string, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("usage: %s OBJ ATTR [VALUE]", cmd)
	}
	obj, err := s.lookup(args[0])
	if err != nil {
		return "", err
	}
	ref := obj.Borrow()
	attr := args[1]

	switch cmd {
	case "set":
		if len(args) != 3 {
			return "", fmt.Errorf("usage: set OBJ ATTR VALUE")
		}
		value, err := s.parseValue(args[2])
		if err != nil {
			return "", err
		}
		if err := ref.SetAttr(tok, attr, value); err != nil {
			return "", err
		}
		return "ok", nil
	case "get":
		v, err := ref.GetAttr(tok, attr)
		if err != nil {
			return "", err
		}
		s.bind(tok, "_", v)
		return s.describe(tok, "_", v), nil
	case "del":
		if err := ref.DelAttr(tok, attr); err != nil {
			return "", err
		}
		return "ok", nil
	default: // has
		ok, err := ref.HasAttr(tok, attr)
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(ok), nil
	}
}

func (s *session) cmdItem(tok *gil.Token, cmd string, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("usage: %s OBJ KEY [VALUE]", cmd)
	}
	obj, err := s.lookup(args[0])
	if err != nil {
		return "", err
	}
	ref := obj.Borrow()
	key, err := s.parseValue(args[1])
	if err != nil {
		return "", err
	}

	switch cmd {
	case "setitem":
		if len(args) != 3 {
			return "", fmt.Errorf("usage: setitem OBJ KEY VALUE")
		}
		value, err := s.parseValue(args[2])
		if err != nil {
			return "", err
		}
		if err := ref.SetItem(tok, key, value); err != nil {
			return "", err
		}
		return "ok", nil
	case "getitem":
		v, err := ref.GetItem(tok, key)
		if err != nil {
			return "", err
		}
		s.bind(tok, "_", v)
		return s.describe(tok, "_", v), nil
	default: // delitem
		if err := ref.DelItem(tok, key); err != nil {
			return "", err
		}
		return "ok", nil
	}
}

func (s *session) cmdCall(tok *gil.Token, args []string) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("usage: call OBJ [ARGS...]")
	}
	obj, err := s.lookup(args[0])
	if err != nil {
		return "", err
	}
	callArgs := make([]any, 0, len(args)-1)
	for _, a := range args[1:] {
		v, err := s.parseValue(a)
		if err != nil {
			return "", err
		}
		callArgs = append(callArgs, v)
	}
	res, err := obj.Borrow().Call(tok, callArgs, nil)
	if err != nil {
		return "", err
	}
	s.bind(tok, "_", res)
	return s.describe(tok, "_", res), nil
}

func (s *session) cmdUnary(tok *gil.Token, cmd string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: %s OBJ", cmd)
	}
	obj, err := s.lookup(args[0])
	if err != nil {
		return "", err
	}
	ref := obj.Borrow()

	switch cmd {
	case "len":
		n, err := ref.Len(tok)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(n, 10), nil
	case "hash":
		h, err := ref.Hash(tok)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(h, 10), nil
	case "str":
		return object.StrOf(tok, ref)
	case "repr":
		r, err := ref.Repr(tok)
		if err != nil {
			return "", err
		}
		defer r.Release(tok)
		return object.AsString(tok, r.Borrow())
	case "true":
		b, err := ref.IsTrue(tok)
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	default: // refs
		return strconv.FormatInt(ref.RefCount(tok), 10), nil
	}
}

func (s *session) cmdCmp(tok *gil.Token, args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("usage: cmp A B")
	}
	a, err := s.lookup(args[0])
	if err != nil {
		return "", err
	}
	b, err := s.parseValue(args[1])
	if err != nil {
		return "", err
	}
	ord, err := a.Borrow().Compare(tok, b)
	if err != nil {
		return "", err
	}
	return ord.String(), nil
}

func (s *session) cmdRelease(tok *gil.Token, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: release NAME")
	}
	v, err := s.lookup(args[0])
	if err != nil {
		return "", err
	}
	v.Release(tok)
	delete(s.vars, args[0])
	return "released", nil
}

func (s *session) describe(tok *gil.Token, name string, v *object.Owned) string {
	desc, err := object.StrOf(tok, v.Borrow())
	if err != nil {
		desc = "<unprintable>"
	}
	return fmt.Sprintf("%s = %s", name, desc)
}
