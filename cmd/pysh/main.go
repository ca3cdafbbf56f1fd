package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	pyruntime "github.com/pyembed/py-runtime"
	"github.com/pyembed/py-runtime/gil"
	"github.com/pyembed/py-runtime/native"
	"github.com/pyembed/py-runtime/native/nativetest"
	"github.com/pyembed/py-runtime/object"
	"github.com/pyembed/py-runtime/wasmcpy"
)

func main() {
	var (
		wasmFile = flag.String("wasm", "", "Path to an interpreter wasm module (default: in-memory demo heap)")
		eval     = flag.String("eval", "", "Run semicolon-separated commands and exit")
	)
	flag.Parse()

	if err := run(*wasmFile, *eval); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(wasmFile, eval string) error {
	ctx := context.Background()

	var backend native.Interface
	var label string
	switch {
	case wasmFile != "":
		data, err := os.ReadFile(wasmFile)
		if err != nil {
			return fmt.Errorf("read module: %w", err)
		}
		b, err := wasmcpy.Open(ctx, data, nil)
		if err != nil {
			return fmt.Errorf("open backend: %w", err)
		}
		defer b.Close(ctx)
		backend = b
		label = "wasm: " + wasmFile
	default:
		backend = demoBackend()
		label = "in-memory demo heap"
	}

	rt := pyruntime.Open(backend)
	defer rt.Close()
	sess := newSession(rt)

	if eval != "" {
		defer sess.close()
		for _, line := range strings.Split(eval, ";") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			out, err := sess.exec(line)
			if err != nil {
				return err
			}
			if out != "" {
				fmt.Println(out)
			}
		}
		return nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("stdin is not a terminal; use -eval for scripted runs")
	}
	return runInteractive(sess, label)
}

// demoBackend builds an in-memory heap with a few objects to poke at: an
// importable math module with a square function and a pair of constants.
func demoBackend() native.Interface {
	backend := nativetest.New()

	err := gil.With(backend, func(tok *gil.Token) error {
		mod, err := object.NewModule(tok, "demo")
		if err != nil {
			return err
		}
		defer mod.Release(tok)

		square := backend.NewCallable(func(rt *nativetest.Runtime, args []native.RawObject, kw native.RawObject) native.RawObject {
			if len(args) != 1 {
				rt.Raise("TypeError", "square() takes exactly one argument")
				return 0
			}
			v, ok := rt.LongAsInt64(args[0])
			if !ok {
				rt.Raise("TypeError", "square() argument must be an integer")
				return 0
			}
			return rt.LongFromInt64(v * v)
		})
		fn, err := object.FromOwnedRaw(tok, square)
		if err != nil {
			return err
		}
		defer fn.Release(tok)

		if err := mod.Add(tok, "square", fn.Borrow()); err != nil {
			return err
		}
		if err := mod.Add(tok, "answer", 42); err != nil {
			return err
		}
		if err := mod.Add(tok, "pi", 3.14159); err != nil {
			return err
		}
		backend.RegisterImport("demo", mod.Object().Raw())
		return nil
	})
	if err != nil {
		// The demo heap is built from static inputs; a failure here is a
		// programming error.
		panic(err)
	}
	return backend
}
