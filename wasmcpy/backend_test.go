package wasmcpy

import (
	"context"
	"errors"
	"testing"

	hosterr "github.com/pyembed/py-runtime/errors"
)

// emptyModule is the smallest valid wasm binary: magic and version, no
// sections. It instantiates cleanly and exports nothing.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func TestOpenRejectsInvalidBinary(t *testing.T) {
	_, err := Open(context.Background(), []byte("not wasm"), nil)
	if err == nil {
		t.Fatal("Open accepted garbage bytes")
	}
	var herr *hosterr.Error
	if !errors.As(err, &herr) {
		t.Fatalf("Open returned %T, want structured error", err)
	}
	if herr.Phase != hosterr.PhaseBackend {
		t.Errorf("error phase = %s, want %s", herr.Phase, hosterr.PhaseBackend)
	}
}

func TestOpenReportsMissingExports(t *testing.T) {
	_, err := Open(context.Background(), emptyModule, nil)
	if err == nil {
		t.Fatal("Open accepted a module with no exports")
	}
	var herr *hosterr.Error
	if !errors.As(err, &herr) {
		t.Fatalf("Open returned %T, want structured error", err)
	}
	if herr.Kind != hosterr.KindNotFound {
		t.Errorf("error kind = %s, want %s", herr.Kind, hosterr.KindNotFound)
	}
}
