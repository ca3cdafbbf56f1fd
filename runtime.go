package pyruntime

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	hosterr "github.com/pyembed/py-runtime/errors"
	"github.com/pyembed/py-runtime/gil"
	"github.com/pyembed/py-runtime/native"
	"github.com/pyembed/py-runtime/object"
)

// Runtime is the high-level handle to an embedded interpreter backend. It
// owns nothing inside the interpreter; it gates access to it. All work
// happens inside With, which supplies the lock token the lower layers
// require.
type Runtime struct {
	backend native.Interface
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runtime) { r.logger = logger }
}

// Open wraps backend in a Runtime. The backend must already be initialized;
// Open performs no interpreter calls.
func Open(backend native.Interface, opts ...Option) *Runtime {
	r := &Runtime{
		backend: backend,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// With acquires the interpreter lock, runs fn with the resulting token, and
// releases the lock when fn returns. This is the everyday entry point: every
// interpreter interaction happens inside some With call, directly or through
// a reentrant nested one.
func (r *Runtime) With(fn func(tok *gil.Token) error) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return hosterr.NotInitialized(hosterr.PhaseAcquire, "runtime is closed")
	}
	r.mu.Unlock()
	return gil.With(r.backend, fn)
}

// Backend returns the underlying native interface.
func (r *Runtime) Backend() native.Interface { return r.backend }

// Close marks the runtime closed. Further With calls fail. Close does not
// tear down the backend; backends with resources of their own (such as the
// wasm backend) have their own Close.
func (r *Runtime) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.logger.Info("runtime closed")
}

// AddModule registers module under def in the interpreter's module registry.
// The registry takes its own reference; the caller keeps ownership of module.
func (r *Runtime) AddModule(tok *gil.Token, module *object.Module, def native.RawModuleDef) error {
	if status := tok.Runtime().StateAddModule(module.Object().Raw(), def); status != 0 {
		if ferr := object.Fetch(tok); ferr != nil {
			return ferr
		}
		return hosterr.InvalidInput(hosterr.PhaseState, "module registration failed without a pending exception")
	}
	r.logger.Debug("module registered", zap.Uint64("def", uint64(def)))
	return nil
}

// RemoveModule drops the registration under def.
func (r *Runtime) RemoveModule(tok *gil.Token, def native.RawModuleDef) error {
	if status := tok.Runtime().StateRemoveModule(def); status != 0 {
		if ferr := object.Fetch(tok); ferr != nil {
			return ferr
		}
		return hosterr.InvalidInput(hosterr.PhaseState, "module removal failed without a pending exception")
	}
	return nil
}

// FindModule looks up the registration under def. The second result is false
// when no module is registered; that is not an error.
func (r *Runtime) FindModule(tok *gil.Token, def native.RawModuleDef) (*object.Module, bool) {
	raw := tok.Runtime().StateFindModule(def)
	if raw.IsNull() {
		return nil, false
	}
	ref, err := object.FromBorrowedRaw(tok, raw)
	if err != nil {
		return nil, false
	}
	return object.AsModule(ref.CloneOwned(tok)), true
}

// InterruptThread installs exc as a pending asynchronous exception on the
// thread identified by threadID. It reports whether a thread was found; any
// other modification count is a backend fault.
func (r *Runtime) InterruptThread(tok *gil.Token, threadID uint64, exc object.Ref) (bool, error) {
	n := tok.Runtime().SetAsyncExc(threadID, exc.Raw())
	switch n {
	case 0:
		return false, nil
	case 1:
		r.logger.Debug("async exception installed", zap.Uint64("thread_id", threadID))
		return true, nil
	default:
		return false, hosterr.State(fmt.Sprintf("async exception injection modified %d thread states", n))
	}
}
