package wasmcpy

import (
	"context"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	hosterr "github.com/pyembed/py-runtime/errors"
	"github.com/pyembed/py-runtime/native"
)

// Config holds configuration for backend creation.
type Config struct {
	// MemoryLimitPages sets the maximum guest memory in pages (64KB each).
	// 0 means the wazero default.
	MemoryLimitPages uint32

	// Logger receives trap reports. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Backend implements native.Interface over an interpreter compiled to
// WebAssembly and run under wazero. Every interface method is one exported
// guest call; a guest trap is logged and surfaces as the entry point's
// failure sentinel.
type Backend struct {
	ctx     context.Context
	runtime wazero.Runtime
	module  api.Module
	mem     api.Memory
	logger  *zap.Logger
	fn      exports
}

// exports holds the resolved guest entry points. All of them are required;
// Open fails up front when any is missing rather than trapping mid-call.
type exports struct {
	malloc, free api.Function

	incRef, decRef, refCount api.Function

	gilEnsure, gilRelease, gilThreadState api.Function

	interpNew, interpClear, interpDelete      api.Function
	interpGet, interpGetDict, interpGetID     api.Function
	tsNew, tsClear, tsDelete, tsDeleteCurrent api.Function
	tsGet, tsSwap, tsGetDict, setAsyncExc     api.Function
	stateAddModule, stateRemoveModule         api.Function
	stateFindModule                           api.Function

	errOccurred, errFetch, errClear, errRestore api.Function
	excBuiltin, errMatches                      api.Function

	hasAttr, getAttr, setAttr, delAttr api.Function
	cmp, str, repr, unicode            api.Function
	callableCheck, call                api.Function
	hash, isTrue, size                 api.Function
	getItem, setItem, delItem          api.Function
	getIter, iterNext                  api.Function

	unicodeFromString, unicodeAsString api.Function
	longFromInt64, longAsInt64         api.Function
	floatFromFloat64, floatAsFloat64   api.Function
	boolFromBool, none                 api.Function

	tupleNew, tupleSetItem, dictNew api.Function
	listNew, listAppend             api.Function

	moduleNew, moduleGetDict, moduleGetName, importModule api.Function
}

// Open compiles and instantiates the guest module and resolves every entry
// point. The guest is expected to be an interpreter built with the boundary
// shim, which exposes the handle-based entry points listed in the package
// documentation alongside malloc and free.
func Open(ctx context.Context, wasmBytes []byte, cfg *Config) (*Backend, error) {
	logger := zap.NewNop()
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.Logger != nil {
			logger = cfg.Logger
		}
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	wasi_snapshot_preview1.MustInstantiate(ctx, runtime)

	compiled, err := runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, hosterr.Wrap(hosterr.PhaseBackend, hosterr.KindInvalidInput, err, "compile guest module")
	}

	module, err := runtime.InstantiateModule(ctx, compiled,
		wazero.NewModuleConfig().WithName("interp").WithStartFunctions("_initialize"))
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, hosterr.Wrap(hosterr.PhaseBackend, hosterr.KindInvalidInput, err, "instantiate guest module")
	}

	b := &Backend{
		ctx:     ctx,
		runtime: runtime,
		module:  module,
		mem:     module.Memory(),
		logger:  logger,
	}
	if err := b.resolve(); err != nil {
		_ = runtime.Close(ctx)
		return nil, err
	}
	if b.mem == nil {
		_ = runtime.Close(ctx)
		return nil, hosterr.MissingSymbol("memory")
	}
	return b, nil
}

func (b *Backend) resolve() error {
	var missing []string
	lookup := func(name string) api.Function {
		f := b.module.ExportedFunction(name)
		if f == nil {
			missing = append(missing, name)
		}
		return f
	}

	b.fn = exports{
		malloc: lookup("malloc"),
		free:   lookup("free"),

		incRef:   lookup("interp_incref"),
		decRef:   lookup("interp_decref"),
		refCount: lookup("interp_refcount"),

		gilEnsure:      lookup("interp_gil_ensure"),
		gilRelease:     lookup("interp_gil_release"),
		gilThreadState: lookup("interp_gil_thread_state"),

		interpNew:     lookup("interp_state_new"),
		interpClear:   lookup("interp_state_clear"),
		interpDelete:  lookup("interp_state_delete"),
		interpGet:     lookup("interp_state_get"),
		interpGetDict: lookup("interp_state_get_dict"),
		interpGetID:   lookup("interp_state_get_id"),

		tsNew:           lookup("interp_ts_new"),
		tsClear:         lookup("interp_ts_clear"),
		tsDelete:        lookup("interp_ts_delete"),
		tsDeleteCurrent: lookup("interp_ts_delete_current"),
		tsGet:           lookup("interp_ts_get"),
		tsSwap:          lookup("interp_ts_swap"),
		tsGetDict:       lookup("interp_ts_get_dict"),
		setAsyncExc:     lookup("interp_ts_set_async_exc"),

		stateAddModule:    lookup("interp_mod_add"),
		stateRemoveModule: lookup("interp_mod_remove"),
		stateFindModule:   lookup("interp_mod_find"),

		errOccurred: lookup("interp_err_occurred"),
		errFetch:    lookup("interp_err_fetch"),
		errClear:    lookup("interp_err_clear"),
		errRestore:  lookup("interp_err_restore"),
		excBuiltin:  lookup("interp_exc_builtin"),
		errMatches:  lookup("interp_err_matches"),

		hasAttr:       lookup("interp_obj_hasattr"),
		getAttr:       lookup("interp_obj_getattr"),
		setAttr:       lookup("interp_obj_setattr"),
		delAttr:       lookup("interp_obj_delattr"),
		cmp:           lookup("interp_obj_cmp"),
		str:           lookup("interp_obj_str"),
		repr:          lookup("interp_obj_repr"),
		unicode:       lookup("interp_obj_unicode"),
		callableCheck: lookup("interp_obj_callable"),
		call:          lookup("interp_obj_call"),
		hash:          lookup("interp_obj_hash"),
		isTrue:        lookup("interp_obj_istrue"),
		size:          lookup("interp_obj_size"),
		getItem:       lookup("interp_obj_getitem"),
		setItem:       lookup("interp_obj_setitem"),
		delItem:       lookup("interp_obj_delitem"),
		getIter:       lookup("interp_obj_getiter"),
		iterNext:      lookup("interp_iter_next"),

		unicodeFromString: lookup("interp_str_new"),
		unicodeAsString:   lookup("interp_str_utf8"),
		longFromInt64:     lookup("interp_int_new"),
		longAsInt64:       lookup("interp_int_value"),
		floatFromFloat64:  lookup("interp_float_new"),
		floatAsFloat64:    lookup("interp_float_value"),
		boolFromBool:      lookup("interp_bool_new"),
		none:              lookup("interp_none"),

		tupleNew:     lookup("interp_tuple_new"),
		tupleSetItem: lookup("interp_tuple_setitem"),
		dictNew:      lookup("interp_dict_new"),
		listNew:      lookup("interp_list_new"),
		listAppend:   lookup("interp_list_append"),

		moduleNew:     lookup("interp_module_new"),
		moduleGetDict: lookup("interp_module_dict"),
		moduleGetName: lookup("interp_module_name"),
		importModule:  lookup("interp_import"),
	}

	if len(missing) > 0 {
		return hosterr.MissingSymbol(strings.Join(missing, ", "))
	}
	return nil
}

// Close releases the wazero runtime and everything instantiated in it.
func (b *Backend) Close(ctx context.Context) error {
	return b.runtime.Close(ctx)
}

var _ native.Interface = (*Backend)(nil)
