package wasm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/eyelog/eyelog-go/internal/safefile"
)

const (
	// MaxWasmFileSize bounds the size of a plugin file (10 MB).
	MaxWasmFileSize = 10 << 20

	// ABIVersion is the plugin ABI implemented by this host.
	ABIVersion = 1

	// InputRegion is the fixed offset where the host writes the input JSON.
	// It lies above the stack and data of a TinyGo module.
	InputRegion = 0x10000

	// InputRegionSize bounds the input JSON of one line.
	InputRegionSize = 8192
)

var requiredExports = []string{"abi_version", "alloc", "free", "parse_extra_line"}

// module is a compiled plugin and the runtime that owns it.
type module struct {
	rt       wazero.Runtime
	compiled wazero.CompiledModule
	cache    wazero.CompilationCache
}

// compile reads and compiles the plugin at path. cacheDir, if not empty,
// holds the wazero compilation cache.
func compile(ctx context.Context, path, cacheDir string, h *host, logger *slog.Logger) (_ *module, err error) {
	code, err := safefile.ReadLimited(path, MaxWasmFileSize)
	if err != nil {
		if errors.Is(err, safefile.ErrTooLarge) {
			return nil, ErrFileTooLarge
		}
		return nil, fmt.Errorf("failed to read wasm file: %w", safefile.SanitizePathError(err))
	}

	cfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	m := &module{}
	if cacheDir != "" {
		if c, cerr := openCache(cacheDir); cerr == nil {
			m.cache = c
			cfg = cfg.WithCompilationCache(c)
			logger.Debug("using wasm compilation cache", "dir", cacheDir)
		} else {
			logger.Warn("wasm compilation cache unavailable", "dir", cacheDir, "error", cerr)
		}
	}

	m.rt = wazero.NewRuntimeWithConfig(ctx, cfg)
	defer func() {
		if err != nil {
			m.close(context.Background())
		}
	}()

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, m.rt); err != nil {
		return nil, &RuntimeError{Op: "wasi instantiation", Err: err}
	}
	if err := h.instantiate(ctx, m.rt); err != nil {
		return nil, &RuntimeError{Op: "host module instantiation", Err: err}
	}

	m.compiled, err = m.rt.CompileModule(ctx, code)
	if err != nil {
		return nil, &RuntimeError{Op: "compilation", Err: err}
	}

	exports := m.compiled.ExportedFunctions()
	for _, name := range requiredExports {
		if _, ok := exports[name]; !ok {
			return nil, &ABIError{Function: name, Reason: "missing required export"}
		}
	}
	return m, nil
}

// close releases the compiled module, then the runtime, then the cache.
// It may be called more than once.
func (m *module) close(ctx context.Context) error {
	var errs []error
	if m.compiled != nil {
		errs = append(errs, m.compiled.Close(ctx))
		m.compiled = nil
	}
	if m.rt != nil {
		errs = append(errs, m.rt.Close(ctx))
		m.rt = nil
	}
	if m.cache != nil {
		errs = append(errs, m.cache.Close(ctx))
		m.cache = nil
	}
	return errors.Join(errs...)
}

func openCache(dir string) (wazero.CompilationCache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return wazero.NewCompilationCacheWithDir(dir)
}

// DefaultCacheDir returns the per-user directory for the compilation
// cache, or "" if the platform has none.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "eyelog", "wasm")
}
