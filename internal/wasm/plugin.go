package wasm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tetratelabs/wazero"

	"github.com/eyelog/eyelog-go/pkg/eyelog"
)

const (
	// DefaultTimeout bounds one parse_extra_line call.
	DefaultTimeout = 50 * time.Millisecond

	// MaxOutputSize bounds the reply of one call (1 MB).
	MaxOutputSize = 1 << 20
)

// Option configures Open.
type Option func(*config)

type config struct {
	logger   *slog.Logger
	timeout  time.Duration
	cacheDir string
}

// WithLogger sets the logger for plugin log calls and host warnings.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout sets the per-line call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithCacheDir sets the compilation cache directory. An empty dir disables
// the cache.
func WithCacheDir(dir string) Option {
	return func(c *config) { c.cacheDir = dir }
}

// Plugin is an eyelog.Parser backed by a Wasm module. Every call runs in a
// fresh instance, so a Plugin is safe for concurrent use and plugin state
// does not carry over between lines.
type Plugin struct {
	name    string
	mod     *module
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex // guards mod against Close
	serial atomic.Uint64
}

// Open compiles the plugin at path and checks its ABI version.
func Open(ctx context.Context, path string, opts ...Option) (*Plugin, error) {
	cfg := config{
		logger:   slog.New(slog.DiscardHandler),
		timeout:  DefaultTimeout,
		cacheDir: DefaultCacheDir(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.timeout <= 0 {
		return nil, errors.New("timeout must be positive")
	}

	mod, err := compile(ctx, path, cfg.cacheDir, newHost(cfg.logger), cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load wasm: %w", err)
	}
	if err := checkABI(ctx, mod); err != nil {
		mod.close(context.Background())
		return nil, err
	}
	return &Plugin{name: path, mod: mod, timeout: cfg.timeout, logger: cfg.logger}, nil
}

func checkABI(ctx context.Context, mod *module) error {
	inst, err := mod.rt.InstantiateModule(ctx, mod.compiled, wazero.NewModuleConfig().WithName("plugin-init"))
	if err != nil {
		return &RuntimeError{Op: "instantiation", Err: err}
	}
	defer inst.Close(context.Background())

	res, err := inst.ExportedFunction("abi_version").Call(ctx)
	if err != nil {
		return &RuntimeError{Op: "abi_version call", Err: err}
	}
	if len(res) == 0 {
		return &ABIError{Function: "abi_version", Reason: "no return value"}
	}
	if v := uint32(res[0]); v != ABIVersion {
		return fmt.Errorf("%w: plugin %d, host %d", ErrABIVersionMismatch, v, ABIVersion)
	}
	return nil
}

// Name returns the path the plugin was loaded from.
func (p *Plugin) Name() string { return p.name }

// ParseLine implements eyelog.Parser by calling parse_extra_line.
func (p *Plugin) ParseLine(ctx context.Context, l eyelog.Line) (eyelog.ParseResult, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.mod == nil {
		return eyelog.ParseResult{}, ErrClosed
	}

	in, err := encodeRequest(l)
	if err != nil {
		return eyelog.ParseResult{}, err
	}
	if len(in) > InputRegionSize {
		return eyelog.ParseResult{}, fmt.Errorf("line %d: input too large: %d bytes (max %d)", l.Num, len(in), InputRegionSize)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	name := fmt.Sprintf("plugin-%d", p.serial.Add(1))
	inst, err := p.mod.rt.InstantiateModule(ctx, p.mod.compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return eyelog.ParseResult{}, p.callError(ctx, "instantiation", err)
	}
	defer inst.Close(context.Background())

	mem := inst.Memory()
	if mem == nil || InputRegion+uint32(len(in)) > mem.Size() {
		return eyelog.ParseResult{}, &ABIError{Function: "memory", Reason: "too small for the input region"}
	}
	if !mem.Write(InputRegion, in) {
		return eyelog.ParseResult{}, &ABIError{Function: "memory", Reason: "input write failed"}
	}

	res, err := inst.ExportedFunction("parse_extra_line").Call(ctx, InputRegion, uint64(len(in)))
	if err != nil {
		return eyelog.ParseResult{}, p.callError(ctx, "parse_extra_line call", err)
	}
	if len(res) == 0 {
		return eyelog.ParseResult{}, &ABIError{Function: "parse_extra_line", Reason: "no return value"}
	}

	outPtr, outLen := uint32(res[0]), uint32(res[0]>>32)
	if outLen > MaxOutputSize {
		return eyelog.ParseResult{}, fmt.Errorf("plugin output too large: %d bytes (max %d)", outLen, MaxOutputSize)
	}
	view, ok := mem.Read(outPtr, outLen)
	if !ok {
		return eyelog.ParseResult{}, &ABIError{Function: "parse_extra_line", Reason: "output out of memory bounds"}
	}
	// Read returns a view of guest memory; copy before free.
	out := append([]byte(nil), view...)
	_, _ = inst.ExportedFunction("free").Call(ctx, uint64(outPtr), uint64(outLen))

	return decodeReply(out)
}

func (p *Plugin) callError(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrTimeout
	case ctx.Err() != nil:
		return ctx.Err()
	}
	return &RuntimeError{Op: op, Err: err}
}

// Close releases the plugin. It waits for running calls and may be called
// more than once.
func (p *Plugin) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mod == nil {
		return nil
	}
	err := p.mod.close(context.Background())
	p.mod = nil
	return err
}

var _ eyelog.Parser = (*Plugin)(nil)
